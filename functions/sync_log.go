package functions

import (
	"context"

	"github.com/Luismorlan/mediamux/model"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// syncTracker keeps the SyncLog row of a running operation up to date.
// Failing to write progress never fails the operation itself.
type syncTracker struct {
	db  *gorm.DB
	log *model.SyncLog
}

func startSync(ctx context.Context, db *gorm.DB, chatId *int64, operation string) (*syncTracker, error) {
	log := &model.SyncLog{
		Id:        uuid.New().String(),
		ChatId:    chatId,
		Operation: operation,
		Status:    model.SyncStatusRunning,
	}
	if err := db.WithContext(ctx).Create(log).Error; err != nil {
		return nil, errors.Wrap(err, "fail to create sync log")
	}
	return &syncTracker{db: db, log: log}, nil
}

func (t *syncTracker) update(ctx context.Context, fields map[string]interface{}) {
	if err := t.db.WithContext(ctx).Model(t.log).Updates(fields).Error; err != nil {
		Logger.Log.Warn("fail to update sync log ", t.log.Id, ": ", err)
	}
}

func (t *syncTracker) progress(ctx context.Context, percent int) {
	t.update(ctx, map[string]interface{}{"progress": percent})
}

func (t *syncTracker) complete(ctx context.Context) {
	t.update(ctx, map[string]interface{}{"status": model.SyncStatusCompleted, "progress": 100})
}

func (t *syncTracker) fail(ctx context.Context, err error) {
	msg := err.Error()
	t.update(ctx, map[string]interface{}{"status": model.SyncStatusFailed, "error_message": &msg})
}
