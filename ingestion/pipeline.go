package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/Luismorlan/mediamux/clients"
	"github.com/Luismorlan/mediamux/file_store"
	"github.com/Luismorlan/mediamux/model"
	"github.com/Luismorlan/mediamux/utils"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/Luismorlan/mediamux/utils/metrics"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FunctionName identifies ingestion rows in the operation log.
const FunctionName = "telegram-webhook"

// TelegramFileApi is the part of the Bot API ingestion needs.
type TelegramFileApi interface {
	GetFile(ctx context.Context, fileId string) (*clients.TelegramFile, error)
	DownloadFile(ctx context.Context, filePath string) ([]byte, string, error)
}

// Result describes what one update produced. Skipped is set when the update
// carried no message.
type Result struct {
	Skipped   bool   `json:"-"`
	ChatId    int64  `json:"chat_id"`
	MessageId int64  `json:"message_id"`
	MediaId   string `json:"media_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// Pipeline stores telegram updates: channel, sender, media and message, in
// that order. It is safe for concurrent use, every call is independent and
// redelivered updates converge on the same rows.
type Pipeline struct {
	db       *gorm.DB
	telegram TelegramFileApi
	store    file_store.MediaFileStore
	now      func() time.Time
}

func NewPipeline(db *gorm.DB, telegram TelegramFileApi, store file_store.MediaFileStore) *Pipeline {
	return &Pipeline{db: db, telegram: telegram, store: store, now: time.Now}
}

// Process ingests one update and records the outcome in the operation log.
func (p *Pipeline) Process(ctx context.Context, update *clients.TelegramUpdate) (res *Result, err error) {
	defer func() {
		p.recordOutcome(res, err)
	}()

	msg := update.EffectiveMessage()
	if msg == nil || msg.Chat == nil {
		return &Result{Skipped: true}, nil
	}
	log := Logger.Log.WithFields(logrus.Fields{"chat_id": msg.Chat.Id, "message_id": msg.MessageId})
	res = &Result{ChatId: msg.Chat.Id, MessageId: msg.MessageId}

	channel, err := p.upsertChannel(ctx, msg.Chat)
	if err != nil {
		return nil, err
	}
	if msg.From != nil {
		if err = p.upsertBotUser(ctx, msg.From); err != nil {
			return nil, err
		}
	}

	ref := selectMedia(msg)
	if ref != nil {
		media, duplicate, err := p.storeMedia(ctx, msg, ref, channel)
		if err != nil {
			log.Errorf("fail to store media: %s", err)
			return nil, err
		}
		res.MediaId = media.Id
		res.Duplicate = duplicate
		if duplicate && isEdit(update) {
			if err = p.refreshCaption(ctx, media, msg.Caption); err != nil {
				return nil, err
			}
		}
	}

	if err = p.upsertMessage(ctx, msg, ref); err != nil {
		return nil, err
	}
	log.Infof("ingested message, media: %s, duplicate: %t", res.MediaId, res.Duplicate)
	return res, nil
}

func (p *Pipeline) storeMedia(ctx context.Context, msg *clients.TelegramMessage, ref *mediaRef, channel *model.Channel) (*model.Media, bool, error) {
	// Redelivered updates stop here without touching telegram or storage.
	if existing, err := p.findByFileUniqueId(ctx, ref.FileUniqueId); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, true, nil
	}

	file, err := p.telegram.GetFile(ctx, ref.FileId)
	if err != nil {
		return nil, false, errors.Wrap(err, "fail to get file metadata")
	}
	data, downloadedType, err := p.telegram.DownloadFile(ctx, file.FilePath)
	if err != nil {
		return nil, false, errors.Wrap(err, "fail to download file")
	}

	ext := fileExtension(ref.OriginalName, file.FilePath, ref.MimeType, ref.Type)
	key := objectName(ref.FileUniqueId, p.now(), ext)
	uploaded := true
	if err := p.store.Store(ctx, key, data, contentType(ref.MimeType, ext, downloadedType)); err != nil {
		if !errors.Is(err, file_store.ErrObjectExists) {
			return nil, false, errors.Wrap(err, "fail to upload file")
		}
		uploaded = false
		Logger.Log.Warn("object already exists, reusing it: ", key)
	}
	metrics.UploadedBytes.Add(float64(len(data)))

	media := &model.Media{
		Id:           uuid.New().String(),
		ChatId:       msg.Chat.Id,
		MessageId:    msg.MessageId,
		FileName:     key,
		FileUrl:      p.store.GetUrlFromKey(key),
		PublicUrl:    p.store.GetPublicUrlFromKey(key),
		MediaType:    ref.Type,
		Caption:      utils.StringPtr(msg.Caption),
		MediaGroupId: utils.StringPtr(msg.MediaGroupId),
		FileUniqueId: utils.StringPtr(ref.FileUniqueId),
		Metadata:     datatypes.NewJSONType(ref.metadata(msg)),
		UserId:       channel.UserId,
	}
	created := p.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(media)
	if created.Error != nil {
		return nil, false, errors.Wrap(created.Error, "fail to insert media")
	}
	if created.RowsAffected > 0 {
		return media, false, nil
	}

	// A concurrent delivery of the same file won the insert.
	existing, err := p.findByFileUniqueId(ctx, ref.FileUniqueId)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, errors.Errorf("media insert for %s conflicted but no row found", ref.FileUniqueId)
	}
	if uploaded && existing.FileName != key {
		if err := p.store.Delete(ctx, key); err != nil {
			Logger.Log.Warn("fail to remove orphan object ", key, ": ", err)
		}
	}
	return existing, true, nil
}

func (p *Pipeline) findByFileUniqueId(ctx context.Context, fileUniqueId string) (*model.Media, error) {
	if fileUniqueId == "" {
		return nil, nil
	}
	var media model.Media
	err := p.db.WithContext(ctx).Where("file_unique_id = ?", fileUniqueId).Limit(1).Find(&media).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to look up media")
	}
	if media.Id == "" {
		return nil, nil
	}
	return &media, nil
}

// refreshCaption applies an edited caption to an already stored media, or to
// every media of its album. An empty caption never overwrites an album, only
// its first item carries one.
func (p *Pipeline) refreshCaption(ctx context.Context, media *model.Media, caption string) error {
	query := p.db.WithContext(ctx).Model(&model.Media{})
	if media.MediaGroupId != nil && *media.MediaGroupId != "" {
		if caption == "" {
			return nil
		}
		query = query.Where("media_group_id = ?", *media.MediaGroupId)
	} else {
		query = query.Where("id = ?", media.Id)
	}
	err := query.Where("caption IS NULL OR caption <> ?", caption).
		Update("caption", utils.StringPtr(caption)).Error
	return errors.Wrap(err, "fail to update caption")
}

func (p *Pipeline) recordOutcome(res *Result, err error) {
	entry := model.OperationLog{
		Id:           uuid.New().String(),
		FunctionName: FunctionName,
	}
	switch {
	case err != nil:
		entry.Status = model.OperationStatusError
		entry.Message = err.Error()
		metrics.IngestedUpdates.WithLabelValues("error").Inc()
	case res == nil || res.Skipped:
		entry.Status = model.OperationStatusInfo
		entry.Message = "No message to process"
		metrics.IngestedUpdates.WithLabelValues("skipped").Inc()
	case res.MediaId == "":
		entry.Status = model.OperationStatusSuccess
		entry.Message = fmt.Sprintf("stored message %d of chat %d", res.MessageId, res.ChatId)
		metrics.IngestedUpdates.WithLabelValues("no_media").Inc()
	case res.Duplicate:
		entry.Status = model.OperationStatusSuccess
		entry.Message = fmt.Sprintf("media %s already stored, message %d of chat %d", res.MediaId, res.MessageId, res.ChatId)
		metrics.IngestedUpdates.WithLabelValues("duplicate").Inc()
	default:
		entry.Status = model.OperationStatusSuccess
		entry.Message = fmt.Sprintf("stored media %s, message %d of chat %d", res.MediaId, res.MessageId, res.ChatId)
		metrics.IngestedUpdates.WithLabelValues("stored").Inc()
	}
	// The audit row must not turn a processed update into a failure.
	if dbErr := p.db.Create(&entry).Error; dbErr != nil {
		Logger.Log.Error("fail to write operation log: ", dbErr)
	}
}

func isEdit(update *clients.TelegramUpdate) bool {
	return update.Message == nil && update.ChannelPost == nil &&
		(update.EditedMessage != nil || update.EditedChannelPost != nil)
}
