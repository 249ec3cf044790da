package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Luismorlan/mediamux/model"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/Luismorlan/mediamux/utils/metrics"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	SyncCaptions           = "sync-captions"
	DeleteDuplicates       = "delete-duplicates"
	WebhookForwarder       = "webhook-forwarder"
	SyncGoogleSheet        = "sync-google-sheet"
	MigrateToDrive         = "migrate-to-drive"
	ForwardChannelMessages = "forward-channel-messages"
	AIAssistant            = "ai-assistant"
)

// Handler runs a function on its json payload.
type Handler func(ctx context.Context, payload json.RawMessage) (interface{}, error)

func decode(payload json.RawMessage, v interface{}) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return errors.Wrapf(ErrBadRequest, "invalid payload: %s", err)
	}
	return nil
}

// Handlers maps function names to their handler.
func (f *Functions) Handlers() map[string]Handler {
	return map[string]Handler{
		SyncCaptions: func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
			var req CaptionSyncRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}
			if req.AllGroups {
				return f.SyncAllGroups(ctx)
			}
			if req.ChatId == 0 || req.MessageId == 0 {
				return nil, errors.Wrap(ErrBadRequest, "chat_id and message_id are required")
			}
			return f.SyncCaption(ctx, req.ChatId, req.MessageId)
		},
		DeleteDuplicates: func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
			var req DuplicateCleanupRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}
			return f.DeleteDuplicates(ctx, req)
		},
		WebhookForwarder: func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
			var req WebhookForwardRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}
			return f.ForwardToWebhook(ctx, req)
		},
		SyncGoogleSheet: func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
			var req SheetSyncRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}
			if req.ConfigId == "" {
				return nil, errors.Wrap(ErrBadRequest, "config_id is required")
			}
			return f.SyncGoogleSheet(ctx, req.ConfigId)
		},
		MigrateToDrive: func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
			var req DriveMigrationRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}
			return f.MigrateToDrive(ctx, req.MediaIds)
		},
		ForwardChannelMessages: func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
			var req ForwardMessagesRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}
			return f.ForwardChannelMessages(ctx, req)
		},
		AIAssistant: func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
			var req AssistantRequest
			if err := decode(payload, &req); err != nil {
				return nil, err
			}
			return f.DraftWebhookConfiguration(ctx, req)
		},
	}
}

// Names lists the registered functions.
func (f *Functions) Names() []string {
	var names []string
	for name := range f.Handlers() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named function. Every call is counted and written to the
// operation log.
func (f *Functions) Invoke(ctx context.Context, name string, payload json.RawMessage) (interface{}, error) {
	handler, ok := f.Handlers()[name]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "function %s", name)
	}

	res, err := handler(ctx, payload)
	entry := model.OperationLog{
		Id:           uuid.New().String(),
		FunctionName: name,
		Status:       model.OperationStatusSuccess,
		Message:      fmt.Sprintf("%s completed", name),
	}
	if err != nil {
		entry.Status = model.OperationStatusError
		entry.Message = err.Error()
		Logger.Log.Errorf("function %s failed: %s", name, err)
	}
	metrics.FunctionCalls.WithLabelValues(name, entry.Status).Inc()
	if dbErr := f.DB.WithContext(ctx).Create(&entry).Error; dbErr != nil {
		Logger.Log.Error("fail to write operation log: ", dbErr)
	}
	return res, err
}
