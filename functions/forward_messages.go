package functions

import (
	"context"
	"fmt"

	"github.com/Luismorlan/mediamux/gallery"
	"github.com/Luismorlan/mediamux/model"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/pkg/errors"
)

const OperationForwardMessages = "forward_channel_messages"

type ForwardMessagesRequest struct {
	SourceChatId int64 `json:"source_chat_id"`
	TargetChatId int64 `json:"target_chat_id"`
	// MessageIds restricts the forward, every stored message otherwise.
	MessageIds []int64 `json:"message_ids"`
}

type ForwardMessagesResult struct {
	SyncLogId string               `json:"sync_log_id"`
	Forwarded int                  `json:"forwarded"`
	Results   []gallery.ItemResult `json:"results"`
}

// ForwardChannelMessages forwards the stored messages of a chat to another
// chat, oldest first.
func (f *Functions) ForwardChannelMessages(ctx context.Context, req ForwardMessagesRequest) (*ForwardMessagesResult, error) {
	if f.Telegram == nil {
		return nil, errors.Wrap(ErrNotConfigured, "telegram")
	}
	if req.SourceChatId == 0 || req.TargetChatId == 0 {
		return nil, errors.Wrap(ErrBadRequest, "source_chat_id and target_chat_id are required")
	}

	query := f.DB.WithContext(ctx).Where("chat_id = ?", req.SourceChatId).Order("message_id ASC")
	if len(req.MessageIds) > 0 {
		query = query.Where("message_id IN ?", req.MessageIds)
	}
	var messages []model.Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, errors.Wrap(err, "fail to load messages")
	}

	chatId := req.SourceChatId
	tracker, err := startSync(ctx, f.DB, &chatId, OperationForwardMessages)
	if err != nil {
		return nil, err
	}
	res := &ForwardMessagesResult{SyncLogId: tracker.log.Id, Results: []gallery.ItemResult{}}
	for i, m := range messages {
		item := gallery.ItemResult{Id: fmt.Sprint(m.MessageId), Ok: true}
		if _, err := f.Telegram.ForwardMessage(ctx, req.TargetChatId, req.SourceChatId, m.MessageId); err != nil {
			Logger.Log.Warnf("fail to forward message %d of chat %d: %s", m.MessageId, req.SourceChatId, err)
			item.Ok = false
			item.Error = err.Error()
		} else {
			res.Forwarded++
		}
		res.Results = append(res.Results, item)
		tracker.progress(ctx, (i+1)*100/len(messages))
	}

	if gallery.AllOk(res.Results) {
		tracker.complete(ctx)
	} else {
		tracker.fail(ctx, errors.Errorf("%d of %d messages failed", len(messages)-res.Forwarded, len(messages)))
	}
	return res, nil
}
