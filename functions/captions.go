package functions

import (
	"context"

	"github.com/Luismorlan/mediamux/model"
	"github.com/Luismorlan/mediamux/utils"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const OperationSyncCaptions = "sync_captions"

type CaptionSyncRequest struct {
	ChatId    int64 `json:"chat_id"`
	MessageId int64 `json:"message_id"`
	// AllGroups re-aligns every media group instead of one message.
	AllGroups bool `json:"all_groups"`
}

type CaptionSyncResult struct {
	Updated int `json:"updated"`
	Groups  int `json:"groups"`
}

// SyncCaption reads the current caption of a message from telegram and
// writes it to every media of the message, or of its media group.
func (f *Functions) SyncCaption(ctx context.Context, chatId, messageId int64) (*CaptionSyncResult, error) {
	var media []model.Media
	err := f.DB.WithContext(ctx).
		Where("chat_id = ? AND message_id = ?", chatId, messageId).
		Find(&media).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to load media")
	}
	if len(media) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "no media for message %d of chat %d", messageId, chatId)
	}

	caption, err := f.fetchCaption(ctx, chatId, messageId)
	if err != nil {
		return nil, err
	}

	var groupId string
	for _, m := range media {
		if m.MediaGroupId != nil && *m.MediaGroupId != "" {
			groupId = *m.MediaGroupId
			break
		}
	}

	res := &CaptionSyncResult{}
	if groupId == "" {
		n, err := f.propagateCaption(ctx, f.DB.Where("chat_id = ? AND message_id = ?", chatId, messageId), caption)
		if err != nil {
			return nil, err
		}
		res.Updated = n
		return res, nil
	}

	// Only the first item of an album carries the caption, the others
	// arrive empty. An empty caption never overwrites the group.
	if caption == "" {
		if caption, err = f.canonicalCaption(ctx, groupId); err != nil {
			return nil, err
		}
		if caption == "" {
			return res, nil
		}
	}
	n, err := f.propagateCaption(ctx, f.DB.Where("media_group_id = ?", groupId), caption)
	if err != nil {
		return nil, err
	}
	res.Updated = n
	res.Groups = 1
	return res, nil
}

// fetchCaption gets the authoritative caption. The Bot API can't read a
// message, so the message is forwarded to a scratch chat and the copy is
// deleted right away. Without scratch chat the stored message text is used.
func (f *Functions) fetchCaption(ctx context.Context, chatId, messageId int64) (string, error) {
	if f.Telegram != nil && f.ScratchChatId != 0 {
		fwd, err := f.Telegram.ForwardMessage(ctx, f.ScratchChatId, chatId, messageId)
		if err != nil {
			return "", errors.Wrap(err, "fail to read caption from telegram")
		}
		if err := f.Telegram.DeleteMessage(ctx, f.ScratchChatId, fwd.MessageId); err != nil {
			Logger.Log.Warn("fail to delete forwarded copy ", fwd.MessageId, ": ", err)
		}
		return fwd.Caption, nil
	}

	var message model.Message
	err := f.DB.WithContext(ctx).
		Where("chat_id = ? AND message_id = ?", chatId, messageId).
		Limit(1).Find(&message).Error
	if err != nil {
		return "", errors.Wrap(err, "fail to load message")
	}
	if message.Text == nil {
		return "", nil
	}
	return *message.Text, nil
}

// canonicalCaption is the earliest non-empty caption of a group.
func (f *Functions) canonicalCaption(ctx context.Context, groupId string) (string, error) {
	var media model.Media
	err := f.DB.WithContext(ctx).
		Where("media_group_id = ? AND caption IS NOT NULL AND caption <> ''", groupId).
		Order("created_at ASC, message_id ASC").
		Limit(1).Find(&media).Error
	if err != nil {
		return "", errors.Wrap(err, "fail to load group caption")
	}
	return media.CaptionOrEmpty(), nil
}

// propagateCaption writes caption to the rows matched by scope that don't
// have it yet, returning how many changed.
func (f *Functions) propagateCaption(ctx context.Context, scope *gorm.DB, caption string) (int, error) {
	query := f.DB.WithContext(ctx).Model(&model.Media{}).Where(scope)
	if caption == "" {
		query = query.Where("caption IS NOT NULL")
	} else {
		query = query.Where("caption IS NULL OR caption <> ?", caption)
	}
	res := query.Update("caption", utils.StringPtr(caption))
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "fail to update captions")
	}
	return int(res.RowsAffected), nil
}

// SyncAllGroups gives every media group its canonical caption. Progress is
// tracked in a SyncLog.
func (f *Functions) SyncAllGroups(ctx context.Context) (*CaptionSyncResult, error) {
	var groups []string
	err := f.DB.WithContext(ctx).
		Model(&model.Media{}).
		Where("media_group_id IS NOT NULL AND media_group_id <> ''").
		Distinct("media_group_id").
		Order("media_group_id").
		Pluck("media_group_id", &groups).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to list media groups")
	}

	tracker, err := startSync(ctx, f.DB, nil, OperationSyncCaptions)
	if err != nil {
		return nil, err
	}
	res := &CaptionSyncResult{}
	for i, groupId := range groups {
		caption, err := f.canonicalCaption(ctx, groupId)
		if err == nil && caption != "" {
			var n int
			n, err = f.propagateCaption(ctx, f.DB.Where("media_group_id = ?", groupId), caption)
			res.Updated += n
		}
		if err != nil {
			tracker.fail(ctx, err)
			return nil, err
		}
		res.Groups++
		tracker.progress(ctx, (i+1)*100/len(groups))
	}
	tracker.complete(ctx)
	Logger.Log.Infof("caption sync done, %d captions updated in %d groups", res.Updated, res.Groups)
	return res, nil
}
