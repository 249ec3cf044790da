package functions

import (
	"context"
	"time"

	"github.com/Luismorlan/mediamux/model"
	"github.com/pkg/errors"
)

// MediaFields are the fields a media record exposes to outbound mirrors.
var MediaFields = []string{
	"id",
	"created_at",
	"chat_id",
	"channel_title",
	"message_id",
	"media_type",
	"caption",
	"file_name",
	"file_url",
	"public_url",
	"media_group_id",
	"file_unique_id",
	"drive_id",
	"drive_url",
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func mediaRecord(m *model.Media, channelTitle string) map[string]interface{} {
	return map[string]interface{}{
		"id":             m.Id,
		"created_at":     m.CreatedAt.UTC().Format(time.RFC3339),
		"chat_id":        m.ChatId,
		"channel_title":  channelTitle,
		"message_id":     m.MessageId,
		"media_type":     m.MediaType.String(),
		"caption":        m.CaptionOrEmpty(),
		"file_name":      m.FileName,
		"file_url":       m.FileUrl,
		"public_url":     m.PublicUrl,
		"media_group_id": strOrEmpty(m.MediaGroupId),
		"file_unique_id": strOrEmpty(m.FileUniqueId),
		"drive_id":       strOrEmpty(m.DriveId),
		"drive_url":      strOrEmpty(m.DriveUrl),
	}
}

// project keeps the requested fields of a record, in MediaFields order when
// fields is empty. Unknown fields are rejected.
func project(record map[string]interface{}, fields []string) (map[string]interface{}, error) {
	if len(fields) == 0 {
		return record, nil
	}
	out := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		v, ok := record[field]
		if !ok {
			return nil, errors.Wrapf(ErrBadRequest, "unknown media field %q", field)
		}
		out[field] = v
	}
	return out, nil
}

// loadMedia loads the given media, or every media when ids is empty, newest
// first.
func (f *Functions) loadMedia(ctx context.Context, ids []string) ([]model.Media, error) {
	query := f.DB.WithContext(ctx).Order("created_at DESC, id")
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	var media []model.Media
	if err := query.Find(&media).Error; err != nil {
		return nil, errors.Wrap(err, "fail to load media")
	}
	return media, nil
}

// loadRecords returns the media of ids as records with their channel title.
func (f *Functions) loadRecords(ctx context.Context, ids []string) ([]map[string]interface{}, error) {
	media, err := f.loadMedia(ctx, ids)
	if err != nil {
		return nil, err
	}
	var channels []model.Channel
	if err := f.DB.WithContext(ctx).Find(&channels).Error; err != nil {
		return nil, errors.Wrap(err, "fail to load channels")
	}
	titles := make(map[int64]string, len(channels))
	for _, c := range channels {
		titles[c.ChatId] = c.Title
	}

	records := make([]map[string]interface{}, 0, len(media))
	for i := range media {
		title, ok := titles[media[i].ChatId]
		if !ok {
			title = model.DefaultChannelTitle(media[i].ChatId)
		}
		records = append(records, mediaRecord(&media[i], title))
	}
	return records, nil
}
