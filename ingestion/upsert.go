package ingestion

import (
	"context"
	"time"

	"github.com/Luismorlan/mediamux/clients"
	"github.com/Luismorlan/mediamux/model"
	"github.com/Luismorlan/mediamux/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm/clause"
)

// upsertChannel creates the channel on first sight and refreshes title and
// username on every later update, last write wins.
func (p *Pipeline) upsertChannel(ctx context.Context, chat *clients.TelegramChat) (*model.Channel, error) {
	title := chat.Title
	if title == "" {
		title = model.DefaultChannelTitle(chat.Id)
	}
	channel := model.Channel{
		Id:       uuid.New().String(),
		ChatId:   chat.Id,
		Title:    title,
		Username: utils.StringPtr(chat.Username),
		IsActive: true,
	}
	db := p.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "username", "updated_at"}),
	}).Create(&channel).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to upsert channel")
	}
	// Id and owner belong to the stored row, not to the one just built.
	var stored model.Channel
	if err := db.Where("chat_id = ?", chat.Id).First(&stored).Error; err != nil {
		return nil, errors.Wrap(err, "fail to load channel")
	}
	return &stored, nil
}

func (p *Pipeline) upsertBotUser(ctx context.Context, from *clients.TelegramUser) error {
	user := model.BotUser{
		Id:             uuid.New().String(),
		TelegramUserId: from.Id,
		FirstName:      from.FirstName,
		LastName:       from.LastName,
		Username:       from.Username,
		IsBot:          from.IsBot,
	}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "username", "updated_at"}),
	}).Create(&user).Error
	return errors.Wrap(err, "fail to upsert bot user")
}

// upsertMessage stores the message keyed by (chat_id, message_id). Text,
// sender and media type are refreshed when the message is delivered again.
func (p *Pipeline) upsertMessage(ctx context.Context, msg *clients.TelegramMessage, ref *mediaRef) error {
	message := model.Message{
		Id:           uuid.New().String(),
		ChatId:       msg.Chat.Id,
		MessageId:    msg.MessageId,
		SenderName:   senderName(msg),
		Text:         utils.StringPtr(msg.TextOrCaption()),
		MediaGroupId: utils.StringPtr(msg.MediaGroupId),
		SentAt:       unixTime(msg.Date),
	}
	if ref != nil {
		message.MediaType = utils.StringPtr(ref.Type.String())
	}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sender_name", "text", "media_type", "media_group_id", "updated_at"}),
	}).Create(&message).Error
	return errors.Wrap(err, "fail to upsert message")
}

func senderName(msg *clients.TelegramMessage) string {
	if msg.From != nil {
		if name := fullName(msg.From.FirstName, msg.From.LastName); name != "" {
			return name
		}
		return msg.From.Username
	}
	if msg.SenderChat != nil && msg.SenderChat.Title != "" {
		return msg.SenderChat.Title
	}
	if msg.Chat != nil {
		return msg.Chat.Title
	}
	return ""
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Now()
	}
	return time.Unix(sec, 0)
}
