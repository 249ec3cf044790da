package model

import "time"

/*

Message is a telegram message, with or without media.

ChatId, MessageId: telegram identifiers, unique together. Ingestion upserts on
this pair so a redelivered update never produces a second row.
SenderName: "first last" of the sender, or the channel title for channel posts
Text: text or caption of the message
MediaType: set when the message carries media
MediaGroupId: set when the message is part of an album
SentAt: the telegram "date" of the message
*/
type Message struct {
	Id           string    `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `gorm:"<-:create" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ChatId       int64     `gorm:"uniqueIndex:idx_messages_chat_message" json:"chat_id"`
	MessageId    int64     `gorm:"uniqueIndex:idx_messages_chat_message" json:"message_id"`
	SenderName   string    `json:"sender_name"`
	Text         *string   `json:"text"`
	MediaType    *string   `json:"media_type"`
	MediaGroupId *string   `gorm:"index" json:"media_group_id"`
	SentAt       time.Time `json:"sent_at"`
}
