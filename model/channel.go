package model

import (
	"fmt"
	"time"
)

/*

Channel is a telegram chat (channel, group or private chat) the bot has
received updates from.

Id: primary key, use to identify a channel
CreatedAt: time when entity is created
UpdatedAt: time when the title or username was last refreshed
ChatId: the chat id provided by telegram, unique
Title: display title, "Chat {ChatId}" when telegram doesn't provide one
Username: optional public @username of the chat
IsActive: inactive channels are hidden from the dashboard, never set by ingestion
UserId: the dashboard user owning this channel, optional
*/
type Channel struct {
	Id        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"<-:create" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ChatId    int64     `gorm:"uniqueIndex" json:"chat_id"`
	Title     string    `json:"title"`
	Username  *string   `json:"username"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	UserId    *string   `json:"user_id"`
}

func DefaultChannelTitle(chatId int64) string {
	return fmt.Sprintf("Chat %d", chatId)
}
