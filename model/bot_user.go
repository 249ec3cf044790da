package model

import "time"

// BotUser is a telegram account that sent at least one message the bot has
// seen. Keyed by the telegram user id.
type BotUser struct {
	Id             string    `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `gorm:"<-:create" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	TelegramUserId int64     `gorm:"uniqueIndex" json:"telegram_user_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Username       string    `json:"username"`
	IsBot          bool      `json:"is_bot"`
}
