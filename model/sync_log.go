package model

import "time"

type SyncStatus string

const (
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncLog tracks a long running sync. Functions update it while they make
// progress, the dashboard watches it through the realtime feed.
type SyncLog struct {
	Id           string     `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time  `gorm:"<-:create" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ChatId       *int64     `gorm:"index" json:"chat_id"`
	Operation    string     `json:"operation"`
	Status       SyncStatus `json:"status"`
	Progress     int        `json:"progress"`
	ErrorMessage *string    `json:"error_message"`
}
