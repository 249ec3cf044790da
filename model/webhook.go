package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	WebhookStatusSuccess = "success"
	WebhookStatusError   = "error"
)

// WebhookUrl is a named outbound http target configured by the operator.
type WebhookUrl struct {
	Id        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"<-:create" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
	Url       string    `json:"url"`
	UserId    *string   `json:"user_id"`
}

/*

WebhookConfiguration is a saved request template for a WebhookUrl.

Method: http method, POST when empty
Headers, QueryParams: added to every request
BodyTemplate: request body, "{{items}}" and "{{count}}" are substituted. When
empty the body is {"items": [...], "count": n}
Fields: media fields to send, every field when empty
*/
type WebhookConfiguration struct {
	Id           string                                `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time                             `gorm:"<-:create" json:"created_at"`
	UpdatedAt    time.Time                             `json:"updated_at"`
	WebhookUrlId string                                `gorm:"index" json:"webhook_url_id"`
	Name         string                                `json:"name"`
	Method       string                                `json:"method"`
	Headers      datatypes.JSONType[map[string]string] `json:"headers"`
	QueryParams  datatypes.JSONType[map[string]string] `json:"query_params"`
	BodyTemplate string                                `json:"body_template"`
	Fields       datatypes.JSONSlice[string]           `json:"fields"`
}

// WebhookHistory records one send to a webhook.
type WebhookHistory struct {
	Id           string                      `gorm:"primaryKey" json:"id"`
	WebhookUrlId string                      `gorm:"index" json:"webhook_url_id"`
	Fields       datatypes.JSONSlice[string] `json:"fields"`
	ItemCount    int                         `json:"item_count"`
	Status       string                      `json:"status"`
	ResponseCode int                         `json:"response_code"`
	Error        string                      `json:"error"`
	SentAt       time.Time                   `gorm:"index" json:"sent_at"`
}

func (WebhookHistory) TableName() string {
	return "webhook_history"
}
