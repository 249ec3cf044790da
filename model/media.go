package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MediaType string

const (
	MediaTypeImage     MediaType = "image"
	MediaTypeVideo     MediaType = "video"
	MediaTypeDocument  MediaType = "document"
	MediaTypeAnimation MediaType = "animation"
)

var AllMediaType = []MediaType{
	MediaTypeImage,
	MediaTypeVideo,
	MediaTypeDocument,
	MediaTypeAnimation,
}

func (e MediaType) IsValid() bool {
	switch e {
	case MediaTypeImage, MediaTypeVideo, MediaTypeDocument, MediaTypeAnimation:
		return true
	}
	return false
}

func (e MediaType) String() string {
	return string(e)
}

/*

Media is a file received from telegram and mirrored into object storage.

Id: primary key
ChatId, MessageId: the telegram message carrying the file
FileName: generated object name, {file_unique_id}_{millis}.{ext}
FileUrl: direct storage url of the object
PublicUrl: public url built with the storage's public object convention
MediaType: image, video, document or animation
Caption: caption shown in the gallery, shared by all items of an album
MediaGroupId: telegram album id
FileUniqueId: telegram's stable file id. Unique, this is the dedup key: at
most one Media row exists per source file.
Metadata: producer-specific record, see MediaMetadata
DriveId, DriveUrl: set once the file has been mirrored to Google Drive
*/
type Media struct {
	Id           string                            `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time                         `gorm:"<-:create;index" json:"created_at"`
	UpdatedAt    time.Time                         `json:"updated_at"`
	ChatId       int64                             `gorm:"index" json:"chat_id"`
	MessageId    int64                             `gorm:"index" json:"message_id"`
	FileName     string                            `json:"file_name"`
	FileUrl      string                            `json:"file_url"`
	PublicUrl    string                            `json:"public_url"`
	MediaType    MediaType                         `gorm:"index" json:"media_type"`
	Caption      *string                           `json:"caption"`
	MediaGroupId *string                           `gorm:"index" json:"media_group_id"`
	FileUniqueId *string                           `gorm:"uniqueIndex" json:"file_unique_id"`
	Metadata     datatypes.JSONType[MediaMetadata] `json:"metadata"`
	DriveId      *string                           `json:"drive_id"`
	DriveUrl     *string                           `json:"drive_url"`
	UserId       *string                           `json:"user_id"`
}

func (Media) TableName() string {
	return "media"
}

// BeforeSave rejects metadata whose payload doesn't match its kind.
func (m *Media) BeforeSave(db *gorm.DB) error {
	return m.Metadata.Data().Validate()
}

// CaptionOrEmpty is a nil-safe caption accessor.
func (m Media) CaptionOrEmpty() string {
	if m.Caption == nil {
		return ""
	}
	return *m.Caption
}
