package gallery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Luismorlan/mediamux/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	FilterAll = "all"

	UploadStatusUploaded    = "uploaded"
	UploadStatusNotUploaded = "not_uploaded"

	DefaultLimit = 100
	MaxLimit     = 1000
)

var ErrInvalidFilter = errors.New("invalid media filter")

// MediaFilter selects gallery rows. Empty strings behave like "all".
// Uploaded means mirrored to Drive.
type MediaFilter struct {
	Channel      string `form:"channel" json:"channel"`
	MediaType    string `form:"media_type" json:"media_type"`
	UploadStatus string `form:"upload_status" json:"upload_status"`
	Search       string `form:"search" json:"search"`
	Limit        int    `form:"limit" json:"limit"`
	Offset       int    `form:"offset" json:"offset"`
}

// Normalize fills defaults and validates the filter.
func (f MediaFilter) Normalize() (MediaFilter, error) {
	if f.Channel == "" {
		f.Channel = FilterAll
	}
	if f.MediaType == "" {
		f.MediaType = FilterAll
	}
	if f.UploadStatus == "" {
		f.UploadStatus = FilterAll
	}
	f.Search = strings.TrimSpace(f.Search)

	if f.Channel != FilterAll {
		if _, err := strconv.ParseInt(f.Channel, 10, 64); err != nil {
			return f, errors.Wrapf(ErrInvalidFilter, "channel %q", f.Channel)
		}
	}
	if f.MediaType != FilterAll && !model.MediaType(f.MediaType).IsValid() {
		return f, errors.Wrapf(ErrInvalidFilter, "media type %q", f.MediaType)
	}
	switch f.UploadStatus {
	case FilterAll, UploadStatusUploaded, UploadStatusNotUploaded:
	default:
		return f, errors.Wrapf(ErrInvalidFilter, "upload status %q", f.UploadStatus)
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f, nil
}

// Scopes returns the where clauses of a normalized filter.
func (f MediaFilter) Scopes() []func(*gorm.DB) *gorm.DB {
	var scopes []func(*gorm.DB) *gorm.DB
	if f.Channel != FilterAll && f.Channel != "" {
		chatId, _ := strconv.ParseInt(f.Channel, 10, 64)
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("media.chat_id = ?", chatId)
		})
	}
	if f.MediaType != FilterAll && f.MediaType != "" {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("media.media_type = ?", f.MediaType)
		})
	}
	switch f.UploadStatus {
	case UploadStatusUploaded:
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("media.drive_id IS NOT NULL")
		})
	case UploadStatusNotUploaded:
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("media.drive_id IS NULL")
		})
	}
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("LOWER(media.caption) LIKE ? OR LOWER(media.file_name) LIKE ?", pattern, pattern)
		})
	}
	return scopes
}

func (f MediaFilter) cacheKey() string {
	return fmt.Sprintf("%s|%s|%s|%s|%d|%d", f.Channel, f.MediaType, f.UploadStatus, f.Search, f.Limit, f.Offset)
}
