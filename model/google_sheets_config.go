package model

import (
	"time"

	"gorm.io/datatypes"
)

/*

GoogleSheetsConfig is a spreadsheet mirroring the media table.

SpreadsheetId, SheetName: the target, SheetName defaults to "Sheet1"
AutoSync: re-mirror on every media change
HeaderMapping: spreadsheet header -> media field, column order follows the
sorted headers
LastSyncedAt: time of the last successful mirror
*/
type GoogleSheetsConfig struct {
	Id            string                                `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time                             `gorm:"<-:create" json:"created_at"`
	UpdatedAt     time.Time                             `json:"updated_at"`
	SpreadsheetId string                                `gorm:"index" json:"spreadsheet_id"`
	SheetName     string                                `json:"sheet_name"`
	AutoSync      bool                                  `json:"auto_sync"`
	HeaderMapping datatypes.JSONType[map[string]string] `json:"header_mapping"`
	LastSyncedAt  *time.Time                            `json:"last_synced_at"`
	UserId        *string                               `json:"user_id"`
}

func (GoogleSheetsConfig) TableName() string {
	return "google_sheets_config"
}
