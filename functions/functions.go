// Package functions implements the operator triggered actions of the
// dashboard: caption sync, duplicate cleanup and the outbound mirrors.
package functions

import (
	"context"

	"github.com/Luismorlan/mediamux/clients"
	"github.com/Luismorlan/mediamux/file_store"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrBadRequest    = errors.New("bad request")
	ErrNotFound      = errors.New("not found")
	ErrNotConfigured = errors.New("not configured")
)

type TelegramApi interface {
	ForwardMessage(ctx context.Context, toChatId, fromChatId, messageId int64) (*clients.TelegramMessage, error)
	DeleteMessage(ctx context.Context, chatId, messageId int64) error
}

type SheetsApi interface {
	UpdateValues(ctx context.Context, spreadsheetId, rng string, values [][]interface{}) error
	ClearValues(ctx context.Context, spreadsheetId, rng string) error
}

type DriveApi interface {
	Upload(ctx context.Context, name, mimeType, folderId string, data []byte) (*clients.DriveFile, error)
}

type CompletionApi interface {
	CompleteJSON(ctx context.Context, system, prompt string) (string, error)
}

// Dependencies of Functions. Optional clients may be nil, the functions
// needing them then fail with ErrNotConfigured.
type Dependencies struct {
	DB            *gorm.DB
	Store         file_store.MediaFileStore
	Http          *clients.HttpClient
	Telegram      TelegramApi
	ScratchChatId int64
	Sheets        SheetsApi
	Drive         DriveApi
	DriveFolderId string
	Completion    CompletionApi
}

type Functions struct {
	Dependencies
}

func New(deps Dependencies) *Functions {
	if deps.Http == nil {
		deps.Http = clients.NewDefaultHttpClient()
	}
	return &Functions{Dependencies: deps}
}
