package main

import (
	"context"

	"github.com/Luismorlan/mediamux/app_config"
	"github.com/Luismorlan/mediamux/clients"
	"github.com/Luismorlan/mediamux/file_store"
	"github.com/Luismorlan/mediamux/functions"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"gorm.io/gorm"
)

// functionDeps builds the clients the configuration enables. Clients left
// unconfigured stay nil interfaces so the functions using them report
// ErrNotConfigured.
func functionDeps(ctx context.Context, cfg *app_config.Config, db *gorm.DB, store file_store.MediaFileStore) functions.Dependencies {
	httpClient := clients.NewDefaultHttpClient()
	deps := functions.Dependencies{
		DB:            db,
		Store:         store,
		Http:          httpClient,
		ScratchChatId: cfg.Telegram.ScratchChatId,
		DriveFolderId: cfg.Google.DriveFolderId,
	}

	if cfg.Telegram.BotToken != "" {
		deps.Telegram = clients.NewTelegramClient(cfg.Telegram, httpClient)
	} else {
		Logger.Log.Warn("TELEGRAM_BOT_TOKEN is not set, telegram functions are disabled")
	}

	if cfg.Google.RefreshToken != "" {
		google := clients.NewGoogleHttpClient(ctx, clients.NewGoogleTokenSource(ctx, cfg.Google))
		deps.Sheets = clients.NewSheetsClient(google)
		deps.Drive = clients.NewDriveClient(google)
	} else {
		Logger.Log.Warn("GOOGLE_REFRESH_TOKEN is not set, sheets and drive functions are disabled")
	}

	if cfg.Completion.ApiKey != "" {
		deps.Completion = clients.NewCompletionClient(cfg.Completion, httpClient)
	}
	return deps
}
