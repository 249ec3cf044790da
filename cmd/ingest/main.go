package main

import (
	"context"

	"github.com/Luismorlan/mediamux/app_config"
	"github.com/Luismorlan/mediamux/clients"
	"github.com/Luismorlan/mediamux/file_store"
	"github.com/Luismorlan/mediamux/ingestion"
	"github.com/Luismorlan/mediamux/realtime"
	"github.com/Luismorlan/mediamux/utils"
	"github.com/Luismorlan/mediamux/utils/dotenv"
	Flag "github.com/Luismorlan/mediamux/utils/flag"
	. "github.com/Luismorlan/mediamux/utils/log"
	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	Flag.ParseFlags()
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	InitLogger()

	cfg, err := app_config.Load()
	if err != nil {
		Log.Fatal(err)
	}
	if err := cfg.ValidateForIngestion(); err != nil {
		Log.Fatal(err)
	}
	stopDatadog := utils.StartDatadog(*Flag.ServiceName)
	defer stopDatadog()

	db, err := utils.GetDBConnection(cfg.Database)
	if err != nil {
		Log.Fatal("failed to connect to database: ", err)
	}
	if cfg.Redis.Enabled() {
		bus, err := realtime.NewRedisBus(context.Background(), cfg.Redis)
		if err != nil {
			Log.Fatal(err)
		}
		defer bus.Close()
		if err := db.Use(realtime.NewChangeFeed(bus, realtime.WatchedTables...)); err != nil {
			Log.Fatal(err)
		}
	}

	store, err := file_store.NewS3FileStore(cfg.Storage)
	if err != nil {
		Log.Fatal("failed to create file store: ", err)
	}
	pipeline := ingestion.NewPipeline(db, clients.NewTelegramClient(cfg.Telegram, clients.NewDefaultHttpClient()), store)

	Log.Info("Starting lambda handler, waiting for requests...")
	lambda.Start(newProxyHandler(pipeline, cfg.Telegram.WebhookSecret))
}
