package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Luismorlan/mediamux/app_config"
	"github.com/Luismorlan/mediamux/clients"
	"github.com/Luismorlan/mediamux/file_store"
	"github.com/Luismorlan/mediamux/ingestion"
	"github.com/Luismorlan/mediamux/realtime"
	"github.com/Luismorlan/mediamux/utils"
	"github.com/Luismorlan/mediamux/utils/dotenv"
	Flag "github.com/Luismorlan/mediamux/utils/flag"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

func main() {
	Flag.ParseFlags()
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	Logger.InitLogger()

	cfg, err := app_config.Load()
	if err != nil {
		Logger.Log.Fatal(err)
	}
	if err := cfg.ValidateForIngestion(); err != nil {
		Logger.Log.Fatal(err)
	}
	stopDatadog := utils.StartDatadog(*Flag.ServiceName)
	defer stopDatadog()

	db, err := utils.GetDBConnection(cfg.Database)
	if err != nil {
		Logger.Log.Fatal("failed to connect to database: ", err)
	}
	if err := utils.DatabaseSetupAndMigration(db); err != nil {
		Logger.Log.Fatal("failed to migrate database: ", err)
	}

	// Inserts made here reach the api servers through redis only.
	if cfg.Redis.Enabled() {
		bus, err := realtime.NewRedisBus(context.Background(), cfg.Redis)
		if err != nil {
			Logger.Log.Fatal(err)
		}
		defer bus.Close()
		if err := db.Use(realtime.NewChangeFeed(bus, realtime.WatchedTables...)); err != nil {
			Logger.Log.Fatal(err)
		}
	} else {
		Logger.Log.Warn("redis is not configured, dashboards won't see new media live")
	}

	store, err := file_store.NewS3FileStore(cfg.Storage)
	if err != nil {
		Logger.Log.Fatal("failed to create file store: ", err)
	}
	telegramClient := clients.NewTelegramClient(cfg.Telegram, clients.NewDefaultHttpClient())
	pipeline := ingestion.NewPipeline(db, telegramClient, store)

	router := gin.Default()
	if dotenv.IsProdEnv() {
		router.Use(gintrace.Middleware(*Flag.ServiceName))
	}

	// Add a debug route for testing and health check
	router.GET("/webhook/ping", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, "pong")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	AddTelegramWebhook(router.Group("/webhook"), pipeline, cfg.Telegram.WebhookSecret)
	// Additional webhooks should be added below this line

	port := cfg.WebhookPort
	if *Flag.Port != 0 {
		port = *Flag.Port
	}
	Logger.Log.Info("===== Webhook Server Started =====")
	if err := router.Run(fmt.Sprintf(":%d", port)); err != nil {
		Logger.Log.Error("webhook server stopped: ", err)
	}
}
