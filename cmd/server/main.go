package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Luismorlan/mediamux/app_config"
	"github.com/Luismorlan/mediamux/file_store"
	"github.com/Luismorlan/mediamux/functions"
	"github.com/Luismorlan/mediamux/gallery"
	"github.com/Luismorlan/mediamux/realtime"
	"github.com/Luismorlan/mediamux/server"
	"github.com/Luismorlan/mediamux/server/middlewares"
	"github.com/Luismorlan/mediamux/utils"
	"github.com/Luismorlan/mediamux/utils/dotenv"
	. "github.com/Luismorlan/mediamux/utils/flag"
	. "github.com/Luismorlan/mediamux/utils/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ParseFlags()
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	InitLogger()

	cfg, err := app_config.Load()
	if err != nil {
		Log.Fatal(err)
	}
	stopDatadog := utils.StartDatadog(*ServiceName)
	defer stopDatadog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := utils.GetDBConnection(cfg.Database)
	if err != nil {
		Log.Fatal("failed to connect to database: ", err)
	}
	if err := utils.DatabaseSetupAndMigration(db); err != nil {
		Log.Fatal("failed to migrate database: ", err)
	}

	bus, err := realtime.NewBus(ctx, cfg.Redis)
	if err != nil {
		Log.Fatal(err)
	}
	changeFeed := realtime.NewChangeFeed(bus, realtime.WatchedTables...)
	if err := db.Use(changeFeed); err != nil {
		Log.Fatal(err)
	}

	store, err := file_store.NewS3FileStore(cfg.Storage)
	if err != nil {
		Log.Fatal("failed to create file store: ", err)
	}
	galleryService, err := gallery.NewService(db, store)
	if err != nil {
		Log.Fatal(err)
	}
	changeFeed.OnChange(galleryService.Changed)

	fns := functions.New(functionDeps(ctx, cfg, db, store))
	var autoSync *functions.SheetsAutoSync
	if fns.Sheets != nil {
		autoSync = functions.NewSheetsAutoSync(fns, bus)
		if err := autoSync.Start(ctx); err != nil {
			Log.Error("fail to start sheets auto sync: ", err)
		}
	}

	hub := realtime.NewHub()
	go hub.Run(ctx)
	if err := hub.Forward(ctx, bus, galleryService.Decorate); err != nil {
		Log.Fatal(err)
	}

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	if dotenv.IsProdEnv() {
		router.Use(gintrace.Middleware(*ServiceName))
	}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("")
	if *ByPassAuth {
		Log.Warn("jwt validation is disabled")
	} else {
		api.Use(middlewares.JWT(cfg.JWTSecret))
	}
	server.New(server.Dependencies{
		DB:        db,
		Gallery:   galleryService,
		Functions: fns,
		Hub:       hub,
		AutoSync:  autoSync,
	}).AddRoutes(api)

	port := cfg.Port
	if *Port != 0 {
		port = *Port
	}
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			Log.Error("api server shutdown: ", err)
		}
	}()

	Log.Info("api server starts up on port ", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		Log.Error("api server stopped: ", err)
	}
	Log.Info("api server shutdown")
}
