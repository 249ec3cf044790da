package server

import (
	"net/http"

	"github.com/Luismorlan/mediamux/functions"
	"github.com/Luismorlan/mediamux/gallery"
	"github.com/Luismorlan/mediamux/model"
	"github.com/Luismorlan/mediamux/realtime"
	"github.com/Luismorlan/mediamux/server/middlewares"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// defaultEditor is recorded as the caption editor when auth is bypassed.
const defaultEditor = "operator"

// Server serves the dashboard api.
type Server struct {
	db        *gorm.DB
	gallery   *gallery.Service
	functions *functions.Functions
	hub       *realtime.Hub
	autoSync  *functions.SheetsAutoSync
}

type Dependencies struct {
	DB        *gorm.DB
	Gallery   *gallery.Service
	Functions *functions.Functions
	// Hub and AutoSync are optional, /realtime answers 503 without a hub.
	Hub      *realtime.Hub
	AutoSync *functions.SheetsAutoSync
}

func New(deps Dependencies) *Server {
	return &Server{
		db:        deps.DB,
		gallery:   deps.Gallery,
		functions: deps.Functions,
		hub:       deps.Hub,
		autoSync:  deps.AutoSync,
	}
}

// AddRoutes registers the api on rg. Authentication is the caller's
// middleware.
func (s *Server) AddRoutes(rg *gin.RouterGroup) {
	media := rg.Group("/media")
	media.GET("", s.listMedia)
	media.GET("/:id", s.getMedia)
	media.PATCH("/:id", s.updateCaption)
	media.DELETE("/:id", s.deleteMedia)
	media.POST("/delete", s.deleteMediaBatch)

	rg.GET("/channels", s.listChannels)

	webhookUrls := newCrud(s.db, func(w *model.WebhookUrl) *string { return &w.Id }, validateWebhookUrl)
	webhookUrls.order = "created_at DESC"
	webhookUrls.register(rg.Group("/webhooks"))

	configs := newCrud(s.db, func(w *model.WebhookConfiguration) *string { return &w.Id }, validateWebhookConfiguration)
	configs.order = "created_at DESC"
	configs.filters = []string{"webhook_url_id"}
	configs.register(rg.Group("/webhook-configurations"))

	rg.GET("/webhook-history", s.listWebhookHistory)

	sheets := newCrud(s.db, func(c *model.GoogleSheetsConfig) *string { return &c.Id }, validateSheetsConfig)
	sheets.order = "created_at DESC"
	sheets.afterWrite = s.reloadAutoSync
	sheets.register(rg.Group("/sheets-configs"))

	rg.GET("/sync-logs", s.listSyncLogs)

	rg.GET("/functions", s.listFunctions)
	rg.POST("/functions/:name", s.invokeFunction)

	rg.GET("/realtime", s.serveRealtime)
}

func (s *Server) serveRealtime(c *gin.Context) {
	if s.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime is disabled"})
		return
	}
	s.hub.ServeWS(c)
}

// editor is the authenticated user, or defaultEditor without auth.
func editor(c *gin.Context) string {
	if sub := c.GetHeader(middlewares.SubjectHeader); sub != "" {
		return sub
	}
	return defaultEditor
}
