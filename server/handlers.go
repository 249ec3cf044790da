package server

import (
	"context"
	"net/http"
	"reflect"
	"strconv"

	"github.com/Luismorlan/mediamux/gallery"
	"github.com/Luismorlan/mediamux/model"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/gin-gonic/gin"
)

const defaultPageSize = 100

func pageSize(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 || limit > gallery.MaxLimit {
		return defaultPageSize
	}
	return limit
}

func (s *Server) listMedia(c *gin.Context) {
	var filter gallery.MediaFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, badRequest("invalid query: %s", err))
		return
	}
	media, err := s.gallery.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, media)
}

func (s *Server) getMedia(c *gin.Context) {
	media, err := s.gallery.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, media)
}

type captionUpdate struct {
	Caption *string `json:"caption"`
}

func (s *Server) updateCaption(c *gin.Context) {
	var body captionUpdate
	if err := c.ShouldBindJSON(&body); err != nil || body.Caption == nil {
		respondError(c, badRequest("caption is required"))
		return
	}
	view, err := s.gallery.UpdateCaption(c.Request.Context(), c.Param("id"), *body.Caption, editor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) deleteMedia(c *gin.Context) {
	if err := s.gallery.DeleteMedia(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type batchDelete struct {
	Ids []string `json:"ids"`
}

// deleteMediaBatch answers 200 with per item results, ok is false when any
// item failed.
func (s *Server) deleteMediaBatch(c *gin.Context) {
	var body batchDelete
	if err := c.ShouldBindJSON(&body); err != nil || len(body.Ids) == 0 {
		respondError(c, badRequest("ids are required"))
		return
	}
	results := s.gallery.DeleteMany(c.Request.Context(), body.Ids)
	c.JSON(http.StatusOK, gin.H{"ok": gallery.AllOk(results), "results": results})
}

func (s *Server) listChannels(c *gin.Context) {
	query := s.db.WithContext(c.Request.Context()).Order("title")
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}
	channels := []model.Channel{}
	if err := query.Find(&channels).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, channels)
}

func (s *Server) listWebhookHistory(c *gin.Context) {
	query := s.db.WithContext(c.Request.Context()).Order("sent_at DESC").Limit(pageSize(c))
	if id := c.Query("webhook_url_id"); id != "" {
		query = query.Where("webhook_url_id = ?", id)
	}
	history := []model.WebhookHistory{}
	if err := query.Find(&history).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) listSyncLogs(c *gin.Context) {
	query := s.db.WithContext(c.Request.Context()).Order("created_at DESC").Limit(pageSize(c))
	if chatId := c.Query("chat_id"); chatId != "" {
		id, err := strconv.ParseInt(chatId, 10, 64)
		if err != nil {
			respondError(c, badRequest("invalid chat_id %q", chatId))
			return
		}
		query = query.Where("chat_id = ?", id)
	}
	if op := c.Query("operation"); op != "" {
		query = query.Where("operation = ?", op)
	}
	logs := []model.SyncLog{}
	if err := query.Find(&logs).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (s *Server) listFunctions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"functions": s.functions.Names()})
}

// invokeFunction runs a registered function on the request body. A failed
// function that produced a partial result returns it next to the error.
func (s *Server) invokeFunction(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		respondError(c, badRequest("fail to read body: %s", err))
		return
	}
	res, err := s.functions.Invoke(c.Request.Context(), c.Param("name"), payload)
	if err != nil {
		body := gin.H{"error": err.Error()}
		if present(res) {
			body["result"] = res
		}
		c.JSON(statusOf(err), body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "result": res})
}

func present(v interface{}) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map:
		return !rv.IsNil()
	}
	return true
}

func (s *Server) reloadAutoSync(ctx context.Context) {
	if s.autoSync == nil {
		return
	}
	if err := s.autoSync.Reload(ctx); err != nil {
		Logger.Log.Error("fail to reload sheets auto sync: ", err)
	}
}
