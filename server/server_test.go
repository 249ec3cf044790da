package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Luismorlan/mediamux/file_store"
	"github.com/Luismorlan/mediamux/functions"
	"github.com/Luismorlan/mediamux/gallery"
	"github.com/Luismorlan/mediamux/model"
	"github.com/Luismorlan/mediamux/realtime"
	"github.com/Luismorlan/mediamux/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	router   *gin.Engine
	db       *gorm.DB
	store    *file_store.FakeFileStore
	autoSync *functions.SheetsAutoSync
}

func newTestServer(t *testing.T, autoSync bool) *testServer {
	gin.SetMode(gin.TestMode)
	db, _ := utils.CreateTempDB(t)
	store := file_store.NewFakeFileStore()
	g, err := gallery.NewService(db, store)
	require.NoError(t, err)
	f := functions.New(functions.Dependencies{DB: db, Store: store})

	deps := Dependencies{DB: db, Gallery: g, Functions: f}
	if autoSync {
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		deps.AutoSync = functions.NewSheetsAutoSync(f, realtime.NewLocalBus())
		require.NoError(t, deps.AutoSync.Start(ctx))
	}

	router := gin.New()
	New(deps).AddRoutes(router.Group(""))
	return &testServer{router: router, db: db, store: store, autoSync: deps.AutoSync}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (s *testServer) seedMedia(t *testing.T, id string, chatId, messageId int64, mediaType model.MediaType, createdAt time.Time) {
	media := model.Media{
		Id:        id,
		CreatedAt: createdAt,
		ChatId:    chatId,
		MessageId: messageId,
		FileName:  id + ".jpg",
		PublicUrl: "https://storage.test/storage/v1/object/public/telegram_media/" + id + ".jpg",
		MediaType: mediaType,
		Caption:   utils.StringPtr("caption " + id),
	}
	require.NoError(t, s.db.Create(&media).Error)
	s.store.Put(media.FileName, []byte(id), "image/jpeg")
}

func TestListMedia(t *testing.T) {
	s := newTestServer(t, false)
	base := time.Now().Add(-time.Hour)
	require.NoError(t, s.db.Create(&model.Channel{Id: "c1", ChatId: 1, Title: "Cats"}).Error)
	s.seedMedia(t, "m1", 1, 1, model.MediaTypeImage, base)
	s.seedMedia(t, "m2", 1, 2, model.MediaTypeVideo, base.Add(time.Minute))
	s.seedMedia(t, "m3", 2, 1, model.MediaTypeImage, base.Add(2*time.Minute))

	w := s.do(t, http.MethodGet, "/media?channel=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var views []gallery.MediaView
	decodeBody(t, w, &views)
	require.Len(t, views, 2)
	assert.Equal(t, "m2", views[0].Id)
	assert.Equal(t, "Cats", views[0].ChannelTitle)

	w = s.do(t, http.MethodGet, "/media?media_type=image&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &views)
	require.Len(t, views, 1)
	assert.Equal(t, "m3", views[0].Id)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/media?media_type=sticker", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/media?limit=many", nil).Code)
}

func TestUpdateCaption(t *testing.T) {
	s := newTestServer(t, false)
	s.seedMedia(t, "m1", 1, 1, model.MediaTypeImage, time.Now())

	w := s.do(t, http.MethodPatch, "/media/m1", map[string]string{"caption": "new caption"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view gallery.MediaView
	decodeBody(t, w, &view)
	assert.Equal(t, "new caption", *view.Caption)
	assert.Equal(t, model.MetadataKindManualEdit, view.Metadata.Kind)
	assert.Equal(t, defaultEditor, view.Metadata.ManualEdit.EditedBy)
	assert.Equal(t, "caption m1", view.Metadata.ManualEdit.PreviousCaption)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPatch, "/media/m1", map[string]string{}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPatch, "/media/missing", map[string]string{"caption": "x"}).Code)
}

func TestDeleteMedia(t *testing.T) {
	s := newTestServer(t, false)
	now := time.Now()
	s.seedMedia(t, "m1", 1, 1, model.MediaTypeImage, now)
	s.seedMedia(t, "m2", 1, 2, model.MediaTypeImage, now)
	s.seedMedia(t, "m3", 1, 3, model.MediaTypeImage, now)
	require.NoError(t, s.db.Create(&model.Message{Id: "msg1", ChatId: 1, MessageId: 1}).Error)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/media/m1", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/media/m1", nil).Code)
	var messages int64
	s.db.Model(&model.Message{}).Count(&messages)
	assert.Equal(t, int64(0), messages)

	w := s.do(t, http.MethodPost, "/media/delete", map[string][]string{"ids": {"m2", "missing", "m3"}})
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Ok      bool                 `json:"ok"`
		Results []gallery.ItemResult `json:"results"`
	}
	decodeBody(t, w, &body)
	assert.False(t, body.Ok)
	require.Len(t, body.Results, 3)
	assert.True(t, body.Results[0].Ok)
	assert.False(t, body.Results[1].Ok)
	assert.True(t, body.Results[2].Ok)
	assert.Empty(t, s.store.Keys())

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/media/delete", map[string][]string{"ids": {}}).Code)
}

func TestListChannels(t *testing.T) {
	s := newTestServer(t, false)
	require.NoError(t, s.db.Create(&model.Channel{Id: "c1", ChatId: 1, Title: "Zebra"}).Error)
	require.NoError(t, s.db.Create(&model.Channel{Id: "c2", ChatId: 2, Title: "Ant"}).Error)
	require.NoError(t, s.db.Model(&model.Channel{}).Where("id = ?", "c1").Update("is_active", false).Error)

	var channels []model.Channel
	decodeBody(t, s.do(t, http.MethodGet, "/channels", nil), &channels)
	require.Len(t, channels, 2)
	assert.Equal(t, "Ant", channels[0].Title)

	decodeBody(t, s.do(t, http.MethodGet, "/channels?active=true", nil), &channels)
	require.Len(t, channels, 1)
	assert.Equal(t, "c2", channels[0].Id)
}

func TestWebhookUrlCrud(t *testing.T) {
	s := newTestServer(t, false)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/webhooks", map[string]string{"url": "ftp://x"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/webhooks", "{").Code)

	w := s.do(t, http.MethodPost, "/webhooks", map[string]string{"url": " https://hooks.test/in ", "id": "chosen"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.WebhookUrl
	decodeBody(t, w, &created)
	assert.NotEqual(t, "chosen", created.Id)
	want := model.WebhookUrl{Id: created.Id, Name: "hooks.test", Url: "https://hooks.test/in"}
	if diff := cmp.Diff(want, created, cmpopts.IgnoreFields(model.WebhookUrl{}, "CreatedAt", "UpdatedAt")); diff != "" {
		t.Errorf("created webhook mismatch (-want +got):\n%s", diff)
	}

	w = s.do(t, http.MethodPut, "/webhooks/"+created.Id, map[string]string{"name": "Renamed", "id": "other"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated model.WebhookUrl
	decodeBody(t, w, &updated)
	assert.Equal(t, created.Id, updated.Id)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "https://hooks.test/in", updated.Url)

	var listed []model.WebhookUrl
	decodeBody(t, s.do(t, http.MethodGet, "/webhooks", nil), &listed)
	require.Len(t, listed, 1)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/webhooks/"+created.Id, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/webhooks/"+created.Id, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/webhooks/"+created.Id, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/webhooks/"+created.Id, nil).Code)
}

func TestWebhookConfigurationValidation(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodPost, "/webhook-configurations", map[string]interface{}{
		"webhook_url_id": "w1", "method": "put", "fields": []string{"id", "caption"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var config model.WebhookConfiguration
	decodeBody(t, w, &config)
	assert.Equal(t, http.MethodPut, config.Method)

	for _, body := range []map[string]interface{}{
		{"method": "POST"},
		{"webhook_url_id": "w1", "method": "DELETE"},
		{"webhook_url_id": "w1", "fields": []string{"password"}},
	} {
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/webhook-configurations", body).Code)
	}

	require.NoError(t, s.db.Create(&model.WebhookConfiguration{Id: "other", WebhookUrlId: "w2", Method: "POST"}).Error)
	var configs []model.WebhookConfiguration
	decodeBody(t, s.do(t, http.MethodGet, "/webhook-configurations?webhook_url_id=w1", nil), &configs)
	require.Len(t, configs, 1)
	assert.Equal(t, config.Id, configs[0].Id)
}

func TestSheetsConfigReloadsAutoSync(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(t, http.MethodPost, "/sheets-configs", map[string]interface{}{
		"spreadsheet_id": "sheet", "auto_sync": true, "header_mapping": map[string]string{"Caption": "caption"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var config model.GoogleSheetsConfig
	decodeBody(t, w, &config)

	assert.Equal(t, []string{config.Id}, s.autoSync.Running())

	w = s.do(t, http.MethodPut, "/sheets-configs/"+config.Id, map[string]interface{}{"auto_sync": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, s.autoSync.Running())

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/sheets-configs", map[string]interface{}{
		"spreadsheet_id": "sheet", "header_mapping": map[string]string{"Token": "secret"},
	}).Code)
}

func TestWebhookHistoryAndSyncLogs(t *testing.T) {
	s := newTestServer(t, false)
	now := time.Now()
	require.NoError(t, s.db.Create(&model.WebhookHistory{Id: "h1", WebhookUrlId: "w1", SentAt: now.Add(-time.Minute)}).Error)
	require.NoError(t, s.db.Create(&model.WebhookHistory{Id: "h2", WebhookUrlId: "w1", SentAt: now}).Error)
	require.NoError(t, s.db.Create(&model.WebhookHistory{Id: "h3", WebhookUrlId: "w2", SentAt: now}).Error)
	chatId := int64(5)
	require.NoError(t, s.db.Create(&model.SyncLog{Id: "s1", ChatId: &chatId, Operation: "sync_captions", Status: model.SyncStatusCompleted}).Error)
	require.NoError(t, s.db.Create(&model.SyncLog{Id: "s2", Operation: "sync_captions", Status: model.SyncStatusRunning}).Error)

	var history []model.WebhookHistory
	decodeBody(t, s.do(t, http.MethodGet, "/webhook-history?webhook_url_id=w1", nil), &history)
	require.Len(t, history, 2)
	assert.Equal(t, "h2", history[0].Id)

	var logs []model.SyncLog
	decodeBody(t, s.do(t, http.MethodGet, "/sync-logs?chat_id=5", nil), &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "s1", logs[0].Id)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/sync-logs?chat_id=five", nil).Code)
}

func TestInvokeFunction(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodPost, "/functions/"+functions.DeleteDuplicates, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"status": "success", "result": {"deleted": 0, "kept": 0, "errors": []}}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/functions/unknown", "{}").Code)

	w = s.do(t, http.MethodPost, "/functions/"+functions.SyncCaptions, `{"chat_id": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), "result")

	var names struct {
		Functions []string `json:"functions"`
	}
	decodeBody(t, s.do(t, http.MethodGet, "/functions", nil), &names)
	assert.Contains(t, names.Functions, functions.AIAssistant)
}

func TestRealtimeDisabled(t *testing.T) {
	s := newTestServer(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, http.MethodGet, "/realtime", nil).Code)
}
