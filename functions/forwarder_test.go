package functions

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Luismorlan/mediamux/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestForwardToWebhookWithConfiguration(t *testing.T) {
	f, db, _ := newTestFunctions(t)
	seed(t, db, mediaSeed{id: "m1", chatId: 1, messageId: 1, caption: "hello"})
	seed(t, db, mediaSeed{id: "m2", chatId: 1, messageId: 2, caption: "skip me"})
	require.NoError(t, db.Create(&model.Channel{Id: "c", ChatId: 1, Title: "News", IsActive: true}).Error)

	var gotBody []byte
	var gotReq *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		gotBody, _ = ioutil.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	target := model.WebhookUrl{Id: "w1", Name: "zapier", Url: server.URL + "/hook"}
	require.NoError(t, db.Create(&target).Error)
	config := model.WebhookConfiguration{
		Id:           "cfg",
		WebhookUrlId: "w1",
		Method:       "put",
		Headers:      datatypes.NewJSONType(map[string]string{"X-Api-Key": "k"}),
		QueryParams:  datatypes.NewJSONType(map[string]string{"source": "mediamux"}),
		BodyTemplate: `{"n": {{count}}, "data": {{items}}}`,
		Fields:       datatypes.JSONSlice[string]{"id", "caption", "channel_title"},
	}
	require.NoError(t, db.Create(&config).Error)

	res, err := f.ForwardToWebhook(context.Background(), WebhookForwardRequest{
		WebhookUrlId: "w1", ConfigurationId: "cfg", MediaIds: []string{"m1"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.WebhookStatusSuccess, res.Status)
	assert.Equal(t, http.StatusAccepted, res.ResponseCode)
	assert.Equal(t, 1, res.ItemCount)

	assert.Equal(t, http.MethodPut, gotReq.Method)
	assert.Equal(t, "k", gotReq.Header.Get("X-Api-Key"))
	assert.Equal(t, "mediamux", gotReq.URL.Query().Get("source"))
	assert.JSONEq(t, `{"n": 1, "data": [{"id": "m1", "caption": "hello", "channel_title": "News"}]}`, string(gotBody))

	var history []model.WebhookHistory
	require.NoError(t, db.Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, model.WebhookStatusSuccess, history[0].Status)
	assert.Equal(t, []string{"id", "caption", "channel_title"}, []string(history[0].Fields))
}

func TestForwardToWebhookRecordsFailure(t *testing.T) {
	f, db, _ := newTestFunctions(t)
	seed(t, db, mediaSeed{id: "m1", chatId: 1, messageId: 1})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	require.NoError(t, db.Create(&model.WebhookUrl{Id: "w1", Name: "broken", Url: server.URL}).Error)

	res, err := f.ForwardToWebhook(context.Background(), WebhookForwardRequest{WebhookUrlId: "w1"})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, model.WebhookStatusError, res.Status)
	assert.Equal(t, http.StatusInternalServerError, res.ResponseCode)

	var history model.WebhookHistory
	require.NoError(t, db.First(&history).Error)
	assert.Equal(t, model.WebhookStatusError, history.Status)
	assert.NotEmpty(t, history.Error)
}

func TestForwardToWebhookValidation(t *testing.T) {
	f, db, _ := newTestFunctions(t)
	_, err := f.ForwardToWebhook(context.Background(), WebhookForwardRequest{})
	assert.ErrorIs(t, err, ErrBadRequest)
	_, err = f.ForwardToWebhook(context.Background(), WebhookForwardRequest{WebhookUrlId: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	seed(t, db, mediaSeed{id: "m1", chatId: 1, messageId: 1})
	require.NoError(t, db.Create(&model.WebhookUrl{Id: "w1", Url: "http://127.0.0.1:1"}).Error)
	_, err = f.ForwardToWebhook(context.Background(), WebhookForwardRequest{WebhookUrlId: "w1", Fields: []string{"password"}})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestRenderBodyDefault(t *testing.T) {
	body, err := renderBody("", []map[string]interface{}{{"id": "a"}})
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, float64(1), decoded["count"])
}

func TestBuildSlackMessage(t *testing.T) {
	items := make([]map[string]interface{}, maxSlackItems+5)
	for i := range items {
		items[i] = map[string]interface{}{"id": "x", "caption": ""}
	}
	msg := buildSlackMessage(items)
	// header, divider, one section per item and the "more" context block
	assert.Len(t, msg.Blocks.BlockSet, 2+maxSlackItems+1)
	assert.Contains(t, msg.Text, "50 media item(s)")
	assert.Equal(t, "*id*: x", slackItemText(items[0]))
}
