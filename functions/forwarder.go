package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Luismorlan/mediamux/clients"
	"github.com/Luismorlan/mediamux/model"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	itemsPlaceholder = "{{items}}"
	countPlaceholder = "{{count}}"

	slackWebhookPrefix = "https://hooks.slack.com/"
	// Slack rejects messages with more than 50 blocks.
	maxSlackItems = 45
)

type WebhookForwardRequest struct {
	WebhookUrlId    string   `json:"webhook_url_id"`
	ConfigurationId string   `json:"configuration_id"`
	MediaIds        []string `json:"media_ids"`
	Fields          []string `json:"fields"`
}

type WebhookForwardResult struct {
	HistoryId    string `json:"history_id"`
	Status       string `json:"status"`
	ResponseCode int    `json:"response_code"`
	ItemCount    int    `json:"item_count"`
}

// ForwardToWebhook sends the selected media, or every media, to a webhook.
// Every attempt is recorded in the webhook history.
func (f *Functions) ForwardToWebhook(ctx context.Context, req WebhookForwardRequest) (*WebhookForwardResult, error) {
	if req.WebhookUrlId == "" {
		return nil, errors.Wrap(ErrBadRequest, "webhook_url_id is required")
	}
	var target model.WebhookUrl
	if err := f.first(ctx, &target, req.WebhookUrlId); err != nil {
		return nil, err
	}
	var config *model.WebhookConfiguration
	if req.ConfigurationId != "" {
		config = &model.WebhookConfiguration{}
		if err := f.first(ctx, config, req.ConfigurationId); err != nil {
			return nil, err
		}
	}

	fields := req.Fields
	if len(fields) == 0 && config != nil {
		fields = config.Fields
	}
	records, err := f.loadRecords(ctx, req.MediaIds)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]interface{}, 0, len(records))
	for _, r := range records {
		item, err := project(r, fields)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	var code int
	if strings.HasPrefix(target.Url, slackWebhookPrefix) {
		code, err = f.sendSlack(ctx, target, items)
	} else {
		code, err = f.sendHttp(ctx, target, config, items)
	}

	history := model.WebhookHistory{
		Id:           uuid.New().String(),
		WebhookUrlId: target.Id,
		Fields:       datatypes.JSONSlice[string](fields),
		ItemCount:    len(items),
		Status:       model.WebhookStatusSuccess,
		ResponseCode: code,
		SentAt:       time.Now(),
	}
	if err != nil {
		history.Status = model.WebhookStatusError
		history.Error = err.Error()
	}
	if dbErr := f.DB.WithContext(ctx).Create(&history).Error; dbErr != nil {
		Logger.Log.Error("fail to record webhook history: ", dbErr)
	}

	res := &WebhookForwardResult{HistoryId: history.Id, Status: history.Status, ResponseCode: code, ItemCount: len(items)}
	if err != nil {
		return res, errors.Wrapf(err, "webhook %s failed", target.Name)
	}
	return res, nil
}

func (f *Functions) first(ctx context.Context, out interface{}, id string) error {
	err := f.DB.WithContext(ctx).Where("id = ?", id).First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(ErrNotFound, "%T %s", out, id)
	}
	return err
}

// renderBody substitutes the placeholders of template, or builds the default
// {"items": [...], "count": n} body.
func renderBody(template string, items []map[string]interface{}) ([]byte, error) {
	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	if template == "" {
		return json.Marshal(map[string]interface{}{"items": json.RawMessage(encoded), "count": len(items)})
	}
	r := strings.NewReplacer(itemsPlaceholder, string(encoded), countPlaceholder, strconv.Itoa(len(items)))
	return []byte(r.Replace(template)), nil
}

func (f *Functions) sendHttp(ctx context.Context, target model.WebhookUrl, config *model.WebhookConfiguration, items []map[string]interface{}) (int, error) {
	method := http.MethodPost
	var template string
	header := http.Header{"Content-Type": {"application/json"}}
	uri, err := url.Parse(target.Url)
	if err != nil {
		return 0, errors.Wrap(ErrBadRequest, "invalid webhook url")
	}
	if config != nil {
		if config.Method != "" {
			method = strings.ToUpper(config.Method)
		}
		template = config.BodyTemplate
		for k, v := range config.Headers.Data() {
			header.Set(k, v)
		}
		query := uri.Query()
		for k, v := range config.QueryParams.Data() {
			query.Set(k, v)
		}
		uri.RawQuery = query.Encode()
	}

	var body io.Reader
	if method != http.MethodGet {
		payload, err := renderBody(template, items)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(payload)
	}
	res, err := f.Http.Do(ctx, method, uri.String(), body, header)
	if err != nil {
		return clients.StatusCodeOf(err), err
	}
	defer res.Body.Close()
	io.Copy(ioutil.Discard, res.Body)
	return res.StatusCode, nil
}

func buildSlackMessage(items []map[string]interface{}) *slack.WebhookMessage {
	title := fmt.Sprintf("%d media item(s) from mediamux", len(items))
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", title, false, false)),
		slack.NewDividerBlock(),
	}
	for i, item := range items {
		if i == maxSlackItems {
			more := slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("_and %d more_", len(items)-maxSlackItems), false, false)
			blocks = append(blocks, slack.NewContextBlock("", more))
			break
		}
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", slackItemText(item), false, false), nil, nil))
	}
	return &slack.WebhookMessage{
		Text:   title,
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}

func slackItemText(item map[string]interface{}) string {
	var lines []string
	for _, field := range MediaFields {
		v, ok := item[field]
		if !ok || v == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("*%s*: %v", field, v))
	}
	return strings.Join(lines, "\n")
}

func (f *Functions) sendSlack(ctx context.Context, target model.WebhookUrl, items []map[string]interface{}) (int, error) {
	if err := slack.PostWebhookContext(ctx, target.Url, buildSlackMessage(items)); err != nil {
		return 0, err
	}
	return http.StatusOK, nil
}
