package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Luismorlan/mediamux/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

type AssistantRequest struct {
	Prompt       string `json:"prompt"`
	WebhookUrlId string `json:"webhook_url_id"`
	// Save stores the drafted configuration.
	Save bool `json:"save"`
}

type AssistantResult struct {
	Configuration model.WebhookConfiguration `json:"configuration"`
	Explanation   string                     `json:"explanation"`
	Saved         bool                       `json:"saved"`
}

type assistantDraft struct {
	Name         string            `json:"name"`
	Method       string            `json:"method"`
	Headers      map[string]string `json:"headers"`
	QueryParams  map[string]string `json:"query_params"`
	BodyTemplate string            `json:"body_template"`
	Fields       []string          `json:"fields"`
	Explanation  string            `json:"explanation"`
}

var assistantMethods = map[string]bool{
	http.MethodGet:   true,
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

func assistantSystemPrompt() string {
	return fmt.Sprintf(`You configure outbound webhooks for a media library.
Answer with one json object with the keys: name, method, headers, query_params, body_template, fields, explanation.
method is one of GET, POST, PUT, PATCH.
fields lists the media fields to send, chosen from: %s.
body_template is the request body, %s is replaced with the json array of items and %s with the item count. Leave it empty for the default body.`,
		strings.Join(MediaFields, ", "), itemsPlaceholder, countPlaceholder)
}

// DraftWebhookConfiguration asks the completion model for a webhook
// configuration matching the operator's request. Unknown fields and
// methods in the answer are dropped.
func (f *Functions) DraftWebhookConfiguration(ctx context.Context, req AssistantRequest) (*AssistantResult, error) {
	if f.Completion == nil {
		return nil, errors.Wrap(ErrNotConfigured, "assistant")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.Wrap(ErrBadRequest, "prompt is required")
	}
	var target *model.WebhookUrl
	if req.WebhookUrlId != "" {
		target = &model.WebhookUrl{}
		if err := f.first(ctx, target, req.WebhookUrlId); err != nil {
			return nil, err
		}
	}

	prompt := req.Prompt
	if target != nil {
		prompt = fmt.Sprintf("Target url: %s\n\n%s", target.Url, req.Prompt)
	}
	content, err := f.Completion.CompleteJSON(ctx, assistantSystemPrompt(), prompt)
	if err != nil {
		return nil, err
	}
	var draft assistantDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return nil, errors.Wrap(err, "assistant answered with invalid json")
	}

	config := model.WebhookConfiguration{
		Id:           uuid.New().String(),
		Name:         draft.Name,
		Method:       strings.ToUpper(draft.Method),
		Headers:      datatypes.NewJSONType(nonNilMap(draft.Headers)),
		QueryParams:  datatypes.NewJSONType(nonNilMap(draft.QueryParams)),
		BodyTemplate: draft.BodyTemplate,
		Fields:       datatypes.JSONSlice[string](knownFields(draft.Fields)),
	}
	if !assistantMethods[config.Method] {
		config.Method = http.MethodPost
	}
	if config.Name == "" {
		config.Name = "Assistant draft"
	}
	if target != nil {
		config.WebhookUrlId = target.Id
	}

	res := &AssistantResult{Configuration: config, Explanation: draft.Explanation}
	if req.Save {
		if target == nil {
			return nil, errors.Wrap(ErrBadRequest, "webhook_url_id is required to save")
		}
		if err := f.DB.WithContext(ctx).Create(&res.Configuration).Error; err != nil {
			return nil, errors.Wrap(err, "fail to save configuration")
		}
		res.Saved = true
	}
	return res, nil
}

func knownFields(fields []string) []string {
	known := map[string]bool{}
	for _, f := range MediaFields {
		known[f] = true
	}
	out := []string{}
	for _, f := range fields {
		if known[f] {
			out = append(out, f)
		}
	}
	return out
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
