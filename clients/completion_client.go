package clients

import (
	"context"
	"net/http"
	"strings"

	"github.com/Luismorlan/mediamux/app_config"
	"github.com/pkg/errors"
)

// CompletionClient calls an OpenAI compatible chat completion endpoint.
type CompletionClient struct {
	http    *HttpClient
	baseUrl string
	model   string
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []ChatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

func NewCompletionClient(cfg app_config.CompletionConfig, httpClient *HttpClient) *CompletionClient {
	if httpClient == nil {
		httpClient = NewHttpClient(http.Header{"Authorization": {"Bearer " + cfg.ApiKey}}, nil)
	}
	return &CompletionClient{http: httpClient, baseUrl: strings.TrimRight(cfg.BaseUrl, "/"), model: cfg.Model}
}

// CompleteJSON sends a system and a user prompt, asking for a json object
// back, and returns the raw content of the first choice.
func (c *CompletionClient) CompleteJSON(ctx context.Context, system, prompt string) (string, error) {
	req := chatCompletionRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	var res chatCompletionResponse
	if err := c.http.SendJSON(ctx, http.MethodPost, c.baseUrl+"/chat/completions", req, &res); err != nil {
		return "", errors.Wrap(err, "chat completion failed")
	}
	if len(res.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return res.Choices[0].Message.Content, nil
}
