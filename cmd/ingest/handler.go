package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Luismorlan/mediamux/webhook/telegram"
	"github.com/aws/aws-lambda-go/events"
)

// header looks a header up ignoring case, API Gateway forwards them as sent.
func header(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

type proxyHandler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// newProxyHandler answers API Gateway proxy requests exactly like the
// /webhook/telegram route.
func newProxyHandler(processor telegram.UpdateProcessor, secret string) proxyHandler {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		if req.HTTPMethod != "" && req.HTTPMethod != http.MethodPost {
			return respond(http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		}
		body := []byte(req.Body)
		if req.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				return respond(http.StatusBadRequest, map[string]string{"error": "invalid base64 body"})
			}
			body = decoded
		}
		status, payload := telegram.HandleUpdate(ctx, processor, secret, header(req.Headers, telegram.SecretTokenHeader), body)
		return respond(status, payload)
	}
}

func respond(status int, payload interface{}) (events.APIGatewayProxyResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}
