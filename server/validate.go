package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/Luismorlan/mediamux/functions"
	"github.com/Luismorlan/mediamux/model"
	"github.com/Luismorlan/mediamux/utils"
)

var webhookMethods = map[string]bool{
	http.MethodGet:   true,
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

func knownField(field string) bool {
	return utils.ContainsString(functions.MediaFields, field)
}

func validateWebhookUrl(w *model.WebhookUrl) error {
	w.Url = strings.TrimSpace(w.Url)
	u, err := url.Parse(w.Url)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return badRequest("url must be an absolute http(s) url, got %q", w.Url)
	}
	if w.Name == "" {
		w.Name = u.Host
	}
	return nil
}

func validateWebhookConfiguration(w *model.WebhookConfiguration) error {
	if w.WebhookUrlId == "" {
		return badRequest("webhook_url_id is required")
	}
	w.Method = strings.ToUpper(w.Method)
	if w.Method == "" {
		w.Method = http.MethodPost
	}
	if !webhookMethods[w.Method] {
		return badRequest("unsupported method %q", w.Method)
	}
	for _, f := range w.Fields {
		if !knownField(f) {
			return badRequest("unknown media field %q", f)
		}
	}
	return nil
}

func validateSheetsConfig(c *model.GoogleSheetsConfig) error {
	if c.SpreadsheetId == "" {
		return badRequest("spreadsheet_id is required")
	}
	for header, field := range c.HeaderMapping.Data() {
		if !knownField(field) {
			return badRequest("header %q maps to unknown media field %q", header, field)
		}
	}
	return nil
}
