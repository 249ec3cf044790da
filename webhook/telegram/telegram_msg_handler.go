// Telegram delivers bot updates to this webhook, authenticated with the
// secret token registered through setWebhook.
// https://core.telegram.org/bots/api#setwebhook
package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io/ioutil"
	"net/http"

	"github.com/Luismorlan/mediamux/clients"
	"github.com/Luismorlan/mediamux/ingestion"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/gin-gonic/gin"
)

const (
	SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"
	NoMessageDetail   = "No message to process"
)

// UpdateProcessor ingests one parsed update.
type UpdateProcessor interface {
	Process(ctx context.Context, update *clients.TelegramUpdate) (*ingestion.Result, error)
}

// ValidSecret compares the presented token with the configured secret in
// constant time. An empty configured secret rejects everything.
func ValidSecret(configured, presented string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}

// HandleUpdate runs one webhook delivery and returns the status code and json
// body to answer with. Shared by the gin route and the lambda entrypoint.
func HandleUpdate(ctx context.Context, processor UpdateProcessor, secret, presentedSecret string, body []byte) (int, gin.H) {
	if !ValidSecret(secret, presentedSecret) {
		Logger.Log.Warn("rejected telegram update with invalid secret token")
		return http.StatusUnauthorized, gin.H{"error": "Unauthorized"}
	}

	var update clients.TelegramUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		return http.StatusBadRequest, gin.H{"error": "Invalid JSON: " + err.Error()}
	}

	res, err := processor.Process(ctx, &update)
	if err != nil {
		Logger.Log.Errorf("fail to process telegram update %d: %s", update.UpdateId, err)
		return http.StatusInternalServerError, gin.H{"error": err.Error()}
	}
	if res.Skipped {
		return http.StatusOK, gin.H{"status": "success", "details": gin.H{"message": NoMessageDetail}}
	}
	return http.StatusOK, gin.H{"status": "success", "details": res}
}

// NewTelegramUpdateHandler serves POST deliveries from telegram.
func NewTelegramUpdateHandler(processor UpdateProcessor, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := ioutil.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fail to get request body: " + err.Error()})
			return
		}
		status, payload := HandleUpdate(c.Request.Context(), processor, secret, c.GetHeader(SecretTokenHeader), body)
		c.JSON(status, payload)
	}
}
