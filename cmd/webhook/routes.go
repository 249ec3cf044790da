package main

import (
	"github.com/Luismorlan/mediamux/webhook/telegram"
	"github.com/gin-gonic/gin"
)

func AddTelegramWebhook(rg *gin.RouterGroup, processor telegram.UpdateProcessor, secret string) {
	rg.POST("/telegram", telegram.NewTelegramUpdateHandler(processor, secret))
}
