package clients

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/Luismorlan/mediamux/app_config"
	"github.com/pkg/errors"
)

// Telegram caps bot downloads at 20MB.
const maxTelegramDownloadBytes = 20 << 20

// TelegramClient calls the telegram Bot API over https.
type TelegramClient struct {
	token   string
	apiBase string
	http    *HttpClient
}

type telegramResponse struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

func NewTelegramClient(cfg app_config.TelegramConfig, httpClient *HttpClient) *TelegramClient {
	if httpClient == nil {
		httpClient = NewDefaultHttpClient()
	}
	return &TelegramClient{
		token:   cfg.BotToken,
		apiBase: strings.TrimRight(cfg.APIBase, "/"),
		http:    httpClient,
	}
}

func (c *TelegramClient) methodUrl(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
}

func (c *TelegramClient) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	var res struct {
		telegramResponse
		Result interface{} `json:"result"`
	}
	res.Result = result
	if err := c.http.SendJSON(ctx, http.MethodPost, c.methodUrl(method), params, &res); err != nil {
		return errors.Wrapf(err, "telegram %s failed", method)
	}
	if !res.Ok {
		return errors.Errorf("telegram %s failed: %d %s", method, res.ErrorCode, res.Description)
	}
	return nil
}

// GetFile resolves a file id to a downloadable file path.
func (c *TelegramClient) GetFile(ctx context.Context, fileId string) (*TelegramFile, error) {
	var file TelegramFile
	if err := c.call(ctx, "getFile", map[string]string{"file_id": fileId}, &file); err != nil {
		return nil, err
	}
	if file.FilePath == "" {
		return nil, errors.Errorf("telegram returned no file path for file %s", fileId)
	}
	return &file, nil
}

// DownloadFile downloads a file previously resolved with GetFile and returns
// its content along with the content type reported by telegram.
func (c *TelegramClient) DownloadFile(ctx context.Context, filePath string) ([]byte, string, error) {
	uri := fmt.Sprintf("%s/file/bot%s/%s", c.apiBase, c.token, strings.TrimLeft(filePath, "/"))
	res, err := c.http.Get(ctx, uri)
	if err != nil {
		return nil, "", errors.Wrap(err, "fail to download telegram file")
	}
	defer res.Body.Close()

	data, err := ioutil.ReadAll(http.MaxBytesReader(nil, res.Body, maxTelegramDownloadBytes))
	if err != nil {
		return nil, "", errors.Wrap(err, "fail to read telegram file")
	}
	return data, res.Header.Get("Content-Type"), nil
}

func (c *TelegramClient) GetChat(ctx context.Context, chatId int64) (*TelegramChat, error) {
	var chat TelegramChat
	if err := c.call(ctx, "getChat", map[string]int64{"chat_id": chatId}, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// ForwardMessage forwards one message and returns the forwarded copy, whose
// caption is the current caption of the original.
func (c *TelegramClient) ForwardMessage(ctx context.Context, toChatId, fromChatId, messageId int64) (*TelegramMessage, error) {
	params := map[string]interface{}{
		"chat_id":              toChatId,
		"from_chat_id":         fromChatId,
		"message_id":           messageId,
		"disable_notification": true,
	}
	var msg TelegramMessage
	if err := c.call(ctx, "forwardMessage", params, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *TelegramClient) DeleteMessage(ctx context.Context, chatId, messageId int64) error {
	var ok bool
	return c.call(ctx, "deleteMessage", map[string]int64{"chat_id": chatId, "message_id": messageId}, &ok)
}
