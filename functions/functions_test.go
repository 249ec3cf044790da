package functions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Luismorlan/mediamux/clients"
	"github.com/Luismorlan/mediamux/file_store"
	"github.com/Luismorlan/mediamux/model"
	"github.com/Luismorlan/mediamux/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeTelegram struct {
	mu        sync.Mutex
	captions  map[int64]string
	forwarded [][3]int64
	deleted   []int64
	failIds   map[int64]bool
}

func (f *fakeTelegram) ForwardMessage(ctx context.Context, toChatId, fromChatId, messageId int64) (*clients.TelegramMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIds[messageId] {
		return nil, errors.New("message to forward not found")
	}
	f.forwarded = append(f.forwarded, [3]int64{toChatId, fromChatId, messageId})
	return &clients.TelegramMessage{MessageId: 1000 + messageId, Caption: f.captions[messageId]}, nil
}

func (f *fakeTelegram) DeleteMessage(ctx context.Context, chatId, messageId int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageId)
	return nil
}

type fakeSheets struct {
	mu      sync.Mutex
	cleared []string
	updates []sheetUpdate
}

type sheetUpdate struct {
	SpreadsheetId string
	Range         string
	Values        [][]interface{}
}

func (f *fakeSheets) UpdateValues(ctx context.Context, spreadsheetId, rng string, values [][]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, sheetUpdate{spreadsheetId, rng, values})
	return nil
}

func (f *fakeSheets) ClearValues(ctx context.Context, spreadsheetId, rng string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, rng)
	return nil
}

func (f *fakeSheets) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

type fakeDrive struct {
	uploads map[string][]byte
}

func (f *fakeDrive) Upload(ctx context.Context, name, mimeType, folderId string, data []byte) (*clients.DriveFile, error) {
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[name] = data
	return &clients.DriveFile{Id: "drive-" + name, Name: name, MimeType: mimeType}, nil
}

type fakeCompletion struct {
	answer string
	system string
	prompt string
}

func (f *fakeCompletion) CompleteJSON(ctx context.Context, system, prompt string) (string, error) {
	f.system, f.prompt = system, prompt
	return f.answer, nil
}

func newTestFunctions(t *testing.T) (*Functions, *gorm.DB, *file_store.FakeFileStore) {
	db, _ := utils.CreateTempDB(t)
	store := file_store.NewFakeFileStore()
	return New(Dependencies{DB: db, Store: store}), db, store
}

type mediaSeed struct {
	id           string
	chatId       int64
	messageId    int64
	caption      string
	groupId      string
	fileUniqueId string
	mediaType    model.MediaType
	createdAt    time.Time
}

func seed(t *testing.T, db *gorm.DB, s mediaSeed) model.Media {
	if s.mediaType == "" {
		s.mediaType = model.MediaTypeImage
	}
	if s.createdAt.IsZero() {
		s.createdAt = time.Now()
	}
	m := model.Media{
		Id:           s.id,
		CreatedAt:    s.createdAt,
		ChatId:       s.chatId,
		MessageId:    s.messageId,
		FileName:     s.id + ".jpg",
		PublicUrl:    "https://storage.test/storage/v1/object/public/telegram_media/" + s.id + ".jpg",
		MediaType:    s.mediaType,
		Caption:      utils.StringPtr(s.caption),
		MediaGroupId: utils.StringPtr(s.groupId),
		FileUniqueId: utils.StringPtr(s.fileUniqueId),
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func captionOf(t *testing.T, db *gorm.DB, id string) string {
	var m model.Media
	require.NoError(t, db.First(&m, "id = ?", id).Error)
	return m.CaptionOrEmpty()
}
