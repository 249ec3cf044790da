package gallery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Luismorlan/mediamux/file_store"
	"github.com/Luismorlan/mediamux/model"
	"github.com/Luismorlan/mediamux/realtime"
	"github.com/Luismorlan/mediamux/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func seedMedia(t *testing.T, db *gorm.DB, id string, chatId int64, mediaType model.MediaType, driveId *string, createdAt time.Time) model.Media {
	media := model.Media{
		Id:           id,
		CreatedAt:    createdAt,
		ChatId:       chatId,
		MessageId:    int64(len(id)) + chatId,
		FileName:     id + ".jpg",
		MediaType:    mediaType,
		Caption:      utils.StringPtr("caption of " + id),
		FileUniqueId: utils.StringPtr("u-" + id),
		DriveId:      driveId,
		Metadata: datatypes.NewJSONType(model.NewIngestionMetadata(model.IngestionMetadata{
			FileId: "f-" + id, FileUniqueId: "u-" + id,
		})),
	}
	require.NoError(t, db.Create(&media).Error)
	return media
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *file_store.FakeFileStore) {
	db, _ := utils.CreateTempDB(t)
	store := file_store.NewFakeFileStore()
	s, err := NewService(db, store)
	require.NoError(t, err)
	return s, db, store
}

func ids(views []MediaView) []string {
	out := []string{}
	for _, v := range views {
		out = append(out, v.Id)
	}
	return out
}

func TestListFilterComposition(t *testing.T) {
	s, db, _ := newTestService(t)
	base := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&model.Channel{Id: "c1", ChatId: 1, Title: "One", IsActive: true}).Error)
	seedMedia(t, db, "m1", 1, model.MediaTypeImage, nil, base)
	seedMedia(t, db, "m2", 1, model.MediaTypeVideo, utils.StringPtr("drive-2"), base.Add(time.Minute))
	seedMedia(t, db, "m3", 2, model.MediaTypeImage, nil, base.Add(2*time.Minute))

	ctx := context.Background()
	all, err := s.List(ctx, MediaFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"m3", "m2", "m1"}, ids(all))

	byChannel, err := s.List(ctx, MediaFilter{Channel: "1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m2", "m1"}, ids(byChannel))
	assert.Equal(t, "One", byChannel[0].ChannelTitle)

	notUploaded, err := s.List(ctx, MediaFilter{Channel: "1", UploadStatus: UploadStatusNotUploaded})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, ids(notUploaded))
	assert.False(t, notUploaded[0].Uploaded)

	uploaded, err := s.List(ctx, MediaFilter{UploadStatus: UploadStatusUploaded})
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, ids(uploaded))
	assert.True(t, uploaded[0].Uploaded)

	images, err := s.List(ctx, MediaFilter{MediaType: "image"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m3", "m1"}, ids(images))
	// Channel 2 has no row, the title falls back to the default.
	assert.Equal(t, "Chat 2", images[0].ChannelTitle)

	search, err := s.List(ctx, MediaFilter{Search: "OF M2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, ids(search))

	paged, err := s.List(ctx, MediaFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, ids(paged))
}

func TestListRejectsInvalidFilter(t *testing.T) {
	s, _, _ := newTestService(t)
	for _, f := range []MediaFilter{{Channel: "abc"}, {MediaType: "audio"}, {UploadStatus: "maybe"}} {
		_, err := s.List(context.Background(), f)
		assert.ErrorIs(t, err, ErrInvalidFilter)
	}
}

func TestListFreshOnceChangeEventDelivered(t *testing.T) {
	s, db, _ := newTestService(t)
	bus := realtime.NewLocalBus()
	feed := realtime.NewChangeFeed(bus, "media", "channels")
	require.NoError(t, db.Use(feed))
	feed.OnChange(s.Changed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	seedMedia(t, db, "m1", 1, model.MediaTypeImage, nil, time.Now())
	seedMedia(t, db, "m2", 1, model.MediaTypeImage, nil, time.Now())
	drain(events)

	for i := 0; i < 50; i++ {
		_, err := s.List(ctx, MediaFilter{})
		require.NoError(t, err)

		want := fmt.Sprintf("caption %d", i)
		require.NoError(t, db.Model(&model.Media{}).Where("chat_id = ?", 1).Update("caption", want).Error)
		select {
		case <-events:
		case <-time.After(2 * time.Second):
			t.Fatal("no change event")
		}
		drain(events)

		views, err := s.List(ctx, MediaFilter{})
		require.NoError(t, err)
		require.Len(t, views, 2)
		for _, v := range views {
			assert.Equal(t, want, *v.Caption, "iteration %d", i)
		}
	}
}

func drain(events <-chan realtime.ChangeEvent) {
	for {
		select {
		case <-events:
		default:
			return
		}
	}
}

func TestDecoratePurgesCacheForMediaEvents(t *testing.T) {
	s, db, _ := newTestService(t)
	ctx := context.Background()
	seedMedia(t, db, "m1", 1, model.MediaTypeImage, nil, time.Now())
	_, err := s.List(ctx, MediaFilter{})
	require.NoError(t, err)

	// Written by another process, only the bus event reaches this one.
	seedMedia(t, db, "m2", 1, model.MediaTypeImage, nil, time.Now())

	s.Decorate(realtime.ChangeEvent{Table: "sync_logs", Type: realtime.EventInsert})
	cached, err := s.List(ctx, MediaFilter{})
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	toast := s.Decorate(realtime.ChangeEvent{Table: "media", Type: realtime.EventInsert, Id: "m2"})
	assert.Equal(t, "New media", toast.(Toast).Title)
	fresh, err := s.List(ctx, MediaFilter{})
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}

func TestListServesFromCacheUntilInvalidated(t *testing.T) {
	s, db, _ := newTestService(t)
	ctx := context.Background()
	seedMedia(t, db, "m1", 1, model.MediaTypeImage, nil, time.Now())
	first, err := s.List(ctx, MediaFilter{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// No change feed is attached, the cached result is served.
	seedMedia(t, db, "m2", 1, model.MediaTypeImage, nil, time.Now())
	cached, err := s.List(ctx, MediaFilter{})
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	s.Invalidate()
	fresh, err := s.List(ctx, MediaFilter{})
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}

func TestDeleteMediaRemovesObjectRowAndMessage(t *testing.T) {
	s, db, store := newTestService(t)
	ctx := context.Background()
	media := seedMedia(t, db, "m1", 1, model.MediaTypeImage, nil, time.Now())
	store.Put(media.FileName, []byte("x"), "image/jpeg")
	require.NoError(t, db.Create(&model.Message{Id: "msg", ChatId: media.ChatId, MessageId: media.MessageId}).Error)

	require.NoError(t, s.DeleteMedia(ctx, "m1"))
	assert.Empty(t, store.Keys())

	var mediaCount, messageCount int64
	db.Model(&model.Media{}).Count(&mediaCount)
	db.Model(&model.Message{}).Count(&messageCount)
	assert.Zero(t, mediaCount)
	assert.Zero(t, messageCount)
}

func TestDeleteMediaKeepsObjectWhenRowDeleteFails(t *testing.T) {
	s, db, store := newTestService(t)
	media := seedMedia(t, db, "m1", 1, model.MediaTypeImage, nil, time.Now())
	store.Put(media.FileName, []byte("x"), "image/jpeg")
	require.NoError(t, db.Callback().Delete().Before("gorm:delete").Register("test:fail_delete", func(tx *gorm.DB) {
		tx.AddError(errors.New("disk full"))
	}))

	assert.Error(t, s.DeleteMedia(context.Background(), "m1"))
	assert.Equal(t, []string{media.FileName}, store.Keys())
	var count int64
	db.Model(&model.Media{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeleteMediaPublishesAfterCommit(t *testing.T) {
	s, db, _ := newTestService(t)
	bus := realtime.NewLocalBus()
	require.NoError(t, db.Use(realtime.NewChangeFeed(bus, "media", "messages")))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	media := seedMedia(t, db, "m1", 1, model.MediaTypeImage, nil, time.Now())
	require.NoError(t, db.Create(&model.Message{Id: "msg", ChatId: media.ChatId, MessageId: media.MessageId}).Error)
	drain(events)

	require.NoError(t, s.DeleteMedia(ctx, "m1"))
	got := map[string]realtime.EventType{}
	for len(got) < 2 {
		select {
		case e := <-events:
			got[e.Table] = e.Type
		case <-time.After(2 * time.Second):
			t.Fatalf("missing change events, got %v", got)
		}
	}
	assert.Equal(t, map[string]realtime.EventType{"media": realtime.EventDelete, "messages": realtime.EventDelete}, got)
}

func TestDeleteMediaWithoutMessage(t *testing.T) {
	s, db, _ := newTestService(t)
	seedMedia(t, db, "m1", 1, model.MediaTypeImage, nil, time.Now())
	assert.NoError(t, s.DeleteMedia(context.Background(), "m1"))
	assert.ErrorIs(t, s.DeleteMedia(context.Background(), "m1"), ErrMediaNotFound)
}

func TestDeleteManyReportsPerItem(t *testing.T) {
	s, db, _ := newTestService(t)
	seedMedia(t, db, "m1", 1, model.MediaTypeImage, nil, time.Now())

	results := s.DeleteMany(context.Background(), []string{"m1", "missing"})
	require.Len(t, results, 2)
	assert.True(t, results[0].Ok)
	assert.False(t, results[1].Ok)
	assert.Contains(t, results[1].Error, "media not found")
	assert.False(t, AllOk(results))
}

func TestUpdateCaptionRecordsManualEdit(t *testing.T) {
	s, db, _ := newTestService(t)
	seedMedia(t, db, "m1", 1, model.MediaTypeImage, nil, time.Now())

	view, err := s.UpdateCaption(context.Background(), "m1", "fresh", "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, "fresh", *view.Caption)

	var stored model.Media
	require.NoError(t, db.First(&stored, "id = ?", "m1").Error)
	meta := stored.Metadata.Data()
	require.NoError(t, meta.Validate())
	assert.Equal(t, model.MetadataKindManualEdit, meta.Kind)
	assert.Equal(t, "caption of m1", meta.ManualEdit.PreviousCaption)
	assert.Equal(t, "ops@example.com", meta.ManualEdit.EditedBy)
	source, ok := meta.SourceInfo()
	require.True(t, ok)
	assert.Equal(t, "u-m1", source.FileUniqueId)
}

func TestNotice(t *testing.T) {
	assert.Equal(t, "New media", Notice(realtime.ChangeEvent{Table: "media", Type: realtime.EventInsert}).Title)
	assert.Equal(t, "Media updated", Notice(realtime.ChangeEvent{Table: "media", Type: realtime.EventUpdate}).Title)
	assert.Equal(t, "Media deleted", Notice(realtime.ChangeEvent{Table: "media", Type: realtime.EventDelete}).Title)
	assert.Equal(t, "Data changed", Notice(realtime.ChangeEvent{Table: "sync_logs", Type: realtime.EventUpdate}).Title)
}
