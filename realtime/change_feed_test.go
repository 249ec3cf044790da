package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/Luismorlan/mediamux/model"
	"github.com/Luismorlan/mediamux/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestChangeFeedPublishesMediaChanges(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := NewLocalBus()
	require.NoError(t, db.Use(NewChangeFeed(bus, "media")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	media := model.Media{Id: "m1", FileName: "a.jpg", MediaType: model.MediaTypeImage}
	require.NoError(t, db.Create(&media).Error)
	e := receive(t, events)
	assert.Equal(t, ChangeEvent{Table: "media", Type: EventInsert, Id: "m1", At: e.At}, e)

	require.NoError(t, db.Model(&media).Update("caption", "new").Error)
	e = receive(t, events)
	assert.Equal(t, EventUpdate, e.Type)
	assert.Equal(t, "m1", e.Id)

	require.NoError(t, db.Where("id IN ?", []string{"m1"}).Delete(&model.Media{}).Error)
	e = receive(t, events)
	assert.Equal(t, EventDelete, e.Type)
	assert.Empty(t, e.Id)
}

func TestChangeFeedIgnoresOtherTables(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := NewLocalBus()
	require.NoError(t, db.Use(NewChangeFeed(bus, "media")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _ := bus.Subscribe(ctx)

	require.NoError(t, db.Create(&model.Channel{Id: "c1", ChatId: 1, Title: "t", IsActive: true}).Error)
	// A no-op delete affects no rows and publishes nothing either.
	require.NoError(t, db.Where("id = ?", "missing").Delete(&model.Media{}).Error)
	assert.Len(t, events, 0)
}

func TestChangeFeedListenersRunBeforePublish(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := NewLocalBus()
	feed := NewChangeFeed(bus, "media")
	require.NoError(t, db.Use(feed))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	var seen []ChangeEvent
	feed.OnChange(func(e ChangeEvent) {
		seen = append(seen, e)
		assert.Len(t, events, 0, "listener must run before subscribers see the event")
	})

	require.NoError(t, db.Create(&model.Media{Id: "m1", FileName: "a.jpg", MediaType: model.MediaTypeImage}).Error)
	require.Len(t, seen, 1)
	assert.Equal(t, "m1", seen[0].Id)
	assert.Equal(t, "m1", receive(t, events).Id)
}

func TestTransactionPublishesAfterCommit(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := NewLocalBus()
	require.NoError(t, db.Use(NewChangeFeed(bus, "media")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	err = Transaction(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Create(&model.Media{Id: "m1", FileName: "a.jpg", MediaType: model.MediaTypeImage}).Error; err != nil {
			return err
		}
		assert.Len(t, events, 0)
		return tx.Create(&model.Media{Id: "m2", FileName: "b.jpg", MediaType: model.MediaTypeImage}).Error
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", receive(t, events).Id)
	assert.Equal(t, "m2", receive(t, events).Id)
}

func TestTransactionDropsEventsOnRollback(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := NewLocalBus()
	require.NoError(t, db.Use(NewChangeFeed(bus, "media")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	err = Transaction(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Create(&model.Media{Id: "m1", FileName: "a.jpg", MediaType: model.MediaTypeImage}).Error; err != nil {
			return err
		}
		return errors.New("abort")
	})
	assert.EqualError(t, err, "abort")
	assert.Len(t, events, 0)

	var count int64
	db.Model(&model.Media{}).Count(&count)
	assert.Zero(t, count)
}
