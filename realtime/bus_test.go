package realtime

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Luismorlan/mediamux/app_config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return ChangeEvent{}
}

func TestLocalBusFanOut(t *testing.T) {
	bus := NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	b, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	event := ChangeEvent{Table: "media", Type: EventInsert, Id: "m1"}
	require.NoError(t, bus.Publish(ctx, event))
	assert.Equal(t, event, receive(t, a))
	assert.Equal(t, event, receive(t, b))
}

func TestLocalBusUnsubscribeOnCancel(t *testing.T) {
	bus := NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, bus.SubscriberCount())

	cancel()
	assert.Eventually(t, func() bool { return bus.SubscriberCount() == 0 }, time.Second, 10*time.Millisecond)
	_, ok := <-ch
	assert.False(t, ok)
	assert.NoError(t, bus.Publish(context.Background(), ChangeEvent{Table: "media"}))
}

func TestLocalBusDropsWhenFull(t *testing.T) {
	bus := NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _ := bus.Subscribe(ctx)

	for i := 0; i < subscriberBufferSize+10; i++ {
		require.NoError(t, bus.Publish(ctx, ChangeEvent{Table: "media", Type: EventUpdate}))
	}
	assert.Len(t, ch, subscriberBufferSize)
}

func TestEventEncoding(t *testing.T) {
	event := ChangeEvent{Table: "media", Type: EventDelete, Id: "x", At: time.Unix(1700000000, 0).UTC()}
	payload, err := encodeEvent(event)
	require.NoError(t, err)
	decoded, err := decodeEvent(payload)
	require.NoError(t, err)
	assert.True(t, event.At.Equal(decoded.At))
	assert.Equal(t, event.Id, decoded.Id)

	_, err = decodeEvent([]byte("nope"))
	assert.Error(t, err)
}

// Needs a reachable redis, REDIS_HOST selects it.
func TestRedisBusRoundTrip(t *testing.T) {
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("REDIS_HOST not set")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus, err := NewRedisBus(ctx, app_config.RedisConfig{Host: os.Getenv("REDIS_HOST"), Port: "6379", Password: os.Getenv("REDIS_PASSWD")})
	require.NoError(t, err)
	defer bus.Close()

	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, ChangeEvent{Table: "media", Type: EventInsert, Id: "r1"}))
	assert.Equal(t, "r1", receive(t, ch).Id)
}
