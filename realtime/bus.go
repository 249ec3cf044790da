package realtime

import (
	"context"
	"sync"

	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/Luismorlan/mediamux/utils/metrics"
)

const subscriberBufferSize = 64

// Bus fans change events out to subscribers. A subscription lives until its
// context is cancelled, the returned channel is closed afterwards.
type Bus interface {
	Publish(ctx context.Context, event ChangeEvent) error
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
}

// LocalBus is an in-process Bus. Slow subscribers miss events rather than
// block publishers.
type LocalBus struct {
	mu     sync.Mutex
	nextId int
	subs   map[int]chan ChangeEvent
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: map[int]chan ChangeEvent{}}
}

func (b *LocalBus) Publish(ctx context.Context, event ChangeEvent) error {
	metrics.RealtimeEvents.WithLabelValues(event.Table, string(event.Type)).Inc()
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			Logger.Log.Warnf("realtime subscriber %d is full, dropping %s event on %s", id, event.Type, event.Table)
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	ch := make(chan ChangeEvent, subscriberBufferSize)
	b.mu.Lock()
	id := b.nextId
	b.nextId++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}

// SubscriberCount is the number of live subscriptions.
func (b *LocalBus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
