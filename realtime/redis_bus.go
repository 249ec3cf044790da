package realtime

import (
	"context"

	"github.com/Luismorlan/mediamux/app_config"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/Luismorlan/mediamux/utils/metrics"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// ChangesChannel is the redis pub/sub channel carrying change events.
const ChangesChannel = "mediamux:changes"

// RedisBus shares change events between processes: the ingestion webhook
// publishes, every api server instance subscribes.
type RedisBus struct {
	inner *redis.Client
}

func NewRedisBus(ctx context.Context, cfg app_config.RedisConfig) (*RedisBus, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       0, // use default DB
	})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "fail to connect to redis")
	}
	return &RedisBus{inner: redisClient}, nil
}

func (b *RedisBus) Publish(ctx context.Context, event ChangeEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	metrics.RealtimeEvents.WithLabelValues(event.Table, string(event.Type)).Inc()
	return b.inner.Publish(ctx, ChangesChannel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	ps := b.inner.Subscribe(ctx, ChangesChannel)
	// Wait for the subscription confirmation so no event published after
	// Subscribe returns is missed.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, errors.Wrap(err, "fail to subscribe to redis")
	}

	out := make(chan ChangeEvent, subscriberBufferSize)
	go func() {
		defer close(out)
		defer ps.Close()
		messages := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				event, err := decodeEvent([]byte(msg.Payload))
				if err != nil {
					Logger.Log.Warn("ignoring malformed change event: ", err)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *RedisBus) Close() error {
	return b.inner.Close()
}

// NewBus connects to redis when it is configured. Without redis, events stay
// in the process.
func NewBus(ctx context.Context, cfg app_config.RedisConfig) (Bus, error) {
	if !cfg.Enabled() {
		Logger.Log.Warn("redis is not configured, change events stay in process")
		return NewLocalBus(), nil
	}
	return NewRedisBus(ctx, cfg)
}
