package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds configuration for the Redis event bus and run locks.
type Config struct {
	// Enabled toggles Redis. When false the service runs with a Nop bus
	// and an in-process lock.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Addr is the Redis host:port.
	Addr string `mapstructure:"addr" default:"localhost:6379"`
	// Password is the Redis password.
	Password string `mapstructure:"password" default:""`
	// DB is the Redis database index.
	DB int `mapstructure:"db" default:"0"`
	// Channel is the pub/sub channel for change events.
	Channel string `mapstructure:"channel" default:"warehouse:changes"`
}

// RedisBus publishes change events over Redis pub/sub.
//
// Pub/sub is fire-and-forget: a disconnected subscriber misses events, which
// matches the documented at-most-once contract.
type RedisBus struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisClient creates and pings a Redis client from configuration.
func NewRedisClient(cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// NewRedisBus creates a Redis-backed event bus.
func NewRedisBus(client *redis.Client, channel string, logger *zap.Logger) *RedisBus {
	return &RedisBus{client: client, channel: channel, logger: logger}
}

// Publish sends the event to the configured channel.
func (b *RedisBus) Publish(ctx context.Context, ev ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Subscribe streams events matching pred until cancel is called or the
// context ends. Malformed payloads are logged and skipped.
func (b *RedisBus) Subscribe(ctx context.Context, pred Predicate) (<-chan ChangeEvent, func()) {
	sub := b.client.Subscribe(ctx, b.channel)
	out := make(chan ChangeEvent)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn("Dropping malformed change event", zap.Error(err))
				continue
			}
			if pred != nil && !pred(ev) {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { _ = sub.Close() }
}

// MemoryBus is an in-process Bus for tests. Subscribers with a full buffer
// miss events, mirroring the at-most-once semantics of the Redis bus.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[int]memorySub
	next int
}

type memorySub struct {
	pred Predicate
	ch   chan ChangeEvent
}

// NewMemoryBus creates an in-process event bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]memorySub)}
}

func (b *MemoryBus) Publish(ctx context.Context, ev ChangeEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		if s.pred != nil && !s.pred(ev) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, pred Predicate) (<-chan ChangeEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan ChangeEvent, 64)
	b.subs[id] = memorySub{pred: pred, ch: ch}

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
	}
}
