package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/backoffice/pkg/domain/events"
	"github.com/amirasaad/backoffice/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

// RedisEventBus publishes events to a Redis stream and consumes them through
// a consumer group. A single consumer goroutine dispatches each message to the
// handlers registered for its type, so every message is acknowledged once.
type RedisEventBus struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	logger   *slog.Logger

	handlers map[events.EventType][]eventbus.HandlerFunc
	mu       sync.RWMutex
	start    sync.Once

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithRedis creates a new Redis-backed event bus.
// url: Redis connection URL (e.g., "redis://localhost:6379")
func NewWithRedis(url, stream, group string, logger *slog.Logger) (*RedisEventBus, error) {
	if url == "" || stream == "" || group == "" {
		return nil, fmt.Errorf("redis event bus: url, stream, and group are required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis event bus: invalid URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}
	return newRedisEventBus(client, stream, group, logger), nil
}

func newRedisEventBus(client *redis.Client, stream, group string, logger *slog.Logger) *RedisEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	host, _ := os.Hostname()
	ctx, cancel := context.WithCancel(context.Background())
	b := &RedisEventBus{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: fmt.Sprintf("%s-%d", host, os.Getpid()),
		logger:   logger.With("bus", "redis", "stream", stream),
		handlers: make(map[events.EventType][]eventbus.HandlerFunc),
		ctx:      ctx,
		cancel:   cancel,
	}
	if err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err(); err != nil && !isBusyGroup(err) {
		b.logger.Warn("failed to create consumer group", "error", err, "group", group)
	}
	return b
}

// Emit publishes an event to the Redis stream.
func (b *RedisEventBus) Emit(ctx context.Context, event events.Event) error {
	data, err := encodeEnvelope(event)
	if err != nil {
		return fmt.Errorf("redis event bus: %w", err)
	}
	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{"event": string(data)},
	}).Err(); err != nil {
		b.logger.Error("failed to emit event", "error", err, "type", event.Type())
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	b.logger.Debug("event emitted", "type", event.Type())
	return nil
}

// Register adds a handler and starts the consumer on first use.
func (b *RedisEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()

	b.start.Do(func() {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.consume()
		}()
		b.logger.Info("consumer started", "group", b.group, "consumer", b.consumer)
	})
}

// Close stops the consumer and closes the client.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return b.client.Close()
}

func (b *RedisEventBus) consume() {
	for {
		res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: b.consumer,
			Streams:  []string{b.stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if b.ctx.Err() != nil {
				return
			}
			if !errors.Is(err, redis.Nil) {
				b.logger.Error("error reading from stream", "error", err)
				time.Sleep(time.Second)
			}
			continue
		}
		for _, stream := range res {
			for _, msg := range stream.Messages {
				b.handle(msg)
			}
		}
	}
}

func (b *RedisEventBus) handle(msg redis.XMessage) {
	defer func() {
		if err := b.client.XAck(b.ctx, b.stream, b.group, msg.ID).Err(); err != nil {
			b.logger.Error("failed to acknowledge message", "error", err, "msg_id", msg.ID)
		}
	}()

	raw, ok := msg.Values["event"].(string)
	if !ok {
		b.pushToDLQ(msg.Values)
		return
	}
	evt, err := decodeEnvelope([]byte(raw))
	if err != nil {
		b.logger.Error("failed to decode event", "error", err, "msg_id", msg.ID)
		b.pushToDLQ(msg.Values)
		return
	}

	b.mu.RLock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[events.EventType(evt.Type())]...)
	b.mu.RUnlock()

	if !runHandlers(b.ctx, b.logger, evt, handlers) {
		b.pushToDLQ(msg.Values)
	}
}

// pushToDLQ pushes the raw message to a dead-letter stream for inspection.
func (b *RedisEventBus) pushToDLQ(values map[string]any) {
	dlq := b.stream + "-DLQ"
	if err := b.client.XAdd(b.ctx, &redis.XAddArgs{Stream: dlq, Values: values}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "error", err, "stream", dlq)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", dlq)
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
