package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/backoffice/pkg/domain/events"
	"github.com/amirasaad/backoffice/pkg/eventbus"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
)

const defaultTopicPrefix = "backoffice.events"

// KafkaEventBusConfig holds configuration for the Kafka event bus.
type KafkaEventBusConfig struct {
	GroupID      string
	TopicPrefix  string
	SASLUsername string
	SASLPassword string
}

// KafkaEventBus publishes each event type to its own topic and runs one
// consumer-group reader per registered type.
type KafkaEventBus struct {
	brokers []string
	writer  *kafka.Writer
	dialer  *kafka.Dialer
	config  KafkaEventBusConfig
	logger  *slog.Logger

	handlers    map[events.EventType][]eventbus.HandlerFunc
	handlersMtx sync.RWMutex
	readers     map[events.EventType]*kafka.Reader
	readersMtx  sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithKafka creates a new Kafka-backed event bus.
// brokers: Comma-separated brokers list (e.g. "localhost:9092,localhost:9093").
func NewWithKafka(brokers string, config KafkaEventBusConfig, logger *slog.Logger) (*KafkaEventBus, error) {
	parsed := parseBrokers(brokers)
	if len(parsed) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	if config.GroupID == "" {
		config.GroupID = "backoffice"
	}
	if strings.TrimSpace(config.TopicPrefix) == "" {
		config.TopicPrefix = defaultTopicPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}

	mechanism, err := saslMechanism(config)
	if err != nil {
		return nil, err
	}
	dialer := &kafka.Dialer{Timeout: 5 * time.Second, SASLMechanism: mechanism}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(parsed...),
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
	}
	if mechanism != nil {
		writer.Transport = &kafka.Transport{SASL: mechanism}
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &KafkaEventBus{
		brokers:  parsed,
		writer:   writer,
		dialer:   dialer,
		config:   config,
		logger:   logger.With("bus", "kafka"),
		handlers: make(map[events.EventType][]eventbus.HandlerFunc),
		readers:  make(map[events.EventType]*kafka.Reader),
		ctx:      ctx,
		cancel:   cancel,
	}

	conn, err := dialer.DialContext(ctx, "tcp", parsed[0])
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("kafka event bus: connection failed: %w", err)
	}
	_ = conn.Close()

	b.logger.Info("kafka event bus initialized", "group_id", config.GroupID, "brokers", parsed)
	return b, nil
}

// Emit publishes an event to the topic of its type, keyed by transaction or
// account so related events stay ordered within a partition.
func (b *KafkaEventBus) Emit(ctx context.Context, event events.Event) error {
	data, err := encodeEnvelope(event)
	if err != nil {
		return fmt.Errorf("kafka event bus: %w", err)
	}
	msg := kafka.Message{
		Topic: topicNameFor(b.config.TopicPrefix, events.EventType(event.Type())),
		Key:   []byte(partitionKey(event)),
		Value: data,
		Time:  time.Now(),
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

// Register adds a handler and starts a reader for its event type.
func (b *KafkaEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.handlersMtx.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.handlersMtx.Unlock()

	b.readersMtx.Lock()
	defer b.readersMtx.Unlock()
	if _, ok := b.readers[eventType]; ok {
		return
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     b.config.GroupID,
		Topic:       topicNameFor(b.config.TopicPrefix, eventType),
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		Dialer:      b.dialer,
	})
	b.readers[eventType] = reader

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consumeLoop(eventType, reader)
	}()
}

// Close stops the readers and flushes the writer.
func (b *KafkaEventBus) Close() error {
	b.cancel()
	b.readersMtx.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readersMtx.Unlock()
	b.wg.Wait()
	return b.writer.Close()
}

func (b *KafkaEventBus) consumeLoop(eventType events.EventType, reader *kafka.Reader) {
	for {
		msg, err := reader.FetchMessage(b.ctx)
		if err != nil {
			if b.ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			b.logger.Error("kafka consume error", "error", err, "event_type", eventType)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		evt, err := decodeEnvelope(msg.Value)
		if err != nil {
			b.logger.Error("failed to decode event", "error", err, "topic", msg.Topic, "offset", msg.Offset)
			b.publishToDLQ(eventType, msg.Value)
		} else if !runHandlers(b.ctx, b.logger, evt, b.getHandlers(eventType)) {
			b.publishToDLQ(eventType, msg.Value)
		}

		if err := reader.CommitMessages(b.ctx, msg); err != nil {
			b.logger.Error("kafka commit error", "error", err, "topic", msg.Topic, "offset", msg.Offset)
		}
	}
}

func (b *KafkaEventBus) publishToDLQ(eventType events.EventType, raw []byte) {
	topic := dlqTopicNameFor(b.config.TopicPrefix, eventType)
	if err := b.writer.WriteMessages(b.ctx, kafka.Message{Topic: topic, Key: []byte(eventType), Value: raw}); err != nil {
		b.logger.Error("kafka dlq publish failed", "error", err, "topic", topic)
		return
	}
	b.logger.Warn("message sent to DLQ", "event_type", eventType, "dlq_topic", topic)
}

func (b *KafkaEventBus) getHandlers(eventType events.EventType) []eventbus.HandlerFunc {
	b.handlersMtx.RLock()
	defer b.handlersMtx.RUnlock()
	return append([]eventbus.HandlerFunc(nil), b.handlers[eventType]...)
}

func saslMechanism(config KafkaEventBusConfig) (sasl.Mechanism, error) {
	username := strings.TrimSpace(config.SASLUsername)
	password := strings.TrimSpace(config.SASLPassword)
	if username == "" && password == "" {
		return nil, nil
	}
	if username == "" || password == "" {
		return nil, fmt.Errorf("kafka event bus: sasl username and password are required")
	}
	return plain.Mechanism{Username: username, Password: password}, nil
}

func partitionKey(event events.Event) string {
	switch e := event.(type) {
	case *events.TransactionRecorded:
		return e.TransactionID.String()
	case *events.TransactionCancelled:
		return e.TransactionID.String()
	case *events.AccountOpened:
		return e.Number
	default:
		return event.Type()
	}
}

func parseBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func topicNameFor(prefix string, eventType events.EventType) string {
	return fmt.Sprintf("%s.%s", prefix, strings.ToLower(eventType.String()))
}

func dlqTopicNameFor(prefix string, eventType events.EventType) string {
	return fmt.Sprintf("%s.dlq.%s", prefix, strings.ToLower(eventType.String()))
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
