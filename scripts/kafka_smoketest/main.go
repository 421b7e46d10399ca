package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/amirasaad/backoffice/infra/eventbus"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/events"
	"github.com/google/uuid"
)

// RunSmokeTest publishes a ledger event through the Kafka event bus and waits
// for the consumer group to hand it back, to verify a local cluster.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	brokers := strings.TrimSpace(os.Getenv("BROKERS"))
	if brokers == "" {
		brokers = "localhost:9093,localhost:9092"
	}
	groupID := strings.TrimSpace(os.Getenv("GROUP_ID"))
	if groupID == "" {
		groupID = "backoffice-smoketest-" + uuid.NewString()[:8]
	}

	bus, err := eventbus.NewWithKafka(brokers, eventbus.KafkaEventBusConfig{
		GroupID:     groupID,
		TopicPrefix: "backoffice.smoketest",
	}, logger)
	if err != nil {
		logger.Error("connect failed", "error", err)
		return err
	}
	defer func() { _ = bus.Close() }()

	tx, err := account.NewDeposit("CM-0000-000001", 5000, "smoketest", time.Now().UTC())
	if err != nil {
		return err
	}
	sent := events.NewTransactionRecorded(tx, 5000)

	received := make(chan *events.TransactionRecorded, 1)
	bus.Register(events.EventTypeTransactionRecorded, func(_ context.Context, e events.Event) error {
		if rec, ok := e.(*events.TransactionRecorded); ok && rec.ID == sent.ID {
			select {
			case received <- rec:
			default:
			}
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := bus.Emit(ctx, sent); err != nil {
		logger.Error("emit failed", "error", err)
		return err
	}
	logger.Info("produced", "event_id", sent.ID, "transaction_id", sent.TransactionID)

	select {
	case rec := <-received:
		logger.Info("consumed", "event_id", rec.ID, "amount", rec.Amount, "dest", rec.Dest)
	case <-ctx.Done():
		logger.Error("event not delivered", "error", ctx.Err())
		return errors.New("kafka smoke test timed out waiting for the event")
	}

	logger.Info("kafka smoke test passed")
	return nil
}

// main runs the smoke test and exits non-zero on failure.
func main() {
	if err := RunSmokeTest(); err != nil {
		os.Exit(1)
	}
}
