package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryEventBus_EmitDispatchesByType(t *testing.T) {
	t.Parallel()
	bus := NewWithMemory(discardLogger())

	var recorded, cancelled int
	bus.Register(events.EventTypeTransactionRecorded, func(_ context.Context, e events.Event) error {
		recorded++
		_, ok := e.(*events.TransactionRecorded)
		assert.True(t, ok)
		return nil
	})
	bus.Register(events.EventTypeTransactionCancelled, func(context.Context, events.Event) error {
		cancelled++
		return nil
	})

	tx, err := account.NewDeposit("CM-1", 500, "agent", time.Now())
	require.NoError(t, err)
	require.NoError(t, bus.Emit(context.Background(), events.NewTransactionRecorded(tx, 500)))

	assert.Equal(t, 1, recorded)
	assert.Equal(t, 0, cancelled)
	assert.Len(t, bus.Published(), 1)

	bus.ClearPublished()
	assert.Empty(t, bus.Published())
}

func TestMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	t.Parallel()
	bus := NewWithMemory(discardLogger())

	var after bool
	bus.Register(events.EventTypeAccountOpened, func(context.Context, events.Event) error {
		return errors.New("boom")
	})
	bus.Register(events.EventTypeAccountOpened, func(context.Context, events.Event) error {
		panic("handler panic")
	})
	bus.Register(events.EventTypeAccountOpened, func(context.Context, events.Event) error {
		after = true
		return nil
	})

	err := bus.Emit(context.Background(), &events.AccountOpened{Number: "CM-1"})
	require.NoError(t, err)
	assert.True(t, after)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()
	tx, err := account.NewWithdrawal("CM-9", 1500, "dist", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, tx.Cancel("agent", "wrong account", tx.CreatedAt.Add(time.Minute)))
	rev, err := tx.Reversal()
	require.NoError(t, err)
	in := events.NewTransactionCancelled(tx, rev, 1500)

	raw, err := encodeEnvelope(in)
	require.NoError(t, err)
	out, err := decodeEnvelope(raw)
	require.NoError(t, err)

	got, ok := out.(*events.TransactionCancelled)
	require.True(t, ok)
	assert.Equal(t, in.TransactionID, got.TransactionID)
	assert.Equal(t, "credit", got.Direction)
	assert.Equal(t, "wrong account", got.Reason)
	assert.True(t, in.Timestamp.Equal(got.Timestamp))

	_, err = decodeEnvelope([]byte(`{"type":"Unknown.Event","payload":{}}`))
	assert.Error(t, err)
}

func TestTopicNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "backoffice.events.transaction.recorded", topicNameFor(defaultTopicPrefix, events.EventTypeTransactionRecorded))
	assert.Equal(t, "p.dlq.account.opened", dlqTopicNameFor("p", events.EventTypeAccountOpened))
	assert.Equal(t, []string{"a:9092", "b:9092"}, parseBrokers(" a:9092, ,b:9092"))
}
