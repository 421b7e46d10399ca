package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/backoffice/infra/eventbus"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithIdempotency(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	h := WithIdempotency(func(context.Context, events.Event) error {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return nil
	}, NewIdempotencyTracker(), EventID, "test", nil)

	evt := &events.AccountOpened{ID: uuid.New(), Number: "CM-1"}
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h(context.Background(), evt))
		}()
	}
	wg.Wait()
	require.NoError(t, h(context.Background(), evt))
	assert.Equal(t, int64(1), calls.Load())

	require.NoError(t, h(context.Background(), &events.AccountOpened{ID: uuid.New()}))
	assert.Equal(t, int64(2), calls.Load())
}

func TestWithIdempotency_FailureIsRetried(t *testing.T) {
	t.Parallel()
	fail := true
	h := WithIdempotency(func(context.Context, events.Event) error {
		if fail {
			return errors.New("transient")
		}
		return nil
	}, NewIdempotencyTracker(), EventID, "test", nil)

	evt := &events.AccountOpened{ID: uuid.New()}
	require.Error(t, h(context.Background(), evt))
	fail = false
	require.NoError(t, h(context.Background(), evt))
}

func TestRegisterAudit(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	bus := eventbus.NewWithMemory(logger)
	RegisterAudit(bus, logger)

	tx, err := account.NewDeposit("CM-0001-000001", 5000, "agent-1", time.Now())
	require.NoError(t, err)
	evt := events.NewTransactionRecorded(tx, 5000)
	require.NoError(t, bus.Emit(context.Background(), evt))
	require.NoError(t, bus.Emit(context.Background(), evt))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "msg=\"transaction recorded\""))
	assert.Contains(t, out, tx.ID.String())
	assert.Contains(t, out, "event already processed")
}
