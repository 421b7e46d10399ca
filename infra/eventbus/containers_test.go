//go:build integration

package eventbus

import (
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/events"
	"github.com/stretchr/testify/require"
)

func requireDocker(tb testing.TB) {
	tb.Helper()
	if !dockerIsReachable() {
		tb.Skip("docker is not reachable")
	}
}

func dockerIsReachable() bool {
	host := os.Getenv("DOCKER_HOST")
	if strings.HasPrefix(host, "unix://") {
		return canDialUnix(strings.TrimPrefix(host, "unix://"))
	}
	if host != "" {
		return true
	}
	if canDialUnix("/var/run/docker.sock") {
		return true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return false
	}
	return canDialUnix(home + "/.docker/run/docker.sock")
}

func canDialUnix(path string) bool {
	conn, err := net.DialTimeout("unix", path, 300*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func recordedDeposit(t *testing.T, amount int64) *events.TransactionRecorded {
	t.Helper()
	tx, err := account.NewDeposit("CM-0001-000001", amount, "agent-7", time.Now().UTC())
	require.NoError(t, err)
	return events.NewTransactionRecorded(tx, amount)
}

// closesWithin fails the test when Close does not return before d, which
// means a consumer goroutine is still running.
func closesWithin(t *testing.T, closer interface{ Close() error }, d time.Duration) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- closer.Close() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(d):
		t.Fatal("Close did not stop the consumer in time")
	}
}
