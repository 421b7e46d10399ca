package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, int64(100), cfg.Ledger.MinAmount)
	assert.Equal(t, 50, cfg.Ledger.HistoryLimit)
	assert.Equal(t, 200, cfg.Ledger.OperatorHistoryLimit)
	assert.Equal(t, "XAF", cfg.Ledger.Currency)
	assert.Equal(t, int32(0), cfg.Ledger.MinorUnitExponent)
	assert.Equal(t, "memory", cfg.EventBus.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, devJWTSecret, cfg.Auth.Jwt.Secret)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "LEDGER_MIN_AMOUNT=500\nDATABASE_DRIVER=sqlite\nEVENT_BUS_KAFKA_TOPIC_PREFIX=ledger\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("LEDGER_MIN_AMOUNT", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("EVENT_BUS_KAFKA_TOPIC_PREFIX", "")
	// godotenv never overrides variables that are already set, empty or not.
	require.NoError(t, os.Unsetenv("LEDGER_MIN_AMOUNT"))
	require.NoError(t, os.Unsetenv("DATABASE_DRIVER"))
	require.NoError(t, os.Unsetenv("EVENT_BUS_KAFKA_TOPIC_PREFIX"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cfg.Ledger.MinAmount)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "ledger", cfg.EventBus.Kafka.TopicPrefix)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load("does-not-exist.env")
	require.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestFindNearest(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.env"), nil, 0o600))
	t.Chdir(nested)

	found, err := FindNearest("x.env")
	require.NoError(t, err)
	assert.Equal(t, "x.env", filepath.Base(found))

	_, err = FindNearest("missing.env")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMaskValue(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", maskValue(""))
	assert.Equal(t, "****", maskValue("abc"))
	assert.Equal(t, "po****able", maskValue("postgres://disable"))
}
