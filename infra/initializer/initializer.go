package initializer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/amirasaad/backoffice/infra"
	infra_cache "github.com/amirasaad/backoffice/infra/cache"
	infra_eventbus "github.com/amirasaad/backoffice/infra/eventbus"
	infra_repository "github.com/amirasaad/backoffice/infra/repository"
	"github.com/amirasaad/backoffice/pkg/app"
	"github.com/amirasaad/backoffice/pkg/cache"
	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/amirasaad/backoffice/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

// Event bus drivers accepted in EVENT_BUS_DRIVER.
const (
	BusMemory = "memory"
	BusRedis  = "redis"
	BusKafka  = "kafka"
)

// memoryCacheSweep is how often expired idempotency entries are evicted.
const memoryCacheSweep = time.Minute

// InitializeDependencies builds the infrastructure the application runs on.
// The returned cleanup releases it in reverse order and is safe to call once
// the server has stopped.
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	cleanup func(),
	err error,
) {
	logger := SetupLogger(cfg.Log)
	deps = &app.Deps{Logger: logger}

	var closers []func()
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	defer func() {
		if err != nil {
			release()
			deps, cleanup = nil, nil
		}
	}()

	// Initialize database
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, nil, err
	}
	closers = append(closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if cfg.DB.Migrate {
		if err = infra.Migrate(db, logger); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			return
		}
	}

	// Initialize unit of work
	deps.Uow = infra_repository.NewUoW(db)

	// Initialize event bus
	bus, err := initEventBus(cfg, logger)
	if err != nil {
		return
	}
	if c, ok := bus.(io.Closer); ok {
		closers = append(closers, func() { _ = c.Close() })
	}
	deps.EventBus = bus

	// Initialize idempotency response cache
	respCache, closeCache := initResponseCache(cfg, logger)
	closers = append(closers, closeCache)
	deps.ResponseCache = respCache

	return deps, release, nil
}

// initEventBus selects the event bus from EVENT_BUS_DRIVER. A broker that
// cannot be reached degrades to the in-process bus so the ledger keeps
// serving; events are an after-commit notification only.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	ebCfg := cfg.EventBus
	if ebCfg == nil {
		ebCfg = &config.EventBus{}
	}

	switch ebCfg.Driver {
	case "", BusMemory:
		logger.Info("Using in-memory event bus")
		return infra_eventbus.NewWithMemory(logger), nil

	case BusRedis:
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, errors.New("event bus driver redis requires REDIS_URL")
		}
		bus, err := infra_eventbus.NewWithRedis(cfg.Redis.URL, ebCfg.RedisStream, ebCfg.RedisGroup, logger)
		if err != nil {
			logger.Warn("Redis event bus unavailable, falling back to in-memory", "error", err)
			return infra_eventbus.NewWithMemory(logger), nil
		}
		logger.Info("Using Redis event bus", "stream", ebCfg.RedisStream, "group", ebCfg.RedisGroup)
		return bus, nil

	case BusKafka:
		kcfg := ebCfg.Kafka
		if kcfg == nil || kcfg.Brokers == "" {
			return nil, errors.New("event bus driver kafka requires EVENT_BUS_KAFKA_BROKERS")
		}
		bus, err := infra_eventbus.NewWithKafka(kcfg.Brokers, infra_eventbus.KafkaEventBusConfig{
			GroupID:      kcfg.GroupID,
			TopicPrefix:  kcfg.TopicPrefix,
			SASLUsername: kcfg.SASLUsername,
			SASLPassword: kcfg.SASLPassword,
		}, logger)
		if err != nil {
			logger.Warn("Kafka event bus unavailable, falling back to in-memory", "error", err)
			return infra_eventbus.NewWithMemory(logger), nil
		}
		logger.Info("Using Kafka event bus", "brokers", kcfg.Brokers, "group_id", kcfg.GroupID)
		return bus, nil

	default:
		return nil, fmt.Errorf("unsupported event bus driver %q", ebCfg.Driver)
	}
}

// initResponseCache returns the Redis-backed cache when REDIS_URL is set and
// reachable, otherwise a process-local one.
func initResponseCache(cfg *config.App, logger *slog.Logger) (cache.ResponseCache, func()) {
	if cfg.Redis != nil && cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Warn("Invalid REDIS_URL, using in-memory idempotency cache", "error", err)
		} else {
			opt.PoolSize = cfg.Redis.PoolSize
			opt.DialTimeout = cfg.Redis.DialTimeout
			opt.ReadTimeout = cfg.Redis.ReadTimeout
			opt.WriteTimeout = cfg.Redis.WriteTimeout
			c := infra_cache.NewRedisResponseCacheWithOptions(opt, cfg.Redis.KeyPrefix, logger)

			timeout := cfg.Redis.DialTimeout
			if timeout <= 0 {
				timeout = 5 * time.Second
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			pingErr := c.Ping(ctx)
			if pingErr == nil {
				logger.Info("Using Redis idempotency cache", "key_prefix", cfg.Redis.KeyPrefix)
				return c, func() { _ = c.Close() }
			}
			logger.Warn("Redis unavailable, using in-memory idempotency cache", "error", pingErr)
			_ = c.Close()
		}
	}
	logger.Info("Using in-memory idempotency cache")
	c := infra_cache.NewMemoryCache(memoryCacheSweep)
	return c, c.Close
}
