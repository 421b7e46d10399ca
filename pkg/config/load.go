package config

import (
	"errors"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrMissingJWTSecret is returned in production when AUTH_JWT_SECRET is unset.
var ErrMissingJWTSecret = errors.New("AUTH_JWT_SECRET is required in production")

// devJWTSecret signs tokens outside production when no secret is configured.
const devJWTSecret = "insecure-development-secret"

// Load reads the first env file found among envFilePath (searched upwards
// from the working directory), falling back to ./.env, and then processes the
// environment into an App.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	for _, path := range envFilePath {
		foundPath, err := FindNearest(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}
		logger.Info("Loaded environment from file", "path", foundPath)
		return loadFromEnv()
	}

	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found in current directory")
	}
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if cfg.Auth.Jwt.Secret == "" {
		if cfg.IsProduction() {
			return nil, ErrMissingJWTSecret
		}
		cfg.Auth.Jwt.Secret = devJWTSecret
	}

	slog.Default().Info("App config loaded",
		"env", cfg.Env,
		"db_driver", cfg.DB.Driver,
		"db", maskValue(cfg.DB.Url),
		"event_bus", cfg.EventBus.Driver,
		"redis", maskValue(cfg.Redis.URL),
		"ledger_min_amount", cfg.Ledger.MinAmount,
		"ledger_currency", cfg.Ledger.Currency,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
		"auth_jwt_expiry", cfg.Auth.Jwt.Expiry,
		"idempotency_ttl", cfg.Idempotency.TTL,
	)
	return &cfg, nil
}

func maskValue(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
