package infra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/backoffice/infra/repository"
	"github.com/amirasaad/backoffice/internal/migrations"
	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

// Migrate brings the schema up to date. PostgreSQL runs the embedded
// versioned scripts; sqlite, used for local runs and tests, is auto-migrated
// from the gorm models.
func Migrate(db *gorm.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	switch db.Dialector.Name() {
	case DriverSQLite:
		if err := db.AutoMigrate(&repository.Account{}, &repository.Transaction{}); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		logger.Info("Schema auto-migrated", "driver", DriverSQLite)
		return nil
	case DriverPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, db.Dialector.Name())
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	// The migrator gets a single connection checked out of the pool. Closing
	// the driver built by WithInstance would close the pool the app uses.
	ctx := context.Background()
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("migrate conn: %w", err)
	}
	driver, err := migratepostgres.WithConnection(ctx, conn, &migratepostgres.Config{})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("migrate driver: %w", err)
	}
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, DriverPostgres, driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	defer m.Close() //nolint:errcheck

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, _ := m.Version()
	logger.Info("Schema migrated", "driver", DriverPostgres, "version", version, "dirty", dirty)
	return nil
}
