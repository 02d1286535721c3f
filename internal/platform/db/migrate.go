package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var postgresMigrations embed.FS

// Migrate applies the embedded Postgres schema.
func (p *Postgres) Migrate(logger *slog.Logger) error {
	if p == nil || p.DB == nil {
		return errors.New("postgres is not connected")
	}
	sqlDB, err := p.DB.DB()
	if err != nil {
		return fmt.Errorf("resolve postgres sql db handle: %w", err)
	}
	driver, err := migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{
		MigrationsTable: "ccdepot_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("create postgres migration driver: %w", err)
	}
	return apply(postgresMigrations, "migrations", "postgres", driver, logger)
}

// MigrateSQLite applies migrations from dir in source to an open SQLite database.
func MigrateSQLite(sqlDB *sql.DB, source fs.FS, dir string, logger *slog.Logger) error {
	if sqlDB == nil {
		return errors.New("sql db is required")
	}
	driver, err := migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migration driver: %w", err)
	}
	return apply(source, dir, "sqlite", driver, logger)
}

func apply(source fs.FS, dir string, databaseName string, driver database.Driver, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	src, err := iofs.New(source, dir)
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, databaseName, driver)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("no new migrations",
				"event", "db_migrations_unchanged",
				"module", "internal/platform/db",
				"layer", "platform",
				"database", databaseName,
			)
			return nil
		}
		var dirtyErr migrate.ErrDirty
		if errors.As(err, &dirtyErr) {
			return fmt.Errorf("migration failed: dirty database version %d", dirtyErr.Version)
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("migrations applied",
		"event", "db_migrations_applied",
		"module", "internal/platform/db",
		"layer", "platform",
		"database", databaseName,
		"version", version,
	)
	return nil
}
