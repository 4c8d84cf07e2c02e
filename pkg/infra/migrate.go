package infra

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"gorm.io/gorm"

	postgres_wrapper "github.com/joripage/matchbook/pkg/infra/postgres"
)

// IMigrateTool tool to migrate schema and data.
type IMigrateTool interface {
	// ConnectAndMigrate opens the database and brings its schema up to date.
	ConnectAndMigrate(ctx context.Context, cfg *postgres_wrapper.PostgresConfig) (*gorm.DB, error)

	// Migrate from current version to latest verion.
	Migrate(source string, connStr string) error
}

type migrateTool struct {
	mu sync.Mutex
}

var once sync.Once         // nolint
var singleton IMigrateTool // nolint

// GetMigrateTool get singleton instance for migrate tool
func GetMigrateTool() IMigrateTool { // nolint
	once.Do(func() {
		singleton = &migrateTool{}
	})
	return singleton
}

// Migrate runs every pending up migration. Calls are serialized.
func (mt *migrateTool) Migrate(source string, connStr string) error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	sugar := zap.S().With("func", "infra.Migrate", "source", source)
	sugar.Info("migrating")

	mg, err := migrate.New(source, connStr)
	if err != nil {
		return fmt.Errorf("create migration: %w", err)
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}

	if dirty {
		sugar.Warnf("schema dirty at version %d, forcing back", version)
		if err := mg.Force(int(version) - 1); err != nil {
			return fmt.Errorf("force version %d: %w", version-1, err)
		}
	}

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	sugar.Info("migration done")
	return nil
}

func (mt *migrateTool) ConnectAndMigrate(ctx context.Context, cfg *postgres_wrapper.PostgresConfig) (*gorm.DB, error) {
	db, err := postgres_wrapper.InitPostgresWithBackoff(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := mt.Migrate(cfg.MigrationSource, cfg.MigrationConnURL); err != nil {
		return nil, err
	}
	return db, nil
}
