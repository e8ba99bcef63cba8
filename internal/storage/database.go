// Package storage persists repository records and class counts behind GORM,
// supporting SQLite, PostgreSQL and SQL Server dialects.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailrank/tailrank/internal/config"
	"github.com/tailrank/tailrank/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db      *gorm.DB
	cfg     config.DatabaseConfig
	dialect DialectDialer
}

// NewDatabase opens a database connection using the configured dialect and
// applies dialect-specific connection settings.
func NewDatabase(cfg config.DatabaseConfig) (*Database, error) {
	// Ensure data directory exists for SQLite
	if cfg.Type == "sqlite" && cfg.DSN != ":memory:" {
		dir := filepath.Dir(cfg.DSN)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dialect, err := NewDialectDialer(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialect.Dialect(), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := dialect.ConfigureConnection(db); err != nil {
		return nil, err
	}

	return &Database{db: db, cfg: cfg, dialect: dialect}, nil
}

// Migrate creates or updates the schema for all persisted models.
func (d *Database) Migrate() error {
	if err := d.db.AutoMigrate(&models.Repository{}, &models.ClassCount{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the database connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// DB exposes the underlying GORM handle for tests.
func (d *Database) DB() *gorm.DB {
	return d.db
}
