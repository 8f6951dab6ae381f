// Package postgres implements the storage.Backend interface using GORM/PostgreSQL.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/cellbots/replay/internal/config"
	"github.com/cellbots/replay/internal/database"
	gormstorage "github.com/cellbots/replay/internal/storage/gorm"

	"gorm.io/gorm"
)

// Backend connects to postgres on Init and delegates writes to the GORM backend.
type Backend struct {
	*gormstorage.Backend
	cfg config.PostgresConfig
	log *slog.Logger
	db  *gorm.DB
}

// New creates a postgres backend. No connection is made until Init.
func New(cfg config.PostgresConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{Logger: logger}),
		cfg:     cfg,
		log:     logger,
	}
}

// Init opens the connection, validates it and migrates the schema.
func (b *Backend) Init() error {
	b.log.Debug("Connecting to Postgres DB", "host", b.cfg.Host, "port", b.cfg.Port, "database", b.cfg.Database)

	db, err := database.GetPostgresDB(b.cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	b.db = db

	b.Backend = gormstorage.New(gormstorage.Dependencies{DB: db, Logger: b.log})
	if err := b.Backend.Init(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.log.Info("Connected to database", "host", b.cfg.Host, "database", b.cfg.Database)
	return nil
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
