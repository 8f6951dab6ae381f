// Package sqlitestorage implements the storage.Backend interface using an
// in-memory SQLite database that is written to disk via VACUUM INTO on Close.
// It wraps the GORM backend via composition; the only SQLite-specific concerns
// are creating the in-memory DB and the final dump.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cellbots/replay/internal/config"
	"github.com/cellbots/replay/internal/database"
	gormstorage "github.com/cellbots/replay/internal/storage/gorm"

	"gorm.io/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db  *gorm.DB
	cfg config.SQLiteConfig
	log *slog.Logger
}

// New creates a new SQLite storage backend. An empty path or ":memory:"
// keeps the database in memory only.
func New(cfg config.SQLiteConfig, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := database.GetSqliteDB(database.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: db, Logger: logger}),
		db:      db,
		cfg:     cfg,
		log:     logger,
	}, nil
}

// Close dumps the database to the configured path and releases it.
func (b *Backend) Close() error {
	dumpErr := b.dump()

	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	return dumpErr
}

func (b *Backend) dump() error {
	if b.cfg.Path == "" || b.cfg.Path == database.MemoryPath {
		return nil
	}
	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.db, b.cfg.Path); err != nil {
		b.log.Error("Error dumping to disk", "path", b.cfg.Path, "error", err)
		return err
	}
	b.log.Debug("Dumped to disk", "path", b.cfg.Path, "duration", time.Since(start))
	return nil
}
