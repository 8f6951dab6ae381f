// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/cellbots/replay/internal/config"
	"github.com/cellbots/replay/internal/storage/memory"
	"github.com/cellbots/replay/internal/storage/postgres"
	sqlitestorage "github.com/cellbots/replay/internal/storage/sqlite"
	"github.com/cellbots/replay/internal/storage/websocket"
)

// Storage type names accepted in storage.type.
const (
	TypeMemory    = "memory"
	TypeSQLite    = "sqlite"
	TypePostgres  = "postgres"
	TypeWebSocket = "websocket"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, logger *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case TypePostgres:
		return postgres.New(cfg.Postgres, logger), nil
	case TypeSQLite:
		return sqlitestorage.New(cfg.SQLite, logger)
	case TypeWebSocket:
		return websocket.New(cfg.WebSocket, logger), nil
	case TypeMemory, "":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
