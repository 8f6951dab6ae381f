// internal/storage/storage_test.go
package storage_test

import (
	"testing"

	"github.com/cellbots/replay/internal/config"
	"github.com/cellbots/replay/internal/storage"
	gormstorage "github.com/cellbots/replay/internal/storage/gorm"
	"github.com/cellbots/replay/internal/storage/memory"
	"github.com/cellbots/replay/internal/storage/postgres"
	sqlitestorage "github.com/cellbots/replay/internal/storage/sqlite"
	"github.com/cellbots/replay/internal/storage/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ storage.Backend    = (*memory.Backend)(nil)
	_ storage.Uploadable = (*memory.Backend)(nil)
	_ storage.Backend    = (*gormstorage.Backend)(nil)
	_ storage.Backend    = (*sqlitestorage.Backend)(nil)
	_ storage.Backend    = (*postgres.Backend)(nil)
	_ storage.Backend    = (*websocket.Backend)(nil)
)

func TestNewBackend(t *testing.T) {
	tests := []struct {
		typ  string
		want any
	}{
		{"memory", &memory.Backend{}},
		{"", &memory.Backend{}},
		{"sqlite", &sqlitestorage.Backend{}},
		{"postgres", &postgres.Backend{}},
		{"websocket", &websocket.Backend{}},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			b, err := storage.NewBackend(config.StorageConfig{Type: tt.typ}, nil)
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
			require.NoError(t, b.Close())
		})
	}
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := storage.NewBackend(config.StorageConfig{Type: "tape"}, nil)
	assert.EqualError(t, err, "unknown storage type: tape")
}

func TestMemoryBackendIsUploadable(t *testing.T) {
	b, err := storage.NewBackend(config.StorageConfig{Type: "memory"}, nil)
	require.NoError(t, err)
	_, ok := b.(storage.Uploadable)
	assert.True(t, ok)
}
