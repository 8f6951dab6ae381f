// internal/storage/memory/memory.go
package memory

import (
	"sync"

	"github.com/cellbots/replay/internal/config"
	"github.com/cellbots/replay/pkg/core"
)

// Backend keeps the last saved run in memory and exports it to JSON
type Backend struct {
	cfg config.MemoryConfig

	lastRun        *core.Run
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// SaveRun exports the run and remembers it for upload metadata
func (b *Backend) SaveRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	path, err := b.exportJSON(run)
	if err != nil {
		return err
	}
	b.lastRun = run
	b.lastExportPath = path
	return nil
}

// LastRun returns the most recently saved run, or nil
func (b *Backend) LastRun() *core.Run {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastRun
}

// GetExportedFilePath returns the path of the last export
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the last export for the upload endpoint
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.lastRun == nil {
		return core.UploadMetadata{}
	}
	info := b.lastRun.Info
	meta := core.UploadMetadata{
		RunName:    info.Name,
		SourceFile: info.SourceFile,
		Agents:     info.AgentCount,
	}
	if info.FrameRate > 0 && info.EndFrame > info.StartFrame {
		meta.DurationSec = float64(info.EndFrame-info.StartFrame) / info.FrameRate
	}
	return meta
}
