// internal/storage/storage.go
package storage

import "github.com/cellbots/replay/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// SaveRun persists one finished run. The run is not modified.
	SaveRun(run *core.Run) error
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to the replay server.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
