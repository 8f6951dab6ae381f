// Package gormstorage implements storage.Backend on top of any GORM dialect.
// The sqlite and postgres backends embed it and only own the connection.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cellbots/replay/internal/database"
	"github.com/cellbots/replay/internal/model"
	"github.com/cellbots/replay/internal/model/convert"
	"github.com/cellbots/replay/pkg/core"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoDatabase is returned when the backend is used without a connection.
var ErrNoDatabase = errors.New("no database connection")

// DefaultBatchSize is the number of keyframe rows per INSERT.
const DefaultBatchSize = 1000

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB        *gorm.DB
	Logger    *slog.Logger
	BatchSize int
}

// Backend implements storage.Backend using GORM.
type Backend struct {
	deps      Dependencies
	lastRunID uint
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = DefaultBatchSize
	}
	return &Backend{deps: deps}
}

// Init runs schema migration.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return ErrNoDatabase
	}
	b.deps.Logger.Info("Migrating schema", "dialect", b.deps.DB.Dialector.Name())
	if err := database.Migrate(b.deps.DB); err != nil {
		return err
	}
	return nil
}

// Close is a no-op; the owner of the connection closes it.
func (b *Backend) Close() error {
	return nil
}

// DB exposes the connection for wrapping backends.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// LastRunID returns the ID assigned to the most recently saved run.
func (b *Backend) LastRunID() uint {
	return b.lastRunID
}

// SaveRun writes the run, its agents and all keyframes in one transaction.
func (b *Backend) SaveRun(run *core.Run) error {
	if b.deps.DB == nil {
		return ErrNoDatabase
	}

	var runID uint
	var rows int
	err := b.deps.DB.Transaction(func(tx *gorm.DB) error {
		gormRun := convert.CoreToRun(run.Info)
		if err := tx.Create(&gormRun).Error; err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
		runID = gormRun.ID

		for _, track := range run.Agents {
			agent, err := convert.CoreToAgent(runID, track)
			if err != nil {
				return err
			}
			if err := tx.Omit(clause.Associations).Create(&agent).Error; err != nil {
				return fmt.Errorf("failed to insert agent %s: %w", track.ID, err)
			}

			keyframes := convert.CoreToKeyframes(runID, agent.ID, track)
			if len(keyframes) == 0 {
				continue
			}
			if err := tx.Omit(clause.Associations).CreateInBatches(&keyframes, b.deps.BatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert keyframes for %s: %w", track.ID, err)
			}
			rows += len(keyframes)
		}
		return nil
	})
	if err != nil {
		b.deps.Logger.Error("Failed to save run", "run", run.Info.Name, "error", err)
		return err
	}

	b.lastRunID = runID
	b.deps.Logger.Info("Run saved", "run", run.Info.Name, "id", runID, "agents", len(run.Agents), "keyframes", rows)
	return nil
}

// LoadRun reads a stored run back into its core form.
func (b *Backend) LoadRun(id uint) (*core.Run, error) {
	if b.deps.DB == nil {
		return nil, ErrNoDatabase
	}
	db := b.deps.DB

	var run model.Run
	if err := db.First(&run, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load run %d: %w", id, err)
	}
	var agents []model.Agent
	if err := db.Where("run_id = ?", id).Order("id").Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("failed to load agents of run %d: %w", id, err)
	}
	var keyframes []model.Keyframe
	if err := db.Where("run_id = ?", id).Order("agent_id, channel, frame").Find(&keyframes).Error; err != nil {
		return nil, fmt.Errorf("failed to load keyframes of run %d: %w", id, err)
	}
	return convert.RunToCore(run, agents, keyframes)
}
