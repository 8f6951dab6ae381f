package gormstorage

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/cellbots/replay/internal/database"
	"github.com/cellbots/replay/internal/model"
	"github.com/cellbots/replay/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestBackend creates a Backend on a fresh in-memory SQLite database.
func newTestBackend(t *testing.T, logs *bytes.Buffer) *Backend {
	t.Helper()
	db, err := database.GetSqliteDB(database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	b := New(Dependencies{DB: db, Logger: logger, BatchSize: 2})
	require.NoError(t, b.Init())
	return b
}

func manyKeyframes(n int) []core.Keyframe {
	out := make([]core.Keyframe, n)
	for i := range out {
		out[i] = core.Keyframe{Entity: "B1", Channel: core.ChannelPosition, Frame: i + 1, Value: [3]float64{float64(i), 0, 0}}
	}
	return out
}

func TestNew_Defaults(t *testing.T) {
	b := New(Dependencies{})
	assert.Equal(t, DefaultBatchSize, b.deps.BatchSize)
	assert.NotNil(t, b.deps.Logger)
	assert.Nil(t, b.DB())
}

func TestInit_NoDatabase(t *testing.T) {
	b := New(Dependencies{})
	assert.ErrorIs(t, b.Init(), ErrNoDatabase)
	assert.ErrorIs(t, b.SaveRun(&core.Run{}), ErrNoDatabase)
	_, err := b.LoadRun(1)
	assert.ErrorIs(t, err, ErrNoDatabase)
	assert.NoError(t, b.Close())
}

func TestSaveRun_BatchedKeyframes(t *testing.T) {
	var logs bytes.Buffer
	b := newTestBackend(t, &logs)

	run := &core.Run{
		Info:   core.RunInfo{Name: "batched", AgentCount: 1, KeyframeCount: 5},
		Agents: []core.AgentTrack{{ID: "B1", Position: manyKeyframes(5)}},
	}
	require.NoError(t, b.SaveRun(run))

	var count int64
	require.NoError(t, b.DB().Model(&model.Keyframe{}).Where("run_id = ?", b.LastRunID()).Count(&count).Error)
	assert.Equal(t, int64(5), count)
	assert.Contains(t, logs.String(), "Run saved")

	got, err := b.LoadRun(b.LastRunID())
	require.NoError(t, err)
	require.Len(t, got.Agents, 1)
	assert.Equal(t, run.Agents[0].Position, got.Agents[0].Position)
}

func TestSaveRun_RollsBackOnFailure(t *testing.T) {
	var logs bytes.Buffer
	b := newTestBackend(t, &logs)

	// duplicate bot ids violate the (run_id, bot_id) unique index
	run := &core.Run{
		Info: core.RunInfo{Name: "broken"},
		Agents: []core.AgentTrack{
			{ID: "B1", Position: manyKeyframes(2)},
			{ID: "B1"},
		},
	}
	require.Error(t, b.SaveRun(run))
	assert.Contains(t, logs.String(), "Failed to save run")

	var runs, keyframes int64
	require.NoError(t, b.DB().Model(&model.Run{}).Count(&runs).Error)
	require.NoError(t, b.DB().Model(&model.Keyframe{}).Count(&keyframes).Error)
	assert.Zero(t, runs)
	assert.Zero(t, keyframes)
	assert.Zero(t, b.LastRunID())
}
