package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cellbots/replay/internal/config"
	v1 "github.com/cellbots/replay/internal/storage/memory/export/v1"
	"github.com/cellbots/replay/pkg/core"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun() *core.Run {
	return &core.Run{
		Info: core.RunInfo{
			Name:          "demo run",
			SourceFile:    "demo.json",
			StartedAt:     time.Date(2024, 1, 15, 14, 30, 45, 0, time.UTC),
			FrameRate:     24,
			FrameOrigin:   1,
			StartFrame:    1,
			EndFrame:      49,
			AgentCount:    1,
			KeyframeCount: 2,
			Convention:    core.ConventionTarget,
		},
		Agents: []core.AgentTrack{{
			ID:           "B1",
			RestPosition: core.TargetVector{X: 1},
			Position: []core.Keyframe{
				{Entity: "B1", Channel: core.ChannelPosition, Frame: 1, Value: [3]float64{1, 0, 0}},
				{Entity: "B1", Channel: core.ChannelPosition, Frame: 49, Value: [3]float64{5, 0, 0}},
			},
		}},
	}
}

func TestExportFileName(t *testing.T) {
	info := core.RunInfo{
		Name:      "a b:c",
		StartedAt: time.Date(2024, 1, 15, 14, 30, 45, 0, time.UTC),
	}
	assert.Equal(t, "a_b_c_20240115_143045.json", ExportFileName(info, false))
	assert.Equal(t, "a_b_c_20240115_143045.json.gz", ExportFileName(info, true))

	info.Name = ""
	assert.Equal(t, "run_20240115_143045.json", ExportFileName(info, false))
}

func TestSaveRun_JSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	b := New(config.MemoryConfig{OutputDir: dir})
	require.NoError(t, b.Init())
	defer b.Close()

	run := sampleRun()
	require.NoError(t, b.SaveRun(run))

	path := b.GetExportedFilePath()
	assert.Equal(t, filepath.Join(dir, "demo_run_20240115_143045.json"), path)
	_, err := os.Stat(path)
	require.NoError(t, err)
	assert.Same(t, run, b.LastRun())

	export, err := LoadExport(path)
	require.NoError(t, err)
	got, err := v1.Restore(export)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("export mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveRun_Gzip(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: true})
	require.NoError(t, b.SaveRun(sampleRun()))

	path := b.GetExportedFilePath()
	assert.Equal(t, ".gz", filepath.Ext(path))

	export, err := LoadExport(path)
	require.NoError(t, err)
	assert.Equal(t, "demo run", export.Name)
	require.Len(t, export.Agents, 1)
	assert.Equal(t, [][4]float64{{1, 1, 0, 0}, {49, 5, 0, 0}}, export.Agents[0].Curves[0].Keyframes)
}

func TestSaveRun_BadOutputDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	b := New(config.MemoryConfig{OutputDir: file})
	err := b.SaveRun(sampleRun())
	require.Error(t, err)
	assert.Empty(t, b.GetExportedFilePath())
	assert.Nil(t, b.LastRun())
}

func TestGetExportMetadata(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})
	assert.Equal(t, core.UploadMetadata{}, b.GetExportMetadata())

	require.NoError(t, b.SaveRun(sampleRun()))
	assert.Equal(t, core.UploadMetadata{
		RunName:     "demo run",
		SourceFile:  "demo.json",
		DurationSec: 2,
		Agents:      1,
	}, b.GetExportMetadata())
}

func TestLoadExport_Missing(t *testing.T) {
	_, err := LoadExport(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
