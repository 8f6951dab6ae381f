package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/cellbots/replay/internal/api"
	"github.com/cellbots/replay/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `[
  {"event":"addbot","botid":"B1","pos":{"x":1,"y":0,"z":2},"dir":{"vx":1,"vy":0,"vz":0},"color":"FF8000"},
  {"event":"addbot","botid":"B2","pos":{"x":0,"y":0,"z":0},"dir":{"vx":0,"vy":0,"vz":1}},
  {"notify":"update","msg":[
    {"event":"move","botid":"B1","ts":0,"from":{"x":1,"y":0,"z":2},"to":{"x":2,"y":0,"z":2}},
    {"event":"spin","botid":"B2","ts":400,"duration":800,"from":{"vx":0,"vy":0,"vz":1},"to":{"vx":1,"vy":0,"vz":0}},
    {"event":"move","botid":"B9","ts":500,"from":{"x":0,"y":0,"z":0},"to":{"x":1,"y":0,"z":0}}
  ]}
]`

type cliEnv struct {
	dir       string
	configDir string
	logsDir   string
	outputDir string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	env := cliEnv{
		dir:       dir,
		configDir: filepath.Join(dir, "config"),
		logsDir:   filepath.Join(dir, "logs"),
		outputDir: filepath.Join(dir, "exports"),
	}
	require.NoError(t, os.MkdirAll(env.configDir, 0755))
	return env
}

func (e cliEnv) writeLog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (e cliEnv) writeConfig(t *testing.T, cfg map[string]any) {
	t.Helper()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, config.FileName), data, 0644))
}

func (e cliEnv) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	base := []string{
		"--config-dir", e.configDir,
		"--logs-dir", e.logsDir,
		"--output-dir", e.outputDir,
	}
	code := run(context.Background(), append(base, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	env := newCLIEnv(t)

	code, _, stderr := env.run()
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "usage: botreplay")

	code, _, _ = env.run("a.json", "b.json")
	assert.Equal(t, exitUsage, code)

	code, _, _ = env.run("--no-such-flag", "a.json")
	assert.Equal(t, exitUsage, code)
}

func TestRun_Version(t *testing.T) {
	env := newCLIEnv(t)

	code, stdout, _ := env.run("--version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, BuildVersion)
}

func TestRun_MemoryExport(t *testing.T) {
	env := newCLIEnv(t)
	logPath := env.writeLog(t, "session1.json", sampleLog)

	code, stdout, stderr := env.run(logPath)
	require.Equal(t, exitOK, code, stderr)

	assert.Contains(t, stdout, "session1: 2 agents")
	assert.Contains(t, stdout, "(1 dropped)")

	exports, err := filepath.Glob(filepath.Join(env.outputDir, "session1_*.json"))
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.Contains(t, stdout, exports[0])

	logs, err := filepath.Glob(filepath.Join(env.logsDir, "session1.*.log"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestRun_FlagsOverrideConfig(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t, map[string]any{
		"timing": map[string]any{"frameRate": 10},
	})
	logPath := env.writeLog(t, "rate.json", sampleLog)

	code, stdout, stderr := env.run("--frame-rate", "48", "--frame-origin", "0", logPath)
	require.Equal(t, exitOK, code, stderr)

	// spin ends at 1200 ms: 1.2 s * 48 fps from origin 0.
	assert.Contains(t, stdout, "frames 0-57")
	assert.Equal(t, 48.0, config.GetTimingConfig().FrameRate)
}

func TestRun_MalformedInput(t *testing.T) {
	env := newCLIEnv(t)
	logPath := env.writeLog(t, "bad.json",
		`[{"event":"addbot","botid":"B1","dir":{"vx":1,"vy":0,"vz":0}}]`)

	code, _, stderr := env.run(logPath)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "invalid field [0].pos")

	entries, err := os.ReadDir(env.outputDir)
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestRun_MissingFile(t *testing.T) {
	env := newCLIEnv(t)

	code, _, stderr := env.run(filepath.Join(env.dir, "missing.json"))
	assert.Equal(t, exitFailure, code)
	assert.NotEmpty(t, stderr)
}

func TestRun_UnknownStorage(t *testing.T) {
	env := newCLIEnv(t)
	logPath := env.writeLog(t, "s.json", sampleLog)

	code, _, stderr := env.run("--storage", "tape", logPath)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "unknown storage type: tape")
}

func TestRun_SQLite(t *testing.T) {
	env := newCLIEnv(t)
	dbPath := filepath.Join(env.dir, "runs.db")
	env.writeConfig(t, map[string]any{
		"storage": map[string]any{"sqlite": map[string]any{"path": dbPath}},
	})
	logPath := env.writeLog(t, "db.json", sampleLog)

	code, _, stderr := env.run("--storage", "sqlite", logPath)
	require.Equal(t, exitOK, code, stderr)
	assert.FileExists(t, dbPath)
}

func TestRun_Preview(t *testing.T) {
	env := newCLIEnv(t)
	previewDir := filepath.Join(env.dir, "previews")
	env.writeConfig(t, map[string]any{
		"preview": map[string]any{"outputDir": previewDir},
	})
	logPath := env.writeLog(t, "plot.json", sampleLog)

	code, stdout, stderr := env.run("--preview", logPath)
	require.Equal(t, exitOK, code, stderr)

	pngs, err := filepath.Glob(filepath.Join(previewDir, "*.png"))
	require.NoError(t, err)
	assert.Len(t, pngs, 2)
	assert.Contains(t, stdout, "preview: ")
}

func TestRun_Upload(t *testing.T) {
	var uploads atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthcheck":
			w.WriteHeader(http.StatusOK)
		case api.UploadPath:
			if err := r.ParseMultipartForm(10 << 20); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if r.FormValue("secret") != "key" || r.FormValue("runName") != "up" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			uploads.Add(1)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	env := newCLIEnv(t)
	env.writeConfig(t, map[string]any{
		"api": map[string]any{"serverUrl": server.URL, "apiKey": "key"},
	})
	logPath := env.writeLog(t, "up.json", sampleLog)

	code, stdout, stderr := env.run("--upload", logPath)
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, int32(1), uploads.Load())
	assert.Contains(t, stdout, "uploaded")
}

func TestRunName(t *testing.T) {
	assert.Equal(t, "session", runName("/tmp/logs/session.json"))
	assert.Equal(t, "session.v2", runName("session.v2.json"))
	assert.Equal(t, "plain", runName("plain"))
}
