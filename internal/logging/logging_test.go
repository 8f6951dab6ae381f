package logging

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogFilePath(t *testing.T) {
	start := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		run     string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "logs",
			run:     "botreplay",
			want:    filepath.Join("logs", "botreplay.20260212_213836.log"),
		},
		{
			name:    "relative path with dot",
			logsDir: "./logs",
			run:     "blender",
			want:    filepath.Join(".", "logs", "blender.20260212_213836.log"),
		},
		{
			name:    "absolute path",
			logsDir: filepath.Join("/var", "log", "botreplay"),
			run:     "botreplay",
			want:    filepath.Join("/var", "log", "botreplay", "botreplay.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogFilePath(tt.logsDir, tt.run, start))
		})
	}
}

func TestRunContext(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), RunContext("demo", "blender.txt"))

	slog.New(h).Info("converted")

	assert.Contains(t, buf.String(), "run=demo")
	assert.Contains(t, buf.String(), "source=blender.txt")
}
