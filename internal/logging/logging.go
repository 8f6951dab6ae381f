package logging

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
)

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, name string, start time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", name, start.Format("20060102_150405")),
	)
}

// RunContext returns a ContextProvider that tags every record with the run
// being converted.
func RunContext(runName, sourceFile string) ContextProvider {
	attrs := []slog.Attr{
		slog.String("run", runName),
		slog.String("source", sourceFile),
	}
	return func() []slog.Attr { return attrs }
}
