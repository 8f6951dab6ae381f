package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cellbots/replay/internal/config"
	"github.com/cellbots/replay/internal/logging"
	intOtel "github.com/cellbots/replay/internal/otel"
	"github.com/cellbots/replay/internal/parser"
	"github.com/cellbots/replay/internal/router"
	"github.com/cellbots/replay/internal/timeline"
	"github.com/cellbots/replay/internal/timing"
	"github.com/cellbots/replay/pkg/core"
	"github.com/rs/zerolog"
)

// result is what one conversion reports back to the user.
type result struct {
	run        *core.Run
	stats      router.Stats
	exportPath string
	previews   []string
	uploaded   bool
}

func (r result) print(w io.Writer) {
	info := r.run.Info
	fmt.Fprintf(w, "%s: %d agents, %d keyframes, frames %d-%d, %d events (%d dropped)\n",
		info.Name, info.AgentCount, info.KeyframeCount, info.StartFrame, info.EndFrame,
		r.stats.Events, r.stats.Dropped)
	if r.exportPath != "" {
		fmt.Fprintf(w, "export: %s\n", r.exportPath)
	}
	for _, p := range r.previews {
		fmt.Fprintf(w, "preview: %s\n", p)
	}
	if r.uploaded {
		fmt.Fprintln(w, "uploaded")
	}
}

// session owns the loggers of one conversion and everything that must be
// closed when it ends.
type session struct {
	name    string
	start   time.Time
	slogMgr *logging.SlogManager
	logger  *slog.Logger
	zlog    zerolog.Logger
	otel    *intOtel.Provider
	closers []io.Closer
}

// runName derives the run name from the log file name.
func runName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newSession(ctx context.Context, logPath string) (*session, error) {
	s := &session{
		name:    runName(logPath),
		start:   time.Now(),
		slogMgr: logging.NewSlogManager(),
	}
	level := config.GetString("logLevel")

	var logFile io.Writer
	var otelWriter io.Writer
	logsDir := config.GetString("logsDir")
	if logsDir != "" {
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("create logs dir: %w", err)
		}
		f, err := os.Create(logging.LogFilePath(logsDir, s.name, s.start))
		if err != nil {
			return nil, fmt.Errorf("create log file: %w", err)
		}
		s.closers = append(s.closers, f)
		logFile = f
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled && otelCfg.Endpoint == "" && logsDir != "" {
		f, err := os.Create(logging.LogFilePath(logsDir, s.name+".otel", s.start))
		if err != nil {
			s.close()
			return nil, fmt.Errorf("create otel log file: %w", err)
		}
		s.closers = append(s.closers, f)
		otelWriter = f
	}

	provider, err := intOtel.New(ctx, intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ServiceVersion: BuildVersion,
		BatchTimeout:   otelCfg.BatchTimeout,
		LogWriter:      otelWriter,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		s.close()
		return nil, fmt.Errorf("init otel: %w", err)
	}
	s.otel = provider

	opts := logging.Options{
		File:     logFile,
		Level:    level,
		Provider: provider.LoggerProvider(),
		Context:  logging.RunContext(s.name, logPath),
	}
	var gelfErr error
	if config.GetBool("graylog.enabled") {
		w, err := logging.NewGraylogWriter(config.GetString("graylog.address"), "botreplay")
		if err != nil {
			gelfErr = err
		} else {
			s.closers = append(s.closers, w)
			opts.GELF = w
		}
	}
	s.slogMgr.Setup(opts)
	s.logger = s.slogMgr.Logger()
	if gelfErr != nil {
		s.logger.Warn("Graylog sink disabled", "error", gelfErr)
	}

	zw := io.Writer(os.Stderr)
	if logFile != nil {
		zw = logFile
	}
	zlevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		zlevel = zerolog.InfoLevel
	}
	s.zlog = zerolog.New(zerolog.ConsoleWriter{Out: zw, NoColor: true, TimeFormat: time.RFC3339}).
		Level(zlevel).
		With().Timestamp().Str("run", s.name).Logger()

	return s, nil
}

func (s *session) close() {
	if s.otel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.slogMgr.Flush(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "botreplay: flush logs: %v\n", err)
		}
		if err := s.otel.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "botreplay: %v\n", err)
		}
		cancel()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
	s.closers = nil
}

// convert parses the log, routes every event into a fresh timeline and hands
// the snapshot to storage and the optional outputs.
func convert(ctx context.Context, logPath string) (result, error) {
	s, err := newSession(ctx, logPath)
	if err != nil {
		return result{}, err
	}
	defer s.close()

	s.logger.Info("Starting conversion", "version", BuildVersion, "config", config.ConfigFileUsed())

	p, err := parser.NewParser(s.logger)
	if err != nil {
		return result{}, err
	}
	events, err := p.ParseFile(logPath)
	if err != nil {
		s.logger.Error("Failed to parse log", "error", err)
		return result{}, err
	}

	timingCfg := config.GetTimingConfig()
	tl := timeline.New()
	r, err := router.New(tl, router.Config{
		Mapper: timing.Mapper{
			FrameRate:         timingCfg.FrameRate,
			FrameOrigin:       timingCfg.FrameOrigin,
			DefaultDurationMs: timingCfg.DefaultDurationMs,
		},
		OrbitSteps: config.GetRouterConfig().OrbitSteps,
	}, logging.NewRouterLogger(s.zlog))
	if err != nil {
		return result{}, err
	}

	stats, err := r.Run(ctx, events)
	if err != nil {
		s.logger.Error("Conversion interrupted", "error", err, "processed", stats.Processed)
		return result{}, err
	}

	run := tl.Snapshot(core.RunInfo{
		Name:          s.name,
		SourceFile:    logPath,
		StartedAt:     s.start,
		FrameRate:     timingCfg.FrameRate,
		FrameOrigin:   timingCfg.FrameOrigin,
		EventCount:    stats.Events,
		DroppedEvents: stats.Dropped,
		Convention:    core.ConventionTarget,
		Version:       BuildVersion,
	})
	s.logger.Info("Timeline built",
		"agents", run.Info.AgentCount,
		"keyframes", run.Info.KeyframeCount,
		"startFrame", run.Info.StartFrame,
		"endFrame", run.Info.EndFrame,
		"dropped", stats.Dropped)

	res := result{run: run, stats: stats}
	if err := s.publish(ctx, &res); err != nil {
		return result{}, err
	}
	return res, nil
}
