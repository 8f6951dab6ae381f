package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cellbots/replay/internal/api"
	"github.com/cellbots/replay/internal/config"
	"github.com/cellbots/replay/internal/influx"
	"github.com/cellbots/replay/internal/preview"
	"github.com/cellbots/replay/internal/storage"
)

// publish saves the run through the configured backend, then runs the
// optional outputs. Influx failures are logged only; preview and upload
// were asked for explicitly and fail the conversion.
func (s *session) publish(ctx context.Context, res *result) error {
	storageCfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(storageCfg, s.logger)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		s.logger.Error("Failed to initialize storage backend", "type", storageCfg.Type, "error", err)
		return fmt.Errorf("init %s storage: %w", storageCfg.Type, err)
	}
	if err := backend.SaveRun(res.run); err != nil {
		_ = backend.Close()
		return fmt.Errorf("save run: %w", err)
	}
	if err := backend.Close(); err != nil {
		return fmt.Errorf("close %s storage: %w", storageCfg.Type, err)
	}
	s.logger.Info("Run stored", "type", storageCfg.Type)

	if u, ok := backend.(storage.Uploadable); ok {
		res.exportPath = u.GetExportedFilePath()
	}

	s.writeMetrics(ctx, res)

	if previewCfg := config.GetPreviewConfig(); previewCfg.Enabled {
		files, err := preview.New(previewCfg.OutputDir).Render(res.run)
		if err != nil {
			return fmt.Errorf("render preview: %w", err)
		}
		res.previews = files
		s.logger.Info("Preview rendered", "files", files)
	}

	if apiCfg := config.GetAPIConfig(); apiCfg.Upload {
		u, ok := backend.(storage.Uploadable)
		if !ok {
			s.logger.Warn("Upload skipped, storage backend produces no export file", "type", storageCfg.Type)
			return nil
		}
		client := api.New(apiCfg.ServerURL, apiCfg.APIKey)
		if err := client.Healthcheck(); err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		if err := client.Upload(u.GetExportedFilePath(), u.GetExportMetadata()); err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		res.uploaded = true
		s.logger.Info("Export uploaded", "server", apiCfg.ServerURL, "file", u.GetExportedFilePath())
	}
	return nil
}

func (s *session) writeMetrics(ctx context.Context, res *result) {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return
	}

	backupPath := ""
	if logsDir := config.GetString("logsDir"); logsDir != "" {
		backupPath = filepath.Join(logsDir, "influx_backup.log.gz")
	}
	m := influx.NewManager(s.zlog, cfg, backupPath)
	defer func() {
		if err := m.Close(); err != nil {
			s.logger.Warn("Failed to close influx manager", "error", err)
		}
	}()

	if err := m.Connect(ctx); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			s.logger.Warn("Run metrics not written", "error", err)
		}
		return
	}
	if err := m.WriteRun(res.run); err != nil {
		s.logger.Warn("Run metrics not written", "error", err)
	}
}
