// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// runtime.go - Service wiring shared by the interactive client and the
// one-shot commands.

package cli

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/jeranaias/traverse-tui/internal/api"
	"github.com/jeranaias/traverse-tui/internal/audit"
	"github.com/jeranaias/traverse-tui/internal/auth"
	"github.com/jeranaias/traverse-tui/internal/config"
	"github.com/jeranaias/traverse-tui/internal/logging"
	"github.com/jeranaias/traverse-tui/internal/metrics"
	"github.com/jeranaias/traverse-tui/internal/storage"
)

// RuntimeOptions configure Open.
type RuntimeOptions struct {
	// Env selects an environment preset for this run.
	Env string
	// Console receives log output. Nil while the TUI owns the terminal.
	Console io.Writer
	// Verbose lowers the log level to debug.
	Verbose bool
}

// Runtime holds the opened services. Close releases them.
type Runtime struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   *storage.Store
	Auth    *auth.Service
	API     *api.Client
	Audit   *audit.Logger
	Metrics *metrics.Metrics
}

// Open loads the configuration and opens every service it describes.
func Open(ctx context.Context, opts RuntimeOptions) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Env != "" {
		if err := cfg.UsePreset(opts.Env); err != nil {
			return nil, NewValidationErrorWithExample("env", opts.Env, err.Error(), "traverse --env qa status")
		}
	}
	return OpenWithConfig(ctx, cfg, opts)
}

// OpenWithConfig opens the services for cfg.
func OpenWithConfig(ctx context.Context, cfg *config.Config, opts RuntimeOptions) (rt *Runtime, err error) {
	rt = &Runtime{Config: cfg}
	defer func() {
		if err != nil {
			rt.Close()
			rt = nil
		}
	}()

	level := cfg.Logging.Level
	if opts.Verbose {
		level = "debug"
	}
	rotation := logging.FileWriterConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}
	rt.Logger, err = logging.New(logging.Options{
		Level:    level,
		File:     cfg.Logging.File,
		Rotation: rotation,
		Console:  opts.Console,
	})
	if err != nil {
		return rt, fmt.Errorf("open log: %w", err)
	}

	sealer, err := storage.LoadOrCreateSealer(cfg.Storage.KeyPath)
	if err != nil {
		return rt, fmt.Errorf("load storage key: %w", err)
	}
	rt.Store, err = storage.Open(ctx, cfg.Storage.DBPath, sealer)
	if err != nil {
		return rt, fmt.Errorf("open storage: %w", err)
	}

	if cfg.Logging.AuditFile != "" {
		rt.Audit, err = audit.Open(cfg.Logging.AuditFile, rotation, rt.Logger)
		if err != nil {
			return rt, fmt.Errorf("open audit log: %w", err)
		}
	} else {
		rt.Audit = audit.New(nopWriteCloser{io.Discard}, rt.Logger)
	}

	rt.Metrics = metrics.New()

	env := cfg.Environment
	rt.Auth = auth.NewService(auth.Settings{
		TenantID:     env.TenantID,
		ClientID:     env.ClientID,
		Scope:        env.Scope,
		RedirectPort: env.RedirectPort,
	}, rt.Store, nil, rt.Logger.Named("auth"))

	rt.API = api.NewClient(env.APIURL, rt.Auth).
		WithTimeout(cfg.APITimeout()).
		WithRateLimit(cfg.API.RequestsPerSecond, cfg.API.Burst).
		WithMaxRetries(cfg.API.MaxRetries).
		WithLogger(rt.Logger.Named("api")).
		WithObserver(rt.Metrics.ObserveRequest)

	rt.Logger.Debug("runtime opened",
		zap.String("environment", env.Name),
		zap.String("api_url", env.APIURL),
		zap.String("db", cfg.Storage.DBPath))
	return rt, nil
}

// Close releases the services. It is safe on a partly opened runtime.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	if rt.Audit != nil {
		_ = rt.Audit.Close()
	}
	if rt.Store != nil {
		_ = rt.Store.Close()
	}
	if rt.Logger != nil {
		_ = rt.Logger.Sync()
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
