// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/traverse-tui/internal/config"
	"github.com/jeranaias/traverse-tui/internal/navigation"
	"github.com/jeranaias/traverse-tui/internal/session"
	"github.com/jeranaias/traverse-tui/internal/ui/app"
)

// RunTUI starts the interactive client and blocks until it exits.
func RunTUI(ctx context.Context, args Args) error {
	if err := RequiresTTY("start the interactive client"); err != nil {
		return err
	}

	rt, err := Open(ctx, RuntimeOptions{Env: args.Env, Verbose: args.Verbose})
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg := rt.Config
	logger := rt.Logger

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if addr := cfg.Metrics.ListenAddr; addr != "" {
		go func() {
			if err := rt.Metrics.Serve(ctx, addr, logger.Named("metrics")); err != nil {
				logger.Warn("metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	bridge := app.NewBridge()
	router := navigation.NewRouter(navigation.Splash)
	unsubscribe := router.Subscribe(bridge.RouteChanged)
	defer unsubscribe()

	ctrl, err := session.New(cfg.IdleWindow(), session.Collaborators{
		Auth:      rt.Auth,
		Navigator: router,
		Notifier:  notices(bridge, logger.Named("notice")),
	},
		session.WithSinks(rt.Audit, rt.Metrics),
		session.WithLogger(logger.Named("session")),
		session.WithBaseContext(ctx),
	)
	if err != nil {
		return NewCommandError("tui", "start", "invalid session settings", err)
	}
	defer bridge.Close()
	defer ctrl.Stop()

	watchConfig(ctx, ctrl, logger)

	model := app.New(app.Deps{
		Backend:        rt.API,
		Auth:           rt.Auth,
		Session:        ctrl,
		Router:         router,
		Bridge:         bridge,
		Seen:           rt.Store,
		Recorder:       rt.Audit,
		Metrics:        rt.Metrics,
		Environment:    cfg.Environment.Name,
		LetterBaseURL:  rt.API.BaseURL(),
		RequestTimeout: cfg.APITimeout(),
		Logger:         logger.Named("ui"),
	})

	opts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	}
	if cfg.Session.ReportFocus {
		opts = append(opts, tea.WithReportFocus())
	}

	logger.Info("interactive client started", zap.String("environment", cfg.Environment.Name))
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run interactive client: %w", err)
	}
	return nil
}

// watchConfig applies idle window edits from the config file to the running
// session. A missing config file is not watched.
func watchConfig(ctx context.Context, ctrl *session.Controller, logger *zap.Logger) {
	path, err := config.FilePath()
	if err != nil {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	w, err := config.NewWatcher(path, func(c *config.Config) {
		if err := ctrl.SetConfig(c.IdleWindow()); err != nil {
			logger.Warn("ignoring idle window change", zap.Error(err))
			return
		}
		logger.Info("idle window updated",
			zap.Int("idle_timeout_secs", c.Session.IdleTimeoutSecs),
			zap.Int("warning_lead_secs", c.Session.WarningLeadSecs))
	}, logger.Named("config"))
	if err != nil {
		logger.Warn("config watcher unavailable", zap.Error(err))
		return
	}
	go func() {
		defer w.Close()
		w.Run(ctx)
	}()
}

// notices shows session notices in the client and records them in the log.
func notices(bridge *app.Bridge, logger *zap.Logger) session.Notifier {
	logged := session.LogNotifier{Logger: logger}
	return session.NotifierFunc(func(n session.Notice) {
		logged.Notify(n)
		bridge.Notify(n)
	})
}
