// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/muesli/termenv"
	"go.uber.org/zap"

	"github.com/jeranaias/chatdesk/internal/api"
	"github.com/jeranaias/chatdesk/internal/config"
	"github.com/jeranaias/chatdesk/internal/logging"
	"github.com/jeranaias/chatdesk/internal/session"
	"github.com/jeranaias/chatdesk/internal/store"
	"github.com/jeranaias/chatdesk/internal/stream"
	"github.com/jeranaias/chatdesk/internal/ui/components"
	"github.com/jeranaias/chatdesk/internal/ui/styles"
)

// globalOptions are the persistent root flags.
type globalOptions struct {
	configPath string
	verbose    bool
	ephemeral  bool
	jsonMode   bool
	noColor    bool
}

// App is the wiring shared by every command.
type App struct {
	opts    *globalOptions
	streams IOStreams
	input   *lineReader

	Config   *config.Config
	Logger   *zap.Logger
	Theme    *styles.Theme
	Store    *store.Store
	Client   *api.Client
	Consumer *stream.Consumer
	Manager  *session.Manager
	Toasts   *components.Stack

	sqlite  *store.SQLiteKV
	printer *toastPrinter
	ready   bool
}

func newApp(opts *globalOptions, streams IOStreams) *App {
	return &App{
		opts:    opts,
		streams: streams,
		input:   newLineReader(streams.In),
		Logger:  zap.NewNop(),
	}
}

// init loads configuration and opens the store. It runs once, before any
// command.
func (a *App) init() error {
	if a.ready {
		return nil
	}

	cfg, loadErr := a.loadConfig()
	if cfg == nil {
		return loadErr
	}
	a.Config = cfg

	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Path:    logPath,
		Verbose: a.opts.verbose,
	})
	if err != nil {
		return err
	}
	a.Logger = logger
	if loadErr != nil {
		a.Logger.Warn("config file ignored, using defaults", zap.Error(loadErr))
		fmt.Fprintf(a.streams.ErrOut, "%s %v\n", styles.StatusIndicators.Warning, loadErr)
	}

	var kv store.KV
	if a.opts.ephemeral {
		kv = store.NewMemoryKV()
	} else {
		path, err := cfg.StorePath()
		if err != nil {
			return err
		}
		db, err := store.OpenSQLite(path)
		if err != nil {
			return fmt.Errorf("failed to open local store: %w", err)
		}
		a.sqlite = db
		kv = db
	}
	a.Store = store.New(kv, a.Logger)

	a.Theme = a.buildTheme()
	a.Theme.Apply()

	a.Toasts = components.NewStack()
	a.printer = newToastPrinter(a.Toasts, a.streams.ErrOut, a.Theme, terminalWidth(a.streams.ErrOut), cfg.UI.Notifications)

	a.Client = api.NewClient(a.Store).
		WithConfigBase(cfg.API.BaseURL).
		WithDefaultBase(cfg.API.DefaultBase).
		WithUserAgent(cfg.API.UserAgent).
		WithLogger(a.Logger).
		WithLogoutHook(func() {
			a.Logger.Info("stored token cleared after 401")
		})
	a.Consumer = stream.NewConsumer(a.Client, a.Logger)
	a.Manager = session.NewManager(a.Store, a.Consumer, a.Toasts, a.Logger)

	a.Logger.Debug("chatdesk ready",
		zap.String("api_base", a.Client.Base()),
		zap.Bool("ephemeral", a.opts.ephemeral),
		zap.String("theme", string(a.Theme.Mode)))
	a.ready = true
	return nil
}

func (a *App) loadConfig() (*config.Config, error) {
	if a.opts.configPath != "" {
		cfg, err := config.LoadFromPath(a.opts.configPath)
		return cfg, err
	}
	return config.Load()
}

// themeMode is the stored theme toggle, falling back to ui.theme.
func (a *App) themeMode() styles.Mode {
	if a.Store != nil {
		if m, err := styles.ParseMode(a.Store.Theme()); err == nil && a.Store.Theme() != "" {
			return m
		}
	}
	m, err := styles.ParseMode(a.Config.UI.Theme)
	if err != nil {
		return styles.ModeAuto
	}
	return m
}

func (a *App) buildTheme() *styles.Theme {
	mode := a.themeMode()
	profile := colorProfile(a.streams.Out, a.opts.noColor)
	// Querying the background only makes sense on a real terminal.
	detected := true
	if mode == styles.ModeAuto && profile != termenv.Ascii {
		detected = termenv.HasDarkBackground()
	}
	return styles.NewThemeWithProfile(mode, profile, detected)
}

// Close releases the store and flushes the logger.
func (a *App) Close() error {
	var errs []error
	if a.Toasts != nil {
		a.Toasts.DismissAll()
	}
	if a.sqlite != nil {
		errs = append(errs, a.sqlite.Close())
		a.sqlite = nil
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}
