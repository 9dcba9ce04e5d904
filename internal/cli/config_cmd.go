// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatdesk/internal/api"
	"github.com/jeranaias/chatdesk/internal/config"
	"github.com/jeranaias/chatdesk/internal/ui/styles"
)

// =============================================================================
// CONFIG
// =============================================================================

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, args []string) error {
				if ok, err := app.printJSON("config show", app.Config); ok {
					return err
				}
				fmt.Fprintln(app.streams.Out, app.Config.String())
				return nil
			},
		},
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print one setting (e.g. chat.default_model)",
			Args:  usageArgs(cobra.ExactArgs(1)),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := app.Config.Get(args[0])
				if err != nil {
					return &UsageError{Message: err.Error()}
				}
				if ok, err := app.printJSON("config get", map[string]any{"key": args[0], "value": v}); ok {
					return err
				}
				fmt.Fprintln(app.streams.Out, v)
				return nil
			},
		},
		newConfigSetCommand(app),
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := app.configFilePath()
				if err != nil {
					return err
				}
				fmt.Fprintln(app.streams.Out, path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List every settable key",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, args []string) error {
				keys := config.GetAllKeys()
				if ok, err := app.printJSON("config keys", keys); ok {
					return err
				}
				for _, k := range keys {
					fmt.Fprintln(app.streams.Out, k)
				}
				return nil
			},
		},
	)
	return cmd
}

func (a *App) configFilePath() (string, error) {
	if a.opts.configPath != "" {
		return a.opts.configPath, nil
	}
	return config.ConfigPathTOML()
}

func newConfigSetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting and save the config file",
		Long: `Change one setting and save it to the config file. Only what the file
already contains is written back; environment overrides are not persisted.`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.configFilePath()
			if err != nil {
				return err
			}
			cfg, err := fileConfig(path, app.opts.configPath == "")
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return &UsageError{Message: err.Error()}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if app.opts.configPath == "" {
				if err := config.EnsureConfigDir(); err != nil {
					return err
				}
			}
			if err := config.SaveTOML(cfg, path); err != nil {
				return err
			}
			// Keep the running config in step for anything printed afterwards.
			_ = app.Config.Set(args[0], args[1])

			if ok, err := app.printJSON("config set", map[string]string{"key": args[0], "value": args[1]}); ok {
				return err
			}
			fmt.Fprintln(app.streams.Out, app.Theme.RenderSuccess(fmt.Sprintf("%s = %s", args[0], args[1])))
			return nil
		},
	}
}

// fileConfig loads only the file at path over the defaults. A missing file
// is not an error. With fallbackJSON a legacy config.json is read when the
// TOML file does not exist yet.
func fileConfig(path string, fallbackJSON bool) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if strings.EqualFold(filepath.Ext(path), ".json") {
			err = config.LoadJSON(cfg, path)
		} else {
			err = config.LoadTOML(cfg, path)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return cfg, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if fallbackJSON {
		if jsonPath, err := config.ConfigPathJSON(); err == nil {
			if _, statErr := os.Stat(jsonPath); statErr == nil {
				if err := config.LoadJSON(cfg, jsonPath); err != nil {
					return nil, fmt.Errorf("failed to read %s: %w", jsonPath, err)
				}
			}
		}
	}
	return cfg, nil
}

// =============================================================================
// API BASE
// =============================================================================

func newAPIBaseCommand(app *App) *cobra.Command {
	var clearOverride bool

	cmd := &cobra.Command{
		Use:   "api-base [URL]",
		Short: "Show or override the API base URL",
		Long: `Show the API base URL, or store an override that wins over the config
file. "/api" is appended when missing. --clear removes the override.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case clearOverride:
				if err := app.Store.ClearAPIBase(); err != nil {
					return err
				}
			case len(args) == 1:
				base := strings.TrimSpace(args[0])
				if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
					return usageErrorf("API base must start with http:// or https://")
				}
				if err := app.Store.SetAPIBase(api.NormalizeBase(base)); err != nil {
					return err
				}
			}

			override := app.Store.APIBase()
			if ok, err := app.printJSON("api-base", map[string]any{"base": app.Client.Base(), "override": override != ""}); ok {
				return err
			}
			line := app.Client.Base()
			if override != "" {
				line += " " + app.Theme.Muted.Render("(override)")
			}
			fmt.Fprintln(app.streams.Out, line)
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearOverride, "clear", false, "remove the stored override")
	return cmd
}

// =============================================================================
// THEME
// =============================================================================

func newThemeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [auto|dark|light|toggle]",
		Short:     "Show or change the color theme",
		Args:      usageArgs(cobra.MaximumNArgs(1)),
		ValidArgs: []string{"auto", "dark", "light", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				var next styles.Mode
				if strings.EqualFold(args[0], "toggle") {
					next = app.Theme.Mode.Toggle(app.Theme.IsDark)
				} else {
					m, err := styles.ParseMode(args[0])
					if err != nil {
						return &UsageError{Message: err.Error()}
					}
					next = m
				}
				if err := app.Store.SetTheme(string(next)); err != nil {
					return err
				}
				app.Theme = app.buildTheme()
				app.Theme.Apply()
			}

			resolved := "light"
			if app.Theme.IsDark {
				resolved = "dark"
			}
			if ok, err := app.printJSON("theme", map[string]string{"mode": string(app.Theme.Mode), "resolved": resolved}); ok {
				return err
			}
			text := string(app.Theme.Mode)
			if app.Theme.Mode == styles.ModeAuto {
				text += " (" + resolved + ")"
			}
			fmt.Fprintln(app.streams.Out, app.Theme.Brand.Render(text))
			return nil
		},
	}
}
