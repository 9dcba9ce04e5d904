// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags.
var Version = "0.1.0"

// NewRootCommand builds the command tree around a fresh App.
func NewRootCommand(streams IOStreams) (*cobra.Command, *App) {
	opts := &globalOptions{}
	app := newApp(opts, streams)

	root := &cobra.Command{
		Use:   "chatdesk",
		Short: "Terminal client for the chat API",
		Long: `chatdesk talks to a remote chat API from the terminal.

Conversations and projects are kept in a local store; the server handles
authentication, models and token accounting.

Run "chatdesk login" first, then "chatdesk chat" for an interactive session.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
	}
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.ErrOut)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Message: err.Error()}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.chatdesk/config.toml)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	flags.BoolVar(&opts.ephemeral, "ephemeral", false, "keep conversations in memory only")
	flags.BoolVar(&opts.jsonMode, "json", false, "machine-readable output")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colors")

	root.AddCommand(
		newLoginCommand(app),
		newLogoutCommand(app),
		newWhoamiCommand(app),
		newModelsCommand(app),
		newChatCommand(app),
		newAskCommand(app),
		newConversationsCommand(app),
		newProjectsCommand(app),
		newAdminCommand(app),
		newConfigCommand(app),
		newAPIBaseCommand(app),
		newThemeCommand(app),
	)
	return root, app
}

// Execute runs the program and returns its exit code.
func Execute() int {
	streams := DefaultStreams()
	root, app := NewRootCommand(streams)
	err := root.Execute()
	defer app.Close()

	if err != nil {
		DisplayError(streams.ErrOut, app.Theme, err, app.opts.jsonMode)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// usageArgs turns cobra argument errors into usage errors.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return &UsageError{Message: err.Error()}
		}
		return nil
	}
}

// printJSON writes a success envelope when --json is set and reports
// whether it did.
func (a *App) printJSON(command string, data any) (bool, error) {
	if !a.opts.jsonMode {
		return false, nil
	}
	return true, NewJSONResponse(command, data).Write(a.streams.Out)
}
