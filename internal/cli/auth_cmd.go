// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatdesk/internal/api"
	"github.com/jeranaias/chatdesk/internal/model"
	"github.com/jeranaias/chatdesk/internal/ui/components"
)

// =============================================================================
// LOGIN / LOGOUT
// =============================================================================

func newLoginCommand(app *App) *cobra.Command {
	var username string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Long: `Sign in with a username and password. The password is read without
echo when stdin is a terminal, or as one line from stdin otherwise.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if username == "" {
				if username, err = app.promptLine("Username: "); err != nil {
					return usageErrorf("username is required")
				}
			}
			var password string
			if passwordStdin {
				password, err = app.input.ReadLine()
			} else {
				password, err = app.promptPassword("Password: ")
			}
			if err != nil {
				return usageErrorf("password is required")
			}

			username = strings.TrimSpace(username)
			if err := api.ValidateCredentials(username, password); err != nil {
				return err
			}
			if _, err := app.Client.Login(cmd.Context(), username, password); err != nil {
				return err
			}

			if ok, err := app.printJSON("login", map[string]string{"username": username}); ok {
				return err
			}
			fmt.Fprintln(app.streams.Out, app.Theme.RenderSuccess("Logged in as "+username))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Client.Logout(); err != nil {
				return err
			}
			if ok, err := app.printJSON("logout", nil); ok {
				return err
			}
			fmt.Fprintln(app.streams.Out, app.Theme.RenderInfo("Logged out."))
			return nil
		},
	}
}

// =============================================================================
// WHOAMI
// =============================================================================

// QuotaBarWidth is the width of the usage bar in whoami and the REPL.
const QuotaBarWidth = 30

func newWhoamiCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and monthly token usage",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Client.LoggedIn() {
				return api.ErrUnauthorized
			}
			me, err := app.Client.Me(cmd.Context())
			if err != nil {
				return err
			}
			if ok, err := app.printJSON("whoami", me); ok {
				return err
			}

			out := app.streams.Out
			fmt.Fprintf(out, "%s %s\n", app.Theme.Brand.Render(me.DisplayName()), app.Theme.Muted.Render("("+me.Role+")"))
			fmt.Fprintln(out, app.Theme.Muted.Render("API: "+app.Client.Base()))
			fmt.Fprintln(out, components.RenderQuota(int64(me.TokensUsedThisMonth), int64(me.MonthlyTokenLimit), QuotaBarWidth))
			return nil
		},
	}
}

// =============================================================================
// MODELS
// =============================================================================

func newModelsCommand(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models available to this account",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := app.Client.Models(cmd.Context(), all)
			if err != nil {
				return err
			}
			if ok, err := app.printJSON("models", models); ok {
				return err
			}
			printModels(app, models, app.Config.Chat.DefaultModel)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "every model the server knows (admin)")
	return cmd
}

func printModels(app *App, models []model.ModelOption, current string) {
	out := app.streams.Out
	if len(models) == 0 {
		fmt.Fprintln(out, app.Theme.Muted.Render("No models available."))
		return
	}
	for _, m := range models {
		text := m.String()
		if m.Label != "" && m.Label != m.Key {
			text += " " + app.Theme.Muted.Render("("+m.Key+")")
		}
		marker, line := "  ", app.Theme.Title.Render(text)
		if strings.EqualFold(m.Key, current) {
			marker, line = "* ", app.Theme.Selected.Render(text)
		}
		fmt.Fprintln(out, marker+line)
	}
}
