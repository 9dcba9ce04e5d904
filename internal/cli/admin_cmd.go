// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/chatdesk/internal/api"
	"github.com/jeranaias/chatdesk/internal/model"
	"github.com/jeranaias/chatdesk/internal/util"
)

func newAdminCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage accounts, quotas and model access (admin role)",
		// Replaces the root hook, so it runs app.init itself.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.init(); err != nil {
				return err
			}
			return requireAdmin(cmd.Context(), app.Client)
		},
	}
	users := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage user accounts",
	}
	users.AddCommand(
		newAdminUsersListCommand(app),
		newAdminUsersCreateCommand(app),
		newAdminUsersUpdateCommand(app),
		newAdminUsersDeleteCommand(app),
		newAdminUsersResetCommand(app, "reset-month", "Zero the user's monthly token usage", (*api.Client).ResetMonth),
		newAdminUsersResetCommand(app, "reset-daily", "Zero the user's daily token usage", (*api.Client).ResetDaily),
		newAdminUsersPasswordCommand(app),
	)
	cmd.AddCommand(users)
	return cmd
}

// requireAdmin checks the signed-in role before any admin endpoint is hit.
func requireAdmin(ctx context.Context, client *api.Client) error {
	if !client.LoggedIn() {
		return api.ErrUnauthorized
	}
	me, err := client.Me(ctx)
	if err != nil {
		return err
	}
	if !me.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// =============================================================================
// LOOKUP
// =============================================================================

// resolveUser finds an account by numeric id or exact username.
func resolveUser(ctx context.Context, client *api.Client, ref string) (api.User, error) {
	users, err := client.ListUsers(ctx)
	if err != nil {
		return api.User{}, err
	}
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, u := range users {
			if int64(u.ID) == id {
				return u, nil
			}
		}
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, ref) {
			return u, nil
		}
	}
	return api.User{}, &NotFoundError{Resource: "user", Ref: ref}
}

// modelLabels shows allowed model keys by their labels; empty means all.
func modelLabels(keys []string, options []model.ModelOption) string {
	if len(keys) == 0 {
		return "all"
	}
	labels := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = k
		if m, ok := model.FindModel(options, k); ok {
			labels[i] = m.String()
		}
	}
	return strings.Join(labels, ", ")
}

func usageCell(used, limit int64) string {
	if limit <= 0 {
		return util.FormatGrouped(used) + " / unlimited"
	}
	return fmt.Sprintf("%s / %s (%.0f%%)", util.FormatGrouped(used), util.FormatGrouped(limit), util.QuotaPercent(used, limit))
}

// =============================================================================
// LIST
// =============================================================================

func newAdminUsersListCommand(app *App) *cobra.Command {
	var providers bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with usage and allowed models",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var users []api.User
			var models []model.ModelOption

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				users, err = app.Client.ListUsers(ctx)
				return err
			})
			g.Go(func() error {
				// Labels are cosmetic; a failure only leaves raw keys.
				m, err := app.Client.Models(ctx, true)
				if err != nil {
					app.Logger.Debug("model catalog unavailable", zap.Error(err))
					return nil
				}
				models = m
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}

			if ok, err := app.printJSON("admin users list", users); ok {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(app.streams.Out, app.Theme.Muted.Render("No users."))
				return nil
			}

			headers := []string{"ID", "USER", "ROLE", "ACTIVE", "USED / LIMIT", "MODELS"}
			if providers {
				for _, p := range api.Providers {
					headers = append(headers, strings.ToUpper(p))
				}
			}
			t := newTable(headers...).Limit(1, 24).Limit(5, 40)
			for _, u := range users {
				active := "yes"
				if !u.Active() {
					active = "no"
				}
				row := []string{
					strconv.FormatInt(int64(u.ID), 10),
					u.Username,
					u.Role,
					active,
					usageCell(int64(u.MonthlyTokensUsed), u.EffectiveLimit()),
					modelLabels(u.AllowedModels, models),
				}
				if providers {
					for _, q := range u.ProviderQuotas() {
						row = append(row, usageCell(q.Used, q.Limit))
					}
				}
				t.Row(row...)
			}
			t.Render(app.streams.Out, app.Theme)
			return nil
		},
	}
	cmd.Flags().BoolVar(&providers, "providers", false, "add per-provider usage columns")
	return cmd
}

// =============================================================================
// CREATE / UPDATE
// =============================================================================

// limitFlags binds the monthly limit flags onto l.
func limitFlags(cmd *cobra.Command, l *api.Limits) {
	f := cmd.Flags()
	f.Int64Var(&l.Total, "limit", 0, "monthly token limit (0 = unlimited)")
	f.Int64Var(&l.Gemini, "gemini-limit", 0, "monthly gemini token limit")
	f.Int64Var(&l.OpenAI, "openai-limit", 0, "monthly openai token limit")
	f.Int64Var(&l.Grok, "grok-limit", 0, "monthly grok token limit")
	f.Int64Var(&l.Claude, "claude-limit", 0, "monthly claude token limit")
}

func checkLimits(l api.Limits) error {
	for _, v := range []int64{l.Total, l.Gemini, l.OpenAI, l.Grok, l.Claude} {
		if v < 0 {
			return usageErrorf("limits must be zero or positive")
		}
	}
	return nil
}

func checkRole(role string) error {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", api.RoleBasic, api.RoleAdmin:
		return nil
	}
	return usageErrorf("role must be %q or %q", api.RoleBasic, api.RoleAdmin)
}

func newAdminUsersCreateCommand(app *App) *cobra.Command {
	var u api.NewUser

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRole(u.Role); err != nil {
				return err
			}
			if err := checkLimits(u.Limits); err != nil {
				return err
			}
			if u.Password == "" {
				pw, err := app.promptPassword("Password for " + u.Username + ": ")
				if err != nil {
					return usageErrorf("password is required")
				}
				u.Password = pw
			}
			if err := api.ValidateCredentials(strings.TrimSpace(u.Username), u.Password); err != nil {
				return err
			}
			if err := app.Client.CreateUser(cmd.Context(), u); err != nil {
				return err
			}
			if ok, err := app.printJSON("admin users create", map[string]string{"username": u.Username}); ok {
				return err
			}
			fmt.Fprintln(app.streams.Out, app.Theme.RenderSuccess(fmt.Sprintf("User %q created.", strings.TrimSpace(u.Username))))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&u.Username, "username", "u", "", "account name (required)")
	f.StringVar(&u.Password, "password", "", "initial password (prompted when omitted)")
	f.StringVar(&u.Role, "role", api.RoleBasic, "basic or admin")
	f.StringSliceVar(&u.AllowedModels, "models", nil, "allowed model keys (default all)")
	limitFlags(cmd, &u.Limits)
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newAdminUsersUpdateCommand(app *App) *cobra.Command {
	var next api.UserUpdate
	var active bool

	cmd := &cobra.Command{
		Use:   "update USER",
		Short: "Change an account's role, status, limits or models",
		Long: `Change an account. USER is a numeric id or a username. Only the flags
given are changed. Pass --models "" to allow every model.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := resolveUser(ctx, app.Client, args[0])
			if err != nil {
				return err
			}

			f := cmd.Flags()
			update := api.UpdateFrom(u)
			if f.Changed("role") {
				if err := checkRole(next.Role); err != nil {
					return err
				}
				update.Role = next.Role
			}
			if f.Changed("active") {
				update.IsActive = 0
				if active {
					update.IsActive = 1
				}
			}
			for flag, dst := range map[string]*int64{
				"limit":        &update.Total,
				"gemini-limit": &update.Gemini,
				"openai-limit": &update.OpenAI,
				"grok-limit":   &update.Grok,
				"claude-limit": &update.Claude,
			} {
				if f.Changed(flag) {
					v, _ := f.GetInt64(flag)
					*dst = v
				}
			}
			if err := checkLimits(update.Limits); err != nil {
				return err
			}
			if f.Changed("models") {
				update.AllowedModels = nonEmpty(next.AllowedModels)
			}

			if err := app.Client.UpdateUser(ctx, int64(u.ID), update); err != nil {
				return err
			}
			if ok, err := app.printJSON("admin users update", update); ok {
				return err
			}
			fmt.Fprintln(app.streams.Out, app.Theme.RenderSuccess(fmt.Sprintf("User %q updated.", u.Username)))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&next.Role, "role", "", "basic or admin")
	f.BoolVar(&active, "active", true, "enable or disable the account (--active=false)")
	f.StringSliceVar(&next.AllowedModels, "models", nil, "allowed model keys")
	limitFlags(cmd, &next.Limits)
	return cmd
}

func nonEmpty(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// =============================================================================
// DELETE / RESET / PASSWORD
// =============================================================================

func newAdminUsersDeleteCommand(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete USER",
		Short: "Delete an account",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := resolveUser(cmd.Context(), app.Client, args[0])
			if err != nil {
				return err
			}
			ok, err := app.confirm(fmt.Sprintf("delete user %q", u.Username), yes)
			if err != nil || !ok {
				return err
			}
			if err := app.Client.DeleteUser(cmd.Context(), int64(u.ID)); err != nil {
				return err
			}
			if ok, err := app.printJSON("admin users delete", map[string]int64{"id": int64(u.ID)}); ok {
				return err
			}
			fmt.Fprintln(app.streams.Out, app.Theme.RenderSuccess(fmt.Sprintf("User %q deleted.", u.Username)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newAdminUsersResetCommand(app *App, use, short string, reset func(*api.Client, context.Context, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " USER",
		Short: short,
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := resolveUser(cmd.Context(), app.Client, args[0])
			if err != nil {
				return err
			}
			if err := reset(app.Client, cmd.Context(), int64(u.ID)); err != nil {
				return err
			}
			if ok, err := app.printJSON("admin users "+use, map[string]int64{"id": int64(u.ID)}); ok {
				return err
			}
			fmt.Fprintln(app.streams.Out, app.Theme.RenderSuccess(fmt.Sprintf("Usage reset for %q.", u.Username)))
			return nil
		},
	}
}

func newAdminUsersPasswordCommand(app *App) *cobra.Command {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "set-password USER",
		Short: "Replace an account's password",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := resolveUser(cmd.Context(), app.Client, args[0])
			if err != nil {
				return err
			}
			var pw string
			if passwordStdin {
				pw, err = app.input.ReadLine()
			} else {
				pw, err = app.promptPassword(fmt.Sprintf("New password for %s: ", u.Username))
			}
			// An empty answer leaves the password alone.
			if err != nil || pw == "" {
				fmt.Fprintln(app.streams.ErrOut, "Cancelled.")
				return nil
			}
			if err := api.ValidatePassword(pw); err != nil {
				return err
			}
			if err := app.Client.SetPassword(cmd.Context(), int64(u.ID), pw); err != nil {
				return err
			}
			if ok, err := app.printJSON("admin users set-password", map[string]int64{"id": int64(u.ID)}); ok {
				return err
			}
			fmt.Fprintln(app.streams.Out, app.Theme.RenderSuccess(fmt.Sprintf("Password updated for %q.", u.Username)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}
