// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatdesk/internal/model"
	"github.com/jeranaias/chatdesk/internal/ui/components"
	"github.com/jeranaias/chatdesk/internal/util"
)

// TitleColumnWidth caps conversation titles in listings.
const TitleColumnWidth = 48

func newConversationsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv", "history"},
		Short:   "Browse, export and delete saved conversations",
	}
	cmd.AddCommand(
		newConversationsListCommand(app),
		newConversationsShowCommand(app),
		newConversationsDeleteCommand(app),
		newConversationsClearCommand(app),
		newConversationsExportCommand(app),
	)
	return cmd
}

func newConversationsListCommand(app *App) *cobra.Command {
	var project string
	var global, orphaned bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations, most recently updated first",
		Long: `List conversations. By default every conversation is shown.

  --global      only conversations outside any project
  --project P   only conversations in project P (id or name)
  --orphaned    conversations whose project was deleted`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := app.Manager
			var convs []model.Conversation
			switch {
			case orphaned:
				convs = mgr.OrphanedConversations()
			case project != "":
				p, err := resolveProject(mgr, project)
				if err != nil {
					return err
				}
				convs = mgr.ListConversations(&p.ID)
			case global:
				convs = mgr.ListConversations(nil)
			default:
				convs = mgr.AllConversations()
			}

			if ok, err := app.printJSON("conversations list", convs); ok {
				return err
			}
			if len(convs) == 0 {
				fmt.Fprintln(app.streams.Out, app.Theme.Muted.Render("No conversations yet."))
				return nil
			}

			t := newTable("ID", "TITLE", "PROJECT", "MSGS", "UPDATED").Limit(1, TitleColumnWidth).Limit(2, 24)
			for _, c := range convs {
				t.Row(c.ID, c.Title, scopeLabel(mgr, c.ProjectID),
					strconv.Itoa(len(c.Messages)), humanize.Time(c.UpdatedAt.Time()))
			}
			t.Render(app.streams.Out, app.Theme)
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "project id or name")
	cmd.Flags().BoolVar(&global, "global", false, "only conversations without a project")
	cmd.Flags().BoolVar(&orphaned, "orphaned", false, "conversations whose project no longer exists")
	cmd.MarkFlagsMutuallyExclusive("project", "global", "orphaned")
	return cmd
}

func newConversationsShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print a conversation",
		Long:  "Print a conversation. ID may be a unique id prefix or part of the title.",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := resolveConversation(app.Manager, args[0])
			if err != nil {
				return err
			}
			if ok, err := app.printJSON("conversations show", conv); ok {
				return err
			}
			printConversation(app, conv)
			return nil
		},
	}
}

// printConversation writes a header and every message of conv.
func printConversation(app *App, conv model.Conversation) {
	out := app.streams.Out
	th := app.Theme
	fmt.Fprintln(out, th.Brand.Render(conv.Title))
	fmt.Fprintln(out, th.Muted.Render(fmt.Sprintf("%s  ·  %s  ·  updated %s",
		conv.ID, scopeLabel(app.Manager, conv.ProjectID), humanize.Time(conv.UpdatedAt.Time()))))

	md := app.markdownRendererIfTerminal()
	for _, m := range conv.Messages {
		fmt.Fprintln(out)
		if m.Role == model.RoleUser {
			fmt.Fprintln(out, th.UserLabel.Render(m.Role.DisplayName()))
			fmt.Fprintln(out, m.Content)
			continue
		}
		fmt.Fprintln(out, th.BotLabel.Render(m.Role.DisplayName()))
		if md != nil {
			fmt.Fprint(out, md.Render(m.Content))
		} else {
			fmt.Fprintln(out, m.Content)
		}
	}
}

func newConversationsDeleteCommand(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a conversation",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := resolveConversation(app.Manager, args[0])
			if err != nil {
				return err
			}
			ok, err := app.confirm(fmt.Sprintf("delete %q", util.Excerpt(conv.Title, 40)), yes)
			if err != nil || !ok {
				return err
			}
			if err := app.Manager.DeleteConversation(conv.ID); err != nil {
				return managerErr(err)
			}
			if ok, err := app.printJSON("conversations delete", map[string]string{"id": conv.ID}); ok {
				return err
			}
			fmt.Fprintln(app.streams.Out, app.Theme.RenderSuccess("Conversation deleted."))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newConversationsClearCommand(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every conversation",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := len(app.Manager.AllConversations())
			ok, err := app.confirm(fmt.Sprintf("delete all %d conversations", n), yes)
			if err != nil || !ok {
				return err
			}
			if err := app.Manager.ClearHistory(); err != nil {
				return managerErr(err)
			}
			if ok, err := app.printJSON("conversations clear", map[string]int{"deleted": n}); ok {
				return err
			}
			fmt.Fprintln(app.streams.Out, app.Theme.RenderSuccess("Chat history cleared."))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newConversationsExportCommand(app *App) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Export a conversation as markdown, JSON or YAML",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := resolveConversation(app.Manager, args[0])
			if err != nil {
				return err
			}
			data, err := conv.Export(format)
			if err != nil {
				return &UsageError{Message: err.Error()}
			}
			if output == "" || output == "-" {
				_, err := app.streams.Out.Write(data)
				return err
			}
			// SECURITY: exports may contain private conversations.
			if err := util.AtomicWriteFile(output, data, 0600); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintln(app.streams.ErrOut, app.Theme.RenderSuccess(fmt.Sprintf("Exported to %s (%s)", output, humanize.IBytes(uint64(len(data))))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "md, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to FILE instead of stdout")
	return cmd
}

// markdownRendererIfTerminal returns a renderer only when stdout is a
// terminal so piped output stays plain.
func (a *App) markdownRendererIfTerminal() *components.MarkdownRenderer {
	if !isTerminal(a.streams.Out) || os.Getenv("NO_COLOR") != "" {
		return nil
	}
	return a.markdownRenderer()
}
