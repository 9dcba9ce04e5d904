// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatdesk/internal/model"
	"github.com/jeranaias/chatdesk/internal/session"
	"github.com/jeranaias/chatdesk/internal/util"
)

func newProjectsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage projects that group conversations",
	}
	cmd.AddCommand(
		newProjectsListCommand(app),
		newProjectsShowCommand(app),
		newProjectsCreateCommand(app),
		newProjectsUpdateCommand(app),
		newProjectsDeleteCommand(app),
	)
	return cmd
}

// projectRow is the JSON form of a listed project.
type projectRow struct {
	model.Project
	Conversations int `json:"conversations"`
}

func newProjectsListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := app.Manager
			projects := mgr.Projects()
			rows := make([]projectRow, len(projects))
			for i, p := range projects {
				id := p.ID
				rows[i] = projectRow{Project: p, Conversations: len(mgr.ListConversations(&id))}
			}

			if ok, err := app.printJSON("projects list", rows); ok {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(app.streams.Out, app.Theme.Muted.Render(`No projects yet. Create one with "chatdesk projects create NAME".`))
				return nil
			}

			t := newTable("ID", "NAME", "DESCRIPTION", "CHATS", "CREATED").Limit(1, 32).Limit(2, 40)
			for _, r := range rows {
				t.Row(r.ID, r.Name, util.SingleLine(r.Description), strconv.Itoa(r.Conversations), humanize.Time(r.CreatedAt.Time()))
			}
			t.Render(app.streams.Out, app.Theme)

			if n := len(mgr.OrphanedConversations()); n > 0 {
				fmt.Fprintln(app.streams.Out, app.Theme.Muted.Render(
					fmt.Sprintf("%d conversation(s) belong to deleted projects (conversations list --orphaned).", n)))
			}
			return nil
		},
	}
}

func newProjectsShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show REF",
		Short: "Show a project and its instructions",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(app.Manager, args[0])
			if err != nil {
				return err
			}
			id := p.ID
			convs := app.Manager.ListConversations(&id)
			if ok, err := app.printJSON("projects show", projectRow{Project: p, Conversations: len(convs)}); ok {
				return err
			}

			out, th := app.streams.Out, app.Theme
			fmt.Fprintln(out, th.Brand.Render(p.Name))
			fmt.Fprintln(out, th.Muted.Render(fmt.Sprintf("%s  ·  created %s  ·  %d conversation(s)",
				p.ID, humanize.Time(p.CreatedAt.Time()), len(convs))))
			if p.Description != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, p.Description)
			}
			if p.Instructions != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, th.Header.Render("Instructions"))
				fmt.Fprintln(out, p.Instructions)
			}
			return nil
		},
	}
}

func newProjectsCreateCommand(app *App) *cobra.Command {
	var in session.ProjectInput

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			p, err := app.Manager.CreateProject(in)
			if err != nil {
				return managerErr(err)
			}
			if ok, err := app.printJSON("projects create", p); ok {
				return err
			}
			fmt.Fprintln(app.streams.Out, app.Theme.Muted.Render("id: "+p.ID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "short description")
	cmd.Flags().StringVarP(&in.Instructions, "instructions", "i", "", "instructions shared by the project's conversations")
	return cmd
}

func newProjectsUpdateCommand(app *App) *cobra.Command {
	var in session.ProjectInput

	cmd := &cobra.Command{
		Use:   "update REF",
		Short: "Rename a project or change its description or instructions",
		Long: `Update a project. Only the flags given are changed; pass an empty
string to clear the description or instructions.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(app.Manager, args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("name") && !flags.Changed("description") && !flags.Changed("instructions") {
				return usageErrorf("nothing to update, pass --name, --description or --instructions")
			}

			next := session.ProjectInput{Name: p.Name, Description: p.Description, Instructions: p.Instructions}
			if flags.Changed("name") {
				next.Name = in.Name
			}
			if flags.Changed("description") {
				next.Description = in.Description
			}
			if flags.Changed("instructions") {
				next.Instructions = in.Instructions
			}

			updated, err := app.Manager.UpdateProject(p.ID, next)
			if err != nil {
				return managerErr(err)
			}
			if ok, err := app.printJSON("projects update", updated); ok {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Name, "name", "n", "", "new name")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&in.Instructions, "instructions", "i", "", "new instructions")
	return cmd
}

func newProjectsDeleteCommand(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete REF",
		Short: "Delete a project",
		Long: `Delete a project. Its conversations are kept and remain listed under
"conversations list --orphaned".`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(app.Manager, args[0])
			if err != nil {
				return err
			}
			ok, err := app.confirm(fmt.Sprintf("delete project %q", p.Name), yes)
			if err != nil || !ok {
				return err
			}
			if err := app.Manager.DeleteProject(p.ID); err != nil {
				return managerErr(err)
			}
			if ok, err := app.printJSON("projects delete", map[string]string{"id": p.ID}); ok {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
