// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jeranaias/chatdesk/internal/model"
	"github.com/jeranaias/chatdesk/internal/session"
	"github.com/jeranaias/chatdesk/internal/ui/components"
	"github.com/jeranaias/chatdesk/internal/util"
)

// slashCommand is one REPL command. name is matched without the slash.
type slashCommand struct {
	name    string
	aliases []string
	args    string
	help    string
	run     func(r *repl, args []string) error
}

// commandTable lists the REPL commands in help order.
func (r *repl) commandTable() []slashCommand {
	return []slashCommand{
		{name: "help", aliases: []string{"h", "?"}, help: "show this help", run: (*repl).cmdHelp},
		{name: "new", aliases: []string{"n"}, help: "start a new conversation", run: (*repl).cmdNew},
		{name: "list", aliases: []string{"ls"}, args: "[all|orphaned]", help: "list conversations in the current scope", run: (*repl).cmdList},
		{name: "open", aliases: []string{"o"}, args: "N|ID", help: "continue a listed conversation", run: (*repl).cmdOpen},
		{name: "show", help: "print the current conversation", run: (*repl).cmdShow},
		{name: "delete", args: "[N|ID]", help: "delete a conversation (default: current)", run: (*repl).cmdDelete},
		{name: "clear", help: "delete every conversation", run: (*repl).cmdClear},
		{name: "project", aliases: []string{"p"}, args: "list|new|use|edit|delete|show", help: "manage projects", run: (*repl).cmdProject},
		{name: "global", aliases: []string{"g"}, help: "leave the current project", run: (*repl).cmdGlobal},
		{name: "model", aliases: []string{"m"}, args: "[KEY]", help: "show or switch the model", run: (*repl).cmdModel},
		{name: "models", help: "list available models", run: (*repl).cmdModels},
		{name: "thinking", args: "[0-10]", help: "show or set the thinking level", run: (*repl).cmdThinking},
		{name: "quote", args: "[TEXT]", help: "quote text in the next message (no text clears)", run: (*repl).cmdQuote},
		{name: "attach", aliases: []string{"a"}, args: "PATH...", help: "attach files to the next message", run: (*repl).cmdAttach},
		{name: "files", args: "[clear|rm N]", help: "list or remove pending attachments", run: (*repl).cmdFiles},
		{name: "stop", help: "stop a reply in progress (same as Ctrl+C)", run: (*repl).cmdStop},
		{name: "me", help: "show account and token usage", run: (*repl).cmdMe},
		{name: "quit", aliases: []string{"q", "exit"}, help: "leave chat", run: (*repl).cmdQuit},
	}
}

func (r *repl) dispatch(line string) error {
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return r.cmdHelp(nil)
	}
	name := strings.ToLower(fields[0])
	for _, c := range r.commands {
		if c.name == name || containsFold(c.aliases, name) {
			return c.run(r, fields[1:])
		}
	}
	return usageErrorf("unknown command /%s (type /help for commands)", name)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func (r *repl) println(a ...any) {
	fmt.Fprintln(r.app.streams.Out, a...)
}

// confirm asks inside the REPL; only "y" or "yes" proceeds.
func (r *repl) confirm(action string) bool {
	answer, err := r.in.Prompt(capitalize(action) + "? [y/N]: ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	r.println(r.app.Theme.Muted.Render("Cancelled."))
	return false
}

// =============================================================================
// GENERAL
// =============================================================================

func (r *repl) cmdHelp(args []string) error {
	th := r.app.Theme
	t := newTable("COMMAND", "DESCRIPTION")
	for _, c := range r.commands {
		name := "/" + c.name
		if c.args != "" {
			name += " " + c.args
		}
		t.Row(name, c.help)
	}
	t.Render(r.app.streams.Out, th)
	r.println(th.Muted.Render("Anything else is sent as a message. Ctrl+C stops a reply, Ctrl+D quits."))
	return nil
}

func (r *repl) cmdQuit(args []string) error {
	r.quit = true
	return nil
}

func (r *repl) cmdStop(args []string) error {
	if r.app.Manager.Stop() {
		r.println(r.app.Theme.Muted.Render("Reply stopped."))
		return nil
	}
	r.println(r.app.Theme.Muted.Render("No reply in progress."))
	return nil
}

func (r *repl) cmdMe(args []string) error {
	me, err := r.app.Client.Me(r.ctx)
	if err != nil {
		return err
	}
	r.me = &me
	th := r.app.Theme
	r.println(th.Brand.Render(me.DisplayName()) + " " + th.Muted.Render("("+me.Role+")"))
	r.println(components.RenderQuota(int64(me.TokensUsedThisMonth), int64(me.MonthlyTokenLimit), QuotaBarWidth))
	return nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func (r *repl) cmdNew(args []string) error {
	r.app.Manager.StartNewConversation()
	r.println(r.app.Theme.RenderInfo("New conversation."))
	return nil
}

func (r *repl) cmdList(args []string) error {
	mgr := r.app.Manager
	var convs []model.Conversation
	switch {
	case len(args) == 0:
		convs = mgr.ScopedConversations()
	case strings.EqualFold(args[0], "all"):
		convs = mgr.AllConversations()
	case strings.EqualFold(args[0], "orphaned"):
		convs = mgr.OrphanedConversations()
	default:
		return usageErrorf("usage: /list [all|orphaned]")
	}
	r.listed = convs

	th := r.app.Theme
	if len(convs) == 0 {
		r.println(th.Muted.Render("No conversations yet."))
		return nil
	}
	current := mgr.State().ConversationID()
	t := newTable("#", "TITLE", "MSGS", "UPDATED").Limit(1, TitleColumnWidth)
	for i, c := range convs {
		n := strconv.Itoa(i + 1)
		if current != nil && *current == c.ID {
			n = "*" + n
		}
		t.Row(n, c.Title, strconv.Itoa(len(c.Messages)), humanize.Time(c.UpdatedAt.Time()))
	}
	t.Render(r.app.streams.Out, th)
	return nil
}

// pick resolves a list number from the last /list, or any conversation ref.
func (r *repl) pick(ref string) (model.Conversation, error) {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(r.listed) {
		return r.listed[n-1], nil
	}
	return resolveConversation(r.app.Manager, ref)
}

func (r *repl) cmdOpen(args []string) error {
	if len(args) != 1 {
		return usageErrorf("usage: /open N|ID")
	}
	conv, err := r.pick(args[0])
	if err != nil {
		return err
	}
	if _, ok := r.app.Manager.SelectConversation(conv.ID); !ok {
		return session.ErrConversationNotFound
	}
	printConversation(r.app, conv)
	return nil
}

func (r *repl) cmdShow(args []string) error {
	conv, ok := r.app.Manager.CurrentConversation()
	if !ok {
		r.println(r.app.Theme.Muted.Render("Nothing sent yet in this conversation."))
		return nil
	}
	printConversation(r.app, conv)
	return nil
}

func (r *repl) cmdDelete(args []string) error {
	var conv model.Conversation
	if len(args) == 0 {
		c, ok := r.app.Manager.CurrentConversation()
		if !ok {
			return usageErrorf("no conversation open; use /delete N|ID")
		}
		conv = c
	} else {
		c, err := r.pick(args[0])
		if err != nil {
			return err
		}
		conv = c
	}
	if !r.confirm(fmt.Sprintf("delete %q", util.Excerpt(conv.Title, 40))) {
		return nil
	}
	if err := r.app.Manager.DeleteConversation(conv.ID); err != nil {
		return managerErr(err)
	}
	r.listed = nil
	r.println(r.app.Theme.RenderSuccess("Conversation deleted."))
	return nil
}

func (r *repl) cmdClear(args []string) error {
	if !r.confirm("delete every conversation") {
		return nil
	}
	if err := r.app.Manager.ClearHistory(); err != nil {
		return managerErr(err)
	}
	r.listed = nil
	r.println(r.app.Theme.RenderSuccess("Chat history cleared."))
	return nil
}

// =============================================================================
// PROJECTS
// =============================================================================

func (r *repl) cmdGlobal(args []string) error {
	r.app.Manager.SelectGlobal()
	r.println(r.app.Theme.RenderInfo("No project selected. New conversation."))
	return nil
}

func (r *repl) cmdProject(args []string) error {
	mgr := r.app.Manager
	th := r.app.Theme
	sub := "show"
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
		args = args[1:]
	}
	rest := strings.Join(args, " ")

	switch sub {
	case "show":
		p, ok := mgr.CurrentProject()
		if !ok {
			r.println(th.Muted.Render(mgr.Scope()))
			return nil
		}
		r.println(th.Brand.Render(p.Name))
		if p.Description != "" {
			r.println(p.Description)
		}
		if p.Instructions != "" {
			r.println(th.Header.Render("Instructions"))
			r.println(p.Instructions)
		}
		return nil

	case "list", "ls":
		projects := mgr.Projects()
		if len(projects) == 0 {
			r.println(th.Muted.Render("No projects yet. /project new NAME"))
			return nil
		}
		current := mgr.State().ProjectID()
		for _, p := range projects {
			marker := "  "
			if current != nil && *current == p.ID {
				marker = "* "
			}
			line := marker + th.Title.Render(p.Name)
			if p.Description != "" {
				line += " " + th.Muted.Render(util.Excerpt(util.SingleLine(p.Description), 60))
			}
			r.println(line)
		}
		return nil

	case "new", "create":
		in := session.ProjectInput{Name: rest}
		if in.Name == "" {
			name, err := r.in.Prompt("Name: ")
			if err != nil {
				return nil
			}
			in.Name = name
		}
		if d, err := r.in.Prompt("Description (optional): "); err == nil {
			in.Description = d
		}
		if i, err := r.in.Prompt("Instructions (optional): "); err == nil {
			in.Instructions = i
		}
		p, err := mgr.CreateProject(in)
		if err != nil {
			return managerErr(err)
		}
		if r.confirm(fmt.Sprintf("switch to %q", p.Name)) {
			return mgr.SelectProject(p.ID)
		}
		return nil

	case "use", "select":
		if rest == "" {
			return usageErrorf("usage: /project use NAME")
		}
		p, err := resolveProject(mgr, rest)
		if err != nil {
			return err
		}
		if err := mgr.SelectProject(p.ID); err != nil {
			return err
		}
		r.listed = nil
		r.println(th.RenderInfo(fmt.Sprintf("Project %q. New conversation.", p.Name)))
		return nil

	case "edit":
		p, err := r.projectArg(rest)
		if err != nil {
			return err
		}
		in := session.ProjectInput{Name: p.Name, Description: p.Description, Instructions: p.Instructions}
		r.println(th.Muted.Render("Press Enter to keep the current value, type - to clear it."))
		in.Name = r.editField("Name", in.Name)
		in.Description = r.editField("Description", in.Description)
		in.Instructions = r.editField("Instructions", in.Instructions)
		_, err = mgr.UpdateProject(p.ID, in)
		return managerErr(err)

	case "delete", "rm":
		p, err := r.projectArg(rest)
		if err != nil {
			return err
		}
		if !r.confirm(fmt.Sprintf("delete project %q (its conversations are kept)", p.Name)) {
			return nil
		}
		return managerErr(mgr.DeleteProject(p.ID))
	}
	return usageErrorf("usage: /project list|new|use|edit|delete|show")
}

// projectArg resolves ref, defaulting to the current project.
func (r *repl) projectArg(ref string) (model.Project, error) {
	if ref != "" {
		return resolveProject(r.app.Manager, ref)
	}
	if p, ok := r.app.Manager.CurrentProject(); ok {
		return p, nil
	}
	return model.Project{}, usageErrorf("no project selected; name one")
}

func (r *repl) editField(label, current string) string {
	shown := util.Excerpt(util.SingleLine(current), 40)
	answer, err := r.in.Prompt(fmt.Sprintf("%s [%s]: ", label, shown))
	if err != nil {
		return current
	}
	switch strings.TrimSpace(answer) {
	case "":
		return current
	case "-":
		return ""
	}
	return answer
}

// =============================================================================
// MODEL AND THINKING
// =============================================================================

func (r *repl) cmdModels(args []string) error {
	models, err := r.app.Client.Models(r.ctx, false)
	if err != nil {
		return err
	}
	r.models = models
	printModels(r.app, models, r.model)
	return nil
}

func (r *repl) cmdModel(args []string) error {
	th := r.app.Theme
	if len(args) == 0 {
		if r.model == "" {
			r.println(th.Muted.Render("No model selected. /models lists the choices."))
			return nil
		}
		label := r.model
		if m, ok := model.FindModel(r.models, r.model); ok {
			label = m.String()
		}
		r.println(th.Title.Render(label))
		return nil
	}

	ref := strings.Join(args, " ")
	if len(r.models) == 0 {
		r.model = ref
	} else if m, ok := model.FindModel(r.models, ref); ok {
		r.model = m.Key
	} else {
		labels := make([]string, len(r.models))
		for i, m := range r.models {
			labels[i] = m.String()
		}
		i, ok := bestMatch(ref, labels)
		if !ok {
			return &NotFoundError{Resource: "model", Ref: ref}
		}
		r.model = r.models[i].Key
	}
	r.println(th.RenderSuccess("Model: " + r.model))
	return nil
}

func (r *repl) cmdThinking(args []string) error {
	if len(args) == 0 {
		r.println(r.app.Theme.Title.Render(fmt.Sprintf("Thinking level %d", r.thinking)))
		return nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 || n > 10 {
		return usageErrorf("thinking level must be 0-10")
	}
	r.thinking = n
	r.println(r.app.Theme.RenderSuccess(fmt.Sprintf("Thinking level %d", n)))
	return nil
}

// =============================================================================
// QUOTE AND ATTACHMENTS
// =============================================================================

func (r *repl) cmdQuote(args []string) error {
	text := strings.Join(args, " ")
	r.app.Manager.SetQuote(text)
	if strings.TrimSpace(text) == "" {
		r.println(r.app.Theme.RenderInfo("Quote cleared."))
		return nil
	}
	r.println(r.app.Theme.RenderInfo("Quoting: " + util.Excerpt(text, 60)))
	return nil
}

func (r *repl) cmdAttach(args []string) error {
	if len(args) == 0 {
		return usageErrorf("usage: /attach PATH...")
	}
	_, err := r.app.Manager.Attach(args...)
	return managerErr(err)
}

func (r *repl) cmdFiles(args []string) error {
	mgr := r.app.Manager
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "clear":
			mgr.ClearAttachments()
			r.println(r.app.Theme.RenderInfo("Attachments cleared."))
			return nil
		case "rm":
			if len(args) != 2 {
				return usageErrorf("usage: /files rm N")
			}
			n, err := strconv.Atoi(args[1])
			if err != nil || !mgr.RemoveAttachment(n-1) {
				return usageErrorf("no attachment %s", args[1])
			}
			return nil
		}
		return usageErrorf("usage: /files [clear|rm N]")
	}

	files := mgr.State().Attachments()
	quote := mgr.State().Quote()
	if len(files) == 0 && quote == "" {
		r.println(r.app.Theme.Muted.Render("Nothing pending."))
		return nil
	}
	for i, f := range files {
		r.println(fmt.Sprintf("%d. %s", i+1, f))
	}
	if quote != "" {
		r.println(r.app.Theme.Muted.Render("quote: " + util.Excerpt(quote, 60)))
	}
	return nil
}
