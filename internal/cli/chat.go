// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat REPL.
//
// USABILITY: readline-style editing and history on terminals (liner), slash
// commands with fuzzy tab completion, Ctrl+C stops a reply in progress.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/chatdesk/internal/api"
	"github.com/jeranaias/chatdesk/internal/config"
	"github.com/jeranaias/chatdesk/internal/model"
	"github.com/jeranaias/chatdesk/internal/session"
	"github.com/jeranaias/chatdesk/internal/store"
	"github.com/jeranaias/chatdesk/internal/stream"
	"github.com/jeranaias/chatdesk/internal/ui/components"
)

type chatOptions struct {
	model        string
	thinking     int
	project      string
	conversation string
	raw          bool
}

func newChatCommand(app *App) *cobra.Command {
	opts := &chatOptions{thinking: -1}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session. Type a message and press Enter to
send it; type /help for commands. Ctrl+C stops a reply in progress,
Ctrl+D or /quit leaves.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), app, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.model, "model", "m", "", "model key")
	f.IntVar(&opts.thinking, "thinking", -1, "thinking level 0-10")
	f.StringVarP(&opts.project, "project", "p", "", "start in project (id or name)")
	f.StringVarP(&opts.conversation, "conversation", "c", "", "resume a conversation")
	f.BoolVar(&opts.raw, "raw", false, "stream text as it arrives instead of rendering markdown")
	return cmd
}

// =============================================================================
// PROMPTERS
// =============================================================================

// prompter reads one line of input per call. io.EOF ends the session.
type prompter interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// linerPrompter edits lines on a terminal and keeps a history file.
type linerPrompter struct {
	state       *liner.State
	historyFile string
}

func newLinerPrompter(complete func(string) []string) *linerPrompter {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(complete)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	p := &linerPrompter{state: state, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(p.historyFile); err == nil {
		p.state.ReadHistory(f)
		f.Close()
	}
	return p
}

func (p *linerPrompter) Prompt(prompt string) (string, error) {
	line, err := p.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		// Ctrl+C at an empty prompt clears the line.
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		p.state.AppendHistory(line)
	}
	return line, nil
}

// Close saves history and restores the terminal.
// SECURITY: the history file is private to the user.
func (p *linerPrompter) Close() error {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(p.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			p.state.WriteHistory(f)
			f.Close()
		}
	}
	return p.state.Close()
}

// plainPrompter reads lines from a pipe.
type plainPrompter struct {
	w  io.Writer
	in *lineReader
}

func (p *plainPrompter) Prompt(prompt string) (string, error) {
	fmt.Fprint(p.w, prompt)
	return p.in.ReadLine()
}

func (p *plainPrompter) Close() error { return nil }

// =============================================================================
// REPL
// =============================================================================

// repl is one interactive session.
type repl struct {
	app      *App
	ctx      context.Context
	in       prompter
	raw      bool
	model    string
	thinking int
	models   []model.ModelOption
	me       *api.Me

	commands []slashCommand
	listed   []model.Conversation
	quit     bool
}

func runChat(ctx context.Context, app *App, opts *chatOptions) error {
	if app.opts.jsonMode {
		return usageErrorf("chat is interactive; use ask --json instead")
	}
	if !app.Client.LoggedIn() {
		return api.ErrUnauthorized
	}

	r := &repl{
		app:      app,
		ctx:      ctx,
		raw:      opts.raw || strings.EqualFold(app.Config.Chat.Render, "raw"),
		thinking: app.Config.Chat.ThinkingLevel,
	}
	if opts.thinking >= 0 {
		if opts.thinking > 10 {
			return usageErrorf("--thinking must be between 0 and 10")
		}
		r.thinking = opts.thinking
	}
	r.commands = r.commandTable()

	mgr := app.Manager
	if opts.conversation != "" {
		conv, err := resolveConversation(mgr, opts.conversation)
		if err != nil {
			return err
		}
		mgr.SelectConversation(conv.ID)
	} else if opts.project != "" {
		p, err := resolveProject(mgr, opts.project)
		if err != nil {
			return err
		}
		if err := mgr.SelectProject(p.ID); err != nil {
			return err
		}
	}

	if err := r.loadAccount(); err != nil {
		return err
	}
	r.model = r.pickModel(opts.model)

	if app.sqlite != nil {
		// RELIABILITY: pick up conversations saved by another chatdesk process.
		w, err := store.NewWatcher(app.sqlite, store.DefaultDebounce, reloadWhenIdle(mgr), app.Logger)
		if err != nil {
			app.Logger.Debug("store watcher unavailable", zap.Error(err))
		} else {
			defer w.Close()
		}
	}

	// USABILITY: Ctrl+C while a reply streams stops that reply only.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	done := make(chan struct{})
	defer func() {
		signal.Stop(sigCh)
		close(done)
	}()
	go func() {
		for {
			select {
			case <-sigCh:
				if mgr.Stop() {
					app.Logger.Debug("reply stopped by interrupt")
				}
			case <-done:
				return
			}
		}
	}()

	if isTerminal(app.streams.In) && isTerminal(app.streams.Out) {
		r.in = newLinerPrompter(r.complete)
	} else {
		r.in = &plainPrompter{w: app.streams.ErrOut, in: app.input}
	}
	defer r.in.Close()

	r.printWelcome()
	return r.loop()
}

// reloadWhenIdle reloads the manager unless an exchange is streaming. The
// exchange records its own result when it finishes.
func reloadWhenIdle(mgr *session.Manager) func() {
	return func() {
		if mgr.State().InFlight() {
			return
		}
		mgr.Reload()
	}
}

// loadAccount fetches the user and the model list concurrently. Only an
// expired session is fatal.
func (r *repl) loadAccount() error {
	var me api.Me
	var models []model.ModelOption
	var meErr error

	g, gctx := errgroup.WithContext(r.ctx)
	g.Go(func() error {
		me, meErr = r.app.Client.Me(gctx)
		if errors.Is(meErr, api.ErrUnauthorized) {
			return meErr
		}
		return nil
	})
	g.Go(func() error {
		var err error
		models, err = r.app.Client.Models(gctx, false)
		if err != nil {
			r.app.Logger.Debug("model list unavailable", zap.Error(err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if meErr == nil {
		r.me = &me
	} else {
		r.app.Logger.Debug("user info unavailable", zap.Error(meErr))
	}
	r.models = models
	return nil
}

// pickModel chooses the flag, the configured default, or the first model.
func (r *repl) pickModel(flag string) string {
	if key := strings.TrimSpace(flag); key != "" {
		return key
	}
	if key := strings.TrimSpace(r.app.Config.Chat.DefaultModel); key != "" {
		return key
	}
	if len(r.models) > 0 {
		return r.models[0].Key
	}
	return ""
}

func (r *repl) loop() error {
	for !r.quit {
		line, err := r.in.Prompt(r.prompt())
		if err != nil {
			fmt.Fprintln(r.app.streams.Out)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/"):
			if err := r.dispatch(line); err != nil {
				r.printErr(err)
			}
		case strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit"):
			return nil
		default:
			r.send(line)
		}
	}
	return nil
}

// prompt is plain text; liner miscounts the width of escape sequences.
func (r *repl) prompt() string {
	scope := "global"
	if p, ok := r.app.Manager.CurrentProject(); ok {
		scope = p.Name
	}
	m := r.model
	if opt, ok := model.FindModel(r.models, m); ok {
		m = opt.String()
	}
	if m == "" {
		m = "no model"
	}
	return fmt.Sprintf("[%s · %s] > ", scope, m)
}

func (r *repl) send(text string) {
	app := r.app
	w := app.newReplyWriter(r.raw)

	out := app.Manager.Send(r.ctx, text,
		session.SendOptions{Model: r.model, ThinkingLevel: r.thinking}, w.Snapshot)
	w.Finish(out)

	if out.Status != stream.Completed {
		return
	}
	me, err := app.Client.Me(r.ctx)
	if err != nil {
		app.Logger.Debug("usage refresh failed", zap.Error(err))
		return
	}
	r.me = &me
	r.printQuotaLine()
}

func (r *repl) printQuotaLine() {
	if r.me == nil {
		return
	}
	used, limit := int64(r.me.TokensUsedThisMonth), int64(r.me.MonthlyTokenLimit)
	text := components.QuotaText(used, limit)
	th := r.app.Theme
	switch components.QuotaLevel(used, limit) {
	case components.SeverityError:
		text = th.RenderError(text)
	case components.SeverityWarning:
		text = th.RenderWarning(text)
	default:
		text = th.Muted.Render(text)
	}
	fmt.Fprintln(r.app.streams.Out, text)
}

func (r *repl) printWelcome() {
	out, th := r.app.streams.Out, r.app.Theme
	fmt.Fprintln(out, th.Brand.Render("chatdesk"))
	if r.me != nil {
		fmt.Fprintf(out, "%s %s\n", th.Title.Render("Signed in as "+r.me.DisplayName()), th.Muted.Render("("+r.me.Role+")"))
		fmt.Fprintln(out, components.RenderQuota(int64(r.me.TokensUsedThisMonth), int64(r.me.MonthlyTokenLimit), QuotaBarWidth))
	}
	fmt.Fprintln(out, th.Muted.Render(fmt.Sprintf("%s  ·  %s  ·  /help for commands",
		r.app.Manager.Scope(), r.app.Manager.Title())))
}

func (r *repl) printErr(err error) {
	var re *reportedError
	if errors.As(err, &re) {
		return
	}
	msg := err.Error()
	if errors.Is(err, api.ErrUnauthorized) {
		msg = SessionExpiredText
	}
	fmt.Fprintln(r.app.streams.ErrOut, r.app.Theme.RenderError(msg))
}

// complete offers slash commands for the typed prefix, best match first.
func (r *repl) complete(line string) []string {
	if !strings.HasPrefix(line, "/") || strings.Contains(line, " ") {
		return nil
	}
	names := make([]string, 0, len(r.commands))
	for _, c := range r.commands {
		names = append(names, c.name)
	}
	var out []string
	for _, m := range components.FuzzyFilter(strings.TrimPrefix(line, "/"), names) {
		out = append(out, "/"+m.Target)
	}
	return out
}
