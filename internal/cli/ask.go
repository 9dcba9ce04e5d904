// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/chatdesk/internal/session"
	"github.com/jeranaias/chatdesk/internal/stream"
)

type askOptions struct {
	model        string
	thinking     int
	project      string
	conversation string
	raw          bool
	files        []string
	quote        string
}

func newAskCommand(app *App) *cobra.Command {
	opts := &askOptions{thinking: -1}

	cmd := &cobra.Command{
		Use:   "ask [MESSAGE...]",
		Short: "Send one message and print the reply",
		Long: `Send one message and print the reply. Without arguments the message
is read from stdin. The exchange is saved to local history like any other.

Examples:
  chatdesk ask "Summarize the Go memory model"
  git diff | chatdesk ask --quote "review this" --model gpt-4o
  chatdesk ask --conversation chat-0192 "and in Rust?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), app, opts, args)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.model, "model", "m", "", "model key (default chat.default_model or the first available)")
	f.IntVar(&opts.thinking, "thinking", -1, "thinking level 0-10 (default chat.thinking_level)")
	f.StringVarP(&opts.project, "project", "p", "", "project id or name to file the conversation under")
	f.StringVarP(&opts.conversation, "conversation", "c", "", "continue an existing conversation")
	f.BoolVar(&opts.raw, "raw", false, "stream text as it arrives instead of rendering markdown")
	f.StringSliceVarP(&opts.files, "attach", "a", nil, "attach a file (repeatable, 10MB max each)")
	f.StringVar(&opts.quote, "quote", "", "quoted text to reference")
	return cmd
}

func runAsk(ctx context.Context, app *App, opts *askOptions, args []string) error {
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" && !isTerminal(app.streams.In) {
		data, err := io.ReadAll(io.LimitReader(app.streams.In, int64(session.MaxMessageLength)*4+1))
		if err != nil {
			return err
		}
		text = string(data)
	}

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

	if len(opts.files) > 0 {
		if _, err := mgr.Attach(opts.files...); err != nil {
			return reported(err)
		}
	}
	if opts.quote != "" {
		mgr.SetQuote(opts.quote)
	}

	modelKey, err := app.resolveModel(ctx, opts.model)
	if err != nil {
		return err
	}
	thinking := app.Config.Chat.ThinkingLevel
	if opts.thinking >= 0 {
		thinking = opts.thinking
	}

	// USABILITY: Ctrl+C stops the exchange instead of killing the process.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	raw := opts.raw || strings.EqualFold(app.Config.Chat.Render, "raw")
	if app.opts.jsonMode {
		raw = false
	}
	w := app.newReplyWriter(raw)
	if app.opts.jsonMode {
		w.live = false
		w.renderer = nil
		w.out = io.Discard
	}

	out := mgr.Send(ctx, text, session.SendOptions{Model: modelKey, ThinkingLevel: thinking}, w.Snapshot)
	w.Finish(out)

	switch out.Status {
	case stream.Completed:
		app.Logger.Debug("ask completed", zap.String("chat_id", out.ChatID), zap.Int("bytes", len(out.Text)))
		if ok, err := app.printJSON("ask", map[string]any{
			"reply":   out.Text,
			"chat_id": out.ChatID,
			"model":   modelKey,
		}); ok {
			return err
		}
		return nil
	case stream.Aborted:
		return reported(context.Canceled)
	default:
		return reported(out.Err)
	}
}

// resolveModel picks the model for an exchange: the flag, then the
// configured default, then the first model the server offers.
func (a *App) resolveModel(ctx context.Context, flag string) (string, error) {
	if key := strings.TrimSpace(flag); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(a.Config.Chat.DefaultModel); key != "" {
		return key, nil
	}
	models, err := a.Client.Models(ctx, false)
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		a.Toasts.Warning("Please select a model first.", session.WarningDuration)
		return "", reported(session.ErrNoModel)
	}
	return models[0].Key, nil
}
