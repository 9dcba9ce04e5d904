// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/chatdesk/internal/stream"
	"github.com/jeranaias/chatdesk/internal/ui/components"
	"github.com/jeranaias/chatdesk/internal/ui/styles"
	"github.com/jeranaias/chatdesk/internal/util"
)

// StatusRefresh is the minimum interval between live status redraws.
const StatusRefresh = 100 * time.Millisecond

// replyWriter prints a streamed reply. In raw mode text is written as it
// arrives; otherwise a throttled status line is shown on terminals and the
// finished reply is rendered as markdown.
type replyWriter struct {
	out      io.Writer
	theme    *styles.Theme
	raw      bool
	live     bool
	renderer *components.MarkdownRenderer
	limiter  *rate.Limiter

	printed int
	status  bool
}

func (a *App) newReplyWriter(raw bool) *replyWriter {
	w := &replyWriter{
		out:     a.streams.Out,
		theme:   a.Theme,
		raw:     raw,
		live:    isTerminal(a.streams.Out),
		limiter: rate.NewLimiter(rate.Every(StatusRefresh), 1),
	}
	if !raw && w.live {
		w.renderer = a.markdownRenderer()
	}
	return w
}

// markdownRenderer builds a glamour renderer for the resolved theme, or
// nil if glamour cannot be initialized.
func (a *App) markdownRenderer() *components.MarkdownRenderer {
	mode := styles.ModeLight
	if a.Theme.IsDark {
		mode = styles.ModeDark
	}
	wrap := a.Config.UI.WordWrap
	if wrap <= 0 {
		wrap = terminalWidth(a.streams.Out) - 4
	}
	r, err := components.NewMarkdownRenderer(mode, wrap)
	if err != nil {
		a.Logger.Debug("markdown renderer unavailable")
		return nil
	}
	return r
}

// Snapshot is the sink passed to session.Manager.Send.
func (w *replyWriter) Snapshot(s stream.Snapshot) {
	if w.raw {
		if len(s.Text) > w.printed {
			io.WriteString(w.out, s.Text[w.printed:])
			w.printed = len(s.Text)
		}
		return
	}
	if w.live && w.limiter.Allow() {
		fmt.Fprintf(w.out, "\r\033[K%s",
			w.theme.Muted.Render(fmt.Sprintf("receiving reply (%s chars)...", util.FormatCompact(int64(util.RuneLen(s.Text))))))
		w.status = true
	}
}

// Finish completes the output for the outcome.
func (w *replyWriter) Finish(out stream.Outcome) {
	if w.status {
		fmt.Fprint(w.out, "\r\033[K")
		w.status = false
	}
	if w.raw {
		if w.printed > 0 && !strings.HasSuffix(out.Text, "\n") {
			fmt.Fprintln(w.out)
		}
		return
	}
	if out.Status != stream.Completed {
		return
	}
	if w.renderer != nil {
		fmt.Fprint(w.out, w.renderer.Render(out.Text))
		return
	}
	fmt.Fprintln(w.out, strings.TrimRight(out.Text, "\n"))
}
