// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/jeranaias/chatdesk/internal/ui/components"
	"github.com/jeranaias/chatdesk/internal/ui/styles"
)

// toastPrinter writes each new toast to the terminal once, as soon as the
// stack reports it. With boxed=false toasts are single status lines.
type toastPrinter struct {
	mu     sync.Mutex
	stack  *components.Stack
	w      io.Writer
	theme  *styles.Theme
	width  int
	boxed  bool
	lastID int
}

func newToastPrinter(stack *components.Stack, w io.Writer, theme *styles.Theme, width int, boxed bool) *toastPrinter {
	p := &toastPrinter{stack: stack, w: w, theme: theme, width: width, boxed: boxed}
	stack.OnChange(p.flush)
	return p
}

func (p *toastPrinter) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.stack.Visible() {
		if t.ID <= p.lastID {
			continue
		}
		p.lastID = t.ID
		fmt.Fprintln(p.w, p.render(t))
	}
}

func (p *toastPrinter) render(t components.Toast) string {
	if p.boxed {
		return components.RenderToast(t, p.width)
	}
	switch t.Severity {
	case components.SeverityError:
		return p.theme.RenderError(t.Message)
	case components.SeverityWarning:
		return p.theme.RenderWarning(t.Message)
	case components.SeveritySuccess:
		return p.theme.RenderSuccess(t.Message)
	default:
		return p.theme.RenderInfo(t.Message)
	}
}
