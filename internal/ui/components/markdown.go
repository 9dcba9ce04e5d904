// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/chatdesk/internal/ui/styles"
)

// DefaultWrap is the word-wrap width when the terminal size is unknown.
const DefaultWrap = 80

// MarkdownRenderer renders assistant replies for the terminal.
type MarkdownRenderer struct {
	r *glamour.TermRenderer
}

// NewMarkdownRenderer builds a glamour renderer for mode. wrap <= 0 uses
// DefaultWrap.
func NewMarkdownRenderer(mode styles.Mode, wrap int) (*MarkdownRenderer, error) {
	if wrap <= 0 {
		wrap = DefaultWrap
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wrap)}
	switch mode {
	case styles.ModeDark:
		opts = append(opts, glamour.WithStandardStyle("dark"))
	case styles.ModeLight:
		opts = append(opts, glamour.WithStandardStyle("light"))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return &MarkdownRenderer{r: r}, nil
}

// Render returns text as styled markdown, or text unchanged if rendering
// fails. A nil renderer also returns text unchanged.
func (m *MarkdownRenderer) Render(text string) string {
	if m == nil || m.r == nil || strings.TrimSpace(text) == "" {
		return text
	}
	out, err := m.r.Render(text)
	if err != nil {
		return text
	}
	return out
}
