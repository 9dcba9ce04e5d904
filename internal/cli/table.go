// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"strings"

	"github.com/jeranaias/chatdesk/internal/ui/styles"
	"github.com/jeranaias/chatdesk/internal/util"
)

// table lays out columns by display width so CJK titles line up.
type table struct {
	headers []string
	rows    [][]string
	limits  map[int]int
}

func newTable(headers ...string) *table {
	return &table{headers: headers, limits: map[int]int{}}
}

// Limit caps column col at width cells; longer cells are truncated.
func (t *table) Limit(col, width int) *table {
	t.limits[col] = width
	return t
}

func (t *table) Row(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) Render(w io.Writer, theme *styles.Theme) {
	widths := make([]int, len(t.headers))
	cell := func(row []string, i int) string {
		if i >= len(row) {
			return ""
		}
		s := util.SingleLine(row[i])
		if max, ok := t.limits[i]; ok {
			s = util.TruncateWidth(s, max)
		}
		return s
	}
	for i, h := range t.headers {
		widths[i] = util.StringWidth(h)
	}
	for _, r := range t.rows {
		for i := range widths {
			if n := util.StringWidth(cell(r, i)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	line := func(cells []string, style func(string) string) {
		parts := make([]string, len(widths))
		for i := range widths {
			c := cell(cells, i)
			if i < len(widths)-1 {
				c = util.PadWidth(c, widths[i])
			}
			parts[i] = style(c)
		}
		io.WriteString(w, strings.TrimRight(strings.Join(parts, "  "), " ")+"\n")
	}

	line(t.headers, func(s string) string { return theme.Header.Render(s) })
	for _, r := range t.rows {
		line(r, func(s string) string { return s })
	}
}
