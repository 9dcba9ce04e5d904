// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatdesk/internal/ui/styles"
	"github.com/jeranaias/chatdesk/internal/util"
)

// Quota thresholds in percent.
const (
	QuotaWarnPercent  = 70
	QuotaErrorPercent = 90
)

// QuotaText is the caption under the usage bar. limit <= 0 means unlimited.
func QuotaText(used, limit int64) string {
	if limit > 0 {
		return fmt.Sprintf("%s / %s tokens used", util.FormatCompact(used), util.FormatCompact(limit))
	}
	return fmt.Sprintf("%s tokens used", util.FormatCompact(used))
}

// QuotaLevel classifies usage as info, warning or error.
func QuotaLevel(used, limit int64) Severity {
	pct := util.QuotaPercent(used, limit)
	switch {
	case pct > QuotaErrorPercent:
		return SeverityError
	case pct > QuotaWarnPercent:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// RenderQuota draws a usage bar width cells wide followed by QuotaText.
// Unlimited accounts get the caption only.
func RenderQuota(used, limit int64, width int) string {
	text := lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(QuotaText(used, limit))
	if limit <= 0 || width <= 0 {
		return text
	}

	pct := util.QuotaPercent(used, limit)
	filled := int(math.Round(pct / 100 * float64(width)))
	if filled > width {
		filled = width
	}

	fill := styles.Purple
	switch QuotaLevel(used, limit) {
	case SeverityError:
		fill = styles.Rose
	case SeverityWarning:
		fill = styles.Amber
	}

	bar := lipgloss.NewStyle().Foreground(fill).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(styles.Overlay).Render(strings.Repeat("░", width-filled))
	return bar + " " + fmt.Sprintf("%.0f%%", pct) + "\n" + text
}
