// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatCompact renders a token count with a B/M/K suffix and one decimal
// place once it reaches a thousand. Smaller values are printed as-is.
func FormatCompact(n int64) string {
	f := float64(n)
	switch {
	case n >= 1_000_000_000:
		return strconv.FormatFloat(f/1e9, 'f', 1, 64) + "B"
	case n >= 1_000_000:
		return strconv.FormatFloat(f/1e6, 'f', 1, 64) + "M"
	case n >= 1_000:
		return strconv.FormatFloat(f/1e3, 'f', 1, 64) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}

var groupedPrinter = message.NewPrinter(language.English)

// FormatGrouped renders n with thousands separators ("1,234,567").
func FormatGrouped(n int64) string {
	return groupedPrinter.Sprintf("%d", n)
}

// QuotaPercent returns used as a percentage of limit, capped at 100.
// A non-positive limit means unlimited and yields 0.
func QuotaPercent(used, limit int64) float64 {
	if limit <= 0 {
		return 0
	}
	p := float64(used) / float64(limit) * 100
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}
