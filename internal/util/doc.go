// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across chatdesk.
//
// # Key Functions
//
// String Utilities:
//   - Excerpt: first N runes with a trailing "..." when cut (conversation titles)
//   - TruncateRunes: UTF-8 safe truncation that fits the ellipsis inside the limit
//   - TruncateWidth, PadWidth: display-width aware helpers for table columns
//
// Number Formatting:
//   - FormatCompact: 1234 -> "1.2K", 5e6 -> "5.0M"
//   - FormatGrouped: 1234567 -> "1,234,567"
//   - QuotaPercent: usage percentage capped at 100
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.Excerpt(firstMessage, 50)
//	fmt.Println(util.FormatCompact(used), "/", util.FormatCompact(limit))
//	err := util.AtomicWriteFile(path, data, 0600)
package util
