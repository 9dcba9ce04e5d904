// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the terminal widgets shared by chatdesk
// commands: the toast notification stack, the quota bar, the markdown
// renderer for assistant replies and fuzzy matching for REPL lookups.
//
// Toasts follow a small lifecycle. Show adds a visible toast and arms its
// auto-dismiss timer; Dismiss (or expiry) marks it Hiding and removes it
// HideDelay later. At most MaxToasts are visible at once.
package components
