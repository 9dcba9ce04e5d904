// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the conversations, projects and per-session state
// of a chat client.
//
// Manager keeps both collections in memory, writes them through to the
// store after every mutation, and runs chat exchanges against the stream
// consumer. Session state (active conversation, project scope, the single
// in-flight exchange, pending attachments and quote) lives in an explicit
// State value owned by the Manager.
//
// # Key Types
//
//   - Manager: conversation/project operations and Send
//   - State: session state; in-flight flag and cancel handle change together
//   - Notifier: where user-facing messages go
//   - ProjectError, MessageError: validation failures
//
// # Usage
//
//	mgr := session.NewManager(st, consumer, toasts, logger)
//	out := mgr.Send(ctx, "hello", session.SendOptions{Model: "gpt"}, func(s stream.Snapshot) {
//	    render(s.Text)
//	})
//
// # Concurrency
//
// Manager methods are safe for concurrent use. Send blocks until the
// exchange ends; Stop may be called from another goroutine to abort it.
package session
