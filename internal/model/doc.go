// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures persisted by chatdesk.
//
// The JSON shape of Conversation and Project matches the records the web
// client keeps under the chat_history and projects keys, so a store can be
// shared between the two.
//
// # Key Types
//
//   - Conversation: titled, ordered user/assistant messages, optionally scoped to a project
//   - Message: a single role + content pair
//   - Project: a named grouping with description and instructions
//   - ModelOption: a selectable model returned by GET /models
//   - Timestamp: Unix milliseconds
//
// # Usage
//
//	conv := model.NewConversation(id, projectID, userText, reply, model.Now())
//	conv.AppendExchange("next question", "next answer", model.Now())
//	md := conv.ExportMarkdown()
package model
