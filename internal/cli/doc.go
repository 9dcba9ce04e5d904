// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the chatdesk command-line program.
//
// The command tree is built with cobra. Every command shares one App,
// created in the root command's PersistentPreRunE, which owns the loaded
// configuration, the zap logger, the local store, the API client and the
// session manager.
//
// # Commands Overview
//
// Account:
//   - login, logout, whoami: authenticate and show the monthly quota
//   - models: list the models the account may use
//
// Chat:
//   - chat: interactive REPL with streamed replies and slash commands
//   - ask: one exchange, reply written to stdout
//   - conversations, projects: browse and organize local history
//
// Administration:
//   - admin users: list, create, update and delete accounts, reset usage
//
// Settings:
//   - config, api-base, theme
//
// List commands accept --json for scripting. Errors map to exit codes in
// errors.go.
package cli
