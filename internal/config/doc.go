// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatdesk.
//
// # Key Types
//
//   - Config: top-level settings (api, chat, ui, store, logging)
//   - ValidationError / ValidateErrors: field-level validation failures
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CHATDESK_*)
//   - ~/.chatdesk/config.toml
//   - ~/.chatdesk/config.json
//   - Built-in defaults
//
// CHATDESK_HOME relocates the whole ~/.chatdesk directory.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	model := cfg.Chat.DefaultModel
//
// Dot-notation access backs the "chatdesk config" command:
//
//	_ = cfg.Set("chat.thinking_level", "2")
//	v, _ := cfg.Get("ui.theme")
package config
