// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// =============================================================================
// MODEL OPTION TYPE
// =============================================================================

// ModelOption is a model the server lets the user pick.
type ModelOption struct {
	// Key is sent as the chat request's model field
	Key string `json:"key"`
	// Label is shown to the user
	Label string `json:"label"`
}

// String returns the label, or the key when the label is empty.
func (m ModelOption) String() string {
	if m.Label != "" {
		return m.Label
	}
	return m.Key
}

// FindModel looks up key (case-insensitively) among options.
func FindModel(options []ModelOption, key string) (ModelOption, bool) {
	for _, m := range options {
		if strings.EqualFold(m.Key, key) {
			return m, true
		}
	}
	return ModelOption{}, false
}
