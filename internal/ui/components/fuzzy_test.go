// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		query, target string
		want          bool
	}{
		{"", "anything", true},
		{"ngc", "Notes on Go channels", true},
		{"NOTES", "notes", true},
		{"xyz", "/project", false},
		{"toolong", "short", false},
		{"ba", "ab", false},
	}
	for _, tt := range tests {
		_, ok := FuzzyMatch(tt.query, tt.target)
		assert.Equal(t, tt.want, ok, "%q vs %q", tt.query, tt.target)
	}
}

func TestFuzzyMatchPrefersConsecutiveAndStart(t *testing.T) {
	prefix, _ := FuzzyMatch("pro", "/project")
	scattered, _ := FuzzyMatch("pro", "/help quote org")
	assert.Greater(t, prefix, scattered)
}

func TestFuzzyFilterOrdersByScore(t *testing.T) {
	got := FuzzyFilter("go", []string{"Recipes", "Learning Go", "go modules", "algorithms"})
	require.Len(t, got, 3)
	assert.Equal(t, "go modules", got[0].Target)
	assert.Equal(t, 2, got[0].Index)

	for _, m := range got {
		assert.NotEqual(t, "Recipes", m.Target)
	}
}
