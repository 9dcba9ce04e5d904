// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	data := []byte("hello, world!")

	if err := AtomicWriteFile(path, data, 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != string(data) {
		t.Errorf("Content mismatch: got %q, want %q", string(content), string(data))
	}
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "deep", "test.txt")

	if err := AtomicWriteFile(path, []byte("test data"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("File not created: %v", err)
	}
}

func TestAtomicWriteFile_OverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")

	if err := AtomicWriteFile(path, []byte("initial"), 0644); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	if err := AtomicWriteFile(path, []byte("updated"), 0644); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "updated" {
		t.Errorf("Content = %q, want %q", content, "updated")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file %q left behind", e.Name())
		}
	}
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"short", "hello", 50, "hello"},
		{"exact", strings.Repeat("a", 50), 50, strings.Repeat("a", 50)},
		{"long", strings.Repeat("a", 60), 50, strings.Repeat("a", 50) + "..."},
		{"unicode", "日本語テキスト", 3, "日本語..."},
		{"zero", "hello", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excerpt(tt.input, tt.max); got != tt.want {
				t.Errorf("Excerpt(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 2, "he"},
		{"日本語テキスト", 5, "日本..."},
	}

	for _, tt := range tests {
		if got := TruncateRunes(tt.input, tt.max); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}

func TestTruncateWidth(t *testing.T) {
	if got := TruncateWidth("hello", 10); got != "hello" {
		t.Errorf("TruncateWidth short = %q", got)
	}
	got := TruncateWidth("日本語テキスト", 8)
	if StringWidth(got) > 8 {
		t.Errorf("TruncateWidth(%q) width = %d, want <= 8", got, StringWidth(got))
	}
	if !strings.HasSuffix(got, Ellipsis) {
		t.Errorf("TruncateWidth(%q) should end with ellipsis", got)
	}
}

func TestPadWidth(t *testing.T) {
	if got := PadWidth("ab", 5); got != "ab   " {
		t.Errorf("PadWidth = %q, want %q", got, "ab   ")
	}
	if got := PadWidth("日本", 6); StringWidth(got) != 6 {
		t.Errorf("PadWidth wide width = %d, want 6", StringWidth(got))
	}
	if got := PadWidth("abcdefgh", 5); StringWidth(got) != 5 {
		t.Errorf("PadWidth overflow width = %d, want 5", StringWidth(got))
	}
}

func TestSingleLine(t *testing.T) {
	if got := SingleLine("  one\ntwo\t three  "); got != "one two three" {
		t.Errorf("SingleLine = %q", got)
	}
}

// =============================================================================
// NUMBER FORMAT TESTS
// =============================================================================

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0K"},
		{1260, "1.3K"},
		{2_500_000, "2.5M"},
		{3_000_000_000, "3.0B"},
	}
	for _, tt := range tests {
		if got := FormatCompact(tt.n); got != tt.want {
			t.Errorf("FormatCompact(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatGrouped(t *testing.T) {
	if got := FormatGrouped(1234567); got != "1,234,567" {
		t.Errorf("FormatGrouped = %q, want %q", got, "1,234,567")
	}
}

func TestQuotaPercent(t *testing.T) {
	if got := QuotaPercent(50, 200); got != 25 {
		t.Errorf("QuotaPercent(50, 200) = %v, want 25", got)
	}
	if got := QuotaPercent(500, 200); got != 100 {
		t.Errorf("QuotaPercent over limit = %v, want 100", got)
	}
	if got := QuotaPercent(500, 0); got != 0 {
		t.Errorf("QuotaPercent unlimited = %v, want 0", got)
	}
}
