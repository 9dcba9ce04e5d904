// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestTitleFor(t *testing.T) {
	short := "How do I reverse a list?"
	if got := TitleFor(short); got != short {
		t.Errorf("TitleFor(short) = %q, want %q", got, short)
	}

	long := strings.Repeat("x", 51)
	want := strings.Repeat("x", 50) + "..."
	if got := TitleFor(long); got != want {
		t.Errorf("TitleFor(51 chars) = %q, want %q", got, want)
	}
}

func TestNewConversation(t *testing.T) {
	proj := "proj-1"
	conv := NewConversation("chat-1", &proj, "hello", "hi", 1000)

	if conv.Title != "hello" {
		t.Errorf("Title = %q, want %q", conv.Title, "hello")
	}
	if len(conv.Messages) != 2 || conv.Messages[0].Role != RoleUser || conv.Messages[1].Role != RoleAssistant {
		t.Fatalf("Messages = %+v, want user/assistant pair", conv.Messages)
	}
	if conv.CreatedAt != 1000 || conv.UpdatedAt != 1000 {
		t.Errorf("timestamps = %d/%d, want 1000/1000", conv.CreatedAt, conv.UpdatedAt)
	}

	proj = "changed"
	if *conv.ProjectID != "proj-1" {
		t.Error("ProjectID should not alias the caller's string")
	}
}

func TestAppendExchange_TimestampStrictlyIncreases(t *testing.T) {
	conv := NewConversation("chat-1", nil, "q1", "a1", 5000)

	conv.AppendExchange("q2", "a2", 5000)
	if conv.UpdatedAt <= 5000 {
		t.Errorf("UpdatedAt = %d, want > 5000", conv.UpdatedAt)
	}
	if len(conv.Messages) != 4 {
		t.Fatalf("len(Messages) = %d, want 4", len(conv.Messages))
	}
	if conv.Messages[2].Content != "q2" || conv.Messages[3].Content != "a2" {
		t.Errorf("appended pair = %+v", conv.Messages[2:])
	}
	if conv.ExchangeCount() != 2 {
		t.Errorf("ExchangeCount = %d, want 2", conv.ExchangeCount())
	}
}

func TestInScope(t *testing.T) {
	a := "A"
	empty := ""
	inA := Conversation{ProjectID: &a}
	global := Conversation{}
	blank := Conversation{ProjectID: &empty}

	if !inA.InScope(&a) || inA.InScope(nil) {
		t.Error("project conversation scope mismatch")
	}
	if !global.InScope(nil) || global.InScope(&a) {
		t.Error("global conversation scope mismatch")
	}
	if !blank.InScope(nil) {
		t.Error("empty project id should count as no project")
	}
}

func TestConversation_JSONShape(t *testing.T) {
	conv := NewConversation("chat-1", nil, "hello", "hi", 42)
	data, err := json.Marshal(conv)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"projectId":null`, `"createdAt":42`, `"updatedAt":42`, `"role":"user"`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON %s missing %s", s, want)
		}
	}
}

func TestConversation_Export(t *testing.T) {
	conv := NewConversation("chat-1", nil, "What is Go?", "A language.", 42)

	md, err := conv.Export("md")
	if err != nil {
		t.Fatalf("Export(md) failed: %v", err)
	}
	if !strings.Contains(string(md), "# What is Go?") || !strings.Contains(string(md), "**Assistant**") {
		t.Errorf("markdown export = %s", md)
	}

	y, err := conv.Export("yaml")
	if err != nil {
		t.Fatalf("Export(yaml) failed: %v", err)
	}
	var back Conversation
	if err := yaml.Unmarshal(y, &back); err != nil {
		t.Fatalf("yaml round trip failed: %v", err)
	}
	if back.Title != conv.Title || len(back.Messages) != 2 {
		t.Errorf("yaml round trip = %+v", back)
	}

	if _, err := conv.Export("pdf"); err == nil {
		t.Error("Export(pdf) should fail")
	}
}

func TestPreview(t *testing.T) {
	conv := NewConversation("chat-1", nil, "line one\nline two", "ok", 1)
	if got := conv.Preview(80); got != "line one line two" {
		t.Errorf("Preview = %q", got)
	}
}

// =============================================================================
// ID TESTS
// =============================================================================

func TestIDs(t *testing.T) {
	a, b := NewConversationID(), NewConversationID()
	if !strings.HasPrefix(a, "chat-") || a == b {
		t.Errorf("conversation ids %q, %q", a, b)
	}
	if !strings.HasPrefix(NewProjectID(), "proj-") {
		t.Error("project id prefix missing")
	}
}

func TestSameID(t *testing.T) {
	x, y := "x", "x"
	if !SameID(nil, nil) || !SameID(&x, &y) || SameID(&x, nil) {
		t.Error("SameID mismatch")
	}
	if StringPtr("") != nil {
		t.Error("StringPtr(\"\") should be nil")
	}
}

func TestFindModel(t *testing.T) {
	opts := []ModelOption{{Key: "gpt-4o", Label: "GPT-4o"}, {Key: "claude"}}
	if m, ok := FindModel(opts, "GPT-4O"); !ok || m.Label != "GPT-4o" {
		t.Errorf("FindModel = %+v, %v", m, ok)
	}
	if _, ok := FindModel(opts, "grok"); ok {
		t.Error("FindModel(grok) should miss")
	}
	if opts[1].String() != "claude" {
		t.Errorf("String() fallback = %q", opts[1].String())
	}
}
