// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/chatdesk/internal/util"
)

// TitleLength is the number of runes of the first user message kept as the
// conversation title.
const TitleLength = 50

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a titled sequence of exchanges. ProjectID is a reference,
// not ownership: deleting the project leaves it dangling.
type Conversation struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	ProjectID *string   `json:"projectId" yaml:"project_id"`
	Messages  []Message `json:"messages" yaml:"messages"`
	CreatedAt Timestamp `json:"createdAt" yaml:"created_at"`
	UpdatedAt Timestamp `json:"updatedAt" yaml:"updated_at"`
}

// NewConversation starts a conversation from its first exchange.
func NewConversation(id string, projectID *string, userText, assistantText string, now Timestamp) Conversation {
	return Conversation{
		ID:        id,
		Title:     TitleFor(userText),
		ProjectID: CloneID(projectID),
		Messages:  []Message{UserMessage(userText), AssistantMessage(assistantText)},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TitleFor derives a title from the first user message.
func TitleFor(userText string) string {
	return util.Excerpt(userText, TitleLength)
}

// AppendExchange appends a user/assistant pair and bumps UpdatedAt. The new
// timestamp is forced past the previous one so ordering by update time is
// strict even within one millisecond.
func (c *Conversation) AppendExchange(userText, assistantText string, now Timestamp) {
	c.Messages = append(c.Messages, UserMessage(userText), AssistantMessage(assistantText))
	if now <= c.UpdatedAt {
		now = c.UpdatedAt + 1
	}
	c.UpdatedAt = now
}

// InScope reports whether the conversation belongs to projectID. A nil
// projectID is the no-project scope.
func (c *Conversation) InScope(projectID *string) bool {
	if projectID == nil {
		return c.ProjectID == nil || *c.ProjectID == ""
	}
	return c.ProjectID != nil && *c.ProjectID == *projectID
}

// Preview returns the first user message collapsed to one line.
func (c *Conversation) Preview(maxRunes int) string {
	for _, m := range c.Messages {
		if m.Role == RoleUser && m.Content != "" {
			return util.TruncateRunes(util.SingleLine(m.Content), maxRunes)
		}
	}
	return ""
}

// ExchangeCount returns the number of user messages.
func (c *Conversation) ExchangeCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders the conversation as Markdown with role headings.
func (c *Conversation) ExportMarkdown() string {
	var sb strings.Builder
	title := c.Title
	if title == "" {
		title = "Conversation " + c.ID
	}
	sb.WriteString("# " + title + "\n\n")
	sb.WriteString("Created: " + c.CreatedAt.Time().Format(time.RFC3339) + "  \n")
	sb.WriteString("Updated: " + c.UpdatedAt.Time().Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range c.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "**:\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// ExportJSON renders the conversation as indented JSON.
func (c *Conversation) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// ExportYAML renders the conversation as YAML.
func (c *Conversation) ExportYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Export renders the conversation in the named format: md, json or yaml.
func (c *Conversation) Export(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "md", "markdown":
		return []byte(c.ExportMarkdown()), nil
	case "json":
		return c.ExportJSON()
	case "yaml", "yml":
		return c.ExportYAML()
	default:
		return nil, fmt.Errorf("unknown export format %q (want md, json or yaml)", format)
	}
}

// =============================================================================
// PROJECT TYPE
// =============================================================================

// Project groups conversations and carries shared instructions.
type Project struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Description  string    `json:"description" yaml:"description"`
	Instructions string    `json:"instructions" yaml:"instructions"`
	CreatedAt    Timestamp `json:"createdAt" yaml:"created_at"`
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

// NewConversationID returns a fresh time-ordered conversation id.
func NewConversationID() string {
	return "chat-" + newTimeID()
}

// NewProjectID returns a fresh time-ordered project id.
func NewProjectID() string {
	return "proj-" + newTimeID()
}

// newTimeID uses UUIDv7, whose leading bits are the Unix millisecond time.
func newTimeID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// CloneID copies an optional id so callers never share the pointer.
func CloneID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// SameID reports whether two optional ids are equal (both nil counts).
func SameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
