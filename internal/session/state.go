// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/jeranaias/chatdesk/internal/model"
)

// =============================================================================
// ATTACHMENTS
// =============================================================================

// MaxAttachmentSize is the largest file that can be attached.
const MaxAttachmentSize = 10 * 1024 * 1024

// Attachment is a file picked for the next message. Attachments are never
// uploaded; they only count as message content for validation and are
// cleared when the message is sent.
type Attachment struct {
	Name string
	Path string
	Size int64
}

func (a Attachment) String() string {
	return fmt.Sprintf("%s (%s)", a.Name, humanize.IBytes(uint64(a.Size)))
}

// =============================================================================
// SESSION STATE
// =============================================================================

// State is the mutable session state. The in-flight flag and the cancel
// handle are only ever changed together, under mu.
type State struct {
	mu sync.Mutex

	conversationID *string
	projectID      *string

	inFlight bool
	cancel   context.CancelFunc

	attachments []Attachment
	quote       string
}

// Snapshot is a copy of State for display.
type Snapshot struct {
	ConversationID *string
	ProjectID      *string
	InFlight       bool
	Attachments    []Attachment
	Quote          string
}

// Snapshot copies the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ConversationID: model.CloneID(s.conversationID),
		ProjectID:      model.CloneID(s.projectID),
		InFlight:       s.inFlight,
		Attachments:    append([]Attachment(nil), s.attachments...),
		Quote:          s.quote,
	}
}

// ConversationID returns the active conversation id, or nil.
func (s *State) ConversationID() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneID(s.conversationID)
}

// ProjectID returns the active project scope, or nil for no project.
func (s *State) ProjectID() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneID(s.projectID)
}

// InFlight reports whether an exchange is outstanding.
func (s *State) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *State) setConversation(id *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversationID = model.CloneID(id)
}

// assignConversation sets id only when no conversation is active.
func (s *State) assignConversation(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conversationID != nil || id == "" {
		return false
	}
	s.conversationID = &id
	return true
}

func (s *State) setProject(id *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectID = model.CloneID(id)
}

// begin marks an exchange in flight. If one already is, begin cancels it
// and reports false.
func (s *State) begin(cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		// A second send stops the running exchange.
		if s.cancel != nil {
			s.cancel()
		}
		return false
	}
	s.inFlight = true
	s.cancel = cancel
	return true
}

// end clears the in-flight flag and releases the cancel handle.
func (s *State) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel() // always release the context
	}
	s.inFlight = false
	s.cancel = nil
}

// abort signals the in-flight exchange. The flag stays set until the
// exchange itself calls end.
func (s *State) abort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inFlight {
		return false
	}
	if s.cancel != nil {
		s.cancel()
	}
	return true
}

// Attachments returns the pending attachments.
func (s *State) Attachments() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Attachment(nil), s.attachments...)
}

func (s *State) addAttachments(files []Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments = append(s.attachments, files...)
}

func (s *State) removeAttachment(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.attachments) {
		return false
	}
	s.attachments = append(s.attachments[:i], s.attachments[i+1:]...)
	return true
}

// Quote returns the pending quoted text.
func (s *State) Quote() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quote
}

func (s *State) setQuote(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quote = q
}

func (s *State) takeAttachments() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := s.attachments
	s.attachments = nil
	return files
}

// takePending returns and clears the attachments and quote.
func (s *State) takePending() ([]Attachment, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files, quote := s.attachments, s.quote
	s.attachments, s.quote = nil, ""
	return files, quote
}
