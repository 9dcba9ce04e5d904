// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/chatdesk/internal/model"
	"github.com/jeranaias/chatdesk/internal/stream"
)

// Repository persists the two collections. *store.Store satisfies it.
type Repository interface {
	Conversations() []model.Conversation
	SaveConversations([]model.Conversation) error
	Projects() []model.Project
	SaveProjects([]model.Project) error
}

// Streamer starts chat exchanges. *stream.Consumer satisfies it.
type Streamer interface {
	Start(ctx context.Context, req stream.Request) *stream.Exchange
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager holds the conversation and project collections and the session
// state. Collections are ordered as stored: conversations most recent
// first, projects in creation order.
type Manager struct {
	mu sync.Mutex

	repo     Repository
	streamer Streamer
	notifier Notifier
	logger   *zap.Logger
	now      func() model.Timestamp

	conversations []model.Conversation
	projects      []model.Project

	state *State
}

// NewManager loads both collections from repo. notifier and logger may be
// nil.
func NewManager(repo Repository, streamer Streamer, notifier Notifier, logger *zap.Logger) *Manager {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		repo:     repo,
		streamer: streamer,
		notifier: notifier,
		logger:   logger,
		now:      model.Now,
		state:    &State{},
	}
	m.conversations = repo.Conversations()
	m.projects = repo.Projects()
	return m
}

// WithClock replaces the timestamp source.
func (m *Manager) WithClock(now func() model.Timestamp) *Manager {
	m.now = now
	return m
}

// State returns the session state.
func (m *Manager) State() *State {
	return m.state
}

// Reload re-reads both collections from the repository, dropping unsaved
// in-memory changes. The session state is kept, except that an active
// conversation that no longer exists is cleared.
func (m *Manager) Reload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations = m.repo.Conversations()
	m.projects = m.repo.Projects()

	if id := m.state.ConversationID(); id != nil && m.indexConversation(*id) < 0 {
		m.state.setConversation(nil)
	}
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// saveConversations writes the collection; m.mu must be held.
func (m *Manager) saveConversations() error {
	if err := m.repo.SaveConversations(m.conversations); err != nil {
		m.logger.Error("failed to save conversations", zap.Error(err))
		m.notifier.Error("Failed to save conversations.", ErrorDuration)
		return fmt.Errorf("save conversations: %w", err)
	}
	return nil
}

// saveProjects writes the collection; m.mu must be held.
func (m *Manager) saveProjects() error {
	if err := m.repo.SaveProjects(m.projects); err != nil {
		m.logger.Error("failed to save projects", zap.Error(err))
		m.notifier.Error("Failed to save projects.", ErrorDuration)
		return fmt.Errorf("save projects: %w", err)
	}
	return nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func (m *Manager) indexConversation(id string) int {
	for i := range m.conversations {
		if m.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneConversation(c model.Conversation) model.Conversation {
	c.ProjectID = model.CloneID(c.ProjectID)
	c.Messages = append([]model.Message(nil), c.Messages...)
	return c
}

// StartNewConversation clears the active conversation. The project scope
// is unchanged.
func (m *Manager) StartNewConversation() {
	m.state.setConversation(nil)
}

// RecordExchange stores one user/assistant pair in the active conversation,
// minting it if none is active. The conversation ends up first in the list
// with a later update time.
func (m *Manager) RecordExchange(userText, assistantText string) (model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.state.ConversationID()
	if id == nil {
		newID := model.NewConversationID()
		m.state.setConversation(&newID)
		id = &newID
	}

	now := m.now()
	var conv model.Conversation
	if i := m.indexConversation(*id); i >= 0 {
		conv = m.conversations[i]
		conv.AppendExchange(userText, assistantText, now)
		m.conversations = append(m.conversations[:i], m.conversations[i+1:]...)
	} else {
		conv = model.NewConversation(*id, m.state.ProjectID(), userText, assistantText, now)
	}
	m.conversations = append([]model.Conversation{conv}, m.conversations...)

	return cloneConversation(conv), m.saveConversations()
}

// SelectConversation makes id active and adopts its project scope. It is a
// no-op returning false when id is unknown.
func (m *Manager) SelectConversation(id string) (model.Conversation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexConversation(id)
	if i < 0 {
		return model.Conversation{}, false
	}
	conv := m.conversations[i]
	m.state.setConversation(&conv.ID)
	m.state.setProject(conv.ProjectID)
	return cloneConversation(conv), true
}

// DeleteConversation removes id. Deleting the active conversation starts a
// new one. Unknown ids return ErrConversationNotFound.
func (m *Manager) DeleteConversation(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexConversation(id)
	if i < 0 {
		return ErrConversationNotFound
	}
	m.conversations = append(m.conversations[:i], m.conversations[i+1:]...)

	if cur := m.state.ConversationID(); cur != nil && *cur == id {
		m.state.setConversation(nil)
	}
	return m.saveConversations()
}

// ClearHistory deletes every conversation and starts a new one.
func (m *Manager) ClearHistory() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conversations = []model.Conversation{}
	m.state.setConversation(nil)
	return m.saveConversations()
}

// ListConversations returns, in stored order, the conversations whose
// project reference equals projectID. nil selects conversations with no
// project.
func (m *Manager) ListConversations(projectID *string) []model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.Conversation{}
	for _, c := range m.conversations {
		if c.InScope(projectID) {
			out = append(out, cloneConversation(c))
		}
	}
	return out
}

// ScopedConversations lists the conversations in the active project scope.
func (m *Manager) ScopedConversations() []model.Conversation {
	return m.ListConversations(m.state.ProjectID())
}

// AllConversations returns every conversation in stored order.
func (m *Manager) AllConversations() []model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Conversation, 0, len(m.conversations))
	for _, c := range m.conversations {
		out = append(out, cloneConversation(c))
	}
	return out
}

// OrphanedConversations lists conversations that reference a project that
// no longer exists. No project filter reaches them.
func (m *Manager) OrphanedConversations() []model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.Conversation{}
	for _, c := range m.conversations {
		if c.ProjectID == nil || *c.ProjectID == "" {
			continue
		}
		if m.indexProject(*c.ProjectID) < 0 {
			out = append(out, cloneConversation(c))
		}
	}
	return out
}

// Conversation looks up a conversation by id.
func (m *Manager) Conversation(id string) (model.Conversation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexConversation(id)
	if i < 0 {
		return model.Conversation{}, false
	}
	return cloneConversation(m.conversations[i]), true
}

// CurrentConversation returns the active conversation when it has been
// recorded.
func (m *Manager) CurrentConversation() (model.Conversation, bool) {
	id := m.state.ConversationID()
	if id == nil {
		return model.Conversation{}, false
	}
	return m.Conversation(*id)
}
