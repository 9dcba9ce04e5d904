// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/chatdesk/internal/model"
)

// Storage keys. These match the web client so exported stores stay portable.
const (
	KeyConversations = "chat_history"
	KeyProjects      = "projects"
	KeyAuthToken     = "auth_token"
	KeyAPIBase       = "api_base_url"
	KeyTheme         = "theme"
)

// =============================================================================
// STORE
// =============================================================================

// Store provides typed access to the persisted collections and scalars.
type Store struct {
	kv     KV
	logger *zap.Logger
}

// New wraps kv. A nil logger is replaced with a no-op logger.
func New(kv KV, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger}
}

// KV returns the underlying backend.
func (s *Store) KV() KV {
	return s.kv
}

func loadLogged[T any](s *Store, key string) []T {
	items, err := Decode[T](s.kv, key)
	if err != nil && !errors.Is(err, ErrMissingKey) {
		s.logger.Warn("discarding unreadable stored collection",
			zap.String("key", key), zap.Error(err))
	}
	return items
}

// Conversations returns the stored conversation list, newest first as
// saved. Unreadable data yields an empty list.
func (s *Store) Conversations() []model.Conversation {
	return loadLogged[model.Conversation](s, KeyConversations)
}

// SaveConversations overwrites the stored conversation list.
func (s *Store) SaveConversations(convs []model.Conversation) error {
	return Save(s.kv, KeyConversations, convs)
}

// Projects returns the stored project list.
func (s *Store) Projects() []model.Project {
	return loadLogged[model.Project](s, KeyProjects)
}

// SaveProjects overwrites the stored project list.
func (s *Store) SaveProjects(projects []model.Project) error {
	return Save(s.kv, KeyProjects, projects)
}

// =============================================================================
// SCALARS
// =============================================================================

func (s *Store) getString(key string) string {
	v, ok, err := s.kv.Get(key)
	if err != nil {
		s.logger.Warn("store read failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

func (s *Store) setString(key, value string) error {
	if err := s.kv.Set(key, value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Store) deleteKey(key string) error {
	if err := s.kv.Delete(key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Token returns the stored bearer token, or "" when logged out.
func (s *Store) Token() string {
	return s.getString(KeyAuthToken)
}

// SetToken stores the bearer token. An empty token clears it.
func (s *Store) SetToken(token string) error {
	if token == "" {
		return s.ClearToken()
	}
	return s.setString(KeyAuthToken, token)
}

// ClearToken removes the bearer token.
func (s *Store) ClearToken() error {
	return s.deleteKey(KeyAuthToken)
}

// APIBase returns the stored API base override, or "".
func (s *Store) APIBase() string {
	return s.getString(KeyAPIBase)
}

// SetAPIBase stores an API base override. Blank input clears it.
func (s *Store) SetAPIBase(base string) error {
	base = strings.TrimSpace(base)
	if base == "" {
		return s.ClearAPIBase()
	}
	return s.setString(KeyAPIBase, base)
}

// ClearAPIBase removes the API base override.
func (s *Store) ClearAPIBase() error {
	return s.deleteKey(KeyAPIBase)
}

// Theme returns the stored theme preference, or "".
func (s *Store) Theme() string {
	return s.getString(KeyTheme)
}

// SetTheme stores the theme preference.
func (s *Store) SetTheme(theme string) error {
	return s.setString(KeyTheme, theme)
}
