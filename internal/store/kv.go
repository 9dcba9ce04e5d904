// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// =============================================================================
// KEY-VALUE CONTRACT
// =============================================================================

// KV is a persistent string-to-string map. Set and Delete must be durable
// when they return.
type KV interface {
	// Get returns the value and whether the key exists.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Keys lists all keys in lexical order.
	Keys() ([]string, error)
}

// ErrMissingKey is reported by Decode when the key was never written.
var ErrMissingKey = errors.New("key not set")

// =============================================================================
// TYPED JSON HELPERS
// =============================================================================

// Load parses the JSON array stored under key. It never fails: a missing
// key, a backend error or invalid JSON all yield an empty, non-nil slice.
func Load[T any](kv KV, key string) []T {
	items, _ := Decode[T](kv, key)
	return items
}

// Decode is Load with the reason an empty slice was returned. The slice is
// always non-nil, even alongside an error.
func Decode[T any](kv KV, key string) ([]T, error) {
	raw, ok, err := kv.Get(key)
	if err != nil {
		return []T{}, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return []T{}, ErrMissingKey
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []T{}, fmt.Errorf("decode %s: %w", key, err)
	}
	if items == nil {
		// "null" decodes to a nil slice
		items = []T{}
	}
	return items, nil
}

// Save serializes value as JSON and overwrites key.
func Save[T any](kv KV, key string, value []T) error {
	if value == nil {
		value = []T{}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(key, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// MEMORY BACKEND
// =============================================================================

// MemoryKV is a KV held in process memory. It is safe for concurrent use.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV returns an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

// Get implements KV.
func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements KV.
func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys implements KV.
func (m *MemoryKV) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
