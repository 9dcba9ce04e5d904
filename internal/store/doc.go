// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists chatdesk's local state in a string key-value map.
//
// Two collections (conversations, projects) are kept as JSON arrays and two
// scalars (auth token, API base override) as plain strings, under the same
// keys the web client uses. Loading never fails: a missing key or a value
// that does not parse yields an empty collection.
//
// # Key Types
//
//   - KV: the key-value contract (Get, Set, Delete, Keys)
//   - SQLiteKV: durable backend on modernc.org/sqlite
//   - MemoryKV: in-process backend for tests and ephemeral sessions
//   - Store: typed accessors over a KV
//   - Watcher: reports writes made by other processes
//
// # Usage
//
//	kv, err := store.OpenSQLite(path)
//	if err != nil {
//	    return err
//	}
//	defer kv.Close()
//
//	st := store.New(kv, logger)
//	convs := st.Conversations()
//	err = st.SaveConversations(convs)
package store
