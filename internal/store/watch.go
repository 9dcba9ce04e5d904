// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// versioner reports a counter that changes on external commits.
type versioner interface {
	DataVersion() (int64, error)
}

// =============================================================================
// WATCHER
// =============================================================================

// Watcher calls a function when another process changes the database file.
// Writes made through this process's own connection are ignored.
type Watcher struct {
	kv       *SQLiteKV
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func()
	logger   *zap.Logger

	mu      sync.Mutex
	timer   *time.Timer
	version int64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher watches the directory holding kv's database. onChange runs on
// the watcher's goroutine after writes settle for debounce.
func NewWatcher(kv *SQLiteKV, debounce time.Duration, onChange func(), logger *zap.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(kv.Path())); err != nil {
		fw.Close()
		return nil, err
	}

	version, err := kv.DataVersion()
	if err != nil {
		fw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		kv:       kv,
		watcher:  fw,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		version:  version,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go w.processEvents()
	return w, nil
}

// relevant reports whether name is the database or one of its WAL files.
func (w *Watcher) relevant(name string) bool {
	db := filepath.Base(w.kv.Path())
	switch filepath.Base(name) {
	case db, db + "-wal", db + "-shm", db + "-journal":
		return true
	}
	return false
}

func (w *Watcher) processEvents() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !w.relevant(event.Name) {
				continue
			}
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("store watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.check)
}

// check compares data_version and fires onChange only for foreign commits.
func (w *Watcher) check() {
	if w.ctx.Err() != nil {
		return
	}
	if !w.changed(w.kv) {
		return
	}
	if w.onChange != nil {
		w.onChange()
	}
}

func (w *Watcher) changed(v versioner) bool {
	version, err := v.DataVersion()
	if err != nil {
		w.logger.Debug("data_version check failed", zap.Error(err))
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if version == w.version {
		return false
	}
	w.version = version
	return true
}

// Close stops watching. Pending callbacks are dropped.
func (w *Watcher) Close() error {
	w.cancel()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	err := w.watcher.Close()
	<-w.done
	return err
}
