// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watcher detects external changes to files under review.
//
// A change set pins modifications to line numbers in a snapshot; when
// somebody edits a watched file outside the engine, those line numbers
// may no longer match the file on disk. The watcher surfaces that as a
// file.changed event so hosts can warn the reviewer or re-propose.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/AleutianRevise/services/text_buddy/events"
)

// Options configures the Watcher.
type Options struct {
	// Debounce is how long to wait for more changes to the same file
	// before emitting. Default: 100ms.
	Debounce time.Duration

	// SuppressWindow is how long after MarkSelfWrite a change to that
	// path is treated as the engine's own write. Default: 500ms.
	SuppressWindow time.Duration

	// Logger receives diagnostic output. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Debounce:       100 * time.Millisecond,
		SuppressWindow: 500 * time.Millisecond,
	}
}

// Watcher emits file.changed events for externally modified files.
//
// # Description
//
// Paths are watched individually with reference counting: several change
// sets can watch the same file, and the fsnotify watch is dropped only
// when the last reference is released. The engine's own writes would
// otherwise look like external edits, so callers mark each write with
// MarkSelfWrite and the watcher suppresses changes landing inside the
// suppress window. Changes are debounced per path so editors that write
// in bursts emit one event.
//
// # Thread Safety
//
// Watcher is safe for concurrent use.
type Watcher struct {
	emitter        *events.Emitter
	fs             *fsnotify.Watcher
	debounce       time.Duration
	suppressWindow time.Duration
	logger         *slog.Logger

	mu         sync.Mutex
	refs       map[string]int
	selfWrites map[string]time.Time
	pending    map[string]*time.Timer

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher publishing to the given emitter.
//
// # Inputs
//
//   - emitter: Destination for file.changed events. Must not be nil.
//   - opts: Optional configuration (nil uses defaults).
//
// # Outputs
//
//   - *Watcher: Ready-to-use watcher (call Start to begin watching).
//   - error: Non-nil if the underlying fsnotify watcher could not be
//     created.
func New(emitter *events.Emitter, opts *Options) (*Watcher, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 100 * time.Millisecond
	}
	if opts.SuppressWindow <= 0 {
		opts.SuppressWindow = 500 * time.Millisecond
	}

	logger := slog.Default()
	if opts.Logger != nil {
		logger = opts.Logger
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		emitter:        emitter,
		fs:             fs,
		debounce:       opts.Debounce,
		suppressWindow: opts.SuppressWindow,
		logger:         logger.With("component", "watcher"),
		refs:           make(map[string]int),
		selfWrites:     make(map[string]time.Time),
		pending:        make(map[string]*time.Timer),
		done:           make(chan struct{}),
	}, nil
}

// Start begins processing change notifications. It spawns one goroutine
// that exits when the context is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.processEvents(ctx)
}

// Stop stops the watcher and releases all fsnotify watches.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fs.Close()

		w.mu.Lock()
		for _, timer := range w.pending {
			timer.Stop()
		}
		w.pending = make(map[string]*time.Timer)
		w.mu.Unlock()
	})
}

// Watch adds a reference to path. The first reference registers the
// fsnotify watch.
func (w *Watcher) Watch(path string) error {
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.refs[path] == 0 {
		if err := w.fs.Add(path); err != nil {
			return err
		}
	}
	w.refs[path]++
	return nil
}

// Unwatch drops a reference to path. The last reference removes the
// fsnotify watch. Unknown paths are a no-op.
func (w *Watcher) Unwatch(path string) {
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	n, ok := w.refs[path]
	if !ok {
		return
	}
	if n <= 1 {
		delete(w.refs, path)
		delete(w.selfWrites, path)
		// Remove can fail if the file vanished; the watch is gone
		// either way.
		_ = w.fs.Remove(path)
		return
	}
	w.refs[path] = n - 1
}

// MarkSelfWrite records that the engine is about to write path, so the
// resulting notification is not reported as an external change.
func (w *Watcher) MarkSelfWrite(path string) {
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.selfWrites[path] = time.Now()
}

// WatchCount returns the number of active references for path.
func (w *Watcher) WatchCount(path string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.refs[filepath.Clean(path)]
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.handleChange(filepath.Clean(event.Name))
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err.Error())
		}
	}
}

// handleChange decides whether a notification is an external edit and,
// if so, schedules a debounced emit for the path.
func (w *Watcher) handleChange(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.refs[path]; !ok {
		return
	}
	if marked, ok := w.selfWrites[path]; ok && time.Since(marked) < w.suppressWindow {
		return
	}

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.emit(path)
	})
}

func (w *Watcher) emit(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	_, watched := w.refs[path]
	w.mu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}
	if !watched {
		return
	}

	w.logger.Info("external change detected", "file", path)
	w.emitter.Emit(events.Event{
		Type:     events.TypeFileChanged,
		FilePath: path,
	})
}
