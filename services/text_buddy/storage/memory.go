// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-memory Storage implementation.
//
// # Description
//
// Holds documents in a map and supports fault injection for exercising
// the engine's rollback paths: writes can be made to fail at a chosen
// call index or for a chosen path. Intended for tests and for hosts that
// buffer edits without touching disk.
//
// # Thread Safety
//
// Memory is safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	files map[string]string

	writeCalls  int
	failWriteAt int // 1-based call index, 0 disables
	failPaths   map[string]error
}

// NewMemory creates empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{
		files:     make(map[string]string),
		failPaths: make(map[string]error),
	}
}

// Seed sets a document's content without counting as a write call.
func (m *Memory) Seed(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

// Content returns a document's current content.
func (m *Memory) Content(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[path]
	return content, ok
}

// WriteCalls returns how many WriteText calls have been made.
func (m *Memory) WriteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeCalls
}

// FailWriteAt makes the n-th WriteText call fail (1-based). Zero disables
// the injection.
func (m *Memory) FailWriteAt(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWriteAt = n
}

// FailWritesTo makes every WriteText call for path fail with err.
func (m *Memory) FailWritesTo(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPaths[path] = err
}

// ReadText returns the content of the document at path.
func (m *Memory) ReadText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	content, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotExist, path)
	}
	return content, nil
}

// WriteText replaces the content of the document at path.
func (m *Memory) WriteText(ctx context.Context, path string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.writeCalls++
	if m.failWriteAt != 0 && m.writeCalls == m.failWriteAt {
		return fmt.Errorf("injected write failure at call %d", m.writeCalls)
	}
	if err, ok := m.failPaths[path]; ok {
		return err
	}

	m.files[path] = content
	return nil
}

var _ Storage = (*Memory)(nil)
