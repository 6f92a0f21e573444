// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package storage defines the minimal text storage capability the
// change-set engine consumes, plus a filesystem implementation and an
// in-memory implementation for tests.
//
// The engine only ever reads and writes whole documents by path; no other
// persistence surface belongs to it.
package storage

import (
	"context"
	"errors"
)

// ErrNotExist is returned by ReadText when the path has no content.
var ErrNotExist = errors.New("storage: file does not exist")

// Storage is the host-supplied capability for reading and writing text
// documents by path.
//
// # Description
//
// Implementations must treat both operations as whole-document
// read-modify-write primitives. Errors are propagated verbatim to the
// engine, which wraps them for its callers; no retrying happens below
// this interface.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Storage interface {
	// ReadText returns the full content of the document at path.
	// Returns an error wrapping ErrNotExist when the path has never
	// been written.
	ReadText(ctx context.Context, path string) (string, error)

	// WriteText replaces the full content of the document at path,
	// creating it if necessary.
	WriteText(ctx context.Context, path string, content string) error
}
