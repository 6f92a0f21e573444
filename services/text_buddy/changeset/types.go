// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package changeset owns the review lifecycle for batches of proposed
// edits: change-set creation, per-modification accept/reject/undo, batch
// accept with rollback, and the per-change-set backups that make undo
// possible.
//
// # Description
//
// A ChangeSet groups the FileModifications proposed in one editing pass,
// possibly across several files. The Store is the only component allowed
// to write through the storage capability; everything the UI layer needs
// is exposed as plain read-only records.
//
// # Thread Safety
//
// The Store serializes all operations internally, but the engine is a
// single-writer design: the host must not issue concurrent mutating calls
// against the same change set (see Store).
package changeset

import (
	"time"

	"github.com/AleutianAI/AleutianRevise/services/text_buddy/diff"
)

// =============================================================================
// Review Status
// =============================================================================

// ReviewStatus is the aggregate status of a file or change set, derived
// purely from its children's statuses.
type ReviewStatus string

const (
	// ReviewPending indicates every child is still pending.
	ReviewPending ReviewStatus = "pending"

	// ReviewPartial indicates children carry a mix of statuses.
	ReviewPartial ReviewStatus = "partial"

	// ReviewAccepted indicates every child was accepted.
	ReviewAccepted ReviewStatus = "accepted"

	// ReviewRejected indicates every child was rejected.
	ReviewRejected ReviewStatus = "rejected"
)

// String returns the string representation of the status.
func (s ReviewStatus) String() string {
	return string(s)
}

// =============================================================================
// File Modification
// =============================================================================

// FileModification groups all modifications proposed for one file.
//
// OriginalContent is the file's full snapshot at change-set creation time
// and is immutable for the change set's lifetime; it is the only valid
// rollback target once edits to this file are undone or rejected.
type FileModification struct {
	// FilePath identifies the file within the host's storage.
	FilePath string `json:"file_path"`

	// OriginalContent is the full text snapshot taken at creation.
	OriginalContent string `json:"original_content"`

	// Modifications are the proposed edits in diff order (insertion
	// order, not necessarily line order).
	Modifications []*diff.Modification `json:"modifications"`

	// Status is the aggregate of the modifications' statuses.
	Status ReviewStatus `json:"status"`
}

// Find returns the modification with the given id, or nil.
func (f *FileModification) Find(modificationID string) *diff.Modification {
	for _, m := range f.Modifications {
		if m.ID == modificationID {
			return m
		}
	}
	return nil
}

// =============================================================================
// Change Set
// =============================================================================

// ChangeSet is a reviewable batch of file modifications.
//
// Identity is immutable: files and modifications are attached only at
// creation. Edits arriving later belong in a new change set.
type ChangeSet struct {
	// ID uniquely identifies the change set. Ids are generation-ordered
	// by a millisecond timestamp prefix; only uniqueness is contractual.
	ID string `json:"id"`

	// Timestamp is when the change set was created.
	Timestamp time.Time `json:"timestamp"`

	// Files are the per-file modification groups.
	Files []*FileModification `json:"files"`

	// Status is the aggregate of the files' statuses.
	Status ReviewStatus `json:"status"`
}

// FindFile returns the file containing the given modification id, along
// with the modification itself. Both are nil when the id is unknown.
func (cs *ChangeSet) FindFile(modificationID string) (*FileModification, *diff.Modification) {
	for _, f := range cs.Files {
		if m := f.Find(modificationID); m != nil {
			return f, m
		}
	}
	return nil, nil
}

// =============================================================================
// Status Projection
// =============================================================================

// ChangeSetStatus is a read-only counts projection over a change set.
type ChangeSetStatus struct {
	ChangeSetID string       `json:"changeset_id"`
	Status      ReviewStatus `json:"status"`
	Files       int          `json:"files"`
	Total       int          `json:"total"`
	Accepted    int          `json:"accepted"`
	Rejected    int          `json:"rejected"`
	Pending     int          `json:"pending"`
}
