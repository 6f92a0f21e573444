// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diff computes line-level diffs between two versions of a text
// document and converts them into reviewable modifications.
//
// # Description
//
// This package is the pure, deterministic half of the change-set engine.
// Compute turns an (original, modified) pair of texts into ordered hunks;
// ToModifications attaches review metadata (id, classification, status) to
// each hunk. ApplyModifications replays accepted modifications against a
// text without touching any storage.
//
// Line ranges are 1-based and inclusive throughout. Callers working with
// 0-based editor coordinates must convert at the boundary.
//
// # Thread Safety
//
// All functions are pure and safe for concurrent use. Modification values
// are not safe for concurrent mutation.
package diff

import "strings"

// =============================================================================
// Modification Types
// =============================================================================

// ModificationType classifies a modification.
type ModificationType string

const (
	// TypeAdd inserts lines that have no counterpart in the original.
	TypeAdd ModificationType = "add"

	// TypeDelete removes original lines without replacement.
	TypeDelete ModificationType = "delete"

	// TypeModify replaces a range of original lines with new lines.
	TypeModify ModificationType = "modify"
)

// String returns the string representation of the type.
func (t ModificationType) String() string {
	return string(t)
}

// Valid reports whether the type is one of the known classifications.
func (t ModificationType) Valid() bool {
	return t == TypeAdd || t == TypeDelete || t == TypeModify
}

// =============================================================================
// Modification Status
// =============================================================================

// Status tracks the review state of a modification.
type Status string

const (
	// StatusPending indicates the modification has not been reviewed.
	StatusPending Status = "pending"

	// StatusAccepted indicates the modification was accepted and applied.
	StatusAccepted Status = "accepted"

	// StatusRejected indicates the modification was rejected.
	StatusRejected Status = "rejected"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the status is a final review decision.
// Terminal statuses are reachable back to pending only through undo.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// =============================================================================
// Hunk
// =============================================================================

// Hunk is one contiguous diff region between two texts, prior to the
// assignment of review metadata.
//
// OrigStart is the 1-based position of the hunk in the original text. For a
// pure insertion (no original lines) it is the line number the inserted
// lines would occupy after splicing, i.e. the insertion point in original
// coordinates.
type Hunk struct {
	// OrigStart is the 1-based starting line in the original text.
	OrigStart int

	// OrigLines are the original lines covered by this hunk (empty for
	// insertions).
	OrigLines []string

	// NewLines are the replacement lines (empty for deletions).
	NewLines []string
}

// Type classifies the hunk by the presence of original and new lines.
func (h *Hunk) Type() ModificationType {
	switch {
	case len(h.OrigLines) == 0:
		return TypeAdd
	case len(h.NewLines) == 0:
		return TypeDelete
	default:
		return TypeModify
	}
}

// =============================================================================
// Result
// =============================================================================

// Result is the outcome of Compute: ordered hunks plus aggregate counts.
//
// Counts are per-hunk: Additions is the number of add hunks, Deletions the
// number of delete hunks, Modifications the number of modify hunks. For
// identical inputs all counts are zero and Hunks is empty.
type Result struct {
	Hunks         []*Hunk
	Additions     int
	Deletions     int
	Modifications int
}

// Empty returns true if the two inputs were identical.
func (r *Result) Empty() bool {
	return len(r.Hunks) == 0
}

// =============================================================================
// Modification
// =============================================================================

// Modification is a hunk plus review metadata: one contiguous line-range
// edit that can be independently accepted, rejected, or undone.
//
// LineStart and LineEnd are 1-based, inclusive, in original-file
// coordinates (LineEnd >= LineStart always holds). For delete and modify
// they name the replaced range; for add, LineStart is the insertion point
// and LineEnd spans the inserted lines.
type Modification struct {
	// ID uniquely identifies the modification within its change set.
	ID string `json:"id"`

	// Type is the classification: add, delete, or modify.
	Type ModificationType `json:"type"`

	// LineStart is the 1-based first line of the affected range.
	LineStart int `json:"line_start"`

	// LineEnd is the 1-based last line of the affected range, inclusive.
	LineEnd int `json:"line_end"`

	// OriginalText holds the replaced or removed lines, joined with "\n".
	// Present for delete and modify.
	OriginalText string `json:"original_text,omitempty"`

	// ModifiedText holds the inserted lines, joined with "\n".
	// Present for add and modify.
	ModifiedText string `json:"modified_text,omitempty"`

	// Status is the review state. New modifications start pending.
	Status Status `json:"status"`
}

// LineCount returns the number of lines in the affected range.
func (m *Modification) LineCount() int {
	return m.LineEnd - m.LineStart + 1
}

// originalLines returns OriginalText split into lines.
func (m *Modification) originalLines() []string {
	if m.OriginalText == "" && m.Type == TypeAdd {
		return nil
	}
	return strings.Split(m.OriginalText, "\n")
}

// modifiedLines returns ModifiedText split into lines.
func (m *Modification) modifiedLines() []string {
	if m.ModifiedText == "" && m.Type == TypeDelete {
		return nil
	}
	return strings.Split(m.ModifiedText, "\n")
}
