// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diff

import (
	"strings"

	"github.com/google/uuid"
)

// Compute calculates the line-level difference between two texts.
//
// # Description
//
// Splits both texts on newlines, computes a longest-common-subsequence
// line diff, and groups every contiguous mismatch region into a hunk.
// The result is deterministic: the same inputs always produce the same
// hunk boundaries and classifications.
//
// Any two strings are valid input, including empty ones. Identical inputs
// yield an empty result.
//
// # Inputs
//
//   - original: The baseline text.
//   - modified: The proposed text.
//
// # Outputs
//
//   - Result: Ordered hunks plus per-classification counts.
func Compute(original, modified string) Result {
	if original == modified {
		return Result{}
	}

	a := splitLines(original)
	b := splitLines(modified)

	var result Result
	for _, h := range diffLines(a, b) {
		result.Hunks = append(result.Hunks, h)
		switch h.Type() {
		case TypeAdd:
			result.Additions++
		case TypeDelete:
			result.Deletions++
		case TypeModify:
			result.Modifications++
		}
	}
	return result
}

// ToModifications converts a diff result into reviewable modifications.
//
// # Description
//
// Each hunk receives a fresh unique id and starts in StatusPending. Hunk
// order and line-range metadata are preserved. Classification follows the
// hunk shape: no original lines is an add, no new lines is a delete,
// both present is a modify.
//
// # Inputs
//
//   - result: Output of Compute.
//
// # Outputs
//
//   - []*Modification: One modification per hunk, in hunk order.
func ToModifications(result Result) []*Modification {
	mods := make([]*Modification, 0, len(result.Hunks))
	for _, h := range result.Hunks {
		m := &Modification{
			ID:        uuid.NewString(),
			Type:      h.Type(),
			LineStart: h.OrigStart,
			Status:    StatusPending,
		}

		switch m.Type {
		case TypeAdd:
			m.LineEnd = h.OrigStart + len(h.NewLines) - 1
			m.ModifiedText = strings.Join(h.NewLines, "\n")
		case TypeDelete:
			m.LineEnd = h.OrigStart + len(h.OrigLines) - 1
			m.OriginalText = strings.Join(h.OrigLines, "\n")
		case TypeModify:
			m.LineEnd = h.OrigStart + len(h.OrigLines) - 1
			m.OriginalText = strings.Join(h.OrigLines, "\n")
			m.ModifiedText = strings.Join(h.NewLines, "\n")
		}

		mods = append(mods, m)
	}
	return mods
}

// diffLines walks an LCS table over a and b and groups contiguous
// mismatch runs into hunks.
func diffLines(a, b []string) []*Hunk {
	// t[i][j] is the LCS length of a[i:] and b[j:].
	t := make([][]int, len(a)+1)
	for i := range t {
		t[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				t[i][j] = t[i+1][j+1] + 1
			} else if t[i+1][j] >= t[i][j+1] {
				t[i][j] = t[i+1][j]
			} else {
				t[i][j] = t[i][j+1]
			}
		}
	}

	var (
		hunks   []*Hunk
		current *Hunk
	)
	flush := func() {
		if current != nil {
			hunks = append(hunks, current)
			current = nil
		}
	}
	// open lazily records the hunk start position when the first
	// mismatched line is seen. Insertion points use the position the
	// inserted lines would occupy after splicing into the original.
	open := func(origPos int) {
		if current == nil {
			current = &Hunk{OrigStart: origPos}
		}
	}

	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i < len(a) && j < len(b) && a[i] == b[j]:
			flush()
			i++
			j++
		case j >= len(b) || (i < len(a) && t[i+1][j] >= t[i][j+1]):
			open(i + 1)
			current.OrigLines = append(current.OrigLines, a[i])
			i++
		default:
			open(i + 1)
			current.NewLines = append(current.NewLines, b[j])
			j++
		}
	}
	flush()

	return hunks
}

// splitLines splits a text on "\n". An empty string yields a single empty
// line, mirroring how editors treat an empty buffer.
func splitLines(text string) []string {
	return strings.Split(text, "\n")
}
