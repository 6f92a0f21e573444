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
	"sort"
	"strings"
)

// ApplyModifications replays accepted modifications against a text.
//
// # Description
//
// Applies every modification whose status is StatusAccepted, in descending
// LineStart order so that earlier splices do not invalidate the line
// numbers of later ones. Pending and rejected modifications are skipped;
// if none are accepted the text is returned unchanged.
//
// The input slice is not mutated. Line ranges outside the text are clamped
// rather than rejected, matching how hunks are spliced during review.
//
// # Inputs
//
//   - content: The text to transform, typically a file's original snapshot.
//   - mods: Modifications in any order.
//
// # Outputs
//
//   - string: The transformed text.
func ApplyModifications(content string, mods []*Modification) string {
	accepted := make([]*Modification, 0, len(mods))
	for _, m := range mods {
		if m.Status == StatusAccepted {
			accepted = append(accepted, m)
		}
	}
	if len(accepted) == 0 {
		return content
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].LineStart > accepted[j].LineStart
	})

	lines := splitLines(content)
	for _, m := range accepted {
		lines = splice(lines, m)
	}
	return strings.Join(lines, "\n")
}

// Splice applies a single modification to a text regardless of its review
// status.
//
// # Description
//
// Locates the modification's line range in the given content and inserts,
// removes, or replaces lines according to its type. Used by the change-set
// store when a single modification is accepted against the file's current
// storage content rather than its snapshot.
//
// # Inputs
//
//   - content: The text to transform.
//   - m: The modification to apply.
//
// # Outputs
//
//   - string: The transformed text.
func Splice(content string, m *Modification) string {
	return strings.Join(splice(splitLines(content), m), "\n")
}

// splice applies one modification to a line slice.
func splice(lines []string, m *Modification) []string {
	start := m.LineStart - 1
	if start < 0 {
		start = 0
	}

	switch m.Type {
	case TypeAdd:
		if start > len(lines) {
			start = len(lines)
		}
		inserted := m.modifiedLines()
		out := make([]string, 0, len(lines)+len(inserted))
		out = append(out, lines[:start]...)
		out = append(out, inserted...)
		out = append(out, lines[start:]...)
		return out

	case TypeDelete:
		end := clampEnd(m.LineEnd, len(lines))
		if start >= len(lines) {
			return lines
		}
		out := make([]string, 0, len(lines)-(end-start))
		out = append(out, lines[:start]...)
		out = append(out, lines[end:]...)
		return out

	case TypeModify:
		end := clampEnd(m.LineEnd, len(lines))
		if start > len(lines) {
			start = len(lines)
		}
		if end < start {
			end = start
		}
		replacement := m.modifiedLines()
		out := make([]string, 0, len(lines)-(end-start)+len(replacement))
		out = append(out, lines[:start]...)
		out = append(out, replacement...)
		out = append(out, lines[end:]...)
		return out
	}

	return lines
}

// clampEnd converts a 1-based inclusive end line to an exclusive slice
// bound within [0, n].
func clampEnd(lineEnd, n int) int {
	end := lineEnd
	if end > n {
		end = n
	}
	return end
}
