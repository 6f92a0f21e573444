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
	"bytes"
	"fmt"
	"sort"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// RenderUnified renders modifications as a unified diff.
//
// # Description
//
// Produces a context-free unified diff for one file, suitable for display
// or export to tools that consume standard patch format. Modifications are
// rendered in ascending line order regardless of input order; review
// status is ignored so that pending and rejected edits remain visible to
// reviewers.
//
// # Inputs
//
//   - origName: Label for the original file (e.g. "a/chapter1.txt").
//   - newName: Label for the modified file (e.g. "b/chapter1.txt").
//   - mods: The modifications to render.
//
// # Outputs
//
//   - string: Unified diff text. Empty when mods is empty.
//   - error: Non-nil if the diff could not be printed.
func RenderUnified(origName, newName string, mods []*Modification) (string, error) {
	if len(mods) == 0 {
		return "", nil
	}

	ordered := make([]*Modification, len(mods))
	copy(ordered, mods)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LineStart < ordered[j].LineStart
	})

	fd := &godiff.FileDiff{
		OrigName: origName,
		NewName:  newName,
	}

	// delta tracks how far new-file line numbers have drifted from
	// original-file line numbers after the preceding hunks.
	delta := 0
	for _, m := range ordered {
		h, err := renderHunk(m, delta)
		if err != nil {
			return "", err
		}
		fd.Hunks = append(fd.Hunks, h)
		delta += len(m.modifiedLines()) - len(m.originalLines())
	}

	out, err := godiff.PrintFileDiff(fd)
	if err != nil {
		return "", fmt.Errorf("printing unified diff: %w", err)
	}
	return string(out), nil
}

// renderHunk converts one modification into a unified diff hunk.
func renderHunk(m *Modification, delta int) (*godiff.Hunk, error) {
	var body bytes.Buffer
	h := &godiff.Hunk{}

	switch m.Type {
	case TypeAdd:
		added := m.modifiedLines()
		// An insertion anchors on the original line before the splice
		// point, per unified diff convention for zero-length ranges.
		h.OrigStartLine = int32(m.LineStart - 1)
		h.OrigLines = 0
		h.NewStartLine = int32(m.LineStart + delta)
		h.NewLines = int32(len(added))
		writeLines(&body, "+", added)

	case TypeDelete:
		removed := m.originalLines()
		h.OrigStartLine = int32(m.LineStart)
		h.OrigLines = int32(len(removed))
		h.NewStartLine = int32(m.LineStart - 1 + delta)
		h.NewLines = 0
		writeLines(&body, "-", removed)

	case TypeModify:
		removed := m.originalLines()
		added := m.modifiedLines()
		h.OrigStartLine = int32(m.LineStart)
		h.OrigLines = int32(len(removed))
		h.NewStartLine = int32(m.LineStart + delta)
		h.NewLines = int32(len(added))
		writeLines(&body, "-", removed)
		writeLines(&body, "+", added)

	default:
		return nil, fmt.Errorf("unknown modification type %q", m.Type)
	}

	h.Body = body.Bytes()
	return h, nil
}

func writeLines(buf *bytes.Buffer, prefix string, lines []string) {
	for _, line := range lines {
		buf.WriteString(prefix)
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
}
