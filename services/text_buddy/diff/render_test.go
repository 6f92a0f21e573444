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
	"testing"
)

func TestRenderUnified_Empty(t *testing.T) {
	out, err := RenderUnified("a/x.txt", "b/x.txt", nil)
	if err != nil {
		t.Fatalf("RenderUnified() error = %v", err)
	}
	if out != "" {
		t.Errorf("RenderUnified() = %q, want empty", out)
	}
}

func TestRenderUnified_Modify(t *testing.T) {
	mods := ToModifications(Compute("line 1\nline 2\nline 3", "line 1\nchanged\nline 3"))

	out, err := RenderUnified("a/x.txt", "b/x.txt", mods)
	if err != nil {
		t.Fatalf("RenderUnified() error = %v", err)
	}

	if !strings.Contains(out, "--- a/x.txt") {
		t.Errorf("missing original header in:\n%s", out)
	}
	if !strings.Contains(out, "+++ b/x.txt") {
		t.Errorf("missing modified header in:\n%s", out)
	}
	if !strings.Contains(out, "-line 2") {
		t.Errorf("missing removed line in:\n%s", out)
	}
	if !strings.Contains(out, "+changed") {
		t.Errorf("missing added line in:\n%s", out)
	}
	if !strings.Contains(out, "@@ -2,1 +2,1 @@") {
		t.Errorf("unexpected hunk header in:\n%s", out)
	}
}

func TestRenderUnified_OrdersByLine(t *testing.T) {
	mods := []*Modification{
		{
			ID: "late", Type: TypeModify, LineStart: 5, LineEnd: 5,
			OriginalText: "five", ModifiedText: "FIVE",
		},
		{
			ID: "early", Type: TypeModify, LineStart: 1, LineEnd: 1,
			OriginalText: "one", ModifiedText: "ONE",
		},
	}

	out, err := RenderUnified("a/x.txt", "b/x.txt", mods)
	if err != nil {
		t.Fatalf("RenderUnified() error = %v", err)
	}

	first := strings.Index(out, "-one")
	second := strings.Index(out, "-five")
	if first == -1 || second == -1 {
		t.Fatalf("missing hunks in:\n%s", out)
	}
	if first > second {
		t.Errorf("hunks out of order in:\n%s", out)
	}
}

func TestRenderUnified_TracksLineDrift(t *testing.T) {
	// An insertion shifts the new-file line numbers of later hunks.
	mods := []*Modification{
		{
			ID: "add", Type: TypeAdd, LineStart: 2, LineEnd: 3,
			ModifiedText: "x\ny",
		},
		{
			ID: "mod", Type: TypeModify, LineStart: 4, LineEnd: 4,
			OriginalText: "four", ModifiedText: "FOUR",
		},
	}

	out, err := RenderUnified("a/x.txt", "b/x.txt", mods)
	if err != nil {
		t.Fatalf("RenderUnified() error = %v", err)
	}

	if !strings.Contains(out, "@@ -1,0 +2,2 @@") {
		t.Errorf("unexpected insertion hunk header in:\n%s", out)
	}
	if !strings.Contains(out, "@@ -4,1 +6,1 @@") {
		t.Errorf("later hunk did not shift by insertion length in:\n%s", out)
	}
}

func TestRenderUnified_IncludesRejected(t *testing.T) {
	mods := []*Modification{
		{
			ID: "r", Type: TypeDelete, LineStart: 2, LineEnd: 2,
			OriginalText: "beta", Status: StatusRejected,
		},
	}

	out, err := RenderUnified("a/x.txt", "b/x.txt", mods)
	if err != nil {
		t.Fatalf("RenderUnified() error = %v", err)
	}
	if !strings.Contains(out, "-beta") {
		t.Errorf("rejected modification not rendered in:\n%s", out)
	}
}
