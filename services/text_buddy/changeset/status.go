// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package changeset

import "github.com/AleutianAI/AleutianRevise/services/text_buddy/diff"

// Aggregation is recomputed after every mutation and never cached as a
// separate source of truth; the Status fields on FileModification and
// ChangeSet only ever hold the output of these functions.

// AggregateStatuses derives a parent status from child statuses.
//
// All accepted yields accepted, all rejected yields rejected, all pending
// yields pending, any mix yields partial. An empty set is pending.
func AggregateStatuses(children []ReviewStatus) ReviewStatus {
	if len(children) == 0 {
		return ReviewPending
	}

	first := children[0]
	for _, s := range children[1:] {
		if s != first {
			return ReviewPartial
		}
	}
	if first == ReviewPartial {
		return ReviewPartial
	}
	return first
}

// FileStatus derives a file's aggregate status from its modifications.
func FileStatus(f *FileModification) ReviewStatus {
	children := make([]ReviewStatus, 0, len(f.Modifications))
	for _, m := range f.Modifications {
		children = append(children, modificationStatus(m))
	}
	return AggregateStatuses(children)
}

// ChangeSetStatusOf derives a change set's aggregate status from its
// files' statuses.
func ChangeSetStatusOf(cs *ChangeSet) ReviewStatus {
	children := make([]ReviewStatus, 0, len(cs.Files))
	for _, f := range cs.Files {
		children = append(children, f.Status)
	}
	return AggregateStatuses(children)
}

// recompute refreshes the aggregate status of the file owning a mutation
// and then of the whole change set, in that order.
func recompute(cs *ChangeSet) {
	for _, f := range cs.Files {
		f.Status = FileStatus(f)
	}
	cs.Status = ChangeSetStatusOf(cs)
}

// modificationStatus maps a modification's three-valued review status
// onto the four-valued aggregate domain.
func modificationStatus(m *diff.Modification) ReviewStatus {
	switch m.Status {
	case diff.StatusAccepted:
		return ReviewAccepted
	case diff.StatusRejected:
		return ReviewRejected
	default:
		return ReviewPending
	}
}
