// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package events broadcasts review-lifecycle notifications to in-process
// subscribers, such as the websocket fanout and the audit archive.
package events

import "time"

// Type identifies what happened.
type Type string

const (
	// TypeChangeSetCreated fires when a new change set is registered.
	TypeChangeSetCreated Type = "changeset.created"

	// TypeChangeSetAccepted fires after a successful batch accept.
	TypeChangeSetAccepted Type = "changeset.accepted"

	// TypeChangeSetRejected fires after a batch reject.
	TypeChangeSetRejected Type = "changeset.rejected"

	// TypeChangeSetDeleted fires when a change set is removed.
	TypeChangeSetDeleted Type = "changeset.deleted"

	// TypeModificationAccepted fires after a single accept is applied.
	TypeModificationAccepted Type = "modification.accepted"

	// TypeModificationRejected fires after a single reject.
	TypeModificationRejected Type = "modification.rejected"

	// TypeModificationUndone fires after an accepted modification is
	// reverted.
	TypeModificationUndone Type = "modification.undone"

	// TypeFileChanged fires when a watched file changes outside the
	// engine, meaning pending line numbers may be stale.
	TypeFileChanged Type = "file.changed"
)

// Event is a single broadcast notification.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Type identifies what happened.
	Type Type `json:"type"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"timestamp"`

	// ChangeSetID identifies the affected change set, when applicable.
	ChangeSetID string `json:"changeset_id,omitempty"`

	// ModificationID identifies the affected modification, when
	// applicable.
	ModificationID string `json:"modification_id,omitempty"`

	// FilePath identifies the affected file, when applicable.
	FilePath string `json:"file_path,omitempty"`

	// Data carries event-specific payload, such as a status projection.
	Data any `json:"data,omitempty"`
}
