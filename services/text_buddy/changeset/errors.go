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

import (
	"errors"
	"fmt"
)

// Sentinel errors for the review lifecycle. Typed errors below wrap these
// so callers can branch with errors.Is and still read ids out of the
// message or via errors.As.
var (
	// ErrNotFound is returned when a change set, file, modification, or
	// backup id cannot be resolved.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when an operation is not valid for a
	// modification's current review status.
	ErrInvalidState = errors.New("invalid state")

	// ErrNoModifications is returned by CreateChangeSet when no file
	// carries any modification.
	ErrNoModifications = errors.New("change set has no modifications")
)

// NotFoundError reports a missing entity by kind and id.
type NotFoundError struct {
	// Kind is "changeset", "modification", or "backup".
	Kind string

	// ID is the id that could not be resolved.
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Unwrap lets errors.Is(err, ErrNotFound) succeed.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InvalidStateError reports an operation attempted against a modification
// whose current status does not permit it, such as undoing a pending
// modification.
type InvalidStateError struct {
	// Operation is the attempted operation.
	Operation string

	// ModificationID identifies the modification.
	ModificationID string

	// Status is the modification's current review status.
	Status string
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not allowed: modification %q is %s",
		e.Operation, e.ModificationID, e.Status)
}

// Unwrap lets errors.Is(err, ErrInvalidState) succeed.
func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// StorageError wraps a read or write failure from the storage capability.
type StorageError struct {
	// Op is "read" or "write".
	Op string

	// Path is the file path the operation targeted.
	Path string

	// Err is the underlying storage error.
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// AcceptAllError reports a failed batch accept. When RolledBack is true,
// every file written before the failure was restored from its change-set
// backup, so storage is indistinguishable from its pre-call state.
type AcceptAllError struct {
	// ChangeSetID identifies the change set.
	ChangeSetID string

	// FailedPath is the file whose write failed.
	FailedPath string

	// RolledBack is true when the already-written files were restored.
	RolledBack bool

	// RollbackErrs holds restore failures, if any. A non-empty slice
	// means storage may be left inconsistent and the host must treat
	// the change set as unrecoverable.
	RollbackErrs []error

	// Err is the underlying write failure.
	Err error
}

// Error implements the error interface.
func (e *AcceptAllError) Error() string {
	if len(e.RollbackErrs) > 0 {
		return fmt.Sprintf("accept all on %s failed writing %s (rollback incomplete, %d restore errors): %v",
			e.ChangeSetID, e.FailedPath, len(e.RollbackErrs), e.Err)
	}
	if e.RolledBack {
		return fmt.Sprintf("accept all on %s failed writing %s (all written files rolled back): %v",
			e.ChangeSetID, e.FailedPath, e.Err)
	}
	return fmt.Sprintf("accept all on %s failed writing %s: %v", e.ChangeSetID, e.FailedPath, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AcceptAllError) Unwrap() error {
	return e.Err
}
