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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianRevise/services/text_buddy/diff"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/storage"
)

// StoreOptions configures the change-set store.
type StoreOptions struct {
	// Logger receives diagnostic output. Nil uses slog.Default().
	Logger *slog.Logger
}

// Store manages change sets, their review state, and their backups, and
// mediates every write through the storage capability.
//
// # Description
//
// The store owns two tables keyed by change-set id: the change sets
// themselves and the backup store (filePath -> original content, created
// atomically with the change set and deleted with it). Every mutating
// operation resolves its ids first and fails fast with a NotFoundError
// before any I/O is attempted.
//
// # Thread Safety
//
// All exported methods are serialized by an internal mutex, so in-memory
// state transitions are never interleaved with each other or observed
// half-applied around storage I/O. The engine is still a single-writer
// design: the host must not issue concurrent mutating calls against the
// same change set, and no per-change-set locking is provided beyond the
// global serialization.
type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	sets    map[string]*ChangeSet
	backups map[string]map[string]string
	logger  *slog.Logger
}

// NewStore creates a change-set store writing through the given storage.
//
// # Inputs
//
//   - st: Storage capability. Must not be nil.
//   - opts: Optional configuration (nil uses defaults).
//
// # Outputs
//
//   - *Store: Ready-to-use store.
//
// # Panics
//
//   - Panics if st is nil.
func NewStore(st storage.Storage, opts *StoreOptions) *Store {
	if st == nil {
		panic("changeset: storage must not be nil")
	}

	logger := slog.Default()
	if opts != nil && opts.Logger != nil {
		logger = opts.Logger
	}

	return &Store{
		storage: st,
		sets:    make(map[string]*ChangeSet),
		backups: make(map[string]map[string]string),
		logger:  logger.With("component", "changeset"),
	}
}

// =============================================================================
// Creation and Teardown
// =============================================================================

// CreateChangeSet registers a new reviewable batch.
//
// # Description
//
// Every incoming modification and file is forced to pending regardless of
// caller-supplied status; review decisions only ever happen through this
// store. The files' OriginalContent snapshots are copied into the backup
// store before the change set becomes visible.
//
// # Inputs
//
//   - files: Per-file modification groups. Must contain at least one file.
//
// # Outputs
//
//   - *ChangeSet: The registered change set with a fresh unique id.
//   - error: ErrNoModifications when files is empty.
func (s *Store) CreateChangeSet(files []*FileModification) (*ChangeSet, error) {
	if len(files) == 0 {
		return nil, ErrNoModifications
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cs := &ChangeSet{
		ID:        newChangeSetID(),
		Timestamp: time.Now(),
		Files:     files,
	}

	// Defensive normalization: callers may hand over records that were
	// round-tripped through a UI with stale statuses.
	backup := make(map[string]string, len(files))
	for _, f := range files {
		if f.Modifications == nil {
			f.Modifications = []*diff.Modification{}
		}
		for _, m := range f.Modifications {
			m.Status = diff.StatusPending
		}
		f.Status = ReviewPending
		backup[f.FilePath] = f.OriginalContent
	}
	cs.Status = ReviewPending

	s.sets[cs.ID] = cs
	s.backups[cs.ID] = backup

	s.logger.Info("change set created",
		"changeset_id", cs.ID,
		"files", len(cs.Files),
		"modifications", countModifications(cs))
	return cs, nil
}

// Get returns the change set with the given id.
//
// The returned record is shared with the store; treat it as read-only and
// mutate review state only through Store operations.
func (s *Store) Get(changeSetID string) (*ChangeSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.sets[changeSetID]
	if !ok {
		return nil, &NotFoundError{Kind: "changeset", ID: changeSetID}
	}
	return cs, nil
}

// List returns all registered change sets, oldest first.
func (s *Store) List() []*ChangeSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*ChangeSet, 0, len(s.sets))
	for _, cs := range s.sets {
		out = append(out, cs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Delete removes a change set and its backups.
//
// Modifications are never deleted individually; this is the only way a
// modification record leaves the store.
func (s *Store) Delete(changeSetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sets[changeSetID]; !ok {
		return &NotFoundError{Kind: "changeset", ID: changeSetID}
	}
	delete(s.sets, changeSetID)
	delete(s.backups, changeSetID)

	s.logger.Info("change set deleted", "changeset_id", changeSetID)
	return nil
}

// =============================================================================
// Single-Modification Review
// =============================================================================

// AcceptModification accepts one modification and applies it to storage.
//
// # Description
//
// Reads the file's current storage content (not the snapshot), splices in
// only this modification, writes the result back, and then flips the
// modification to accepted. The status flip happens strictly after the
// successful write, so a write failure leaves the modification pending
// and in-memory state consistent with storage.
//
// # Inputs
//
//   - ctx: Context for the storage calls.
//   - changeSetID: The owning change set.
//   - modificationID: The modification to accept.
//
// # Outputs
//
//   - error: NotFoundError for unknown ids, InvalidStateError when the
//     modification is not pending, StorageError on I/O failure.
func (s *Store) AcceptModification(ctx context.Context, changeSetID, modificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, file, mod, err := s.resolve(changeSetID, modificationID)
	if err != nil {
		return err
	}
	if mod.Status != diff.StatusPending {
		return &InvalidStateError{
			Operation:      "accept",
			ModificationID: modificationID,
			Status:         mod.Status.String(),
		}
	}

	current, err := s.readCurrent(ctx, file)
	if err != nil {
		return err
	}

	updated := diff.Splice(current, mod)
	if err := s.storage.WriteText(ctx, file.FilePath, updated); err != nil {
		return &StorageError{Op: "write", Path: file.FilePath, Err: err}
	}

	mod.Status = diff.StatusAccepted
	recompute(cs)

	s.logger.Debug("modification accepted",
		"changeset_id", changeSetID,
		"modification_id", modificationID,
		"file", file.FilePath)
	return nil
}

// RejectModification rejects one modification. No storage access happens;
// rejected modifications have never touched storage.
func (s *Store) RejectModification(changeSetID, modificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, _, mod, err := s.resolve(changeSetID, modificationID)
	if err != nil {
		return err
	}
	if mod.Status != diff.StatusPending {
		return &InvalidStateError{
			Operation:      "reject",
			ModificationID: modificationID,
			Status:         mod.Status.String(),
		}
	}

	mod.Status = diff.StatusRejected
	recompute(cs)
	return nil
}

// UndoModification reverts an accepted modification.
//
// # Description
//
// Restores the entire file from the change-set backup and resets only
// this modification to pending. The undo is deliberately coarse-grained:
// sibling modifications accepted against the same file keep their
// accepted status even though the restore reverted their content too
// (the simplest rollback that is always correct against the snapshot).
//
// # Outputs
//
//   - error: NotFoundError for unknown ids or a missing backup,
//     InvalidStateError when the modification is not accepted,
//     StorageError when the restoring write fails.
func (s *Store) UndoModification(ctx context.Context, changeSetID, modificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, file, mod, err := s.resolve(changeSetID, modificationID)
	if err != nil {
		return err
	}
	if mod.Status != diff.StatusAccepted {
		return &InvalidStateError{
			Operation:      "undo",
			ModificationID: modificationID,
			Status:         mod.Status.String(),
		}
	}

	backup, ok := s.backups[changeSetID][file.FilePath]
	if !ok {
		return &NotFoundError{Kind: "backup", ID: changeSetID + ":" + file.FilePath}
	}

	if err := s.storage.WriteText(ctx, file.FilePath, backup); err != nil {
		return &StorageError{Op: "write", Path: file.FilePath, Err: err}
	}

	mod.Status = diff.StatusPending
	recompute(cs)

	s.logger.Debug("modification undone",
		"changeset_id", changeSetID,
		"modification_id", modificationID,
		"file", file.FilePath)
	return nil
}

// =============================================================================
// Batch Review
// =============================================================================

// AcceptAll accepts every pending modification and applies all accepted
// edits file by file.
//
// # Description
//
// Each file's content is recomputed from its original snapshot by
// applying all currently-accepted modifications in descending line order,
// then written in one shot (not incrementally). The call is atomic at
// change-set granularity: on any write failure, every file this call has
// already written is restored from its change-set backup, the status
// promotions made by this call are reverted, and the returned
// AcceptAllError names both the underlying cause and whether rollback
// completed. Files whose modifications are all rejected are left
// untouched in storage.
//
// # Outputs
//
//   - error: NotFoundError for an unknown change set, or AcceptAllError
//     wrapping the write failure.
func (s *Store) AcceptAll(ctx context.Context, changeSetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.sets[changeSetID]
	if !ok {
		return &NotFoundError{Kind: "changeset", ID: changeSetID}
	}

	var promoted []*diff.Modification
	for _, f := range cs.Files {
		for _, m := range f.Modifications {
			if m.Status == diff.StatusPending {
				m.Status = diff.StatusAccepted
				promoted = append(promoted, m)
			}
		}
	}

	var written []string
	for _, f := range cs.Files {
		if !anyAccepted(f.Modifications) {
			continue
		}

		content := diff.ApplyModifications(f.OriginalContent, f.Modifications)
		if err := s.storage.WriteText(ctx, f.FilePath, content); err != nil {
			rollbackErrs := s.rollback(ctx, changeSetID, written)
			for _, m := range promoted {
				m.Status = diff.StatusPending
			}
			recompute(cs)

			s.logger.Error("accept all failed",
				"changeset_id", changeSetID,
				"failed_path", f.FilePath,
				"rolled_back", len(written),
				"rollback_errors", len(rollbackErrs),
				"error", err.Error())
			return &AcceptAllError{
				ChangeSetID:  changeSetID,
				FailedPath:   f.FilePath,
				RolledBack:   true,
				RollbackErrs: rollbackErrs,
				Err:          err,
			}
		}
		written = append(written, f.FilePath)
	}

	recompute(cs)

	s.logger.Info("change set accepted",
		"changeset_id", changeSetID,
		"files_written", len(written),
		"promoted", len(promoted))
	return nil
}

// RejectAll rejects every pending modification. Symmetric with AcceptAll
// but touches no storage.
func (s *Store) RejectAll(changeSetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.sets[changeSetID]
	if !ok {
		return &NotFoundError{Kind: "changeset", ID: changeSetID}
	}

	for _, f := range cs.Files {
		for _, m := range f.Modifications {
			if m.Status == diff.StatusPending {
				m.Status = diff.StatusRejected
			}
		}
	}
	recompute(cs)

	s.logger.Info("change set rejected", "changeset_id", changeSetID)
	return nil
}

// rollback restores the given paths from a change set's backups and
// returns any restore failures. Best-effort: it keeps going after
// individual failures so every restorable file is restored.
func (s *Store) rollback(ctx context.Context, changeSetID string, paths []string) []error {
	backup := s.backups[changeSetID]

	var errs []error
	for _, path := range paths {
		content, ok := backup[path]
		if !ok {
			errs = append(errs, fmt.Errorf("no backup for %s", path))
			continue
		}
		if err := s.storage.WriteText(ctx, path, content); err != nil {
			errs = append(errs, fmt.Errorf("restoring %s: %w", path, err))
		}
	}
	return errs
}

// =============================================================================
// Projections
// =============================================================================

// Status returns a counts projection for the change set.
func (s *Store) Status(changeSetID string) (ChangeSetStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.sets[changeSetID]
	if !ok {
		return ChangeSetStatus{}, &NotFoundError{Kind: "changeset", ID: changeSetID}
	}

	status := ChangeSetStatus{
		ChangeSetID: cs.ID,
		Status:      cs.Status,
		Files:       len(cs.Files),
	}
	for _, f := range cs.Files {
		for _, m := range f.Modifications {
			status.Total++
			switch m.Status {
			case diff.StatusAccepted:
				status.Accepted++
			case diff.StatusRejected:
				status.Rejected++
			default:
				status.Pending++
			}
		}
	}
	return status, nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

// resolve looks up the change set, owning file, and modification, failing
// fast before any I/O. Callers must hold the mutex.
func (s *Store) resolve(changeSetID, modificationID string) (*ChangeSet, *FileModification, *diff.Modification, error) {
	cs, ok := s.sets[changeSetID]
	if !ok {
		return nil, nil, nil, &NotFoundError{Kind: "changeset", ID: changeSetID}
	}
	file, mod := cs.FindFile(modificationID)
	if mod == nil {
		return nil, nil, nil, &NotFoundError{Kind: "modification", ID: modificationID}
	}
	return cs, file, mod, nil
}

// readCurrent reads a file's current storage content. A file that does
// not exist yet reads as empty, matching proposals that create files.
func (s *Store) readCurrent(ctx context.Context, file *FileModification) (string, error) {
	current, err := s.storage.ReadText(ctx, file.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return "", nil
		}
		return "", &StorageError{Op: "read", Path: file.FilePath, Err: err}
	}
	return current, nil
}

func anyAccepted(mods []*diff.Modification) bool {
	for _, m := range mods {
		if m.Status == diff.StatusAccepted {
			return true
		}
	}
	return false
}

func countModifications(cs *ChangeSet) int {
	n := 0
	for _, f := range cs.Files {
		n += len(f.Modifications)
	}
	return n
}

// newChangeSetID builds a unique, roughly chronological id: millisecond
// timestamp plus a random suffix.
func newChangeSetID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("cs-%d-%s", time.Now().UnixMilli(), suffix)
}
