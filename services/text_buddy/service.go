// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package text_buddy provides the revision engine HTTP service.
//
// The service lets a proposing client (typically an AI assistant) submit
// edited versions of text files and lets a reviewing client accept,
// reject, or undo the resulting line-level modifications, individually
// or change-set-wide. All file writes flow through the engine so that
// batch accepts are atomic and accepted edits stay undoable.
package text_buddy

import (
	"context"
	"errors"
	"time"

	"log/slog"

	"github.com/AleutianAI/AleutianRevise/services/text_buddy/archive"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/changeset"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/diff"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/events"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/storage"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/telemetry"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/watcher"
)

// ErrNoChanges is returned by Propose when no file differs from its
// current content.
var ErrNoChanges = errors.New("proposal contains no changes")

// ServiceConfig configures the revision service.
type ServiceConfig struct {
	// Logger receives diagnostic output. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{}
}

// Service is the revision engine.
//
// # Description
//
// Wires the diff computer, the change-set store, and the optional
// side-channels: the event emitter for UI notifications, the archive for
// durable review outcomes, the watcher for external-change detection,
// and Prometheus metrics. Archive, watcher, and metrics are optional;
// nil disables each.
//
// # Thread Safety
//
// Service methods are safe for concurrent use, but the engine is a
// single-writer design: mutating calls against the same change set must
// not race (see changeset.Store).
type Service struct {
	store   *changeset.Store
	storage storage.Storage
	emitter *events.Emitter
	archive *archive.Archive
	watcher *watcher.Watcher
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// NewService creates a revision service.
//
// # Inputs
//
//   - st: Storage capability. Must not be nil.
//   - emitter: Event emitter. Must not be nil.
//   - arch: Review-outcome archive (nil disables archiving).
//   - w: External-change watcher (nil disables watching).
//   - metrics: Prometheus metrics (nil disables instrumentation).
//   - cfg: Service configuration.
//
// # Outputs
//
//   - *Service: The configured service.
func NewService(st storage.Storage, emitter *events.Emitter, arch *archive.Archive, w *watcher.Watcher, metrics *telemetry.Metrics, cfg ServiceConfig) *Service {
	logger := slog.Default()
	if cfg.Logger != nil {
		logger = cfg.Logger
	}
	logger = logger.With("component", "text_buddy")

	return &Service{
		store:   changeset.NewStore(st, &changeset.StoreOptions{Logger: logger}),
		storage: st,
		emitter: emitter,
		archive: arch,
		watcher: w,
		metrics: metrics,
		logger:  logger,
	}
}

// ProposedFile is one file in a proposal: its path and the full text the
// proposer wants the file to become.
type ProposedFile struct {
	Path            string
	ProposedContent string
}

// Propose diffs each proposed file against its current content and
// registers the resulting change set for review.
//
// # Description
//
// Files whose proposed content equals their current content contribute
// no modifications and are dropped from the change set. A file that does
// not exist yet diffs against empty content, so creating a file shows up
// as one addition. Watched files are registered with the watcher so
// external edits during review raise file.changed events.
//
// # Inputs
//
//   - ctx: Context for the storage reads.
//   - files: Proposed files. Must not be empty.
//
// # Outputs
//
//   - *changeset.ChangeSet: The registered change set, all pending.
//   - error: ErrNoChanges when nothing differs, or a storage error.
func (s *Service) Propose(ctx context.Context, files []ProposedFile) (*changeset.ChangeSet, error) {
	start := time.Now()
	cs, err := s.propose(ctx, files)
	s.observe("propose", start, err)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ActiveChangeSets.Inc()
	}
	s.emitter.Emit(events.Event{
		Type:        events.TypeChangeSetCreated,
		ChangeSetID: cs.ID,
		Data:        s.statusOf(cs.ID),
	})
	return cs, nil
}

func (s *Service) propose(ctx context.Context, files []ProposedFile) (*changeset.ChangeSet, error) {
	if len(files) == 0 {
		return nil, ErrNoChanges
	}

	var fileMods []*changeset.FileModification
	for _, f := range files {
		current, err := s.storage.ReadText(ctx, f.Path)
		if err != nil && !errors.Is(err, storage.ErrNotExist) {
			return nil, &changeset.StorageError{Op: "read", Path: f.Path, Err: err}
		}

		result := diff.Compute(current, f.ProposedContent)
		mods := diff.ToModifications(result)
		if len(mods) == 0 {
			continue
		}

		fileMods = append(fileMods, &changeset.FileModification{
			FilePath:        f.Path,
			OriginalContent: current,
			Modifications:   mods,
		})
	}
	if len(fileMods) == 0 {
		return nil, ErrNoChanges
	}

	cs, err := s.store.CreateChangeSet(fileMods)
	if err != nil {
		return nil, err
	}

	if s.watcher != nil {
		for _, f := range cs.Files {
			if err := s.watcher.Watch(f.FilePath); err != nil {
				s.logger.Warn("watch failed", "file", f.FilePath, "error", err.Error())
			}
		}
	}
	return cs, nil
}

// Get returns a change set by id.
func (s *Service) Get(changeSetID string) (*changeset.ChangeSet, error) {
	return s.store.Get(changeSetID)
}

// List returns all open change sets, oldest first.
func (s *Service) List() []*changeset.ChangeSet {
	return s.store.List()
}

// Status returns the counts projection for a change set.
func (s *Service) Status(changeSetID string) (changeset.ChangeSetStatus, error) {
	return s.store.Status(changeSetID)
}

// UnifiedDiff renders one file's modifications in unified diff format.
//
// Only non-rejected modifications are rendered; the output shows what
// accepting everything still open would do to the file.
func (s *Service) UnifiedDiff(changeSetID, filePath string) (string, error) {
	cs, err := s.store.Get(changeSetID)
	if err != nil {
		return "", err
	}
	for _, f := range cs.Files {
		if f.FilePath != filePath {
			continue
		}
		var open []*diff.Modification
		for _, m := range f.Modifications {
			if m.Status != diff.StatusRejected {
				open = append(open, m)
			}
		}
		return diff.RenderUnified(filePath, filePath, open)
	}
	return "", &changeset.NotFoundError{Kind: "file", ID: filePath}
}

// AcceptModification accepts one modification and applies it to storage.
func (s *Service) AcceptModification(ctx context.Context, changeSetID, modificationID string) error {
	start := time.Now()
	err := s.withSelfWriteMark(changeSetID, modificationID, func() error {
		return s.store.AcceptModification(ctx, changeSetID, modificationID)
	})
	s.observe("accept", start, err)
	if err != nil {
		return err
	}

	s.emitReview(events.TypeModificationAccepted, changeSetID, modificationID)
	return nil
}

// RejectModification rejects one modification.
func (s *Service) RejectModification(changeSetID, modificationID string) error {
	start := time.Now()
	err := s.store.RejectModification(changeSetID, modificationID)
	s.observe("reject", start, err)
	if err != nil {
		return err
	}

	s.emitReview(events.TypeModificationRejected, changeSetID, modificationID)
	return nil
}

// UndoModification reverts an accepted modification from backup.
func (s *Service) UndoModification(ctx context.Context, changeSetID, modificationID string) error {
	start := time.Now()
	err := s.withSelfWriteMark(changeSetID, modificationID, func() error {
		return s.store.UndoModification(ctx, changeSetID, modificationID)
	})
	s.observe("undo", start, err)
	if err != nil {
		return err
	}

	s.emitReview(events.TypeModificationUndone, changeSetID, modificationID)
	return nil
}

// AcceptAll accepts every pending modification atomically.
func (s *Service) AcceptAll(ctx context.Context, changeSetID string) error {
	start := time.Now()

	if s.watcher != nil {
		if cs, err := s.store.Get(changeSetID); err == nil {
			for _, f := range cs.Files {
				s.watcher.MarkSelfWrite(f.FilePath)
			}
		}
	}

	err := s.store.AcceptAll(ctx, changeSetID)
	s.observe("accept_all", start, err)
	if err != nil {
		var batchErr *changeset.AcceptAllError
		if errors.As(err, &batchErr) && s.metrics != nil {
			s.metrics.RollbacksTotal.Inc()
		}
		return err
	}

	s.emitter.Emit(events.Event{
		Type:        events.TypeChangeSetAccepted,
		ChangeSetID: changeSetID,
		Data:        s.statusOf(changeSetID),
	})
	return nil
}

// RejectAll rejects every pending modification.
func (s *Service) RejectAll(changeSetID string) error {
	start := time.Now()
	err := s.store.RejectAll(changeSetID)
	s.observe("reject_all", start, err)
	if err != nil {
		return err
	}

	s.emitter.Emit(events.Event{
		Type:        events.TypeChangeSetRejected,
		ChangeSetID: changeSetID,
		Data:        s.statusOf(changeSetID),
	})
	return nil
}

// Delete archives a change set's outcome and removes it.
//
// # Description
//
// The outcome record is written before the change set is dropped, so the
// archive always reflects the final review state. Watches taken out at
// proposal time are released. Backups are deleted with the change set;
// undo is no longer possible afterwards.
func (s *Service) Delete(changeSetID string) error {
	start := time.Now()
	err := s.delete(changeSetID)
	s.observe("delete", start, err)
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ActiveChangeSets.Dec()
	}
	s.emitter.Emit(events.Event{
		Type:        events.TypeChangeSetDeleted,
		ChangeSetID: changeSetID,
	})
	return nil
}

func (s *Service) delete(changeSetID string) error {
	cs, err := s.store.Get(changeSetID)
	if err != nil {
		return err
	}

	if s.archive != nil {
		if err := s.archive.Save(s.outcomeRecord(cs)); err != nil {
			// The review is finished either way; losing the audit record
			// is not worth blocking the delete.
			s.logger.Warn("archive save failed",
				"changeset_id", changeSetID, "error", err.Error())
		}
	}
	if s.watcher != nil {
		for _, f := range cs.Files {
			s.watcher.Unwatch(f.FilePath)
		}
	}

	return s.store.Delete(changeSetID)
}

// Events exposes the emitter for transports that stream notifications.
func (s *Service) Events() *events.Emitter {
	return s.emitter
}

// outcomeRecord summarizes a change set for the archive.
func (s *Service) outcomeRecord(cs *changeset.ChangeSet) *archive.Record {
	record := &archive.Record{
		ChangeSetID: cs.ID,
		CreatedAt:   cs.Timestamp,
		ArchivedAt:  time.Now(),
		Status:      cs.Status.String(),
	}
	for _, f := range cs.Files {
		record.Files = append(record.Files, f.FilePath)
		for _, m := range f.Modifications {
			switch m.Status {
			case diff.StatusAccepted:
				record.Accepted++
			case diff.StatusRejected:
				record.Rejected++
			default:
				record.Pending++
			}
		}
	}
	return record
}

// withSelfWriteMark marks the modification's file as engine-written
// before running op, so the watcher does not report the engine's own
// write as an external change.
func (s *Service) withSelfWriteMark(changeSetID, modificationID string, op func() error) error {
	if s.watcher != nil {
		if cs, err := s.store.Get(changeSetID); err == nil {
			if f, _ := cs.FindFile(modificationID); f != nil {
				s.watcher.MarkSelfWrite(f.FilePath)
			}
		}
	}
	return op()
}

func (s *Service) emitReview(eventType events.Type, changeSetID, modificationID string) {
	event := events.Event{
		Type:           eventType,
		ChangeSetID:    changeSetID,
		ModificationID: modificationID,
		Data:           s.statusOf(changeSetID),
	}
	if cs, err := s.store.Get(changeSetID); err == nil {
		if f, _ := cs.FindFile(modificationID); f != nil {
			event.FilePath = f.FilePath
		}
	}
	s.emitter.Emit(event)
}

// statusOf returns the status projection, or nil when the change set is
// already gone.
func (s *Service) statusOf(changeSetID string) any {
	status, err := s.store.Status(changeSetID)
	if err != nil {
		return nil
	}
	return status
}

func (s *Service) observe(operation string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, start, err)
	}
}
