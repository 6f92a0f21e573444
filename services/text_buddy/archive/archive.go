// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package archive persists review outcomes in embedded BadgerDB storage.
//
// Change sets themselves live in memory for the lifetime of a review;
// the archive keeps a durable record of how each review ended so hosts
// can audit past sessions after the change set is deleted.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
// This package follows Apache 2.0 guidelines for attribution and usage.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// keyPrefix namespaces archive records within the database.
const keyPrefix = "review/"

// ErrNotFound is returned when no record exists for a change-set id.
var ErrNotFound = errors.New("archive: record not found")

// Record is the durable summary of one reviewed change set.
type Record struct {
	// ChangeSetID identifies the archived change set.
	ChangeSetID string `json:"changeset_id"`

	// CreatedAt is when the change set was created.
	CreatedAt time.Time `json:"created_at"`

	// ArchivedAt is when the record was written.
	ArchivedAt time.Time `json:"archived_at"`

	// Status is the final aggregate review status.
	Status string `json:"status"`

	// Files lists the paths the change set touched.
	Files []string `json:"files"`

	// Accepted, Rejected, and Pending count modifications by their final
	// review status.
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
}

// Config holds configuration for the archive database.
type Config struct {
	// Path is the directory for database files. Ignored when InMemory is
	// true.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Useful for
	// testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *slog.Logger
}

// DefaultConfig returns production defaults for a persistent archive.
func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		SyncWrites: true,
	}
}

// InMemoryConfig returns configuration optimized for testing.
func InMemoryConfig() Config {
	return Config{
		InMemory:   true,
		SyncWrites: false,
	}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Archive is a BadgerDB-backed store of review outcome records.
//
// # Thread Safety
//
// Archive is safe for concurrent use; BadgerDB transactions provide
// isolation.
type Archive struct {
	db *badger.DB
}

// Open creates and opens an archive with the given configuration.
//
// # Inputs
//
//   - cfg: Database configuration. Path is required unless InMemory is
//     true.
//
// # Outputs
//
//   - *Archive: The opened archive. Caller must call Close() when done.
//   - error: Non-nil if the path is invalid or the database cannot be
//     opened.
func Open(cfg Config) (*Archive, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent archive")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create archive directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close releases the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save writes or replaces the record for a change set.
func (a *Archive) Save(record *Record) error {
	if record.ChangeSetID == "" {
		return errors.New("record has no changeset id")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal archive record: %w", err)
	}

	err = a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+record.ChangeSetID), payload)
	})
	if err != nil {
		return fmt.Errorf("write archive record %s: %w", record.ChangeSetID, err)
	}
	return nil
}

// Get returns the record for a change set, or ErrNotFound.
func (a *Archive) Get(changeSetID string) (*Record, error) {
	var record Record

	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + changeSetID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, changeSetID)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns up to limit records, newest ArchivedAt first. A limit of
// zero or below returns everything.
func (a *Archive) List(limit int) ([]*Record, error) {
	var records []*Record

	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var record Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			records = append(records, &record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list archive records: %w", err)
	}

	// Badger iterates in key order; the caller wants recency order.
	sort.Slice(records, func(i, j int) bool {
		return records[i].ArchivedAt.After(records[j].ArchivedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
