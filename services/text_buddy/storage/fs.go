// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSOptions configures the filesystem storage.
type FSOptions struct {
	// FileMode is the mode for newly created files (default: 0644).
	FileMode os.FileMode

	// DirMode is the mode for newly created directories (default: 0755).
	DirMode os.FileMode

	// CreateDirs creates parent directories on write if needed.
	CreateDirs bool
}

// DefaultFSOptions returns sensible defaults.
func DefaultFSOptions() FSOptions {
	return FSOptions{
		FileMode:   0644,
		DirMode:    0755,
		CreateDirs: true,
	}
}

// FS is a Storage implementation rooted at a base directory.
//
// # Description
//
// All paths resolve relative to the base directory, and resolved paths
// escaping it are rejected before any I/O happens. This keeps a
// misbehaving edit proposal from touching files outside the documents the
// host handed to the engine.
//
// # Thread Safety
//
// FS is safe for concurrent use. Callers needing read-modify-write
// atomicity must serialize at a higher level; the change-set store does.
type FS struct {
	basePath string
	options  FSOptions
}

// NewFS creates filesystem storage rooted at basePath.
//
// # Inputs
//
//   - basePath: Base directory for relative paths. Must be absolute and
//     must exist.
//   - options: Configuration options.
//
// # Outputs
//
//   - *FS: Ready-to-use storage.
//   - error: Non-nil if basePath is invalid.
func NewFS(basePath string, options FSOptions) (*FS, error) {
	if !filepath.IsAbs(basePath) {
		return nil, fmt.Errorf("basePath must be absolute: %s", basePath)
	}

	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("stat basePath: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("basePath is not a directory: %s", basePath)
	}

	return &FS{basePath: basePath, options: options}, nil
}

// BasePath returns the root directory of this storage.
func (f *FS) BasePath() string {
	return f.basePath
}

// ReadText returns the content of the file at path.
func (f *FS) ReadText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fullPath, err := f.resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// WriteText replaces the content of the file at path.
func (f *FS) WriteText(ctx context.Context, path string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath, err := f.resolve(path)
	if err != nil {
		return err
	}

	if f.options.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(fullPath), f.options.DirMode); err != nil {
			return fmt.Errorf("creating directories for %s: %w", path, err)
		}
	}

	if err := os.WriteFile(fullPath, []byte(content), f.options.FileMode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// resolve joins path against the base directory and rejects escapes.
func (f *FS) resolve(path string) (string, error) {
	fullPath := path
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(f.basePath, fullPath)
	}

	rel, err := filepath.Rel(filepath.Clean(f.basePath), filepath.Clean(fullPath))
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path escapes base directory: %s", path)
	}
	return fullPath, nil
}

var _ Storage = (*FS)(nil)
