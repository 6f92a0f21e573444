// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package text_buddy

import "github.com/AleutianAI/AleutianRevise/services/text_buddy/changeset"

// ServiceVersion is the revision service version.
const ServiceVersion = "0.1.0"

// ProposeRequest is the request body for POST /v1/revise/propose.
type ProposeRequest struct {
	// Files are the proposed file contents. At least one is required.
	Files []ProposeFileRequest `json:"files" binding:"required,min=1,dive"`
}

// ProposeFileRequest is one proposed file.
type ProposeFileRequest struct {
	// Path identifies the file, relative to the service's base directory.
	Path string `json:"path" binding:"required"`

	// Content is the full text the proposer wants the file to become.
	// Empty content proposes deleting every line.
	Content string `json:"content"`
}

// ProposeResponse is the response body for POST /v1/revise/propose.
type ProposeResponse struct {
	// ChangeSet is the registered change set, all pending.
	ChangeSet *changeset.ChangeSet `json:"changeset"`
}

// ListResponse is the response body for GET /v1/revise/changesets.
type ListResponse struct {
	// ChangeSets are the open change sets, oldest first.
	ChangeSets []*changeset.ChangeSet `json:"changesets"`
}

// DiffResponse is the response body for GET /v1/revise/changesets/:id/diff.
type DiffResponse struct {
	// FilePath is the file the diff covers.
	FilePath string `json:"file_path"`

	// Diff is the unified diff text.
	Diff string `json:"diff"`
}

// ErrorResponse is the error body for all endpoints.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`

	// Details provides additional error context (optional).
	Details string `json:"details,omitempty"`
}
