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

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianRevise/services/text_buddy/changeset"
)

// Handlers contains the HTTP handlers for the revision service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandlePropose handles POST /v1/revise/propose.
//
// Description:
//
//	Diffs each proposed file against its current content and registers
//	the resulting change set for review.
//
// Request Body:
//
//	ProposeRequest
//
// Response:
//
//	200 OK: ProposeResponse
//	400 Bad Request: Validation error or no changes
//	500 Internal Server Error: Storage error
func (h *Handlers) HandlePropose(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandlePropose")

	var req ProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	files := make([]ProposedFile, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, ProposedFile{
			Path:            f.Path,
			ProposedContent: f.Content,
		})
	}

	logger.Info("Proposing change set", "files", len(files))

	cs, err := h.svc.Propose(c.Request.Context(), files)
	if err != nil {
		if errors.Is(err, ErrNoChanges) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: err.Error(),
				Code:  "NO_CHANGES",
			})
			return
		}

		logger.Error("Propose failed", "error", err)
		h.writeError(c, err, "PROPOSE_FAILED")
		return
	}

	logger.Info("Change set created",
		"changeset_id", cs.ID,
		"files", len(cs.Files))

	c.JSON(http.StatusOK, ProposeResponse{ChangeSet: cs})
}

// HandleList handles GET /v1/revise/changesets.
func (h *Handlers) HandleList(c *gin.Context) {
	c.JSON(http.StatusOK, ListResponse{ChangeSets: h.svc.List()})
}

// HandleGet handles GET /v1/revise/changesets/:id.
//
// Response:
//
//	200 OK: changeset.ChangeSet
//	404 Not Found: Unknown change set
func (h *Handlers) HandleGet(c *gin.Context) {
	cs, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err, "GET_FAILED")
		return
	}
	c.JSON(http.StatusOK, cs)
}

// HandleStatus handles GET /v1/revise/changesets/:id/status.
//
// Response:
//
//	200 OK: changeset.ChangeSetStatus
//	404 Not Found: Unknown change set
func (h *Handlers) HandleStatus(c *gin.Context) {
	status, err := h.svc.Status(c.Param("id"))
	if err != nil {
		h.writeError(c, err, "STATUS_FAILED")
		return
	}
	c.JSON(http.StatusOK, status)
}

// HandleDiff handles GET /v1/revise/changesets/:id/diff.
//
// Query Parameters:
//
//	file: Path of the file to render (required)
//
// Response:
//
//	200 OK: DiffResponse
//	400 Bad Request: Missing file parameter
//	404 Not Found: Unknown change set or file
func (h *Handlers) HandleDiff(c *gin.Context) {
	filePath := c.Query("file")
	if filePath == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "file query parameter is required",
			Code:  "MISSING_FILE",
		})
		return
	}

	rendered, err := h.svc.UnifiedDiff(c.Param("id"), filePath)
	if err != nil {
		h.writeError(c, err, "DIFF_FAILED")
		return
	}
	c.JSON(http.StatusOK, DiffResponse{FilePath: filePath, Diff: rendered})
}

// HandleAcceptModification handles
// POST /v1/revise/changesets/:id/modifications/:mod/accept.
//
// Response:
//
//	200 OK: changeset.ChangeSetStatus
//	404 Not Found: Unknown change set or modification
//	409 Conflict: Modification is not pending
//	500 Internal Server Error: Storage error
func (h *Handlers) HandleAcceptModification(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAcceptModification")

	changeSetID := c.Param("id")
	modificationID := c.Param("mod")

	if err := h.svc.AcceptModification(c.Request.Context(), changeSetID, modificationID); err != nil {
		logger.Warn("Accept failed",
			"changeset_id", changeSetID,
			"modification_id", modificationID,
			"error", err)
		h.writeError(c, err, "ACCEPT_FAILED")
		return
	}

	h.writeStatus(c, changeSetID)
}

// HandleRejectModification handles
// POST /v1/revise/changesets/:id/modifications/:mod/reject.
func (h *Handlers) HandleRejectModification(c *gin.Context) {
	changeSetID := c.Param("id")

	if err := h.svc.RejectModification(changeSetID, c.Param("mod")); err != nil {
		h.writeError(c, err, "REJECT_FAILED")
		return
	}

	h.writeStatus(c, changeSetID)
}

// HandleUndoModification handles
// POST /v1/revise/changesets/:id/modifications/:mod/undo.
//
// Response:
//
//	200 OK: changeset.ChangeSetStatus
//	404 Not Found: Unknown change set, modification, or backup
//	409 Conflict: Modification is not accepted
//	500 Internal Server Error: Storage error
func (h *Handlers) HandleUndoModification(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleUndoModification")

	changeSetID := c.Param("id")
	modificationID := c.Param("mod")

	if err := h.svc.UndoModification(c.Request.Context(), changeSetID, modificationID); err != nil {
		logger.Warn("Undo failed",
			"changeset_id", changeSetID,
			"modification_id", modificationID,
			"error", err)
		h.writeError(c, err, "UNDO_FAILED")
		return
	}

	h.writeStatus(c, changeSetID)
}

// HandleAcceptAll handles POST /v1/revise/changesets/:id/accept.
//
// Description:
//
//	Accepts every pending modification atomically. When a write fails,
//	already-written files are restored from backup and the response
//	reports whether the rollback completed.
//
// Response:
//
//	200 OK: changeset.ChangeSetStatus
//	404 Not Found: Unknown change set
//	500 Internal Server Error: Write failure (rolled back)
func (h *Handlers) HandleAcceptAll(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAcceptAll")

	changeSetID := c.Param("id")

	if err := h.svc.AcceptAll(c.Request.Context(), changeSetID); err != nil {
		var batchErr *changeset.AcceptAllError
		if errors.As(err, &batchErr) {
			logger.Error("Accept all failed",
				"changeset_id", changeSetID,
				"failed_path", batchErr.FailedPath,
				"rolled_back", batchErr.RolledBack,
				"error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   err.Error(),
				Code:    "ACCEPT_ALL_FAILED",
				Details: batchErr.FailedPath,
			})
			return
		}
		h.writeError(c, err, "ACCEPT_ALL_FAILED")
		return
	}

	logger.Info("Change set accepted", "changeset_id", changeSetID)
	h.writeStatus(c, changeSetID)
}

// HandleRejectAll handles POST /v1/revise/changesets/:id/reject.
func (h *Handlers) HandleRejectAll(c *gin.Context) {
	changeSetID := c.Param("id")

	if err := h.svc.RejectAll(changeSetID); err != nil {
		h.writeError(c, err, "REJECT_ALL_FAILED")
		return
	}

	h.writeStatus(c, changeSetID)
}

// HandleDelete handles DELETE /v1/revise/changesets/:id.
//
// Description:
//
//	Archives the change set's outcome and removes it. Backups are
//	deleted with the change set, so undo is no longer possible.
//
// Response:
//
//	204 No Content: Deleted
//	404 Not Found: Unknown change set
func (h *Handlers) HandleDelete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		h.writeError(c, err, "DELETE_FAILED")
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleHealth handles GET /v1/revise/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": ServiceVersion,
	})
}

// HandleReady handles GET /v1/revise/ready.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ready":      true,
		"changesets": len(h.svc.List()),
	})
}

// writeStatus responds with the change set's current status projection.
func (h *Handlers) writeStatus(c *gin.Context, changeSetID string) {
	status, err := h.svc.Status(changeSetID)
	if err != nil {
		h.writeError(c, err, "STATUS_FAILED")
		return
	}
	c.JSON(http.StatusOK, status)
}

// writeError maps engine errors onto HTTP status codes.
func (h *Handlers) writeError(c *gin.Context, err error, fallbackCode string) {
	statusCode := http.StatusInternalServerError
	errCode := fallbackCode

	if errors.Is(err, changeset.ErrNotFound) {
		statusCode = http.StatusNotFound
		errCode = "NOT_FOUND"
	} else if errors.Is(err, changeset.ErrInvalidState) {
		statusCode = http.StatusConflict
		errCode = "INVALID_STATE"
	} else if errors.Is(err, changeset.ErrNoModifications) {
		statusCode = http.StatusBadRequest
		errCode = "NO_MODIFICATIONS"
	}

	c.JSON(statusCode, ErrorResponse{
		Error: err.Error(),
		Code:  errCode,
	})
}

// getOrCreateRequestID returns the request's correlation id, minting one
// when the client did not send X-Request-ID.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
