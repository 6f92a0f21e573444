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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianRevise/services/text_buddy/changeset"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/events"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/storage"
)

func setupTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(svc))
	return router
}

func newHandlerFixture() (*gin.Engine, *Service, *storage.Memory) {
	mem := storage.NewMemory()
	svc := NewService(mem, events.NewEmitter(), nil, nil, nil, DefaultServiceConfig())
	return setupTestRouter(svc), svc, mem
}

func doJSON(router *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, url, nil)
	} else {
		req, _ = http.NewRequest(method, url, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// =============================================================================
// PROPOSAL TESTS
// =============================================================================

func TestHandlers_HandlePropose(t *testing.T) {
	router, _, mem := newHandlerFixture()
	mem.Seed("doc.txt", "line 1\nline 2\nline 3")

	body := `{"files": [{"path": "doc.txt", "content": "line 1\nmodified line 2\nline 3"}]}`
	w := doJSON(router, "POST", "/v1/revise/propose", body)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp ProposeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.ChangeSet == nil || resp.ChangeSet.ID == "" {
		t.Fatal("response missing change set")
	}
	if len(resp.ChangeSet.Files) != 1 {
		t.Errorf("expected 1 file, got %d", len(resp.ChangeSet.Files))
	}
	if resp.ChangeSet.Status != changeset.ReviewPending {
		t.Errorf("expected pending status, got %q", resp.ChangeSet.Status)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestHandlers_HandlePropose_InvalidRequest(t *testing.T) {
	router, _, _ := newHandlerFixture()

	// Missing required files
	w := doJSON(router, "POST", "/v1/revise/propose", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Code != "INVALID_REQUEST" {
		t.Errorf("expected code INVALID_REQUEST, got %q", resp.Code)
	}
}

func TestHandlers_HandlePropose_NoChanges(t *testing.T) {
	router, _, mem := newHandlerFixture()
	mem.Seed("doc.txt", "same")

	body := `{"files": [{"path": "doc.txt", "content": "same"}]}`
	w := doJSON(router, "POST", "/v1/revise/propose", body)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Code != "NO_CHANGES" {
		t.Errorf("expected code NO_CHANGES, got %q", resp.Code)
	}
}

// =============================================================================
// CHANGE SET LIFECYCLE TESTS
// =============================================================================

// proposeFixture registers one change set directly through the service
// and returns it.
func proposeFixture(t *testing.T, svc *Service, mem *storage.Memory) *changeset.ChangeSet {
	t.Helper()
	mem.Seed("doc.txt", "line 1\nline 2\nline 3")
	cs, err := svc.Propose(context.Background(), []ProposedFile{
		{Path: "doc.txt", ProposedContent: "line 1\nmodified line 2\nline 3"},
	})
	if err != nil {
		t.Fatalf("propose fixture failed: %v", err)
	}
	return cs
}

func TestHandlers_HandleGet(t *testing.T) {
	router, svc, mem := newHandlerFixture()
	cs := proposeFixture(t, svc, mem)

	w := doJSON(router, "GET", "/v1/revise/changesets/"+cs.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var got changeset.ChangeSet
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if got.ID != cs.ID {
		t.Errorf("expected id %q, got %q", cs.ID, got.ID)
	}
}

func TestHandlers_HandleGet_NotFound(t *testing.T) {
	router, _, _ := newHandlerFixture()

	w := doJSON(router, "GET", "/v1/revise/changesets/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Code != "NOT_FOUND" {
		t.Errorf("expected code NOT_FOUND, got %q", resp.Code)
	}
}

func TestHandlers_HandleList(t *testing.T) {
	router, svc, mem := newHandlerFixture()
	proposeFixture(t, svc, mem)

	w := doJSON(router, "GET", "/v1/revise/changesets", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp ListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.ChangeSets) != 1 {
		t.Errorf("expected 1 change set, got %d", len(resp.ChangeSets))
	}
}

func TestHandlers_HandleStatus(t *testing.T) {
	router, svc, mem := newHandlerFixture()
	cs := proposeFixture(t, svc, mem)

	w := doJSON(router, "GET", "/v1/revise/changesets/"+cs.ID+"/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var status changeset.ChangeSetStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if status.Total != 1 || status.Pending != 1 {
		t.Errorf("expected 1 pending of 1, got %+v", status)
	}
}

func TestHandlers_HandleDiff(t *testing.T) {
	router, svc, mem := newHandlerFixture()
	cs := proposeFixture(t, svc, mem)

	w := doJSON(router, "GET", "/v1/revise/changesets/"+cs.ID+"/diff?file=doc.txt", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp DiffResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.FilePath != "doc.txt" || resp.Diff == "" {
		t.Errorf("unexpected diff response: %+v", resp)
	}
}

func TestHandlers_HandleDiff_MissingFileParam(t *testing.T) {
	router, svc, mem := newHandlerFixture()
	cs := proposeFixture(t, svc, mem)

	w := doJSON(router, "GET", "/v1/revise/changesets/"+cs.ID+"/diff", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Code != "MISSING_FILE" {
		t.Errorf("expected code MISSING_FILE, got %q", resp.Code)
	}
}

// =============================================================================
// REVIEW TESTS
// =============================================================================

func TestHandlers_AcceptModification(t *testing.T) {
	router, svc, mem := newHandlerFixture()
	cs := proposeFixture(t, svc, mem)
	modID := cs.Files[0].Modifications[0].ID

	url := fmt.Sprintf("/v1/revise/changesets/%s/modifications/%s/accept", cs.ID, modID)
	w := doJSON(router, "POST", url, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var status changeset.ChangeSetStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if status.Accepted != 1 {
		t.Errorf("expected 1 accepted, got %+v", status)
	}
	if content, _ := mem.Content("doc.txt"); content != "line 1\nmodified line 2\nline 3" {
		t.Errorf("storage not updated: %q", content)
	}

	// Accepting again conflicts.
	w = doJSON(router, "POST", url, "")
	if w.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Code != "INVALID_STATE" {
		t.Errorf("expected code INVALID_STATE, got %q", resp.Code)
	}
}

func TestHandlers_RejectModification(t *testing.T) {
	router, svc, mem := newHandlerFixture()
	cs := proposeFixture(t, svc, mem)
	modID := cs.Files[0].Modifications[0].ID

	url := fmt.Sprintf("/v1/revise/changesets/%s/modifications/%s/reject", cs.ID, modID)
	w := doJSON(router, "POST", url, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var status changeset.ChangeSetStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if status.Rejected != 1 {
		t.Errorf("expected 1 rejected, got %+v", status)
	}
}

func TestHandlers_UndoModification(t *testing.T) {
	router, svc, mem := newHandlerFixture()
	cs := proposeFixture(t, svc, mem)
	modID := cs.Files[0].Modifications[0].ID

	// Undo before accept conflicts.
	undoURL := fmt.Sprintf("/v1/revise/changesets/%s/modifications/%s/undo", cs.ID, modID)
	w := doJSON(router, "POST", undoURL, "")
	if w.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
	}

	acceptURL := fmt.Sprintf("/v1/revise/changesets/%s/modifications/%s/accept", cs.ID, modID)
	if w := doJSON(router, "POST", acceptURL, ""); w.Code != http.StatusOK {
		t.Fatalf("accept failed: %d", w.Code)
	}

	w = doJSON(router, "POST", undoURL, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if content, _ := mem.Content("doc.txt"); content != "line 1\nline 2\nline 3" {
		t.Errorf("storage not restored: %q", content)
	}
}

func TestHandlers_UnknownModification(t *testing.T) {
	router, svc, mem := newHandlerFixture()
	cs := proposeFixture(t, svc, mem)

	url := fmt.Sprintf("/v1/revise/changesets/%s/modifications/nope/accept", cs.ID)
	w := doJSON(router, "POST", url, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestHandlers_AcceptAll(t *testing.T) {
	router, svc, mem := newHandlerFixture()
	cs := proposeFixture(t, svc, mem)

	w := doJSON(router, "POST", "/v1/revise/changesets/"+cs.ID+"/accept", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var status changeset.ChangeSetStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if status.Status != changeset.ReviewAccepted {
		t.Errorf("expected accepted, got %q", status.Status)
	}
	if content, _ := mem.Content("doc.txt"); content != "line 1\nmodified line 2\nline 3" {
		t.Errorf("storage not updated: %q", content)
	}
}

func TestHandlers_AcceptAll_WriteFailure(t *testing.T) {
	router, svc, mem := newHandlerFixture()
	cs := proposeFixture(t, svc, mem)
	mem.FailWritesTo("doc.txt", fmt.Errorf("disk full"))

	w := doJSON(router, "POST", "/v1/revise/changesets/"+cs.ID+"/accept", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Code != "ACCEPT_ALL_FAILED" {
		t.Errorf("expected code ACCEPT_ALL_FAILED, got %q", resp.Code)
	}
	if resp.Details != "doc.txt" {
		t.Errorf("expected details doc.txt, got %q", resp.Details)
	}
}

func TestHandlers_RejectAll(t *testing.T) {
	router, svc, mem := newHandlerFixture()
	cs := proposeFixture(t, svc, mem)

	w := doJSON(router, "POST", "/v1/revise/changesets/"+cs.ID+"/reject", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var status changeset.ChangeSetStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if status.Status != changeset.ReviewRejected {
		t.Errorf("expected rejected, got %q", status.Status)
	}
}

func TestHandlers_HandleDelete(t *testing.T) {
	router, svc, mem := newHandlerFixture()
	cs := proposeFixture(t, svc, mem)

	w := doJSON(router, "DELETE", "/v1/revise/changesets/"+cs.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, w.Code)
	}

	w = doJSON(router, "GET", "/v1/revise/changesets/"+cs.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d after delete, got %d", http.StatusNotFound, w.Code)
	}
}

// =============================================================================
// HEALTH TESTS
// =============================================================================

func TestHandlers_HandleHealth(t *testing.T) {
	router, _, _ := newHandlerFixture()

	w := doJSON(router, "GET", "/v1/revise/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", resp["status"])
	}
}

func TestHandlers_HandleReady(t *testing.T) {
	router, _, _ := newHandlerFixture()

	w := doJSON(router, "GET", "/v1/revise/ready", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}
