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
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianRevise/services/text_buddy/events"
	"github.com/AleutianAI/AleutianRevise/services/text_buddy/storage"
)

// dialEvents starts the service's HTTP server and opens a websocket to
// the event stream.
func dialEvents(t *testing.T, svc *Service, query string) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(setupTestRouter(svc))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/revise/events" + query
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func TestHandleEvents_StreamsLifecycle(t *testing.T) {
	mem := storage.NewMemory()
	mem.Seed("doc.txt", "a\nb")
	svc := NewService(mem, events.NewEmitter(), nil, nil, nil, DefaultServiceConfig())

	ws := dialEvents(t, svc, "")

	// The handshake returns before the handler subscribes; give it a beat.
	time.Sleep(50 * time.Millisecond)

	cs, err := svc.Propose(context.Background(), []ProposedFile{
		{Path: "doc.txt", ProposedContent: "a\nB"},
	})
	require.NoError(t, err)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event events.Event
	require.NoError(t, ws.ReadJSON(&event))
	require.Equal(t, events.TypeChangeSetCreated, event.Type)
	require.Equal(t, cs.ID, event.ChangeSetID)
	require.NotEmpty(t, event.ID)

	require.NoError(t, svc.AcceptAll(context.Background(), cs.ID))

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, ws.ReadJSON(&event))
	require.Equal(t, events.TypeChangeSetAccepted, event.Type)
	require.Equal(t, cs.ID, event.ChangeSetID)
}

func TestHandleEvents_ReplaysSince(t *testing.T) {
	mem := storage.NewMemory()
	mem.Seed("doc.txt", "a")
	svc := NewService(mem, events.NewEmitter(), nil, nil, nil, DefaultServiceConfig())

	// Emit before any client is connected; the buffer carries it.
	cs, err := svc.Propose(context.Background(), []ProposedFile{
		{Path: "doc.txt", ProposedContent: "b"},
	})
	require.NoError(t, err)

	since := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	ws := dialEvents(t, svc, "?since="+since)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event events.Event
	require.NoError(t, ws.ReadJSON(&event))
	require.Equal(t, events.TypeChangeSetCreated, event.Type)
	require.Equal(t, cs.ID, event.ChangeSetID)
}

func TestHandleEvents_InvalidSince(t *testing.T) {
	svc := NewService(storage.NewMemory(), events.NewEmitter(), nil, nil, nil, DefaultServiceConfig())

	ws := dialEvents(t, svc, "?since=not-a-timestamp")

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event events.Event
	require.NoError(t, ws.ReadJSON(&event))
	require.Equal(t, events.Type("error"), event.Type)
}
