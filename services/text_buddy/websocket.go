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
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/AleutianRevise/services/text_buddy/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

const (
	// writeWait bounds a single websocket write.
	writeWait = 10 * time.Second

	// pingInterval keeps idle connections alive through proxies.
	pingInterval = 30 * time.Second

	// subscriberBuffer is the per-connection event buffer. Connections
	// that fall further behind than this drop events.
	subscriberBuffer = 64
)

// HandleEvents handles GET /v1/revise/events.
//
// Description:
//
//	Upgrades the connection and streams review-lifecycle events as JSON
//	messages until the client disconnects. The connection is read only
//	for close detection; clients send nothing.
//
// Query Parameters:
//
//	since: RFC 3339 timestamp; buffered events after it are replayed
//	       before live delivery begins (optional).
func (h *Handlers) HandleEvents(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer ws.Close()

	emitter := h.svc.Events()
	ch, subID := emitter.SubscribeChan(subscriberBuffer)
	defer emitter.Unsubscribe(subID)

	slog.Info("Event stream client connected", "subscription_id", subID)

	if since := c.Query("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			_ = sendEvent(ws, events.Event{Type: "error", Data: "invalid since timestamp"})
			return
		}
		for _, event := range emitter.BufferSince(ts) {
			if err := sendEvent(ws, event); err != nil {
				return
			}
		}
	}

	// Reader goroutine: the only way gorilla surfaces a client close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := sendEvent(ws, event); err != nil {
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			slog.Info("Event stream client disconnected", "subscription_id", subID)
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

func sendEvent(ws *websocket.Conn, event events.Event) error {
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	err := ws.WriteJSON(event)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}
