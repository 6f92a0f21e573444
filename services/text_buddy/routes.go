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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all revision service routes with the router.
//
// Description:
//
//	Registers all /v1/revise/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST   /v1/revise/propose - Diff proposed content and open a change set
//	GET    /v1/revise/changesets - List open change sets
//	GET    /v1/revise/changesets/:id - Get a change set
//	GET    /v1/revise/changesets/:id/status - Get the counts projection
//	GET    /v1/revise/changesets/:id/diff - Render one file as unified diff
//	POST   /v1/revise/changesets/:id/accept - Accept all pending, atomically
//	POST   /v1/revise/changesets/:id/reject - Reject all pending
//	DELETE /v1/revise/changesets/:id - Archive outcome and delete
//	POST   /v1/revise/changesets/:id/modifications/:mod/accept - Accept one
//	POST   /v1/revise/changesets/:id/modifications/:mod/reject - Reject one
//	POST   /v1/revise/changesets/:id/modifications/:mod/undo - Undo one
//	GET    /v1/revise/events - Websocket stream of lifecycle events
//	GET    /v1/revise/health - Health check
//	GET    /v1/revise/ready - Readiness check
//
// Example:
//
//	service := text_buddy.NewService(storage, emitter, nil, nil, nil,
//	    text_buddy.DefaultServiceConfig())
//	handlers := text_buddy.NewHandlers(service)
//
//	v1 := router.Group("/v1")
//	text_buddy.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	revise := rg.Group("/revise")
	{
		// Proposal intake
		revise.POST("/propose", handlers.HandlePropose)

		// Change set lifecycle
		revise.GET("/changesets", handlers.HandleList)
		revise.GET("/changesets/:id", handlers.HandleGet)
		revise.GET("/changesets/:id/status", handlers.HandleStatus)
		revise.GET("/changesets/:id/diff", handlers.HandleDiff)
		revise.POST("/changesets/:id/accept", handlers.HandleAcceptAll)
		revise.POST("/changesets/:id/reject", handlers.HandleRejectAll)
		revise.DELETE("/changesets/:id", handlers.HandleDelete)

		// Per-modification review
		revise.POST("/changesets/:id/modifications/:mod/accept", handlers.HandleAcceptModification)
		revise.POST("/changesets/:id/modifications/:mod/reject", handlers.HandleRejectModification)
		revise.POST("/changesets/:id/modifications/:mod/undo", handlers.HandleUndoModification)

		// Event stream
		revise.GET("/events", handlers.HandleEvents)

		// Health checks
		revise.GET("/health", handlers.HandleHealth)
		revise.GET("/ready", handlers.HandleReady)
	}
}
