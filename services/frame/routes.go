// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package frame

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all frame service routes with the router group.
//
// Endpoints:
//
//	GET    /health                     - Service health and version
//	POST   /frames                     - Create a frame from its first beam
//	GET    /frames                     - List hosted frame ids
//	POST   /frames/adopt               - Adopt a foreign-namespace fragment
//	GET    /frames/:id                 - Full snapshot of a frame
//	DELETE /frames/:id                 - Delete a frame
//	GET    /frames/:id/watch           - WebSocket update stream
//	POST   /frames/:id/beams/extend    - New beam to a new vertex
//	POST   /frames/:id/beams/join      - New beam between existing vertices
//	POST   /frames/:id/beams/remove    - Remove a beam (may split the frame)
//	POST   /frames/:id/vertices/merge  - Merge two vertices
//	POST   /frames/:id/vertices/split  - Divide a vertex's connections
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.GET("/health", handlers.Health)

	frames := rg.Group("/frames")
	{
		frames.POST("", handlers.CreateFrame)
		frames.GET("", handlers.ListFrames)
		frames.POST("/adopt", handlers.AdoptFrame)
		frames.GET("/:id", handlers.GetFrame)
		frames.DELETE("/:id", handlers.DeleteFrame)
		frames.GET("/:id/watch", handlers.WatchFrame)
		frames.POST("/:id/beams/extend", handlers.ExtendBeam)
		frames.POST("/:id/beams/join", handlers.JoinBeam)
		frames.POST("/:id/beams/remove", handlers.RemoveBeam)
		frames.POST("/:id/vertices/merge", handlers.MergeVertices)
		frames.POST("/:id/vertices/split", handlers.SplitVertex)
	}
}
