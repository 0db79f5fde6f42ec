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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/shipframe/services/frame/geom"
	"github.com/AleutianAI/shipframe/services/frame/graph"
	"github.com/AleutianAI/shipframe/services/frame/wire"
)

// ServiceVersion is the frame service version.
const ServiceVersion = "0.1.0"

// Handlers contains the HTTP handlers for the frame service.
type Handlers struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc, logger: svc.logger}
}

// statusFor maps a service or graph error onto an HTTP status. Every
// precondition violation stays a client error naming the broken invariant.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownFrame),
		errors.Is(err, graph.ErrVertexNotFound),
		errors.Is(err, graph.ErrBeamNotFound):
		return http.StatusNotFound
	case errors.Is(err, graph.ErrDuplicateVertex),
		errors.Is(err, graph.ErrDuplicateBeam),
		errors.Is(err, graph.ErrBeamAlreadyExists),
		errors.Is(err, graph.ErrEmptyGraph):
		return http.StatusConflict
	case errors.Is(err, graph.ErrSelfLoopBeam),
		errors.Is(err, wire.ErrInvalidSnapshot),
		errors.Is(err, wire.ErrInvalidUpdate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type createFrameRequest struct {
	DownPosition *geom.Vec3 `json:"down_position" binding:"required"`
	UpPosition   *geom.Vec3 `json:"up_position" binding:"required"`
	BeamData     BeamData   `json:"beam_data"`
}

// CreateFrame handles POST /frames.
func (h *Handlers) CreateFrame(c *gin.Context) {
	var req createFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, down, up := h.svc.CreateFrame(*req.DownPosition, *req.UpPosition, req.BeamData)
	c.JSON(http.StatusCreated, gin.H{
		"frame_id":    id,
		"down_vertex": down,
		"up_vertex":   up,
	})
}

// ListFrames handles GET /frames.
func (h *Handlers) ListFrames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"frames": h.svc.Frames()})
}

// GetFrame handles GET /frames/:id, returning the full snapshot.
func (h *Handlers) GetFrame(c *gin.Context) {
	snapshot, err := h.svc.Snapshot(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// DeleteFrame handles DELETE /frames/:id.
func (h *Handlers) DeleteFrame(c *gin.Context) {
	if err := h.svc.DeleteFrame(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdoptFrame handles POST /frames/adopt. The body is a snapshot in any id
// namespace; the service remaps it into its own.
func (h *Handlers) AdoptFrame(c *gin.Context) {
	var snapshot wire.SerializedGraph[BeamData]
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.svc.AdoptFrame(snapshot)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"frame_id": id})
}

type extendRequest struct {
	Vertex   graph.VertexID `json:"vertex"`
	Position *geom.Vec3     `json:"position" binding:"required"`
	BeamData BeamData       `json:"beam_data"`
}

// ExtendBeam handles POST /frames/:id/beams/extend.
func (h *Handlers) ExtendBeam(c *gin.Context) {
	var req extendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fresh, err := h.svc.Extend(c.Param("id"), req.Vertex, *req.Position, req.BeamData)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"new_vertex": fresh})
}

type joinRequest struct {
	VertexA  graph.VertexID `json:"vertex_a"`
	VertexB  graph.VertexID `json:"vertex_b"`
	BeamData BeamData       `json:"beam_data"`
}

// JoinBeam handles POST /frames/:id/beams/join.
func (h *Handlers) JoinBeam(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.Join(c.Param("id"), req.VertexA, req.VertexB, req.BeamData); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type removeBeamRequest struct {
	Beam graph.BeamID `json:"beam"`
}

// RemoveBeam handles POST /frames/:id/beams/remove. When the removal splits
// the frame, the response names the newly hosted detached frame.
func (h *Handlers) RemoveBeam(c *gin.Context) {
	var req removeBeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	detachedID, err := h.svc.RemoveBeam(c.Param("id"), req.Beam)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := gin.H{"split": detachedID != ""}
	if detachedID != "" {
		resp["detached_frame_id"] = detachedID
	}
	c.JSON(http.StatusOK, resp)
}

type mergeRequest struct {
	From graph.VertexID `json:"from"`
	Into graph.VertexID `json:"into"`
}

// MergeVertices handles POST /frames/:id/vertices/merge.
func (h *Handlers) MergeVertices(c *gin.Context) {
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.Merge(c.Param("id"), req.From, req.Into); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type splitRequest struct {
	Vertex graph.VertexID `json:"vertex"`
	Beams  []graph.BeamID `json:"beams" binding:"required"`
}

// SplitVertex handles POST /frames/:id/vertices/split.
func (h *Handlers) SplitVertex(c *gin.Context) {
	var req splitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fresh, err := h.svc.Split(c.Param("id"), req.Vertex, req.Beams)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vertex": fresh,
		"moved":  fresh != req.Vertex,
	})
}

// Health handles GET /health.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": ServiceVersion})
}
