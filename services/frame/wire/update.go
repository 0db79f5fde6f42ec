// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package wire

import (
	"fmt"

	"github.com/AleutianAI/shipframe/services/frame/geom"
	"github.com/AleutianAI/shipframe/services/frame/graph"
)

// UpdateOp discriminates FrameUpdate messages.
type UpdateOp string

const (
	// OpAddBeam adds a beam, creating endpoints that carry a position.
	OpAddBeam UpdateOp = "add_beam"

	// OpRemoveBeam removes a beam. Replaying it runs the same split logic
	// the authority ran, so a mirror materializes the same detached frame.
	OpRemoveBeam UpdateOp = "remove_beam"

	// OpMergeVertices merges one vertex into another. Deterministic from the
	// two ids alone.
	OpMergeVertices UpdateOp = "merge_vertices"

	// OpSplitVertex divides a vertex's connections onto a new vertex whose
	// id the authority's allocator chose.
	OpSplitVertex UpdateOp = "split_vertex"
)

// AddBeam is the body of an OpAddBeam update. A position is present exactly
// when that vertex is newly created by the edit.
type AddBeam[B any] struct {
	VertexA   graph.VertexID `json:"vertex_a"`
	PositionA *geom.Vec3     `json:"position_a,omitempty"`
	VertexB   graph.VertexID `json:"vertex_b"`
	PositionB *geom.Vec3     `json:"position_b,omitempty"`
	BeamData  B              `json:"beam_data"`
}

// RemoveBeam is the body of an OpRemoveBeam update.
type RemoveBeam struct {
	ID graph.BeamID `json:"id"`
}

// MergeVertices is the body of an OpMergeVertices update.
type MergeVertices struct {
	From graph.VertexID `json:"from"`
	Into graph.VertexID `json:"into"`
}

// SplitVertex is the body of an OpSplitVertex update. Moved lists the beams
// (by their pre-split ids) whose ends move onto NewVertex.
type SplitVertex struct {
	Vertex    graph.VertexID `json:"vertex"`
	NewVertex graph.VertexID `json:"new_vertex"`
	Moved     []graph.BeamID `json:"moved"`
}

// FrameUpdate is one incremental replication message. Exactly the body
// matching Op is set.
type FrameUpdate[B any] struct {
	Op            UpdateOp       `json:"op"`
	AddBeam       *AddBeam[B]    `json:"add_beam,omitempty"`
	RemoveBeam    *RemoveBeam    `json:"remove_beam,omitempty"`
	MergeVertices *MergeVertices `json:"merge_vertices,omitempty"`
	SplitVertex   *SplitVertex   `json:"split_vertex,omitempty"`
}

// Validate checks that the message carries the body its op declares.
func (u FrameUpdate[B]) Validate() error {
	switch u.Op {
	case OpAddBeam:
		if u.AddBeam == nil {
			return fmt.Errorf("%w: %s without body", ErrInvalidUpdate, u.Op)
		}
	case OpRemoveBeam:
		if u.RemoveBeam == nil {
			return fmt.Errorf("%w: %s without body", ErrInvalidUpdate, u.Op)
		}
	case OpMergeVertices:
		if u.MergeVertices == nil {
			return fmt.Errorf("%w: %s without body", ErrInvalidUpdate, u.Op)
		}
	case OpSplitVertex:
		if u.SplitVertex == nil {
			return fmt.Errorf("%w: %s without body", ErrInvalidUpdate, u.Op)
		}
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidUpdate, u.Op)
	}
	return nil
}

// NewAddBeam builds an OpAddBeam update.
func NewAddBeam[B any](a graph.VertexID, posA *geom.Vec3, b graph.VertexID, posB *geom.Vec3, data B) FrameUpdate[B] {
	return FrameUpdate[B]{
		Op: OpAddBeam,
		AddBeam: &AddBeam[B]{
			VertexA:   a,
			PositionA: posA,
			VertexB:   b,
			PositionB: posB,
			BeamData:  data,
		},
	}
}

// NewRemoveBeam builds an OpRemoveBeam update.
func NewRemoveBeam[B any](id graph.BeamID) FrameUpdate[B] {
	return FrameUpdate[B]{Op: OpRemoveBeam, RemoveBeam: &RemoveBeam{ID: id}}
}

// NewMergeVertices builds an OpMergeVertices update.
func NewMergeVertices[B any](from, into graph.VertexID) FrameUpdate[B] {
	return FrameUpdate[B]{Op: OpMergeVertices, MergeVertices: &MergeVertices{From: from, Into: into}}
}

// NewSplitVertex builds an OpSplitVertex update.
func NewSplitVertex[B any](vertex, fresh graph.VertexID, moved []graph.BeamID) FrameUpdate[B] {
	return FrameUpdate[B]{
		Op:          OpSplitVertex,
		SplitVertex: &SplitVertex{Vertex: vertex, NewVertex: fresh, Moved: moved},
	}
}
