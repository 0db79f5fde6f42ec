// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package authority

import (
	"github.com/AleutianAI/shipframe/services/frame/geom"
	"github.com/AleutianAI/shipframe/services/frame/graph"
	"github.com/AleutianAI/shipframe/services/frame/wire"
)

// Frame is one canonical server-owned structure. Every mutating method
// returns the wire update that replays the edit on a mirror; updates must be
// delivered in emission order.
type Frame[B any] struct {
	graph *graph.Graph[B]
	alloc *graph.Allocator
}

// Graph exposes the underlying graph for queries. Callers must not mutate it
// directly; updates would not be emitted.
func (f *Frame[B]) Graph() *graph.Graph[B] {
	return f.graph
}

// Snapshot captures the frame's full state for transfer.
func (f *Frame[B]) Snapshot() wire.SerializedGraph[B] {
	return wire.Snapshot(f.graph)
}

// AddBeamExtend grows the frame from an existing vertex to a new vertex at
// the given position. Returns the new vertex id and the update.
func (f *Frame[B]) AddBeamExtend(existing graph.VertexID, position geom.Vec3, data B) (graph.VertexID, wire.FrameUpdate[B], error) {
	fresh, _, err := f.graph.NewBeamExtend(f.alloc, existing, position, data)
	if err != nil {
		return 0, wire.FrameUpdate[B]{}, err
	}
	return fresh, wire.NewAddBeam(existing, nil, fresh, &position, data), nil
}

// AddBeamJoin connects two existing vertices. Returns the update.
func (f *Frame[B]) AddBeamJoin(a, b graph.VertexID, data B) (wire.FrameUpdate[B], error) {
	if _, err := f.graph.NewBeamJoin(a, b, data); err != nil {
		return wire.FrameUpdate[B]{}, err
	}
	return wire.NewAddBeam[B](a, nil, b, nil, data), nil
}

// RemoveBeam removes a beam. When the removal disconnects the structure, the
// detached component comes back as a new frame in the same world; mirrors
// replaying the update materialize the identical component themselves.
//
// Returns the update, the detached frame (nil when no split occurred), and
// the removed beam's payload.
func (f *Frame[B]) RemoveBeam(id graph.BeamID) (wire.FrameUpdate[B], *Frame[B], B, error) {
	detached, data, err := f.graph.RemoveBeam(id)
	if err != nil {
		var zero B
		return wire.FrameUpdate[B]{}, nil, zero, err
	}

	var detachedFrame *Frame[B]
	if detached != nil {
		detachedFrame = &Frame[B]{graph: detached, alloc: f.alloc}
	}
	return wire.NewRemoveBeam[B](id), detachedFrame, data, nil
}

// MergeVertices merges from into into. Returns the update.
func (f *Frame[B]) MergeVertices(from, into graph.VertexID) (wire.FrameUpdate[B], error) {
	if _, err := f.graph.MergeVertices(from, into); err != nil {
		return wire.FrameUpdate[B]{}, err
	}
	return wire.NewMergeVertices[B](from, into), nil
}

// SplitVertex divides the vertex's connections by pred. When the predicate
// selects a proper, non-empty subset, the new vertex id and an update are
// returned; otherwise the original id comes back with a nil update and
// nothing changed.
func (f *Frame[B]) SplitVertex(id graph.VertexID, pred func(graph.BeamEnd) bool) (graph.VertexID, *wire.FrameUpdate[B], error) {
	v, ok := f.graph.Vertex(id)
	if !ok {
		// Let the graph produce its usual error.
		_, err := f.graph.SplitVertex(f.alloc, id, pred)
		return 0, nil, err
	}

	// The moved set is captured before the split mutates the connection
	// list; mirrors match connections against these pre-split beam ids.
	var moved []graph.BeamID
	for _, conn := range v.Connections() {
		if pred(conn) {
			moved = append(moved, conn.Beam)
		}
	}

	fresh, err := f.graph.SplitVertex(f.alloc, id, pred)
	if err != nil {
		return 0, nil, err
	}
	if fresh == id {
		return id, nil, nil
	}

	update := wire.NewSplitVertex[B](id, fresh, moved)
	return fresh, &update, nil
}
