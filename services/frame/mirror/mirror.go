// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package mirror maintains a client-side replica of an authority frame.
//
// A mirror is seeded from a full snapshot and then applies the authority's
// updates in emission order. It never allocates ids: every id it stores
// arrived in a snapshot or an update. A mirror and its authority are
// logically independent graph stores; nothing is shared but the messages.
package mirror

import (
	"fmt"

	"github.com/AleutianAI/shipframe/services/frame/graph"
	"github.com/AleutianAI/shipframe/services/frame/wire"
)

// Mirror is a replica of one authority frame.
type Mirror[B any] struct {
	graph *graph.Graph[B]
}

// New seeds a mirror from a full snapshot.
func New[B any](s wire.SerializedGraph[B]) (*Mirror[B], error) {
	g, err := s.Build()
	if err != nil {
		return nil, fmt.Errorf("seed mirror: %w", err)
	}
	return &Mirror[B]{graph: g}, nil
}

// Graph exposes the replica for queries. Callers must not mutate it; local
// edits would diverge from the authority.
func (m *Mirror[B]) Graph() *graph.Graph[B] {
	return m.graph
}

// Apply replays one authority update.
//
// Replaying a removal runs the same deterministic split logic the authority
// ran; when the structure splits, the detached component is returned as a
// new mirror for the host to bind or discard. A malformed or out-of-order
// update is rejected with the graph's usual precondition error, never
// papered over: a desynced mirror must resync from a snapshot.
func (m *Mirror[B]) Apply(u wire.FrameUpdate[B]) (*Mirror[B], error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	switch u.Op {
	case wire.OpAddBeam:
		body := u.AddBeam
		_, err := m.graph.AddBeam(body.VertexA, body.PositionA, body.VertexB, body.PositionB, body.BeamData)
		return nil, err

	case wire.OpRemoveBeam:
		detached, _, err := m.graph.RemoveBeam(u.RemoveBeam.ID)
		if err != nil {
			return nil, err
		}
		if detached == nil {
			return nil, nil
		}
		return &Mirror[B]{graph: detached}, nil

	case wire.OpMergeVertices:
		_, err := m.graph.MergeVertices(u.MergeVertices.From, u.MergeVertices.Into)
		return nil, err

	case wire.OpSplitVertex:
		body := u.SplitVertex
		moved := make(map[graph.BeamID]bool, len(body.Moved))
		for _, id := range body.Moved {
			moved[id] = true
		}

		// The authority only emits a split that moved a proper, non-empty
		// subset of the vertex's connections. A moved list that names beams
		// the vertex does not carry, or that selects none or all of them,
		// means the replica has diverged from the update stream.
		v, ok := m.graph.Vertex(body.Vertex)
		if !ok {
			return nil, fmt.Errorf("split vertex %d: %w", body.Vertex, graph.ErrVertexNotFound)
		}
		matched := 0
		for _, conn := range v.Connections() {
			if moved[conn.Beam] {
				matched++
			}
		}
		if matched != len(moved) || matched == 0 || matched == v.Degree() {
			return nil, fmt.Errorf("%w: split of vertex %d moves %d of %d listed beams",
				wire.ErrInvalidUpdate, body.Vertex, matched, len(moved))
		}

		_, err := m.graph.SplitVertexAs(body.NewVertex, body.Vertex, func(conn graph.BeamEnd) bool {
			return moved[conn.Beam]
		})
		return nil, err

	default:
		return nil, fmt.Errorf("%w: op %q", wire.ErrInvalidUpdate, u.Op)
	}
}
