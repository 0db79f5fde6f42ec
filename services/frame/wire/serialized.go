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

// SerializedVertex is one vertex of a snapshot.
type SerializedVertex struct {
	ID       graph.VertexID `json:"id"`
	Position geom.Vec3      `json:"position"`
}

// SerializedBeam is one beam of a snapshot. The id carries the canonical
// down/up endpoint pair.
type SerializedBeam[B any] struct {
	ID   graph.BeamID `json:"id"`
	Data B            `json:"data"`
}

// SerializedGraph is a flat, order-stable snapshot of a frame graph.
// Connection lists are not serialized; Build re-derives them from the beam
// list.
type SerializedGraph[B any] struct {
	Vertices []SerializedVertex  `json:"vertices"`
	Beams    []SerializedBeam[B] `json:"beams"`
}

// Snapshot captures g as a SerializedGraph. Vertices and beams are emitted
// in ascending id order, so equal graphs always serialize identically.
func Snapshot[B any](g *graph.Graph[B]) SerializedGraph[B] {
	s := SerializedGraph[B]{
		Vertices: make([]SerializedVertex, 0, g.NumVertices()),
		Beams:    make([]SerializedBeam[B], 0, g.NumBeams()),
	}

	for _, id := range g.VertexIDs() {
		v, _ := g.Vertex(id)
		s.Vertices = append(s.Vertices, SerializedVertex{ID: id, Position: v.Position()})
	}
	for _, id := range g.BeamIDs() {
		b, _ := g.Beam(id)
		s.Beams = append(s.Beams, SerializedBeam[B]{ID: id, Data: b.Data})
	}
	return s
}

// Build reconstructs a graph from the snapshot, re-deriving every vertex's
// connection list from the beam list. All graph invariants hold on the
// result.
//
// Fails with ErrInvalidSnapshot when the snapshot is not the image of a valid
// graph: dangling beam endpoints, duplicate ids, non-canonical beam ids, or
// vertices no beam touches.
func (s SerializedGraph[B]) Build() (*graph.Graph[B], error) {
	if len(s.Beams) == 0 {
		return nil, fmt.Errorf("%w: no beams", ErrInvalidSnapshot)
	}

	positions := make(map[graph.VertexID]geom.Vec3, len(s.Vertices))
	for _, v := range s.Vertices {
		if _, ok := positions[v.ID]; ok {
			return nil, fmt.Errorf("%w: vertex %d listed twice", ErrInvalidSnapshot, v.ID)
		}
		positions[v.ID] = v.Position
	}

	g := graph.Empty[B]()
	seen := make(map[graph.VertexID]bool, len(s.Vertices))

	for _, b := range s.Beams {
		if b.ID.Down >= b.ID.Up {
			return nil, fmt.Errorf("%w: beam id %d-%d is not canonical",
				ErrInvalidSnapshot, b.ID.Down, b.ID.Up)
		}

		var ends [2]*geom.Vec3
		for i, vid := range []graph.VertexID{b.ID.Down, b.ID.Up} {
			if seen[vid] {
				continue
			}
			pos, ok := positions[vid]
			if !ok {
				return nil, fmt.Errorf("%w: beam %d-%d references unknown vertex %d",
					ErrInvalidSnapshot, b.ID.Down, b.ID.Up, vid)
			}
			ends[i] = &pos
		}

		if _, err := g.AddBeam(b.ID.Down, ends[0], b.ID.Up, ends[1], b.Data); err != nil {
			return nil, fmt.Errorf("%w: beam %d-%d: %v",
				ErrInvalidSnapshot, b.ID.Down, b.ID.Up, err)
		}
		seen[b.ID.Down] = true
		seen[b.ID.Up] = true
	}

	if len(seen) != len(positions) {
		return nil, fmt.Errorf("%w: %d vertices have no beam",
			ErrInvalidSnapshot, len(positions)-len(seen))
	}
	return g, nil
}
