// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package authority hosts server-owned canonical frame graphs.
//
// A World is one id namespace: its allocator is the single source of truth
// for fresh vertex ids, and every frame it owns draws from it. Mutations on
// an authority frame return the wire update a mirror needs to replay the same
// edit; fragments built in a foreign id namespace are remapped into the
// world's namespace before adoption.
package authority

import (
	"fmt"

	"github.com/AleutianAI/shipframe/services/frame/geom"
	"github.com/AleutianAI/shipframe/services/frame/graph"
	"github.com/AleutianAI/shipframe/services/frame/wire"
)

// World is an id namespace owning canonical frames.
type World[B any] struct {
	alloc *graph.Allocator
}

// NewWorld returns a world with a fresh allocator.
func NewWorld[B any]() *World[B] {
	return &World[B]{alloc: graph.NewAllocator()}
}

// Allocator exposes the world's allocator. Mirrors never see it; it exists
// for hosts that drive the graph API directly.
func (w *World[B]) Allocator() *graph.Allocator {
	return w.alloc
}

// NewFrame creates a frame from its first beam. Returns the frame and the
// ids of the two vertices created, down first.
func (w *World[B]) NewFrame(downPos, upPos geom.Vec3, data B) (*Frame[B], graph.VertexID, graph.VertexID) {
	g, down, up := graph.New(w.alloc, downPos, upPos, data)
	return &Frame[B]{graph: g, alloc: w.alloc}, down, up
}

// AdoptFragment rewrites a fragment built under foreign or provisional ids
// into this world's namespace and adopts it as a new frame.
//
// Every vertex id in the fragment is assigned a fresh allocator id, memoized
// so repeated appearances map consistently. Beam ids are recomputed from the
// remapped endpoint pair rather than copied: canonical ordering depends on
// the numeric ids, and the fresh ids may order differently than the
// originals. The result can collide with nothing the allocator ever issued.
func (w *World[B]) AdoptFragment(s wire.SerializedGraph[B]) (*Frame[B], error) {
	remapped := wire.SerializedGraph[B]{
		Vertices: make([]wire.SerializedVertex, 0, len(s.Vertices)),
		Beams:    make([]wire.SerializedBeam[B], 0, len(s.Beams)),
	}

	mapping := make(map[graph.VertexID]graph.VertexID, len(s.Vertices))
	remap := func(old graph.VertexID) graph.VertexID {
		fresh, ok := mapping[old]
		if !ok {
			fresh = w.alloc.Next()
			mapping[old] = fresh
		}
		return fresh
	}

	for _, v := range s.Vertices {
		remapped.Vertices = append(remapped.Vertices, wire.SerializedVertex{
			ID:       remap(v.ID),
			Position: v.Position,
		})
	}

	for _, b := range s.Beams {
		id, err := graph.NewBeamID(remap(b.ID.Down), remap(b.ID.Up))
		if err != nil {
			return nil, fmt.Errorf("adopt fragment: beam %d-%d: %w",
				b.ID.Down, b.ID.Up, wire.ErrInvalidSnapshot)
		}
		remapped.Beams = append(remapped.Beams, wire.SerializedBeam[B]{ID: id, Data: b.Data})
	}

	g, err := remapped.Build()
	if err != nil {
		return nil, fmt.Errorf("adopt fragment: %w", err)
	}
	return &Frame[B]{graph: g, alloc: w.alloc}, nil
}
