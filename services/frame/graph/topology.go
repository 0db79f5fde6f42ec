// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import "fmt"

// MergeVertices moves every connection of from onto into, then deletes from.
// Used to let two independently created vertices at coincident positions
// become one junction.
//
// Each moved beam has its stored endpoint rewritten from from to into and is
// re-keyed under the beam id re-derived from its new endpoint pair; canonical
// ordering depends on the numeric ids, so the key and the direction tags on
// both ends can change.
//
// All preconditions are checked before anything mutates:
//   - from and into must be distinct existing vertices
//   - no beam may directly connect from and into (it would become a
//     self-loop: ErrSelfLoopBeam)
//   - no third vertex may be connected to both from and into (the two beams
//     would collapse onto one id: ErrDuplicateBeam)
//
// Returns the surviving into vertex.
func (g *Graph[B]) MergeVertices(from, into VertexID) (*Vertex, error) {
	if from == into {
		return nil, fmt.Errorf("merge vertex %d into itself: %w", from, ErrSelfLoopBeam)
	}

	fromV, ok := g.vertices[from]
	if !ok {
		return nil, fmt.Errorf("merge: vertex %d: %w", from, ErrVertexNotFound)
	}
	intoV, ok := g.vertices[into]
	if !ok {
		return nil, fmt.Errorf("merge: vertex %d: %w", into, ErrVertexNotFound)
	}

	direct, _ := NewBeamID(from, into)
	if _, ok := g.beams[direct]; ok {
		return nil, fmt.Errorf("merge %d into %d: beam %d-%d: %w",
			from, into, direct.Down, direct.Up, ErrSelfLoopBeam)
	}

	for _, conn := range fromV.connections {
		other := conn.Opposite()
		rekeyed, _ := NewBeamID(into, other)
		if _, ok := g.beams[rekeyed]; ok {
			return nil, fmt.Errorf("merge %d into %d: vertex %d connects to both: %w",
				from, into, other, ErrDuplicateBeam)
		}
	}

	for _, conn := range fromV.connections {
		other := conn.Opposite()

		beam := g.beams[conn.Beam]
		delete(g.beams, conn.Beam)

		rekeyed, _ := NewBeamID(into, other)
		beam.down = rekeyed.Down
		beam.up = rekeyed.Up
		g.beams[rekeyed] = beam

		otherDir, _ := rekeyed.End(other)
		g.rewriteConnection(other, conn.Beam, BeamEnd{Beam: rekeyed, End: otherDir})

		intoDir, _ := rekeyed.End(into)
		intoV.connections = append(intoV.connections, BeamEnd{Beam: rekeyed, End: intoDir})
	}

	delete(g.vertices, from)
	recordEdit(opMergeVertices)
	return intoV, nil
}

// SplitVertex partitions a vertex's connections by pred. Connections for
// which pred returns true move to a new allocator-issued vertex created at
// the same position; each moved beam's endpoint is rewritten and re-keyed
// accordingly. The structural inverse of MergeVertices: a junction's incident
// beams are divided among two vertices without touching any beam's other
// endpoint or payload.
//
// Selecting zero connections, or all of them, is a no-op that returns the
// original vertex id without consuming an id. Otherwise the new vertex id is
// returned.
func (g *Graph[B]) SplitVertex(alloc *Allocator, id VertexID, pred func(BeamEnd) bool) (VertexID, error) {
	v, selected, kept, err := g.splitSelection(id, pred)
	if err != nil {
		return 0, err
	}
	if len(selected) == 0 || len(kept) == 0 {
		return id, nil
	}
	fresh := alloc.Next()
	g.applySplit(v, fresh, selected, kept)
	return fresh, nil
}

// SplitVertexAs is SplitVertex with a caller-supplied fresh vertex id. Used
// when replaying an authority's split on a mirror, where the authority's
// allocator already chose the id and the mirror must not allocate.
//
// Fails with ErrDuplicateVertex if fresh is already present.
func (g *Graph[B]) SplitVertexAs(fresh VertexID, id VertexID, pred func(BeamEnd) bool) (VertexID, error) {
	if _, ok := g.vertices[fresh]; ok {
		return 0, fmt.Errorf("split: fresh vertex %d: %w", fresh, ErrDuplicateVertex)
	}
	v, selected, kept, err := g.splitSelection(id, pred)
	if err != nil {
		return 0, err
	}
	if len(selected) == 0 || len(kept) == 0 {
		return id, nil
	}
	g.applySplit(v, fresh, selected, kept)
	return fresh, nil
}

// splitSelection partitions the vertex's connection list by pred.
func (g *Graph[B]) splitSelection(id VertexID, pred func(BeamEnd) bool) (*Vertex, []BeamEnd, []BeamEnd, error) {
	v, ok := g.vertices[id]
	if !ok {
		return nil, nil, nil, fmt.Errorf("split: vertex %d: %w", id, ErrVertexNotFound)
	}

	var selected, kept []BeamEnd
	for _, conn := range v.connections {
		if pred(conn) {
			selected = append(selected, conn)
		} else {
			kept = append(kept, conn)
		}
	}
	return v, selected, kept, nil
}

// applySplit moves the selected connections from v onto a vertex created
// under the fresh id at the same position.
func (g *Graph[B]) applySplit(v *Vertex, fresh VertexID, selected, kept []BeamEnd) {
	freshV := &Vertex{position: v.position}

	for _, conn := range selected {
		other := conn.Opposite()

		beam := g.beams[conn.Beam]
		delete(g.beams, conn.Beam)

		// The fresh id cannot collide: the allocator never reissues ids, so
		// no existing beam involves it.
		rekeyed, _ := NewBeamID(fresh, other)
		beam.down = rekeyed.Down
		beam.up = rekeyed.Up
		g.beams[rekeyed] = beam

		otherDir, _ := rekeyed.End(other)
		g.rewriteConnection(other, conn.Beam, BeamEnd{Beam: rekeyed, End: otherDir})

		freshDir, _ := rekeyed.End(fresh)
		freshV.connections = append(freshV.connections, BeamEnd{Beam: rekeyed, End: freshDir})
	}

	v.connections = kept
	g.vertices[fresh] = freshV
	recordEdit(opSplitVertex)
}

// rewriteConnection replaces the connection entry for old on the given vertex.
func (g *Graph[B]) rewriteConnection(id VertexID, old BeamID, replacement BeamEnd) {
	v := g.vertices[id]
	for i, conn := range v.connections {
		if conn.Beam == old {
			v.connections[i] = replacement
			return
		}
	}
}
