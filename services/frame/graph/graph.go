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

import (
	"fmt"
	"slices"

	"github.com/AleutianAI/shipframe/services/frame/geom"
)

// Vertex is an anchor point of the frame. It owns a position and the ordered
// list of beam ends touching it.
type Vertex struct {
	position    geom.Vec3
	connections []BeamEnd
}

// Position returns the vertex position.
func (v *Vertex) Position() geom.Vec3 {
	return v.position
}

// Connections returns the beam ends touching this vertex. The returned slice
// is owned by the graph and must not be modified.
func (v *Vertex) Connections() []BeamEnd {
	return v.connections
}

// Degree returns the number of beams touching this vertex.
func (v *Vertex) Degree() int {
	return len(v.connections)
}

// removeConnection drops the connection to the given beam, if present.
func (v *Vertex) removeConnection(id BeamID) {
	for i, conn := range v.connections {
		if conn.Beam == id {
			v.connections = slices.Delete(v.connections, i, i+1)
			return
		}
	}
}

// Beam is a rigid member connecting two vertices. Endpoints are stored
// explicitly rather than recovered from the beam id because vertex merging
// can reassign them independently of the id the beam was created under.
type Beam[B any] struct {
	down VertexID
	up   VertexID

	// Data is the caller-supplied payload. The graph never inspects it.
	Data B
}

// DownVertex returns the endpoint on the Down side.
func (b *Beam[B]) DownVertex() VertexID {
	return b.down
}

// UpVertex returns the endpoint on the Up side.
func (b *Beam[B]) UpVertex() VertexID {
	return b.up
}

// Vertex returns the endpoint at the given end.
func (b *Beam[B]) Vertex(d Direction) VertexID {
	if d == Down {
		return b.down
	}
	return b.up
}

// ID returns the canonical beam id derived from the current endpoints.
func (b *Beam[B]) ID() BeamID {
	return BeamID{Down: b.down, Up: b.up}
}

// Graph is the authoritative in-memory frame structure: a vertex table and a
// beam table with cross-references kept exactly in sync. A valid graph always
// holds at least one beam.
//
// The payload type B rides on every beam and is opaque to the graph.
type Graph[B any] struct {
	vertices map[VertexID]*Vertex
	beams    map[BeamID]*Beam[B]
}

// Empty returns a graph with no vertices or beams.
//
// An empty graph is not a valid end state; this exists for snapshot
// reconstruction and component extraction, which populate it before
// handing it out.
func Empty[B any]() *Graph[B] {
	return &Graph[B]{
		vertices: make(map[VertexID]*Vertex),
		beams:    make(map[BeamID]*Beam[B]),
	}
}

// New creates a graph from its first beam. Frames are born with structure;
// there is no way to construct a beamless graph through the public API.
//
// Returns the graph and the ids of the two vertices created, down first.
func New[B any](alloc *Allocator, downPos, upPos geom.Vec3, data B) (*Graph[B], VertexID, VertexID) {
	g := Empty[B]()

	// Monotonic allocation: the first id is always the down vertex.
	downID := alloc.Next()
	upID := alloc.Next()
	id := BeamID{Down: downID, Up: upID}

	g.vertices[downID] = &Vertex{
		position:    downPos,
		connections: []BeamEnd{{Beam: id, End: Down}},
	}
	g.vertices[upID] = &Vertex{
		position:    upPos,
		connections: []BeamEnd{{Beam: id, End: Up}},
	}
	g.beams[id] = &Beam[B]{down: downID, up: upID, Data: data}

	recordEdit(opAddBeam)
	return g, downID, upID
}

// AddBeam inserts a beam between two vertex slots.
//
// For each endpoint, a non-nil position means the vertex is newly created at
// that position; a nil position means the vertex must already exist and gains
// one more connection. All preconditions are checked before anything mutates:
//   - the endpoints must be distinct (ErrSelfLoopBeam)
//   - a positioned endpoint must not exist yet (ErrDuplicateVertex)
//   - a positionless endpoint must exist (ErrVertexNotFound)
//   - the derived beam id must be free (ErrDuplicateBeam)
func (g *Graph[B]) AddBeam(a VertexID, posA *geom.Vec3, b VertexID, posB *geom.Vec3, data B) (BeamID, error) {
	id, err := NewBeamID(a, b)
	if err != nil {
		return BeamID{}, fmt.Errorf("add beam %d-%d: %w", a, b, err)
	}
	if _, ok := g.beams[id]; ok {
		return BeamID{}, fmt.Errorf("add beam %d-%d: %w", a, b, ErrDuplicateBeam)
	}

	ends := [2]struct {
		id  VertexID
		pos *geom.Vec3
	}{{a, posA}, {b, posB}}

	for _, end := range ends {
		_, exists := g.vertices[end.id]
		if end.pos != nil && exists {
			return BeamID{}, fmt.Errorf("add beam: vertex %d: %w", end.id, ErrDuplicateVertex)
		}
		if end.pos == nil && !exists {
			return BeamID{}, fmt.Errorf("add beam: vertex %d: %w", end.id, ErrVertexNotFound)
		}
	}

	for _, end := range ends {
		dir, _ := id.End(end.id)
		if end.pos != nil {
			g.vertices[end.id] = &Vertex{
				position:    *end.pos,
				connections: []BeamEnd{{Beam: id, End: dir}},
			}
			continue
		}
		v := g.vertices[end.id]
		v.connections = append(v.connections, BeamEnd{Beam: id, End: dir})
	}

	g.beams[id] = &Beam[B]{down: id.Down, up: id.Up, Data: data}

	recordEdit(opAddBeam)
	return id, nil
}

// NewBeamExtend creates a vertex at position and connects it to an existing
// vertex with a new beam. Returns the new vertex id and the beam id.
//
// Fails with ErrVertexNotFound if the existing vertex is absent.
func (g *Graph[B]) NewBeamExtend(alloc *Allocator, existing VertexID, position geom.Vec3, data B) (VertexID, BeamID, error) {
	if _, ok := g.vertices[existing]; !ok {
		return 0, BeamID{}, fmt.Errorf("extend from vertex %d: %w", existing, ErrVertexNotFound)
	}

	fresh := alloc.Next()
	id, err := g.AddBeam(existing, nil, fresh, &position, data)
	if err != nil {
		return 0, BeamID{}, fmt.Errorf("extend from vertex %d: %w", existing, err)
	}
	return fresh, id, nil
}

// NewBeamJoin connects two existing vertices with a new beam.
//
// Fails with ErrVertexNotFound if either vertex is absent, and with
// ErrBeamAlreadyExists if the vertices are already directly connected.
func (g *Graph[B]) NewBeamJoin(a, b VertexID, data B) (BeamID, error) {
	id, err := NewBeamID(a, b)
	if err != nil {
		return BeamID{}, fmt.Errorf("join %d-%d: %w", a, b, err)
	}
	if _, ok := g.beams[id]; ok {
		return BeamID{}, fmt.Errorf("join %d-%d: %w", a, b, ErrBeamAlreadyExists)
	}

	id, err = g.AddBeam(a, nil, b, nil, data)
	if err != nil {
		return BeamID{}, fmt.Errorf("join %d-%d: %w", a, b, err)
	}
	return id, nil
}

// RemoveBeam removes a beam and returns its payload.
//
// Endpoints left with no remaining connections are deleted immediately. If
// both endpoints survive, a connectivity search decides whether the removal
// disconnected the frame; when it did, everything unreachable from the
// removed beam's down anchor is extracted into the returned detached graph,
// leaving both results internally connected and disjoint.
//
// Fails with ErrBeamNotFound for an unknown id, and with ErrEmptyGraph (the
// graph unchanged) when the beam is the last one.
func (g *Graph[B]) RemoveBeam(id BeamID) (*Graph[B], B, error) {
	var zero B

	beam, ok := g.beams[id]
	if !ok {
		return nil, zero, fmt.Errorf("remove beam %d-%d: %w", id.Down, id.Up, ErrBeamNotFound)
	}
	if len(g.beams) == 1 {
		return nil, zero, fmt.Errorf("remove beam %d-%d: %w", id.Down, id.Up, ErrEmptyGraph)
	}

	delete(g.beams, id)
	recordEdit(opRemoveBeam)

	// Emptied endpoints are deleted before any connectivity decision. An
	// isolated endpoint cannot be part of a larger split, so its deletion
	// short-circuits the search.
	endpointDeleted := false
	for _, vid := range []VertexID{beam.down, beam.up} {
		v := g.vertices[vid]
		v.removeConnection(id)
		if len(v.connections) == 0 {
			delete(g.vertices, vid)
			endpointDeleted = true
		}
	}
	if endpointDeleted {
		return nil, beam.Data, nil
	}

	visited, reached := g.searchConnected(beam.down, beam.up)
	if reached {
		return nil, beam.Data, nil
	}

	detached := g.extractComponent(visited)
	recordSplit(len(visited))
	return detached, beam.Data, nil
}

// Vertex returns the vertex with the given id.
func (g *Graph[B]) Vertex(id VertexID) (*Vertex, bool) {
	v, ok := g.vertices[id]
	return v, ok
}

// Beam returns the beam with the given id.
func (g *Graph[B]) Beam(id BeamID) (*Beam[B], bool) {
	b, ok := g.beams[id]
	return b, ok
}

// NumVertices returns the number of vertices.
func (g *Graph[B]) NumVertices() int {
	return len(g.vertices)
}

// NumBeams returns the number of beams.
func (g *Graph[B]) NumBeams() int {
	return len(g.beams)
}

// VertexIDs returns all vertex ids in ascending order.
func (g *Graph[B]) VertexIDs() []VertexID {
	ids := make([]VertexID, 0, len(g.vertices))
	for id := range g.vertices {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// BeamIDs returns all beam ids ordered by (down, up). The ordering is stable
// across runs, which keeps snapshots deterministic.
func (g *Graph[B]) BeamIDs() []BeamID {
	ids := make([]BeamID, 0, len(g.beams))
	for id := range g.beams {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b BeamID) int {
		if a.Down != b.Down {
			if a.Down < b.Down {
				return -1
			}
			return 1
		}
		switch {
		case a.Up < b.Up:
			return -1
		case a.Up > b.Up:
			return 1
		default:
			return 0
		}
	})
	return ids
}

// String implements fmt.Stringer.
func (g *Graph[B]) String() string {
	return fmt.Sprintf("Graph{vertices: %d, beams: %d}", len(g.vertices), len(g.beams))
}
