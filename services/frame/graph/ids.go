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

// VertexID identifies a vertex. Ids are unique within one Allocator and are
// totally ordered; the ordering canonicalizes beam identity.
type VertexID uint64

// Allocator issues fresh vertex ids from a monotonic counter.
//
// Ids are never recycled within one allocator's lifetime. Allocators are
// explicitly constructed and passed, never process-wide, so independent
// graphs and sessions can coexist with separate id spaces.
type Allocator struct {
	next uint64
}

// NewAllocator returns an allocator whose first issued id is 0.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next issues a fresh vertex id.
func (a *Allocator) Next() VertexID {
	id := VertexID(a.next)
	a.next++
	return id
}

// Direction names one end of a beam.
//
// Beams are undirected; Down always points at the smaller vertex id. The
// direction exists only so each end of a beam can be addressed unambiguously.
type Direction uint8

const (
	// Down is the end touching the smaller vertex id.
	Down Direction = iota

	// Up is the end touching the larger vertex id.
	Up
)

// Opposite returns the other end of the beam.
func (d Direction) Opposite() Direction {
	if d == Down {
		return Up
	}
	return Down
}

// String returns the string representation of the Direction.
func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Up:
		return "up"
	default:
		return "unknown"
	}
}

// BeamID identifies a beam by its unordered endpoint pair, stored canonically
// with Down holding the smaller vertex id. NewBeamID(a, b) == NewBeamID(b, a).
type BeamID struct {
	Down VertexID `json:"down"`
	Up   VertexID `json:"up"`
}

// NewBeamID derives the id of the beam that could exist between two vertices.
// Returns ErrSelfLoopBeam if the vertices are the same.
func NewBeamID(a, b VertexID) (BeamID, error) {
	if a == b {
		return BeamID{}, ErrSelfLoopBeam
	}
	if a < b {
		return BeamID{Down: a, Up: b}, nil
	}
	return BeamID{Down: b, Up: a}, nil
}

// Vertex returns the vertex id at the given end.
func (id BeamID) Vertex(d Direction) VertexID {
	if d == Down {
		return id.Down
	}
	return id.Up
}

// Vertices returns both endpoint ids, down first.
func (id BeamID) Vertices() (VertexID, VertexID) {
	return id.Down, id.Up
}

// End returns which end of the beam touches v. The second result is false
// when v is not an endpoint of the beam.
func (id BeamID) End(v VertexID) (Direction, bool) {
	switch v {
	case id.Down:
		return Down, true
	case id.Up:
		return Up, true
	default:
		return Down, false
	}
}

// BeamEnd identifies one side of a beam as seen from the vertex it touches.
type BeamEnd struct {
	Beam BeamID    `json:"beam"`
	End  Direction `json:"end"`
}

// Vertex returns the vertex id on this side of the beam.
func (e BeamEnd) Vertex() VertexID {
	return e.Beam.Vertex(e.End)
}

// Opposite returns the vertex id at the other end of the beam.
func (e BeamEnd) Opposite() VertexID {
	return e.Beam.Vertex(e.End.Opposite())
}
