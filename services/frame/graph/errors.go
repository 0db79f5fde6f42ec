// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph maintains the physical skeleton of a constructible structure
// as a graph of rigid beams connecting anchor vertices in 3D space.
//
// Vertices are keyed by allocator-issued ids; beam ids are derived from their
// endpoint pair, so any party holding both vertex ids can compute the beam id
// without coordination.
//
// # Invariants
//
// The store enforces these eagerly on every edit:
//   - Every vertex has at least one connection; a vertex whose last connection
//     is removed is deleted immediately, never kept as a dangling node.
//   - A beam's endpoints exist as vertices in the same graph, and each
//     vertex's connection list exactly matches the beams that reference it.
//   - A graph always contains at least one beam. Removing the last beam is a
//     precondition violation, not a reachable state.
//
// # Thread Safety
//
// Graph is NOT safe for concurrent use. Every mutation runs to completion
// with exclusive access; hosts driving many graphs serialize access to each
// instance independently.
package graph

import "errors"

// Sentinel errors for graph mutations. Every precondition violation maps to
// exactly one of these so callers can tell which invariant they tripped.
var (
	// ErrSelfLoopBeam is returned when a beam is requested between a vertex
	// and itself. Beams always have two distinct endpoints.
	ErrSelfLoopBeam = errors.New("beam endpoints must be distinct vertices")

	// ErrDuplicateVertex is returned when a creation supplies a position for
	// a vertex id that already exists in the graph.
	ErrDuplicateVertex = errors.New("vertex id already exists")

	// ErrDuplicateBeam is returned when a beam id produced by a creation is
	// already present in the graph.
	ErrDuplicateBeam = errors.New("beam id already exists")

	// ErrVertexNotFound is returned when a referenced vertex id is absent.
	ErrVertexNotFound = errors.New("vertex not found")

	// ErrBeamNotFound is returned when a referenced beam id is absent.
	ErrBeamNotFound = errors.New("beam not found")

	// ErrBeamAlreadyExists is returned when a join is requested between two
	// vertices that are already directly connected.
	ErrBeamAlreadyExists = errors.New("vertices are already connected by a beam")

	// ErrEmptyGraph is returned when an edit would leave the graph with zero
	// beams. An empty graph is not a valid state; the caller must delete the
	// structure through its owner instead.
	ErrEmptyGraph = errors.New("edit would leave the graph empty")
)
