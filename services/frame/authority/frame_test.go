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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/shipframe/services/frame/graph"
	"github.com/AleutianAI/shipframe/services/frame/wire"
)

func TestFrame_AddBeamExtend(t *testing.T) {
	w := NewWorld[string]()
	f, _, up := w.NewFrame(vec(0, 0, 0), vec(1, 0, 0), "keel")

	pos := vec(2, 0, 0)
	fresh, update, err := f.AddBeamExtend(up, pos, "strut")
	require.NoError(t, err)

	assert.Equal(t, graph.VertexID(2), fresh)
	require.NoError(t, update.Validate())
	assert.Equal(t, wire.OpAddBeam, update.Op)
	assert.Equal(t, up, update.AddBeam.VertexA)
	assert.Nil(t, update.AddBeam.PositionA, "existing vertex carries no position")
	assert.Equal(t, fresh, update.AddBeam.VertexB)
	require.NotNil(t, update.AddBeam.PositionB)
	assert.Equal(t, pos, *update.AddBeam.PositionB)
	assert.Equal(t, "strut", update.AddBeam.BeamData)
}

func TestFrame_AddBeamExtend_Error(t *testing.T) {
	w := NewWorld[string]()
	f, _, _ := w.NewFrame(vec(0, 0, 0), vec(1, 0, 0), "keel")

	_, _, err := f.AddBeamExtend(99, vec(2, 0, 0), "strut")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)
}

func TestFrame_AddBeamJoin(t *testing.T) {
	w := NewWorld[string]()
	f, down, up := w.NewFrame(vec(0, 0, 0), vec(1, 0, 0), "keel")
	third, _, err := f.AddBeamExtend(up, vec(1, 1, 0), "rib")
	require.NoError(t, err)

	update, err := f.AddBeamJoin(third, down, "brace")
	require.NoError(t, err)
	require.NoError(t, update.Validate())
	assert.Equal(t, wire.OpAddBeam, update.Op)
	assert.Nil(t, update.AddBeam.PositionA)
	assert.Nil(t, update.AddBeam.PositionB, "joins create no vertices")

	_, err = f.AddBeamJoin(third, down, "again")
	assert.ErrorIs(t, err, graph.ErrBeamAlreadyExists)
}

func TestFrame_RemoveBeam_NoSplit(t *testing.T) {
	w := NewWorld[string]()
	f, _, up := w.NewFrame(vec(0, 0, 0), vec(1, 0, 0), "keel")
	fresh, _, err := f.AddBeamExtend(up, vec(2, 0, 0), "strut")
	require.NoError(t, err)

	id, err := graph.NewBeamID(up, fresh)
	require.NoError(t, err)

	update, detached, data, err := f.RemoveBeam(id)
	require.NoError(t, err)
	assert.Nil(t, detached)
	assert.Equal(t, "strut", data)
	require.NoError(t, update.Validate())
	assert.Equal(t, wire.OpRemoveBeam, update.Op)
	assert.Equal(t, id, update.RemoveBeam.ID)
}

func TestFrame_RemoveBeam_Split(t *testing.T) {
	// Chain 0-1-2-3; removing 1-2 detaches the component holding the down
	// anchor. The detached frame shares the world's allocator.
	w := NewWorld[string]()
	f, _, up := w.NewFrame(vec(0, 0, 0), vec(1, 0, 0), "a")
	v2, _, err := f.AddBeamExtend(up, vec(2, 0, 0), "b")
	require.NoError(t, err)
	_, _, err = f.AddBeamExtend(v2, vec(3, 0, 0), "c")
	require.NoError(t, err)

	bridge, err := graph.NewBeamID(up, v2)
	require.NoError(t, err)

	update, detached, data, err := f.RemoveBeam(bridge)
	require.NoError(t, err)
	require.NotNil(t, detached)
	assert.Equal(t, "b", data)
	assert.Equal(t, wire.OpRemoveBeam, update.Op)

	assert.Equal(t, 2, f.Graph().NumVertices())
	assert.Equal(t, 2, detached.Graph().NumVertices())

	// Extending the detached frame keeps drawing from the same namespace.
	anchor := detached.Graph().VertexIDs()[0]
	grown, _, err := detached.AddBeamExtend(anchor, vec(9, 9, 9), "d")
	require.NoError(t, err)
	assert.Equal(t, graph.VertexID(4), grown)
}

func TestFrame_RemoveBeam_Errors(t *testing.T) {
	w := NewWorld[string]()
	f, down, up := w.NewFrame(vec(0, 0, 0), vec(1, 0, 0), "keel")

	_, _, _, err := f.RemoveBeam(graph.BeamID{Down: 8, Up: 9})
	assert.ErrorIs(t, err, graph.ErrBeamNotFound)

	last, err := graph.NewBeamID(down, up)
	require.NoError(t, err)
	_, _, _, err = f.RemoveBeam(last)
	assert.ErrorIs(t, err, graph.ErrEmptyGraph)
}

func TestFrame_MergeVertices(t *testing.T) {
	w := NewWorld[string]()
	f, v0, v1 := w.NewFrame(vec(0, 0, 0), vec(1, 0, 0), "a")
	v2, _, err := f.AddBeamExtend(v0, vec(0, 1, 0), "b")
	require.NoError(t, err)
	v3, _, err := f.AddBeamExtend(v1, vec(1, 1, 0), "c")
	require.NoError(t, err)

	update, err := f.MergeVertices(v2, v3)
	require.NoError(t, err)
	require.NoError(t, update.Validate())
	assert.Equal(t, wire.OpMergeVertices, update.Op)
	assert.Equal(t, v2, update.MergeVertices.From)
	assert.Equal(t, v3, update.MergeVertices.Into)

	_, err = f.MergeVertices(v0, v1)
	assert.ErrorIs(t, err, graph.ErrSelfLoopBeam)
}

func TestFrame_SplitVertex(t *testing.T) {
	w := NewWorld[string]()
	f, v0, hub := w.NewFrame(vec(0, 0, 0), vec(1, 0, 0), "a")
	v2, _, err := f.AddBeamExtend(hub, vec(2, 0, 0), "b")
	require.NoError(t, err)
	v3, _, err := f.AddBeamExtend(hub, vec(1, 1, 0), "c")
	require.NoError(t, err)

	fresh, update, err := f.SplitVertex(hub, func(conn graph.BeamEnd) bool {
		return conn.Opposite() != v0
	})
	require.NoError(t, err)
	require.NotNil(t, update)
	require.NoError(t, update.Validate())
	assert.Equal(t, wire.OpSplitVertex, update.Op)
	assert.Equal(t, hub, update.SplitVertex.Vertex)
	assert.Equal(t, fresh, update.SplitVertex.NewVertex)

	// The moved list carries pre-split beam ids.
	expectMoved := []graph.BeamID{}
	for _, other := range []graph.VertexID{v2, v3} {
		id, err := graph.NewBeamID(hub, other)
		require.NoError(t, err)
		expectMoved = append(expectMoved, id)
	}
	assert.ElementsMatch(t, expectMoved, update.SplitVertex.Moved)
}

func TestFrame_SplitVertex_NoOp(t *testing.T) {
	w := NewWorld[string]()
	f, _, hub := w.NewFrame(vec(0, 0, 0), vec(1, 0, 0), "a")

	got, update, err := f.SplitVertex(hub, func(graph.BeamEnd) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, hub, got)
	assert.Nil(t, update, "no-op splits emit nothing")

	_, _, err = f.SplitVertex(99, func(graph.BeamEnd) bool { return true })
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)
}
