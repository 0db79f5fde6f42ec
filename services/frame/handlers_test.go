// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package frame

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/shipframe/services/frame/graph"
	"github.com/AleutianAI/shipframe/services/frame/wire"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := newTestService(t)
	router := gin.New()
	RegisterRoutes(router.Group("/v1"), NewHandlers(svc))
	return router, svc
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandlers_Health(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, ServiceVersion, body["version"])
}

func TestHandlers_CreateFrame(t *testing.T) {
	router, svc := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/frames", gin.H{
		"down_position": gin.H{"x": 0, "y": 0, "z": 0},
		"up_position":   gin.H{"x": 1, "y": 0, "z": 0},
		"beam_data":     gin.H{"kind": "keel"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	id, ok := body["frame_id"].(string)
	require.True(t, ok)
	assert.Equal(t, []string{id}, svc.Frames())
	assert.EqualValues(t, 0, body["down_vertex"])
	assert.EqualValues(t, 1, body["up_vertex"])
}

func TestHandlers_CreateFrame_MissingPosition(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/frames", gin.H{
		"down_position": gin.H{"x": 0, "y": 0, "z": 0},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_GetFrame(t *testing.T) {
	router, svc := newTestRouter(t)
	id, _, _ := svc.CreateFrame(vec(0, 0, 0), vec(1, 0, 0), beamData(`{"kind":"keel"}`))

	rec := doJSON(t, router, http.MethodGet, "/v1/frames/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot wire.SerializedGraph[BeamData]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Len(t, snapshot.Vertices, 2)
	assert.Len(t, snapshot.Beams, 1)

	rec = doJSON(t, router, http.MethodGet, "/v1/frames/no-such-frame", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_ExtendBeam(t *testing.T) {
	router, svc := newTestRouter(t)
	id, _, up := svc.CreateFrame(vec(0, 0, 0), vec(1, 0, 0), beamData(`{}`))

	rec := doJSON(t, router, http.MethodPost, "/v1/frames/"+id+"/beams/extend", gin.H{
		"vertex":    up,
		"position":  gin.H{"x": 2, "y": 0, "z": 0},
		"beam_data": gin.H{"kind": "strut"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decodeBody(t, rec)["new_vertex"])

	// Unknown source vertex.
	rec = doJSON(t, router, http.MethodPost, "/v1/frames/"+id+"/beams/extend", gin.H{
		"vertex":   99,
		"position": gin.H{"x": 3, "y": 0, "z": 0},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_JoinBeam_Conflict(t *testing.T) {
	router, svc := newTestRouter(t)
	id, down, up := svc.CreateFrame(vec(0, 0, 0), vec(1, 0, 0), beamData(`{}`))

	rec := doJSON(t, router, http.MethodPost, "/v1/frames/"+id+"/beams/join", gin.H{
		"vertex_a": down,
		"vertex_b": up,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/frames/"+id+"/beams/join", gin.H{
		"vertex_a": down,
		"vertex_b": down,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "self loop is a bad request")
}

func TestHandlers_RemoveBeam(t *testing.T) {
	router, svc := newTestRouter(t)
	id, _, up := svc.CreateFrame(vec(0, 0, 0), vec(1, 0, 0), beamData(`{}`))
	v2, err := svc.Extend(id, up, vec(2, 0, 0), beamData(`{}`))
	require.NoError(t, err)
	_, err = svc.Extend(id, v2, vec(3, 0, 0), beamData(`{}`))
	require.NoError(t, err)

	bridge, err := graph.NewBeamID(up, v2)
	require.NoError(t, err)
	rec := doJSON(t, router, http.MethodPost, "/v1/frames/"+id+"/beams/remove", gin.H{
		"beam": bridge,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["split"])
	detachedID, ok := body["detached_frame_id"].(string)
	require.True(t, ok)
	assert.Contains(t, svc.Frames(), detachedID)
}

func TestHandlers_RemoveBeam_LastBeam(t *testing.T) {
	router, svc := newTestRouter(t)
	id, down, up := svc.CreateFrame(vec(0, 0, 0), vec(1, 0, 0), beamData(`{}`))

	last, err := graph.NewBeamID(down, up)
	require.NoError(t, err)
	rec := doJSON(t, router, http.MethodPost, "/v1/frames/"+id+"/beams/remove", gin.H{
		"beam": last,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlers_MergeAndSplit(t *testing.T) {
	router, svc := newTestRouter(t)
	id, v0, v1 := svc.CreateFrame(vec(0, 0, 0), vec(1, 0, 0), beamData(`{}`))
	v2, err := svc.Extend(id, v0, vec(0, 1, 0), beamData(`{}`))
	require.NoError(t, err)
	v3, err := svc.Extend(id, v1, vec(1, 1, 0), beamData(`{}`))
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/v1/frames/"+id+"/vertices/merge", gin.H{
		"from": v2,
		"into": v3,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Split the moved beam back off the junction.
	moved, err := graph.NewBeamID(v0, v3)
	require.NoError(t, err)
	rec = doJSON(t, router, http.MethodPost, "/v1/frames/"+id+"/vertices/split", gin.H{
		"vertex": v3,
		"beams":  []graph.BeamID{moved},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["moved"])
	assert.NotEqualValues(t, v3, body["vertex"])
}

func TestHandlers_SplitVertex_NoOp(t *testing.T) {
	router, svc := newTestRouter(t)
	id, _, up := svc.CreateFrame(vec(0, 0, 0), vec(1, 0, 0), beamData(`{}`))

	rec := doJSON(t, router, http.MethodPost, "/v1/frames/"+id+"/vertices/split", gin.H{
		"vertex": up,
		"beams":  []graph.BeamID{},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["moved"])
	assert.EqualValues(t, up, body["vertex"])
}

func TestHandlers_AdoptFrame(t *testing.T) {
	router, svc := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/frames/adopt", wire.SerializedGraph[BeamData]{
		Vertices: []wire.SerializedVertex{
			{ID: 10, Position: vec(0, 0, 0)},
			{ID: 20, Position: vec(1, 0, 0)},
		},
		Beams: []wire.SerializedBeam[BeamData]{
			{ID: graph.BeamID{Down: 10, Up: 20}, Data: beamData(`{"kind":"salvage"}`)},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	id, ok := decodeBody(t, rec)["frame_id"].(string)
	require.True(t, ok)
	assert.Contains(t, svc.Frames(), id)

	// An unbuildable snapshot is rejected.
	rec = doJSON(t, router, http.MethodPost, "/v1/frames/adopt", wire.SerializedGraph[BeamData]{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_DeleteFrame(t *testing.T) {
	router, svc := newTestRouter(t)
	id, _, _ := svc.CreateFrame(vec(0, 0, 0), vec(1, 0, 0), beamData(`{}`))

	rec := doJSON(t, router, http.MethodDelete, "/v1/frames/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, svc.Frames())

	rec = doJSON(t, router, http.MethodDelete, "/v1/frames/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
