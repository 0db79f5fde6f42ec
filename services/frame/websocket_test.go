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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/shipframe/services/frame/mirror"
	"github.com/AleutianAI/shipframe/services/frame/wire"
)

func dialWatch(t *testing.T, server *httptest.Server, frameID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/frames/" + frameID + "/watch"
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readWatch(t *testing.T, ws *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg wsMessage
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

func TestWatchFrame_SnapshotThenUpdates(t *testing.T) {
	router, svc := newTestRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	id, _, up := svc.CreateFrame(vec(0, 0, 0), vec(1, 0, 0), beamData(`{"kind":"keel"}`))
	ws := dialWatch(t, server, id)

	seed := readWatch(t, ws)
	require.Equal(t, wsTypeSnapshot, seed.Type)
	require.NotNil(t, seed.Snapshot)

	m, err := mirror.New(*seed.Snapshot)
	require.NoError(t, err)

	_, err = svc.Extend(id, up, vec(2, 0, 0), beamData(`{"kind":"strut"}`))
	require.NoError(t, err)

	msg := readWatch(t, ws)
	require.Equal(t, wsTypeUpdate, msg.Type)
	require.NotNil(t, msg.Update)
	_, err = m.Apply(*msg.Update)
	require.NoError(t, err)

	snapshot, err := svc.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, snapshot, wire.Snapshot(m.Graph()))
}

func TestWatchFrame_ClosedOnFrameDelete(t *testing.T) {
	router, svc := newTestRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	id, _, _ := svc.CreateFrame(vec(0, 0, 0), vec(1, 0, 0), beamData(`{}`))
	ws := dialWatch(t, server, id)
	_ = readWatch(t, ws) // snapshot

	require.NoError(t, svc.DeleteFrame(id))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wsMessage
	err := ws.ReadJSON(&msg)
	assert.Error(t, err, "server closes the stream when the frame is deleted")
}

func TestWatchFrame_UnknownFrame(t *testing.T) {
	router, _ := newTestRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/v1/frames/no-such-frame/watch")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
