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
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/shipframe/services/frame/wire"
)

// Watch stream message types.
const (
	wsTypeSnapshot = "snapshot"
	wsTypeUpdate   = "update"
)

// wsWriteTimeout bounds a single WebSocket write.
const wsWriteTimeout = 10 * time.Second

// wsMessage is one watch-stream envelope. The first message a watcher
// receives is the full snapshot; every following message is an incremental
// update to replay in order.
type wsMessage struct {
	Type     string                          `json:"type"`
	Snapshot *wire.SerializedGraph[BeamData] `json:"snapshot,omitempty"`
	Update   *wire.FrameUpdate[BeamData]     `json:"update,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WatchFrame handles GET /frames/:id/watch, upgrading to a WebSocket that
// seeds the client with a snapshot and then streams updates until the client
// disconnects, the frame is deleted, or the client falls too far behind.
func (h *Handlers) WatchFrame(c *gin.Context) {
	frameID := c.Param("id")

	sessionID, snapshot, updates, err := h.svc.Watch(frameID)
	if err != nil {
		h.fail(c, err)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.svc.Unwatch(frameID, sessionID)
		h.logger.Error("Failed to upgrade watch connection", "frame", frameID, "error", err)
		return
	}
	defer ws.Close()

	h.logger.Info("Watch session started", "frame", frameID, "session", sessionID)

	if err := h.writeMessage(ws, wsMessage{Type: wsTypeSnapshot, Snapshot: &snapshot}); err != nil {
		h.svc.Unwatch(frameID, sessionID)
		return
	}

	// Reader goroutine: the protocol is one-way, so the only things to read
	// are pings and the close frame.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer h.svc.Unwatch(frameID, sessionID)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				// Dropped for falling behind, or the frame was deleted.
				h.logger.Info("Watch stream closed by service",
					"frame", frameID, "session", sessionID)
				return
			}
			if err := h.writeMessage(ws, wsMessage{Type: wsTypeUpdate, Update: &update}); err != nil {
				return
			}
		case <-done:
			h.logger.Info("Watch client disconnected",
				"frame", frameID, "session", sessionID)
			return
		}
	}
}

func (h *Handlers) writeMessage(ws *websocket.Conn, msg wsMessage) error {
	ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := ws.WriteJSON(msg); err != nil {
		h.logger.Warn("Failed to write watch message", "error", err)
		return err
	}
	return nil
}
