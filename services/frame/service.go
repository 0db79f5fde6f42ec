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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/shipframe/services/frame/authority"
	"github.com/AleutianAI/shipframe/services/frame/config"
	"github.com/AleutianAI/shipframe/services/frame/geom"
	"github.com/AleutianAI/shipframe/services/frame/graph"
	storage "github.com/AleutianAI/shipframe/services/frame/storage/badger"
	"github.com/AleutianAI/shipframe/services/frame/wire"
)

// BeamData is the payload the service carries on every beam. The graph core
// is payload-agnostic; the service keeps it as opaque JSON so hosts define
// their own beam schema.
type BeamData = json.RawMessage

// watcher is one connected update-stream subscriber.
type watcher struct {
	id      string
	updates chan wire.FrameUpdate[BeamData]
}

// frameEntry is one hosted frame with its subscribers and persistence state.
type frameEntry struct {
	frame    *authority.Frame[BeamData]
	watchers map[string]*watcher

	// limiter bounds snapshot writes; nil means write on every edit.
	limiter *rate.Limiter
	dirty   bool
}

// Service hosts authority frames, persists their snapshots, and fans out
// updates to watchers.
//
// All frame access is serialized by one mutex; graph mutation is synchronous
// and the structures are bounded, so a single lock is cheaper than per-frame
// juggling.
type Service struct {
	mu     sync.Mutex
	world  *authority.World[BeamData]
	frames map[string]*frameEntry
	store  *storage.FrameStore[BeamData]
	repl   config.ReplicationConfig
	logger *slog.Logger
}

// NewService creates the service and reloads every frame snapshot found in
// the store. Vertex ids are session-scoped: reloaded snapshots are adopted
// through the remapping path into the new session's namespace, while frame
// ids stay stable. A snapshot that fails to rebuild is logged and skipped,
// never silently repaired.
func NewService(store *storage.FrameStore[BeamData], repl config.ReplicationConfig, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		world:  authority.NewWorld[BeamData](),
		frames: make(map[string]*frameEntry),
		store:  store,
		repl:   repl,
		logger: logger,
	}

	ids, err := store.List()
	if err != nil {
		return nil, fmt.Errorf("load frames: %w", err)
	}
	for _, id := range ids {
		snapshot, err := store.Get(id)
		if err != nil {
			logger.Error("Failed to load frame snapshot", "frame", id, "error", err)
			continue
		}
		frame, err := s.world.AdoptFragment(snapshot)
		if err != nil {
			logger.Error("Stored frame snapshot is invalid, skipping", "frame", id, "error", err)
			continue
		}
		s.frames[id] = s.newEntry(frame)
		logger.Info("Reloaded frame", "frame", id,
			"vertices", frame.Graph().NumVertices(), "beams", frame.Graph().NumBeams())
	}

	framesActive.Set(float64(len(s.frames)))
	return s, nil
}

func (s *Service) newEntry(frame *authority.Frame[BeamData]) *frameEntry {
	var limiter *rate.Limiter
	if s.repl.PersistEvery > 0 {
		limiter = rate.NewLimiter(rate.Every(s.repl.PersistEvery), 1)
	}
	return &frameEntry{
		frame:    frame,
		watchers: make(map[string]*watcher),
		limiter:  limiter,
	}
}

// Run flushes deferred snapshot writes until ctx is cancelled, then performs
// a final flush of everything dirty.
func (s *Service) Run(ctx context.Context) error {
	interval := s.repl.PersistEvery
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.flush(false)
		case <-ctx.Done():
			s.flush(true)
			return ctx.Err()
		}
	}
}

// flush writes dirty frames to storage. When force is set, the per-frame
// rate limit is ignored.
func (s *Service) flush(force bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.frames {
		if !entry.dirty {
			continue
		}
		if !force && entry.limiter != nil && !entry.limiter.Allow() {
			continue
		}
		s.writeSnapshotLocked(id, entry)
	}
}

// writeSnapshotLocked persists one frame now. Callers hold s.mu.
func (s *Service) writeSnapshotLocked(id string, entry *frameEntry) {
	if err := s.store.Put(id, entry.frame.Snapshot()); err != nil {
		s.logger.Error("Failed to persist frame snapshot", "frame", id, "error", err)
		return
	}
	entry.dirty = false
	snapshotWrites.Inc()
}

// persistLocked schedules a snapshot write after an edit, writing
// immediately when the rate limit allows. Callers hold s.mu.
func (s *Service) persistLocked(id string, entry *frameEntry) {
	if entry.limiter != nil && !entry.limiter.Allow() {
		entry.dirty = true
		return
	}
	s.writeSnapshotLocked(id, entry)
}

// broadcastLocked fans an update out to every watcher of the frame. A
// watcher whose buffer is full has fallen too far behind to ever converge
// incrementally; it is dropped and must resync from a snapshot.
func (s *Service) broadcastLocked(frameID string, entry *frameEntry, update wire.FrameUpdate[BeamData]) {
	for id, w := range entry.watchers {
		select {
		case w.updates <- update:
		default:
			delete(entry.watchers, id)
			close(w.updates)
			watchersActive.Dec()
			watchersDropped.Inc()
			s.logger.Warn("Dropped slow watcher", "frame", frameID, "session", id)
		}
	}
}

func (s *Service) entry(frameID string) (*frameEntry, error) {
	entry, ok := s.frames[frameID]
	if !ok {
		return nil, fmt.Errorf("frame %s: %w", frameID, ErrUnknownFrame)
	}
	return entry, nil
}

// CreateFrame creates a frame from its first beam and returns its id and the
// ids of the two vertices created, down first.
func (s *Service) CreateFrame(downPos, upPos geom.Vec3, data BeamData) (string, graph.VertexID, graph.VertexID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame, down, up := s.world.NewFrame(downPos, upPos, data)
	id := uuid.NewString()
	entry := s.newEntry(frame)
	s.frames[id] = entry

	s.writeSnapshotLocked(id, entry)
	framesActive.Set(float64(len(s.frames)))
	editsTotal.WithLabelValues("create_frame").Inc()
	s.logger.Info("Created frame", "frame", id)
	return id, down, up
}

// AdoptFrame remaps a foreign-namespace fragment into the service's id
// namespace and hosts it as a new frame.
func (s *Service) AdoptFrame(snapshot wire.SerializedGraph[BeamData]) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame, err := s.world.AdoptFragment(snapshot)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	entry := s.newEntry(frame)
	s.frames[id] = entry

	s.writeSnapshotLocked(id, entry)
	framesActive.Set(float64(len(s.frames)))
	editsTotal.WithLabelValues("adopt_frame").Inc()
	s.logger.Info("Adopted frame", "frame", id,
		"vertices", frame.Graph().NumVertices(), "beams", frame.Graph().NumBeams())
	return id, nil
}

// Frames returns the hosted frame ids in stable order.
func (s *Service) Frames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.frames))
	for id := range s.frames {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Snapshot returns the current full snapshot of a frame.
func (s *Service) Snapshot(frameID string) (wire.SerializedGraph[BeamData], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(frameID)
	if err != nil {
		return wire.SerializedGraph[BeamData]{}, err
	}
	return entry.frame.Snapshot(), nil
}

// DeleteFrame removes a frame from the service and from storage, closing
// every watcher stream.
func (s *Service) DeleteFrame(frameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(frameID)
	if err != nil {
		return err
	}

	for _, w := range entry.watchers {
		close(w.updates)
		watchersActive.Dec()
	}
	delete(s.frames, frameID)

	if err := s.store.Delete(frameID); err != nil {
		s.logger.Error("Failed to delete stored frame", "frame", frameID, "error", err)
	}
	framesActive.Set(float64(len(s.frames)))
	s.logger.Info("Deleted frame", "frame", frameID)
	return nil
}

// Extend adds a beam from an existing vertex to a new vertex at the given
// position. Returns the new vertex id.
func (s *Service) Extend(frameID string, existing graph.VertexID, position geom.Vec3, data BeamData) (graph.VertexID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(frameID)
	if err != nil {
		return 0, err
	}

	fresh, update, err := entry.frame.AddBeamExtend(existing, position, data)
	if err != nil {
		return 0, err
	}

	s.broadcastLocked(frameID, entry, update)
	s.persistLocked(frameID, entry)
	editsTotal.WithLabelValues("extend").Inc()
	return fresh, nil
}

// Join adds a beam between two existing vertices.
func (s *Service) Join(frameID string, a, b graph.VertexID, data BeamData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(frameID)
	if err != nil {
		return err
	}

	update, err := entry.frame.AddBeamJoin(a, b, data)
	if err != nil {
		return err
	}

	s.broadcastLocked(frameID, entry, update)
	s.persistLocked(frameID, entry)
	editsTotal.WithLabelValues("join").Inc()
	return nil
}

// RemoveBeam removes a beam. When the removal splits the frame, the detached
// component is hosted as a new frame and its id is returned; otherwise the
// returned id is empty.
func (s *Service) RemoveBeam(frameID string, beamID graph.BeamID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(frameID)
	if err != nil {
		return "", err
	}

	update, detached, _, err := entry.frame.RemoveBeam(beamID)
	if err != nil {
		return "", err
	}

	s.broadcastLocked(frameID, entry, update)
	s.persistLocked(frameID, entry)
	editsTotal.WithLabelValues("remove_beam").Inc()

	if detached == nil {
		return "", nil
	}

	detachedID := uuid.NewString()
	detachedEntry := s.newEntry(detached)
	s.frames[detachedID] = detachedEntry
	s.writeSnapshotLocked(detachedID, detachedEntry)

	framesActive.Set(float64(len(s.frames)))
	splitsTotal.Inc()
	s.logger.Info("Frame split", "frame", frameID, "detached", detachedID,
		"detached_vertices", detached.Graph().NumVertices(),
		"detached_beams", detached.Graph().NumBeams())
	return detachedID, nil
}

// Merge merges vertex from into vertex into.
func (s *Service) Merge(frameID string, from, into graph.VertexID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(frameID)
	if err != nil {
		return err
	}

	update, err := entry.frame.MergeVertices(from, into)
	if err != nil {
		return err
	}

	s.broadcastLocked(frameID, entry, update)
	s.persistLocked(frameID, entry)
	editsTotal.WithLabelValues("merge").Inc()
	return nil
}

// Split moves the listed beams' ends off the vertex onto a new vertex at the
// same position. Returns the new vertex id, or the original id when the list
// selected none or all of the vertex's connections.
func (s *Service) Split(frameID string, vertex graph.VertexID, beams []graph.BeamID) (graph.VertexID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(frameID)
	if err != nil {
		return 0, err
	}

	selected := make(map[graph.BeamID]bool, len(beams))
	for _, id := range beams {
		selected[id] = true
	}

	fresh, update, err := entry.frame.SplitVertex(vertex, func(conn graph.BeamEnd) bool {
		return selected[conn.Beam]
	})
	if err != nil {
		return 0, err
	}
	if update == nil {
		return fresh, nil
	}

	s.broadcastLocked(frameID, entry, *update)
	s.persistLocked(frameID, entry)
	editsTotal.WithLabelValues("split_vertex").Inc()
	return fresh, nil
}

// Watch subscribes to a frame's update stream. Returns the session id, the
// snapshot to seed the mirror from, and the update channel. The channel is
// closed when the watcher is dropped or the frame is deleted; call Unwatch
// to unsubscribe.
func (s *Service) Watch(frameID string) (string, wire.SerializedGraph[BeamData], <-chan wire.FrameUpdate[BeamData], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(frameID)
	if err != nil {
		return "", wire.SerializedGraph[BeamData]{}, nil, err
	}

	w := &watcher{
		id:      uuid.NewString(),
		updates: make(chan wire.FrameUpdate[BeamData], s.repl.SendBuffer),
	}
	entry.watchers[w.id] = w
	watchersActive.Inc()
	s.logger.Info("Watcher connected", "frame", frameID, "session", w.id)
	return w.id, entry.frame.Snapshot(), w.updates, nil
}

// Unwatch unsubscribes a watcher session. Unknown sessions are ignored; the
// watcher may already have been dropped for falling behind.
func (s *Service) Unwatch(frameID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.frames[frameID]
	if !ok {
		return
	}
	w, ok := entry.watchers[sessionID]
	if !ok {
		return
	}
	delete(entry.watchers, sessionID)
	close(w.updates)
	watchersActive.Dec()
	s.logger.Info("Watcher disconnected", "frame", frameID, "session", sessionID)
}
