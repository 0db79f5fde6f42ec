// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/shipframe/services/frame/wire"
)

// ErrFrameNotFound is returned when no snapshot is stored under a frame id.
var ErrFrameNotFound = errors.New("frame not found in store")

// framePrefix namespaces frame snapshot keys within the database.
const framePrefix = "frame:"

// FrameStore persists the latest snapshot of each frame.
//
// Writes replace the whole value; snapshots are small (a ship frame has a
// practically bounded number of beams) and replacing beats maintaining a
// per-edit log.
type FrameStore[B any] struct {
	db *badger.DB
}

// NewFrameStore wraps an open database. The store does not own the database;
// the caller closes it.
func NewFrameStore[B any](db *badger.DB) *FrameStore[B] {
	return &FrameStore[B]{db: db}
}

// Put stores the snapshot under the frame id, replacing any previous one.
func (s *FrameStore[B]) Put(frameID string, snapshot wire.SerializedGraph[B]) error {
	value, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode frame %s: %w", frameID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(framePrefix+frameID), value)
	})
	if err != nil {
		return fmt.Errorf("store frame %s: %w", frameID, err)
	}
	return nil
}

// Get loads the snapshot stored under the frame id.
func (s *FrameStore[B]) Get(frameID string) (wire.SerializedGraph[B], error) {
	var snapshot wire.SerializedGraph[B]

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(framePrefix + frameID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("frame %s: %w", frameID, ErrFrameNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &snapshot)
		})
	})
	if err != nil {
		return wire.SerializedGraph[B]{}, err
	}
	return snapshot, nil
}

// Delete removes the snapshot stored under the frame id. Deleting an absent
// frame is not an error.
func (s *FrameStore[B]) Delete(frameID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(framePrefix + frameID))
	})
	if err != nil {
		return fmt.Errorf("delete frame %s: %w", frameID, err)
	}
	return nil
}

// List returns the ids of all stored frames.
func (s *FrameStore[B]) List() ([]string, error) {
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(framePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, strings.TrimPrefix(key, framePrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	return ids, nil
}
