// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package wire defines the replication formats for frame graphs: the
// full-snapshot form used for state transfer and the incremental update
// messages an authority emits for its mirrors.
//
// Messages are JSON-encoded on the wire. Payload types must therefore be
// JSON-serializable.
package wire

import "errors"

// Sentinel errors for snapshot and update decoding.
var (
	// ErrInvalidSnapshot is returned when a snapshot cannot be rebuilt into a
	// valid graph: a beam references a vertex absent from the vertex list, a
	// vertex or beam id appears twice, a beam id is non-canonical, or a
	// vertex has no beam at all.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrInvalidUpdate is returned when an update message is malformed: an
	// unknown op, or a missing body for the declared op.
	ErrInvalidUpdate = errors.New("invalid update message")
)
