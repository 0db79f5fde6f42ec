// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package frame is the HTTP/WebSocket service hosting authority frames.
//
// The service owns a set of canonical frames keyed by uuid, persists their
// snapshots to embedded storage, and streams incremental updates to
// WebSocket watchers so remote mirrors stay consistent.
package frame

import "errors"

// ErrUnknownFrame is returned when no frame exists under the requested id.
var ErrUnknownFrame = errors.New("unknown frame id")
