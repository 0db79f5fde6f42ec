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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Service-level Prometheus metrics.
var (
	framesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shipframe_frames_active",
		Help: "Number of frames currently hosted by the service.",
	})

	watchersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shipframe_watchers_active",
		Help: "Number of connected WebSocket watchers.",
	})

	editsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipframe_edits_total",
		Help: "Total frame edits processed, by operation.",
	}, []string{"op"})

	splitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipframe_splits_total",
		Help: "Total beam removals that split a frame in two.",
	})

	snapshotWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipframe_snapshot_writes_total",
		Help: "Total frame snapshots written to storage.",
	})

	watchersDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipframe_watchers_dropped_total",
		Help: "Watchers disconnected for falling behind the update stream.",
	})
)
