// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for graph operations.
var meter = otel.Meter("aleutian.frame.graph")

// Edit operation names used as metric attributes.
const (
	opAddBeam       = "add_beam"
	opRemoveBeam    = "remove_beam"
	opMergeVertices = "merge_vertices"
	opSplitVertex   = "split_vertex"
)

// Metrics for graph edits and connectivity splits.
var (
	editsTotal   metric.Int64Counter
	splitsTotal  metric.Int64Counter
	splitVisited metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		editsTotal, err = meter.Int64Counter(
			"frame_graph_edits_total",
			metric.WithDescription("Total number of graph edit operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		splitsTotal, err = meter.Int64Counter(
			"frame_graph_splits_total",
			metric.WithDescription("Total number of removals that split a frame"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		splitVisited, err = meter.Int64Histogram(
			"frame_graph_split_component_size",
			metric.WithDescription("Vertices extracted into the detached component of a split"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordEdit counts one edit operation. Metrics failures never affect the
// operation itself.
func recordEdit(op string) {
	if initMetrics() != nil {
		return
	}
	editsTotal.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("op", op)))
}

// recordSplit counts one frame split and the size of the detached component.
func recordSplit(componentSize int) {
	if initMetrics() != nil {
		return
	}
	splitsTotal.Add(context.Background(), 1)
	splitVisited.Record(context.Background(), int64(componentSize))
}
