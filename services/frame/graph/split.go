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

import "container/heap"

// queueItem is one frontier entry of the connectivity search.
type queueItem struct {
	// priority is the accumulated path cost plus the straight-line distance
	// to the goal anchor.
	priority float64

	// cost is the accumulated path cost from the start anchor.
	cost float64

	vertex VertexID
}

// frontier is a min-heap of queue items ordered by priority.
type frontier []queueItem

func (f frontier) Len() int           { return len(f) }
func (f frontier) Less(i, j int) bool { return f[i].priority < f[j].priority }
func (f frontier) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)        { *f = append(*f, x.(queueItem)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

// searchConnected runs a best-first shortest-path search from start toward
// goal over the current beam graph. Beam length is both the edge cost and the
// heuristic (straight-line distance never overestimates the true path cost
// through the network, so the heuristic is admissible).
//
// Returns (visited, true) as soon as the goal is popped from the frontier:
// the anchors remain mutually reachable. Returns (visited, false) when the
// frontier is exhausted first; visited then holds exactly the component
// reachable from start, which is what makes extraction correct.
func (g *Graph[B]) searchConnected(start, goal VertexID) (map[VertexID]struct{}, bool) {
	visited := make(map[VertexID]struct{})

	// Lowest confirmed cost per vertex; missing means infinity. Stale queue
	// entries are skipped when a cheaper path has since been found.
	bestCost := map[VertexID]float64{start: 0}

	goalPos := g.vertices[goal].position

	f := frontier{{
		priority: g.vertices[start].position.Distance(goalPos),
		cost:     0,
		vertex:   start,
	}}
	heap.Init(&f)

	for f.Len() > 0 {
		item := heap.Pop(&f).(queueItem)

		if item.vertex == goal {
			return visited, true
		}

		visited[item.vertex] = struct{}{}

		pathCost := bestCost[item.vertex]
		if pathCost < item.cost {
			// A cheaper path to this vertex was confirmed after this entry
			// was queued.
			continue
		}

		vertex := g.vertices[item.vertex]
		for _, conn := range vertex.connections {
			oppID := conn.Opposite()
			opp := g.vertices[oppID]

			candidate := pathCost + vertex.position.Distance(opp.position)

			current, known := bestCost[oppID]
			if known && candidate >= current {
				continue
			}
			bestCost[oppID] = candidate

			heap.Push(&f, queueItem{
				priority: candidate + opp.position.Distance(goalPos),
				cost:     candidate,
				vertex:   oppID,
			})
		}
	}

	return visited, false
}

// extractComponent moves the given vertices, and every beam touching only
// them, out of g into a new graph. The set must be closed under connectivity;
// searchConnected guarantees that when the goal was never reached.
func (g *Graph[B]) extractComponent(vertices map[VertexID]struct{}) *Graph[B] {
	detached := Empty[B]()

	for id := range vertices {
		vertex := g.vertices[id]
		delete(g.vertices, id)

		// Each beam is moved exactly once, when its down end is seen.
		for _, conn := range vertex.connections {
			if conn.End != Down {
				continue
			}
			detached.beams[conn.Beam] = g.beams[conn.Beam]
			delete(g.beams, conn.Beam)
		}

		detached.vertices[id] = vertex
	}

	return detached
}
