package streets

import (
	"container/heap"

	"github.com/paulmach/orb"

	"github.com/chingiztob/ferrobus/transit"
)

// NoTarget makes a Dijkstra run explore until maxCost (or exhaustion).
const NoTarget = -1

// NoLimit disables the cost cutoff.
const NoLimit = transit.Infinity

type nodeDist struct {
	cost transit.Time
	node int
}

type distHeap []nodeDist

func (h distHeap) Len() int { return len(h) }
func (h distHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	return h[i].node < h[j].node
}
func (h distHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x interface{}) { *h = append(*h, x.(nodeDist)) }
func (h *distHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// DijkstraWeights runs Dijkstra from start and returns the walking time in
// seconds to every node it reached. The search stops expanding when the
// target is popped or a popped cost exceeds maxCost. Nodes settled before
// that carry their shortest time; nodes that were only discovered carry a
// tentative time, which may exceed maxCost. It never fails: unreachable
// nodes are simply absent from the result.
func (g *Graph) DijkstraWeights(start, target int, maxCost transit.Time) map[int]transit.Time {
	dist := map[int]transit.Time{start: 0}
	h := &distHeap{{cost: 0, node: start}}

	for h.Len() > 0 {
		cur := heap.Pop(h).(nodeDist)
		if cur.node == target {
			break
		}
		if best, ok := dist[cur.node]; ok && cur.cost > best {
			continue // stale heap entry
		}
		if cur.cost > maxCost {
			continue
		}

		for _, e := range g.adj[cur.node] {
			next := transit.SaturatingAdd(cur.cost, e.Weight)
			if best, ok := dist[e.To]; !ok || next < best {
				dist[e.To] = next
				heap.Push(h, nodeDist{cost: next, node: e.To})
			}
		}
	}
	return dist
}

// DijkstraPaths is the traced variant: it additionally tracks predecessor
// edges and returns the merged walking polyline to every node it reached
// (for nodes that were only discovered, the polyline of the tentative path).
// Used only when journey geometry is needed.
func (g *Graph) DijkstraPaths(start, target int, maxCost transit.Time) map[int]orb.LineString {
	type prevEdge struct {
		node int
		geom orb.LineString
	}

	dist := map[int]transit.Time{start: 0}
	prev := map[int]prevEdge{}
	h := &distHeap{{cost: 0, node: start}}

	for h.Len() > 0 {
		cur := heap.Pop(h).(nodeDist)
		if cur.node == target {
			break
		}
		if best, ok := dist[cur.node]; ok && cur.cost > best {
			continue
		}
		if cur.cost > maxCost {
			continue
		}

		for _, e := range g.adj[cur.node] {
			next := transit.SaturatingAdd(cur.cost, e.Weight)
			if best, ok := dist[e.To]; !ok || next < best {
				dist[e.To] = next
				prev[e.To] = prevEdge{node: cur.node, geom: e.Geometry}
				heap.Push(h, nodeDist{cost: next, node: e.To})
			}
		}
	}

	paths := make(map[int]orb.LineString, len(dist))
	for node := range dist {
		var segments []orb.LineString
		cur := node
		for cur != start {
			pe, ok := prev[cur]
			if !ok {
				break
			}
			segments = append(segments, pe.geom)
			cur = pe.node
		}
		for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
			segments[i], segments[j] = segments[j], segments[i]
		}
		paths[node] = mergeSegments(segments)
	}
	return paths
}

// mergeSegments joins consecutive edge polylines, dropping the duplicated
// joint coordinate between segments.
func mergeSegments(segments []orb.LineString) orb.LineString {
	var line orb.LineString
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if len(line) > 0 && line[len(line)-1] == seg[0] {
			line = append(line, seg[1:]...)
		} else {
			line = append(line, seg...)
		}
	}
	return line
}
