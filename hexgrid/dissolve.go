package hexgrid

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// vertexKey quantizes a planar vertex to millimeters so that the shared
// vertices of adjacent cells compare equal despite float rounding.
type vertexKey struct {
	x int64
	y int64
}

type boundaryEdge struct {
	from vertexKey
	to   vertexKey
	pt   orb.Point // lon/lat of the from vertex
}

func key(x, y float64) vertexKey {
	return vertexKey{x: int64(math.Round(x * 1000)), y: int64(math.Round(y * 1000))}
}

// Dissolve merges a cell set into a MultiPolygon. Interior edges shared by
// two cells cancel; the remaining directed boundary edges are stitched
// into rings. Counterclockwise rings become outer shells, clockwise rings
// holes, assigned to the shell that contains them.
func (g Grid) Dissolve(cells []Cell) orb.MultiPolygon {
	if len(cells) == 0 {
		return nil
	}

	present := make(map[Cell]bool, len(cells))
	for _, c := range cells {
		present[c] = true
	}

	type edgeKey struct{ from, to vertexKey }
	edges := map[edgeKey]boundaryEdge{}
	for c := range present {
		for k := 0; k < 6; k++ {
			x0, y0 := g.vertexXY(c, k)
			x1, y1 := g.vertexXY(c, (k+1)%6)
			from, to := key(x0, y0), key(x1, y1)
			reverse := edgeKey{from: to, to: from}
			if _, shared := edges[reverse]; shared {
				delete(edges, reverse)
				continue
			}
			edges[edgeKey{from: from, to: to}] = boundaryEdge{
				from: from,
				to:   to,
				pt:   g.unproject(x0, y0),
			}
		}
	}

	// Outgoing edges per vertex, sorted for deterministic stitching.
	outgoing := map[vertexKey][]boundaryEdge{}
	for _, e := range edges {
		outgoing[e.from] = append(outgoing[e.from], e)
	}
	for v := range outgoing {
		list := outgoing[v]
		sort.Slice(list, func(i, j int) bool {
			if list[i].to.x != list[j].to.x {
				return list[i].to.x < list[j].to.x
			}
			return list[i].to.y < list[j].to.y
		})
		outgoing[v] = list
	}

	starts := make([]vertexKey, 0, len(outgoing))
	for v := range outgoing {
		starts = append(starts, v)
	}
	sort.Slice(starts, func(i, j int) bool {
		if starts[i].x != starts[j].x {
			return starts[i].x < starts[j].x
		}
		return starts[i].y < starts[j].y
	})

	var outers []orb.Ring
	var holes []orb.Ring
	for _, start := range starts {
		for len(outgoing[start]) > 0 {
			ring, area := walkRing(start, outgoing)
			if len(ring) < 4 {
				continue
			}
			if area > 0 {
				outers = append(outers, ring)
			} else {
				holes = append(holes, ring)
			}
		}
	}

	polygons := make(orb.MultiPolygon, 0, len(outers))
	for _, outer := range outers {
		polygons = append(polygons, orb.Polygon{outer})
	}
	for _, hole := range holes {
		for i, poly := range polygons {
			if planar.RingContains(poly[0], hole[0]) {
				polygons[i] = append(polygons[i], hole)
				break
			}
		}
	}
	return polygons
}

// walkRing follows boundary edges from start until the ring closes,
// consuming the edges it uses. It returns the lon/lat ring and its signed
// area in the planar space (positive = counterclockwise).
func walkRing(start vertexKey, outgoing map[vertexKey][]boundaryEdge) (orb.Ring, float64) {
	var ring orb.Ring
	area := 0.0

	cur := start
	var prevX, prevY float64
	first := true
	var firstX, firstY float64

	for {
		list := outgoing[cur]
		if len(list) == 0 {
			break
		}
		e := list[0]
		outgoing[cur] = list[1:]

		ring = append(ring, e.pt)
		x, y := float64(e.from.x)/1000, float64(e.from.y)/1000
		if first {
			firstX, firstY = x, y
			first = false
		} else {
			area += prevX*y - x*prevY
		}
		prevX, prevY = x, y

		cur = e.to
		if cur == start {
			break
		}
	}

	if len(ring) > 0 {
		area += prevX*firstY - firstX*prevY
		ring = append(ring, ring[0])
	}
	return ring, area / 2
}
