// Package streets holds the pedestrian street graph: a directed graph
// with geographic node positions and integer walking-time edge weights,
// a spatial index for nearest-node lookup, and bounded Dijkstra searches.
package streets

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/quadtree"

	"github.com/chingiztob/ferrobus/transit"
)

// WalkingSpeed is the assumed pedestrian speed in meters per second.
const WalkingSpeed = 1.4

// Edge is one directed street segment. Geometry is kept for journey
// rendering only and plays no part in routing.
type Edge struct {
	To       int
	Weight   transit.Time
	Geometry orb.LineString
}

// Graph is the frozen street network. Construct it with a Builder; once
// built it is immutable and safe for concurrent queries.
type Graph struct {
	nodes []orb.Point
	adj   [][]Edge
	tree  *quadtree.Quadtree
}

// Builder accumulates nodes and edges, then freezes them into a Graph.
type Builder struct {
	nodes []orb.Point
	adj   [][]Edge
}

func NewBuilder() *Builder {
	return &Builder{}
}

// AddNode registers a node and returns its index.
func (b *Builder) AddNode(p orb.Point) int {
	b.nodes = append(b.nodes, p)
	b.adj = append(b.adj, nil)
	return len(b.nodes) - 1
}

// AddEdge adds a directed edge. Out-of-range endpoints are ignored.
func (b *Builder) AddEdge(from, to int, seconds transit.Time, geom orb.LineString) {
	if from < 0 || from >= len(b.nodes) || to < 0 || to >= len(b.nodes) {
		return
	}
	b.adj[from] = append(b.adj[from], Edge{To: to, Weight: seconds, Geometry: geom})
}

type nodePointer struct {
	idx   int
	point orb.Point
}

func (n nodePointer) Point() orb.Point { return n.point }

// Build freezes the graph and indexes the nodes for nearest-neighbor
// queries.
func (b *Builder) Build() *Graph {
	g := &Graph{nodes: b.nodes, adj: b.adj}
	if len(g.nodes) == 0 {
		return g
	}

	bound := orb.Bound{Min: g.nodes[0], Max: g.nodes[0]}
	for _, p := range g.nodes {
		bound = bound.Extend(p)
	}
	g.tree = quadtree.New(bound.Pad(0.001))
	for i, p := range g.nodes {
		// quadtree.Add only fails for points outside the bound.
		_ = g.tree.Add(nodePointer{idx: i, point: p})
	}
	return g
}

func (g *Graph) NumNodes() int { return len(g.nodes) }

func (g *Graph) NodePoint(i int) orb.Point { return g.nodes[i] }

// OutEdges returns the outgoing edges of a node as a borrowed slice.
func (g *Graph) OutEdges(i int) []Edge { return g.adj[i] }

// NearestNode returns the graph node closest to p and the walking time
// from p to it. ok is false when the graph has no nodes.
func (g *Graph) NearestNode(p orb.Point) (node int, seconds transit.Time, ok bool) {
	if g.tree == nil {
		return 0, 0, false
	}
	found := g.tree.Find(p)
	if found == nil {
		return 0, 0, false
	}
	np := found.(nodePointer)
	meters := geo.DistanceHaversine(p, np.point)
	return np.idx, transit.Time(math.Round(meters / WalkingSpeed)), true
}
