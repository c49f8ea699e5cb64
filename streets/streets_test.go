package streets

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chingiztob/ferrobus/transit"
)

// diamond builds:
//
//	0 -> 1 (100s) -> 3 (100s)
//	0 -> 2 (50s)  -> 3 (300s)
//
// so the fast path to 3 runs through 1.
func diamond() *Graph {
	b := NewBuilder()
	points := []orb.Point{{0, 0}, {0.001, 0}, {0, 0.001}, {0.001, 0.001}}
	for _, p := range points {
		b.AddNode(p)
	}
	add := func(from, to int, w transit.Time) {
		b.AddEdge(from, to, w, orb.LineString{points[from], points[to]})
		b.AddEdge(to, from, w, orb.LineString{points[to], points[from]})
	}
	add(0, 1, 100)
	add(1, 3, 100)
	add(0, 2, 50)
	add(2, 3, 300)
	return b.Build()
}

func TestDijkstraWeights(t *testing.T) {
	g := diamond()

	dist := g.DijkstraWeights(0, NoTarget, NoLimit)
	assert.Equal(t, transit.Time(0), dist[0])
	assert.Equal(t, transit.Time(100), dist[1])
	assert.Equal(t, transit.Time(50), dist[2])
	assert.Equal(t, transit.Time(200), dist[3])
}

func TestDijkstraCutoff(t *testing.T) {
	g := diamond()

	dist := g.DijkstraWeights(0, NoTarget, 120)
	assert.Equal(t, transit.Time(100), dist[1])
	assert.Equal(t, transit.Time(50), dist[2])
	// Node 3 costs 200; it is never settled under the cutoff.
	if d, ok := dist[3]; ok {
		assert.Greater(t, d, transit.Time(120))
	}
}

func TestDijkstraUnreachable(t *testing.T) {
	b := NewBuilder()
	b.AddNode(orb.Point{0, 0})
	b.AddNode(orb.Point{1, 1}) // isolated
	g := b.Build()

	dist := g.DijkstraWeights(0, NoTarget, NoLimit)
	_, ok := dist[1]
	assert.False(t, ok, "unreachable node must be absent")
}

func TestDijkstraEarlyExitOnTarget(t *testing.T) {
	g := diamond()

	dist := g.DijkstraWeights(0, 3, NoLimit)
	assert.Equal(t, transit.Time(200), dist[3])
}

func TestDijkstraPaths(t *testing.T) {
	g := diamond()

	paths := g.DijkstraPaths(0, NoTarget, NoLimit)
	path3 := paths[3]
	require.NotEmpty(t, path3)

	// The path to 3 goes through node 1.
	assert.Equal(t, orb.Point{0, 0}, path3[0])
	assert.Equal(t, orb.Point{0.001, 0.001}, path3[len(path3)-1])
	assert.Contains(t, path3, orb.Point{0.001, 0})
}

func TestNearestNode(t *testing.T) {
	g := diamond()

	node, seconds, ok := g.NearestNode(orb.Point{0.0001, 0})
	require.True(t, ok)
	assert.Equal(t, 0, node)
	assert.Greater(t, seconds, transit.Time(0))

	node, seconds, ok = g.NearestNode(orb.Point{0, 0})
	require.True(t, ok)
	assert.Equal(t, 0, node)
	assert.Equal(t, transit.Time(0), seconds)
}

func TestNearestNodeEmptyGraph(t *testing.T) {
	g := NewBuilder().Build()
	_, _, ok := g.NearestNode(orb.Point{0, 0})
	assert.False(t, ok)
}
