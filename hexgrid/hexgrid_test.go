package hexgrid

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareAround(center orb.Point, halfDeg float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{center[0] - halfDeg, center[1] - halfDeg},
		{center[0] + halfDeg, center[1] - halfDeg},
		{center[0] + halfDeg, center[1] + halfDeg},
		{center[0] - halfDeg, center[1] + halfDeg},
		{center[0] - halfDeg, center[1] - halfDeg},
	}}
}

func TestCellAtCentroidRoundTrip(t *testing.T) {
	g := NewGrid(8, orb.Point{37.6, 55.75})

	for _, c := range []Cell{{0, 0}, {3, -2}, {-5, 7}, {10, 10}} {
		got := g.CellAt(g.Centroid(c))
		assert.Equal(t, c, got)
	}
}

func TestCoverContainsCentroidCells(t *testing.T) {
	origin := orb.Point{37.6, 55.75}
	g := NewGrid(8, origin)
	area := squareAround(origin, 0.02)

	cells := g.Cover(area)
	require.NotEmpty(t, cells)

	// The cell at the area center must be covered.
	assert.Contains(t, cells, g.CellAt(origin))

	// Cells are unique.
	seen := map[Cell]bool{}
	for _, c := range cells {
		assert.False(t, seen[c], "duplicate cell %v", c)
		seen[c] = true
	}
}

func TestCoverGrowsWithArea(t *testing.T) {
	origin := orb.Point{37.6, 55.75}
	g := NewGrid(8, origin)

	small := g.Cover(squareAround(origin, 0.01))
	large := g.Cover(squareAround(origin, 0.03))
	assert.Greater(t, len(large), len(small))
}

func TestDissolveSingleCell(t *testing.T) {
	g := NewGrid(8, orb.Point{37.6, 55.75})

	mp := g.Dissolve([]Cell{{0, 0}})
	require.Len(t, mp, 1)
	require.Len(t, mp[0], 1)
	// Hexagon ring: 6 vertices plus the closing point.
	assert.Len(t, mp[0][0], 7)

	// The centroid lies inside the dissolved polygon.
	assert.True(t, planar.PolygonContains(mp[0], g.Centroid(Cell{0, 0})))
}

func TestDissolveMergesAdjacentCells(t *testing.T) {
	g := NewGrid(8, orb.Point{37.6, 55.75})

	// Two neighboring cells share one edge; the union is a single
	// polygon with 10 boundary vertices.
	mp := g.Dissolve([]Cell{{0, 0}, {1, 0}})
	require.Len(t, mp, 1)
	require.Len(t, mp[0], 1)
	assert.Len(t, mp[0][0], 11)
}

func TestDissolveSeparateCells(t *testing.T) {
	g := NewGrid(8, orb.Point{37.6, 55.75})

	mp := g.Dissolve([]Cell{{0, 0}, {5, 5}})
	assert.Len(t, mp, 2)
}

func TestDissolveRingHole(t *testing.T) {
	g := NewGrid(8, orb.Point{37.6, 55.75})

	// A full ring of six neighbors without the center produces a hole.
	ring := []Cell{{1, 0}, {0, 1}, {-1, 1}, {-1, 0}, {0, -1}, {1, -1}}
	mp := g.Dissolve(ring)
	require.Len(t, mp, 1)
	require.Len(t, mp[0], 2, "expected an outer shell and a hole")

	// The missing center cell sits inside the hole, not in the polygon.
	assert.False(t, planar.PolygonContains(mp[0], g.Centroid(Cell{0, 0})))
}

func TestDissolveEmpty(t *testing.T) {
	g := NewGrid(8, orb.Point{37.6, 55.75})
	assert.Empty(t, g.Dissolve(nil))
}

func TestDissolveDeterministic(t *testing.T) {
	g := NewGrid(8, orb.Point{37.6, 55.75})
	cells := []Cell{{0, 0}, {1, 0}, {0, 1}, {2, 2}}

	first := g.Dissolve(cells)
	second := g.Dissolve([]Cell{{2, 2}, {0, 1}, {1, 0}, {0, 0}})
	assert.Equal(t, first, second)
}

func TestEdgeMeters(t *testing.T) {
	assert.InDelta(t, 461.35, EdgeMeters(8), 0.01)
	// Out-of-range resolutions clamp.
	assert.Equal(t, EdgeMeters(0), EdgeMeters(-3))
	assert.Equal(t, EdgeMeters(MaxResolution), EdgeMeters(99))
}
