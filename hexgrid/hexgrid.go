// Package hexgrid tiles an area polygon with pointy-top hexagonal cells
// and dissolves cell sets back into polygons. Cells live on an axial
// (q, r) lattice in a local equirectangular projection anchored at the
// grid origin, so a cell index is only meaningful together with its Grid.
package hexgrid

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// edgeMeters is the average hex edge length per resolution, following the
// H3 resolution ladder.
var edgeMeters = [...]float64{
	1107712.591, 418676.0055, 158244.6558, 59810.85794,
	22606.3794, 8544.408276, 3229.482772, 1220.629759,
	461.3546837, 174.3756681, 65.90780749, 24.9108126,
	9.415526211, 3.559893033, 1.348574562, 0.509713273,
}

// MaxResolution is the finest supported cell resolution.
const MaxResolution = len(edgeMeters) - 1

const metersPerDegree = 111320.0

// Cell is one hexagon on a Grid's axial lattice.
type Cell struct {
	Q int32
	R int32
}

// Grid fixes a resolution and a projection origin. Grids with the same
// resolution and origin produce identical lattices.
type Grid struct {
	Res    int
	Origin orb.Point
}

func NewGrid(res int, origin orb.Point) Grid {
	return Grid{Res: res, Origin: origin}
}

// EdgeMeters returns the hex edge length of a resolution, clamped to the
// supported range.
func EdgeMeters(res int) float64 {
	if res < 0 {
		res = 0
	}
	if res > MaxResolution {
		res = MaxResolution
	}
	return edgeMeters[res]
}

func (g Grid) size() float64 { return EdgeMeters(g.Res) }

// project maps lon/lat to meters in the grid's local plane.
func (g Grid) project(p orb.Point) (x, y float64) {
	x = (p[0] - g.Origin[0]) * metersPerDegree * math.Cos(g.Origin[1]*math.Pi/180)
	y = (p[1] - g.Origin[1]) * metersPerDegree
	return x, y
}

func (g Grid) unproject(x, y float64) orb.Point {
	return orb.Point{
		g.Origin[0] + x/(metersPerDegree*math.Cos(g.Origin[1]*math.Pi/180)),
		g.Origin[1] + y/metersPerDegree,
	}
}

func (g Grid) centerXY(c Cell) (x, y float64) {
	s := g.size()
	x = s * math.Sqrt(3) * (float64(c.Q) + float64(c.R)/2)
	y = s * 1.5 * float64(c.R)
	return x, y
}

// Centroid returns the cell center in lon/lat.
func (g Grid) Centroid(c Cell) orb.Point {
	return g.unproject(g.centerXY(c))
}

// vertexXY returns vertex k (0..5, counterclockwise) in meters.
func (g Grid) vertexXY(c Cell, k int) (x, y float64) {
	cx, cy := g.centerXY(c)
	angle := math.Pi / 180 * (60*float64(k) - 30)
	s := g.size()
	return cx + s*math.Cos(angle), cy + s*math.Sin(angle)
}

// Polygon returns the cell outline as a closed lon/lat ring.
func (g Grid) Polygon(c Cell) orb.Polygon {
	ring := make(orb.Ring, 0, 7)
	for k := 0; k < 6; k++ {
		ring = append(ring, g.unproject(g.vertexXY(c, k)))
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// CellAt returns the cell containing the given lon/lat point.
func (g Grid) CellAt(p orb.Point) Cell {
	x, y := g.project(p)
	s := g.size()
	qf := (math.Sqrt(3)/3*x - y/3) / s
	rf := (2.0 / 3 * y) / s
	return roundAxial(qf, rf)
}

func roundAxial(qf, rf float64) Cell {
	xf, zf := qf, rf
	yf := -xf - zf

	x := math.Round(xf)
	y := math.Round(yf)
	z := math.Round(zf)

	dx := math.Abs(x - xf)
	dy := math.Abs(y - yf)
	dz := math.Abs(z - zf)

	switch {
	case dx > dy && dx > dz:
		x = -y - z
	case dy > dz:
		// y is derived, nothing to fix
	default:
		z = -x - y
	}
	return Cell{Q: int32(x), R: int32(z)}
}

// Cover returns every cell that covers part of the polygon: its center or
// a vertex lies inside the area, or an area vertex lies inside the cell.
func (g Grid) Cover(poly orb.Polygon) []Cell {
	bound := poly.Bound()
	minX, minY := g.project(bound.Min)
	maxX, maxY := g.project(bound.Max)
	s := g.size()

	rMin := int32(math.Floor(minY/(1.5*s))) - 1
	rMax := int32(math.Ceil(maxY/(1.5*s))) + 1

	var cells []Cell
	for r := rMin; r <= rMax; r++ {
		qMin := int32(math.Floor(minX/(s*math.Sqrt(3))-float64(r)/2)) - 1
		qMax := int32(math.Ceil(maxX/(s*math.Sqrt(3))-float64(r)/2)) + 1
		for q := qMin; q <= qMax; q++ {
			c := Cell{Q: q, R: r}
			if g.covers(c, poly) {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

func (g Grid) covers(c Cell, poly orb.Polygon) bool {
	if planar.PolygonContains(poly, g.Centroid(c)) {
		return true
	}
	hex := g.Polygon(c)
	for k := 0; k < 6; k++ {
		if planar.PolygonContains(poly, hex[0][k]) {
			return true
		}
	}
	for _, ring := range poly {
		for _, p := range ring {
			if planar.PolygonContains(hex, p) {
				return true
			}
		}
	}
	return false
}
