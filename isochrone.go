package ferrobus

import (
	"runtime"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chingiztob/ferrobus/hexgrid"
	"github.com/chingiztob/ferrobus/transit"
)

// IsochroneIndex covers an area with hex cells whose centroids are snapped
// to the transit network once, so isochrone queries only pay for routing.
// The index is immutable after NewIsochroneIndex returns.
type IsochroneIndex struct {
	grid   hexgrid.Grid
	cells  []hexgrid.Cell
	points []*TransitPoint
}

func (idx *IsochroneIndex) Len() int        { return len(idx.cells) }
func (idx *IsochroneIndex) IsEmpty() bool   { return len(idx.cells) == 0 }
func (idx *IsochroneIndex) Resolution() int { return idx.grid.Res }

// NewIsochroneIndex tiles the area polygon (WKT) at the given resolution
// and builds a TransitPoint per cell centroid in parallel. Cells whose
// centroid cannot be attached to the network are dropped with a warning.
func NewIsochroneIndex(m *TransitModel, areaWKT string, cellResolution int, maxWalkingTime transit.Time) (*IsochroneIndex, error) {
	geom, err := wkt.Unmarshal(areaWKT)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidData, "parsing area WKT")
	}
	area, ok := geom.(orb.Polygon)
	if !ok {
		return nil, errors.Wrap(ErrInvalidData, "area WKT must be a POLYGON")
	}
	if cellResolution < 0 || cellResolution > hexgrid.MaxResolution {
		return nil, errors.Wrapf(ErrInvalidData, "invalid cell resolution %d", cellResolution)
	}

	grid := hexgrid.NewGrid(cellResolution, centroidOf(area))
	cells := grid.Cover(area)

	points := make([]*TransitPoint, len(cells))
	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())
	for i := range cells {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			c := grid.Centroid(cells[i])
			point, err := NewTransitPoint(c[1], c[0], m, maxWalkingTime, MaxCandidateStops)
			if err != nil {
				return
			}
			points[i] = point
		}(i)
	}
	wg.Wait()

	idx := &IsochroneIndex{grid: grid}
	dropped := 0
	for i, p := range points {
		if p == nil {
			dropped++
			continue
		}
		idx.cells = append(idx.cells, cells[i])
		idx.points = append(idx.points, p)
	}
	if dropped > 0 {
		logrus.WithFields(logrus.Fields{"dropped": dropped, "kept": len(idx.cells)}).
			Warn("isochrone cells without street coverage dropped")
	}
	return idx, nil
}

// CalculateIsochrone returns the region reachable from start within cutoff
// seconds: a one-to-many query against the index's cell points, dissolved
// into a MultiPolygon.
func CalculateIsochrone(m *TransitModel, start *TransitPoint, departure transit.Time, maxTransfers int, cutoff transit.Time, idx *IsochroneIndex) (orb.MultiPolygon, error) {
	results, err := FindRoutesOneToMany(m, start, idx.points, departure, maxTransfers)
	if err != nil {
		return nil, err
	}

	var reached []hexgrid.Cell
	for i, res := range results {
		if res != nil && res.TravelTime < cutoff {
			reached = append(reached, idx.cells[i])
		}
	}
	return idx.grid.Dissolve(reached), nil
}

// CalculateBulkIsochrones runs CalculateIsochrone for many starts in
// parallel over the shared index. A failing start yields a nil entry.
func CalculateBulkIsochrones(m *TransitModel, starts []*TransitPoint, departure transit.Time, maxTransfers int, cutoff transit.Time, idx *IsochroneIndex) ([]orb.MultiPolygon, error) {
	out := make([]orb.MultiPolygon, len(starts))

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())
	for i := range starts {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			iso, err := CalculateIsochrone(m, starts[i], departure, maxTransfers, cutoff, idx)
			if err != nil {
				logrus.WithError(err).Warn("bulk isochrone element failed")
				return
			}
			out[i] = iso
		}(i)
	}
	wg.Wait()

	return out, nil
}

func centroidOf(p orb.Polygon) orb.Point {
	b := p.Bound()
	return orb.Point{(b.Min[0] + b.Max[0]) / 2, (b.Min[1] + b.Max[1]) / 2}
}
