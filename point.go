package ferrobus

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/chingiztob/ferrobus/streets"
	"github.com/chingiztob/ferrobus/transit"
)

// NearStop is a transit stop reachable on foot from a TransitPoint.
type NearStop struct {
	Stop    int
	Seconds transit.Time
}

// TransitPoint attaches an arbitrary location to the transit network: its
// nearest street node plus up to maxStops nearby stops annotated with
// walking time from the point, sorted ascending. It holds only indices and
// times, no references into the model.
type TransitPoint struct {
	Geometry     orb.Point
	NearestStops []NearStop
	StreetNode   int
	SnapSeconds  transit.Time
}

// NewTransitPoint snaps (lat, lon) to the street network and collects the
// nearby stops within maxWalkingTime. It fails only when the location
// cannot be snapped at all; a point with no nearby stops is valid (it can
// still walk).
func NewTransitPoint(lat, lon float64, m *TransitModel, maxWalkingTime transit.Time, maxStops int) (*TransitPoint, error) {
	point := orb.Point{lon, lat}

	node, snapSeconds, ok := m.Streets.NearestNode(point)
	if !ok {
		return nil, ErrNoPointsFound
	}

	budget := maxWalkingTime
	if snapSeconds < budget {
		budget -= snapSeconds
	} else {
		budget = 0
	}

	reached := m.Streets.DijkstraWeights(node, streets.NoTarget, budget)
	var near []NearStop
	for n, cost := range reached {
		stop, ok := m.Transit.NodeToStop[n]
		if !ok || cost > budget {
			continue
		}
		near = append(near, NearStop{Stop: stop, Seconds: transit.SaturatingAdd(snapSeconds, cost)})
	}

	sort.Slice(near, func(i, j int) bool {
		if near[i].Seconds != near[j].Seconds {
			return near[i].Seconds < near[j].Seconds
		}
		return near[i].Stop < near[j].Stop
	})
	if maxStops > 0 && len(near) > maxStops {
		near = near[:maxStops]
	}

	return &TransitPoint{
		Geometry:     point,
		NearestStops: near,
		StreetNode:   node,
		SnapSeconds:  snapSeconds,
	}, nil
}

// walkingTime returns the direct walking time between two points over the
// street graph, or nil when no path exists.
func (m *TransitModel) walkingTime(start, end *TransitPoint) *transit.Time {
	if start.StreetNode == end.StreetNode {
		t := transit.SaturatingAdd(start.SnapSeconds, end.SnapSeconds)
		return &t
	}
	dist := m.Streets.DijkstraWeights(start.StreetNode, end.StreetNode, streets.NoLimit)
	cost, ok := dist[end.StreetNode]
	if !ok {
		return nil
	}
	t := transit.SaturatingAdd(transit.SaturatingAdd(start.SnapSeconds, cost), end.SnapSeconds)
	return &t
}
