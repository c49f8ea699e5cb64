package transit

import (
	"sort"

	"github.com/paulmach/orb"
)

// Data is the flat public-transit model RAPTOR operates on, laid out per
// the original round-based routing paper: all slices are global arrays and
// stops/routes carry offset windows into them.
//
// Data is built once (by parse or testutil) and is read-only afterwards;
// every accessor returns sub-slices of the underlying arrays, no copies.
type Data struct {
	Stops  []Stop
	Routes []Route

	// RouteStops[r.StopsStart : r.StopsStart+r.NumStops] are the stops of
	// route r, in travel order.
	RouteStops []int

	// StopTimes holds every trip of every route, trip-major.
	StopTimes []StopTime

	// StopRoutes[s.RoutesStart : s.RoutesStart+s.RoutesLen] are the routes
	// serving stop s.
	StopRoutes []int

	// Transfers[s.TransfersStart : s.TransfersStart+s.TransfersLen] are the
	// outgoing foot transfers of stop s.
	Transfers []Transfer

	// NodeToStop maps street-graph node indices to the stop snapped there.
	NodeToStop map[int]int

	Feeds []FeedInfo
}

// ValidateStop reports ErrInvalidStop for out-of-range stop indices.
func (d *Data) ValidateStop(stop int) error {
	if stop < 0 || stop >= len(d.Stops) {
		return ErrInvalidStop
	}
	return nil
}

// RoutesForStop returns the routes serving the given stop.
func (d *Data) RoutesForStop(stop int) []int {
	s := &d.Stops[stop]
	return d.StopRoutes[s.RoutesStart : s.RoutesStart+s.RoutesLen]
}

// RouteStopsOf returns the stop sequence of a route.
func (d *Data) RouteStopsOf(route int) ([]int, error) {
	if route < 0 || route >= len(d.Routes) {
		return nil, ErrInvalidRoute
	}
	r := &d.Routes[route]
	end := r.StopsStart + r.NumStops
	if end > len(d.RouteStops) {
		return nil, ErrInvalidRoute
	}
	return d.RouteStops[r.StopsStart:end], nil
}

// Trip returns the stop-time sequence of one trip on a route. The slice
// has length Routes[route].NumStops.
func (d *Data) Trip(route, trip int) ([]StopTime, error) {
	if route < 0 || route >= len(d.Routes) {
		return nil, ErrInvalidRoute
	}
	r := &d.Routes[route]
	if trip < 0 || trip >= r.NumTrips {
		return nil, ErrInvalidTrip
	}
	start := r.TripsStart + trip*r.NumStops
	end := start + r.NumStops
	if end > len(d.StopTimes) {
		return nil, ErrInvalidRoute
	}
	return d.StopTimes[start:end], nil
}

// TransfersFrom returns the outgoing transfers of a stop.
func (d *Data) TransfersFrom(stop int) ([]Transfer, error) {
	if err := d.ValidateStop(stop); err != nil {
		return nil, err
	}
	s := &d.Stops[stop]
	end := s.TransfersStart + s.TransfersLen
	if end > len(d.Transfers) {
		return nil, ErrInvalidStop
	}
	return d.Transfers[s.TransfersStart:end], nil
}

// SourceDepartures returns all departure times at the stop within
// [minDeparture, maxDeparture], across every route serving it, sorted and
// deduplicated.
func (d *Data) SourceDepartures(stop int, minDeparture, maxDeparture Time) ([]Time, error) {
	if err := d.ValidateStop(stop); err != nil {
		return nil, err
	}

	var departures []Time
	for _, route := range d.RoutesForStop(stop) {
		stops, err := d.RouteStopsOf(route)
		if err != nil {
			return nil, err
		}

		for pos, s := range stops {
			if s != stop {
				continue
			}
			r := &d.Routes[route]
			for trip := 0; trip < r.NumTrips; trip++ {
				dep := d.StopTimes[r.TripsStart+trip*r.NumStops+pos].Departure
				if dep >= minDeparture && dep <= maxDeparture {
					departures = append(departures, dep)
				}
			}
		}
	}

	sort.Slice(departures, func(i, j int) bool { return departures[i] < departures[j] })
	uniq := departures[:0]
	for i, dep := range departures {
		if i == 0 || dep != departures[i-1] {
			uniq = append(uniq, dep)
		}
	}
	return uniq, nil
}

// StopLocation returns the geographic point of a stop, or a zero point for
// invalid indices.
func (d *Data) StopLocation(stop int) orb.Point {
	if stop < 0 || stop >= len(d.Stops) {
		return orb.Point{}
	}
	return d.Stops[stop].Point
}

// StopName returns the stable GTFS id of a stop.
func (d *Data) StopName(stop int) string {
	if stop < 0 || stop >= len(d.Stops) {
		return ""
	}
	return d.Stops[stop].ID
}
