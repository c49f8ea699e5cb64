package transit

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Builder assembles a Data from stops and route patterns, computing the
// flat array layout and the stop->routes index. Build validates the FIFO
// property and the per-trip time invariants.
type Builder struct {
	stops    []Stop
	patterns []pattern
	feeds    []FeedInfo
}

type pattern struct {
	stops []int
	trips [][]StopTime
}

func NewBuilder() *Builder {
	return &Builder{}
}

// AddStop registers a stop and returns its index.
func (b *Builder) AddStop(id string, point orb.Point) int {
	b.stops = append(b.stops, Stop{ID: id, Point: point})
	return len(b.stops) - 1
}

// AddPattern registers a route pattern. Every trip must have exactly one
// StopTime per stop. Trips are sorted by first-stop departure during Build.
func (b *Builder) AddPattern(stops []int, trips [][]StopTime) {
	b.patterns = append(b.patterns, pattern{stops: stops, trips: trips})
}

func (b *Builder) AddFeedInfo(info FeedInfo) {
	b.feeds = append(b.feeds, info)
}

// Build flattens the registered stops and patterns. It fails with
// ErrInvalidData (wrapped with detail) on malformed input; FIFO ordering
// across trips must already hold within each pattern, callers that cannot
// guarantee it should split patterns first (parse does).
func (b *Builder) Build() (*Data, error) {
	d := &Data{
		Stops:      append([]Stop(nil), b.stops...),
		NodeToStop: map[int]int{},
		Feeds:      append([]FeedInfo(nil), b.feeds...),
	}

	for pi := range b.patterns {
		p := &b.patterns[pi]
		if len(p.stops) < 2 {
			return nil, errors.Wrapf(ErrInvalidData, "pattern %d has %d stops", pi, len(p.stops))
		}
		for _, s := range p.stops {
			if s < 0 || s >= len(d.Stops) {
				return nil, errors.Wrapf(ErrInvalidData, "pattern %d references unknown stop %d", pi, s)
			}
		}

		sort.SliceStable(p.trips, func(i, j int) bool {
			return p.trips[i][0].Departure < p.trips[j][0].Departure
		})

		if err := validatePattern(pi, p); err != nil {
			return nil, err
		}

		route := Route{
			NumStops:   len(p.stops),
			NumTrips:   len(p.trips),
			StopsStart: len(d.RouteStops),
			TripsStart: len(d.StopTimes),
		}
		d.RouteStops = append(d.RouteStops, p.stops...)
		for _, trip := range p.trips {
			d.StopTimes = append(d.StopTimes, trip...)
		}
		d.Routes = append(d.Routes, route)
	}

	indexStopRoutes(d)
	return d, nil
}

func validatePattern(pi int, p *pattern) error {
	for ti, trip := range p.trips {
		if len(trip) != len(p.stops) {
			return errors.Wrapf(ErrInvalidData,
				"pattern %d trip %d has %d stop times, want %d", pi, ti, len(trip), len(p.stops))
		}
		for i, st := range trip {
			if st.Departure < st.Arrival {
				return errors.Wrapf(ErrInvalidData,
					"pattern %d trip %d stop %d departs before it arrives", pi, ti, i)
			}
			if i > 0 && st.Arrival < trip[i-1].Departure {
				return errors.Wrapf(ErrInvalidData,
					"pattern %d trip %d times not monotone at stop %d", pi, ti, i)
			}
		}
		if ti == 0 {
			continue
		}
		// FIFO: the binary search over trips assumes departures are sorted
		// at every position of the pattern, not just the first.
		prev := p.trips[ti-1]
		for i := range trip {
			if trip[i].Departure < prev[i].Departure {
				return errors.Wrapf(ErrInvalidData,
					"pattern %d violates FIFO ordering at trip %d stop %d", pi, ti, i)
			}
		}
	}
	return nil
}

func indexStopRoutes(d *Data) {
	routesByStop := make([][]int, len(d.Stops))
	for r := range d.Routes {
		route := &d.Routes[r]
		seen := map[int]bool{}
		for _, s := range d.RouteStops[route.StopsStart : route.StopsStart+route.NumStops] {
			if !seen[s] {
				seen[s] = true
				routesByStop[s] = append(routesByStop[s], r)
			}
		}
	}
	for s := range d.Stops {
		sort.Ints(routesByStop[s])
		d.Stops[s].RoutesStart = len(d.StopRoutes)
		d.Stops[s].RoutesLen = len(routesByStop[s])
		d.StopRoutes = append(d.StopRoutes, routesByStop[s]...)
	}
}

// SetTransfers installs a complete transfer table. The per-stop slices are
// flattened in stop order so the layout is reproducible.
func (d *Data) SetTransfers(byStop [][]Transfer) error {
	d.Transfers = d.Transfers[:0]
	for s := range d.Stops {
		var list []Transfer
		if s < len(byStop) {
			list = byStop[s]
		}
		for _, t := range list {
			if t.Target == s {
				return fmt.Errorf("stop %d: self transfer", s)
			}
			if err := d.ValidateStop(t.Target); err != nil {
				return fmt.Errorf("stop %d: transfer target %d: %w", s, t.Target, err)
			}
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Target < list[j].Target })
		d.Stops[s].TransfersStart = len(d.Transfers)
		d.Stops[s].TransfersLen = len(list)
		d.Transfers = append(d.Transfers, list...)
	}
	return nil
}
