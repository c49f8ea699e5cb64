package ferrobus

import (
	"sort"

	"github.com/chingiztob/ferrobus/raptor"
	"github.com/chingiztob/ferrobus/transit"
)

// RangeEntry is one departure of a range query, as seen from the start
// point: Departure is when the traveler leaves the point, Arrival when
// they reach the destination point (nil if unreachable for that
// departure).
type RangeEntry struct {
	Departure  transit.Time
	Arrival    *transit.Time
	TravelTime *transit.Time
	Transfers  int
}

// ParetoOption is a non-dominated (transfers, arrival) combination over
// the departure window.
type ParetoOption struct {
	Transfers int
	Arrival   transit.Time
}

// RangeResult enumerates one entry per feasible departure in the window,
// sorted by departure time.
type RangeResult struct {
	Entries []RangeEntry

	// Pareto is populated by ParetoRangeMultimodalRouting only.
	Pareto []ParetoOption
}

// TravelTimes returns the travel time of every reachable entry.
func (r *RangeResult) TravelTimes() []transit.Time {
	out := make([]transit.Time, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.TravelTime != nil {
			out = append(out, *e.TravelTime)
		}
	}
	return out
}

// MedianTravelTime returns the median over reachable entries, or
// transit.Infinity when nothing is reachable.
func (r *RangeResult) MedianTravelTime() transit.Time {
	times := r.TravelTimes()
	if len(times) == 0 {
		return transit.Infinity
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times[len(times)/2]
}

// RangeMultimodalRouting runs the range RAPTOR variant for every candidate
// (access, egress) pair and folds the per-pair journeys into one entry per
// departure from the start point, keeping the fastest option for each.
func RangeMultimodalRouting(m *TransitModel, start, end *TransitPoint, window [2]transit.Time, maxTransfers int) (*RangeResult, error) {
	if window[1] < window[0] {
		return nil, transit.ErrInvalidTime
	}

	byDeparture := map[transit.Time]RangeEntry{}

	for _, access := range candidates(start) {
		for _, egress := range candidates(end) {
			shifted := [2]transit.Time{
				transit.SaturatingAdd(window[0], access.Seconds),
				transit.SaturatingAdd(window[1], access.Seconds),
			}
			journeys, err := raptor.RunRange(m.Transit, access.Stop, egress.Stop, shifted, maxTransfers)
			if err != nil {
				return nil, err
			}

			for _, j := range journeys {
				pointDeparture := j.Departure - access.Seconds
				entry, seen := byDeparture[pointDeparture]
				if !seen {
					entry = RangeEntry{Departure: pointDeparture}
				}
				if j.Arrival == nil {
					if !seen {
						byDeparture[pointDeparture] = entry
					}
					continue
				}
				arrival := transit.SaturatingAdd(*j.Arrival, egress.Seconds)
				travel := arrival - pointDeparture
				if entry.TravelTime == nil || travel < *entry.TravelTime {
					transfers := j.RoundsUsed - 1
					if transfers < 0 {
						transfers = 0
					}
					a, t := arrival, travel
					entry.Arrival = &a
					entry.TravelTime = &t
					entry.Transfers = transfers
				}
				byDeparture[pointDeparture] = entry
			}
		}
	}

	result := &RangeResult{Entries: make([]RangeEntry, 0, len(byDeparture))}
	for _, entry := range byDeparture {
		result.Entries = append(result.Entries, entry)
	}
	sort.Slice(result.Entries, func(i, j int) bool {
		return result.Entries[i].Departure < result.Entries[j].Departure
	})
	return result, nil
}

// ParetoRangeMultimodalRouting is RangeMultimodalRouting plus the set of
// Pareto-optimal (transfers, arrival) pairs: an option survives unless
// another one arrives no later with no more transfers.
func ParetoRangeMultimodalRouting(m *TransitModel, start, end *TransitPoint, window [2]transit.Time, maxTransfers int) (*RangeResult, error) {
	result, err := RangeMultimodalRouting(m, start, end, window, maxTransfers)
	if err != nil {
		return nil, err
	}

	var options []ParetoOption
	for _, e := range result.Entries {
		if e.Arrival != nil {
			options = append(options, ParetoOption{Transfers: e.Transfers, Arrival: *e.Arrival})
		}
	}

	var pareto []ParetoOption
	for i, a := range options {
		dominated := false
		for j, b := range options {
			if i == j {
				continue
			}
			if b.Transfers <= a.Transfers && b.Arrival <= a.Arrival &&
				(b.Transfers < a.Transfers || b.Arrival < a.Arrival) {
				dominated = true
				break
			}
		}
		if !dominated {
			pareto = append(pareto, a)
		}
	}

	sort.Slice(pareto, func(i, j int) bool {
		if pareto[i].Transfers != pareto[j].Transfers {
			return pareto[i].Transfers < pareto[j].Transfers
		}
		return pareto[i].Arrival < pareto[j].Arrival
	})

	// Equal options collapse to one.
	uniq := pareto[:0]
	for i, p := range pareto {
		if i == 0 || p != pareto[i-1] {
			uniq = append(uniq, p)
		}
	}
	result.Pareto = uniq
	return result, nil
}
