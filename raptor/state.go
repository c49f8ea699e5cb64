// Package raptor implements the round-based earliest-arrival transit
// search (RAPTOR) over the flat transit.Data layout, in three variants:
// plain (Run), traced (RunTraced) and range (RunRange).
package raptor

import (
	"errors"

	"github.com/bits-and-blooms/bitset"

	"github.com/chingiztob/ferrobus/transit"
)

// NoTarget runs the search to all stops instead of a single target.
const NoTarget = -1

var (
	ErrMaxTransfersExceeded = errors.New("maximum transfers exceeded")
	ErrInvalidJourney       = errors.New("invalid journey")
)

// state holds the per-query label arrays. arrival[r][s] is the best proven
// arrival at stop s using r+0 rounds; board[r][s] is the effective boarding
// time used for outgoing searches from s (the trip's departure, or the
// arrival of a walking leg).
type state struct {
	arrival     [][]transit.Time
	board       [][]transit.Time
	marked      []*bitset.BitSet
	bestArrival []transit.Time
}

func newState(numStops, maxRounds int) *state {
	s := &state{
		arrival:     make([][]transit.Time, maxRounds),
		board:       make([][]transit.Time, maxRounds),
		marked:      make([]*bitset.BitSet, maxRounds),
		bestArrival: make([]transit.Time, numStops),
	}
	for r := 0; r < maxRounds; r++ {
		s.arrival[r] = make([]transit.Time, numStops)
		s.board[r] = make([]transit.Time, numStops)
		for i := range s.arrival[r] {
			s.arrival[r][i] = transit.Infinity
			s.board[r][i] = transit.Infinity
		}
		s.marked[r] = bitset.New(uint(numStops))
	}
	for i := range s.bestArrival {
		s.bestArrival[i] = transit.Infinity
	}
	return s
}

// update records a label when it is a strict improvement for the round.
// It returns true only when the stop's overall best arrival improved,
// which is what marks the stop for the next round.
func (s *state) update(round, stop int, arrival, board transit.Time) (bool, error) {
	if round >= len(s.arrival) || stop >= len(s.bestArrival) {
		return false, ErrMaxTransfersExceeded
	}
	if arrival < s.arrival[round][stop] {
		s.arrival[round][stop] = arrival
		s.board[round][stop] = board
		if arrival < s.bestArrival[stop] {
			s.bestArrival[stop] = arrival
			return true, nil
		}
	}
	return false, nil
}

func (s *state) targetBound(target int) transit.Time {
	if target == NoTarget {
		return transit.Infinity
	}
	return s.bestArrival[target]
}

// bestRound returns the round achieving the stop's best arrival, or -1.
func bestRound(arrival [][]transit.Time, best []transit.Time, stop int) int {
	if best[stop] == transit.Infinity {
		return -1
	}
	for r := range arrival {
		if arrival[r][stop] == best[stop] {
			return r
		}
	}
	return -1
}

func validateInputs(data *transit.Data, source, target int, departure transit.Time) error {
	if err := data.ValidateStop(source); err != nil {
		return err
	}
	if target != NoTarget {
		if err := data.ValidateStop(target); err != nil {
			return err
		}
	}
	if departure > transit.MaxTime {
		return transit.ErrInvalidTime
	}
	return nil
}

// findEarliestTrip binary-searches the trips of a route (sorted by
// departure at every position, the FIFO property) for the first trip
// departing at or after earliestBoard at the given stop position.
func findEarliestTrip(data *transit.Data, route, stopIdx int, earliestBoard transit.Time) (int, bool) {
	r := &data.Routes[route]
	low, high := 0, r.NumTrips
	found := -1
	for low < high {
		mid := (low + high) / 2
		dep := data.StopTimes[r.TripsStart+mid*r.NumStops+stopIdx].Departure
		if dep >= earliestBoard {
			found = mid
			high = mid
		} else {
			low = mid + 1
		}
	}
	return found, found >= 0
}

// routeQueue lists every route with at least one stop marked in the
// previous round, paired with the earliest marked position on its pattern.
func routeQueue(data *transit.Data, marked *bitset.BitSet) ([][2]int, error) {
	var queue [][2]int
	for route := range data.Routes {
		stops, err := data.RouteStopsOf(route)
		if err != nil {
			return nil, err
		}
		for pos, stop := range stops {
			if marked.Test(uint(stop)) {
				queue = append(queue, [2]int{route, pos})
				break
			}
		}
	}
	return queue, nil
}
