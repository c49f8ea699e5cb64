package raptor

import (
	"sort"

	"github.com/chingiztob/ferrobus/transit"
)

// RangeJourney is one entry of a range query: the departure from the
// source and the resulting arrival at the target (nil if unreachable),
// with the number of rounds the winning label used.
type RangeJourney struct {
	Departure  transit.Time
	Arrival    *transit.Time
	RoundsUsed int
}

// RunRange is the rRAPTOR variant: it enumerates every source departure in
// [window[0], window[1]], processes them latest first, and reuses labels
// between runs so that each earlier departure only improves what the later
// ones already proved. A carry-over step between rounds propagates labels
// that are still dominant from the previous round.
func RunRange(data *transit.Data, source, target int, window [2]transit.Time, maxTransfers int) ([]RangeJourney, error) {
	if err := data.ValidateStop(source); err != nil {
		return nil, err
	}
	if target != NoTarget {
		if err := data.ValidateStop(target); err != nil {
			return nil, err
		}
	}
	if window[1] > transit.MaxTime {
		return nil, transit.ErrInvalidTime
	}

	numStops := len(data.Stops)
	maxRounds := maxTransfers + 2

	departures, err := data.SourceDepartures(source, window[0], window[1])
	if err != nil {
		return nil, err
	}
	sort.Slice(departures, func(i, j int) bool { return departures[i] > departures[j] })

	st := newState(numStops, maxRounds)
	journeys := make([]RangeJourney, 0, len(departures))

	for _, dep := range departures {
		if _, err := st.update(0, source, dep, dep); err != nil {
			return nil, err
		}
		st.marked[0].Set(uint(source))

		transfers, err := data.TransfersFrom(source)
		if err != nil {
			return nil, err
		}
		for _, tr := range transfers {
			t := transit.SaturatingAdd(dep, tr.Duration)
			improved, err := st.update(0, tr.Target, t, t)
			if err != nil {
				return nil, err
			}
			if improved {
				st.marked[0].Set(uint(tr.Target))
			}
		}

		for round := 1; round < maxRounds; round++ {
			prev := round - 1

			// Carry over labels that remain dominant from the previous
			// round so this run sees them without re-deriving them.
			for stop := 0; stop < numStops; stop++ {
				if st.board[prev][stop] < st.board[round][stop] {
					st.arrival[round][stop] = st.arrival[prev][stop]
					st.board[round][stop] = st.board[prev][stop]
					st.marked[round].Set(uint(stop))
				}
			}

			if st.marked[prev].None() {
				break
			}

			queue, err := routeQueue(data, st.marked[prev])
			if err != nil {
				return nil, err
			}
			st.marked[prev].ClearAll()

			targetBound := st.targetBound(target)

			for _, entry := range queue {
				if err := scanRoute(data, st, entry[0], entry[1], prev, round, target, targetBound); err != nil {
					return nil, err
				}
			}

			newMarks, err := processFootPaths(data, st, target, round)
			if err != nil {
				return nil, err
			}
			st.marked[round].InPlaceUnion(newMarks)

			if target != NoTarget {
				arrival := st.arrival[round][target]
				if arrival != transit.Infinity && arrival > st.bestArrival[target] {
					break
				}
			}

			if st.marked[round].None() {
				break
			}
		}

		journey := RangeJourney{Departure: dep}
		if target != NoTarget {
			bestArr := transit.Infinity
			for round := 0; round < maxRounds; round++ {
				if t := st.arrival[round][target]; t < bestArr {
					bestArr = t
					journey.RoundsUsed = round
				}
			}
			if bestArr != transit.Infinity {
				arr := bestArr
				journey.Arrival = &arr
			}
		}
		journeys = append(journeys, journey)
	}

	return journeys, nil
}
