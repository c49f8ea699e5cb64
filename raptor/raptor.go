package raptor

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/chingiztob/ferrobus/transit"
)

// Result of a plain RAPTOR run. For a single-target query Arrival is nil
// when the target is unreachable. For a one-to-all query (target ==
// NoTarget) AllArrivals holds the best arrival per stop (transit.Infinity
// = unreached) and AllRounds the round that achieved it.
type Result struct {
	Arrival       *transit.Time
	TransfersUsed int

	AllArrivals []transit.Time
	AllRounds   []int
}

// Run executes the round-based search from source at departure. Each round
// corresponds to boarding one more vehicle; foot transfers are applied
// within the round that produced them. With a target the search prunes
// against the target's best known arrival and may stop early.
func Run(data *transit.Data, source, target int, departure transit.Time, maxTransfers int) (*Result, error) {
	if err := validateInputs(data, source, target, departure); err != nil {
		return nil, err
	}

	numStops := len(data.Stops)
	// Rounds 1..maxTransfers+1 board vehicles; round 0 is the source and
	// its foot transfers.
	maxRounds := maxTransfers + 2
	st := newState(numStops, maxRounds)

	// Round 0: the source itself, then its foot transfers.
	if _, err := st.update(0, source, departure, departure); err != nil {
		return nil, err
	}
	st.marked[0].Set(uint(source))

	transfers, err := data.TransfersFrom(source)
	if err != nil {
		return nil, err
	}
	for _, tr := range transfers {
		t := transit.SaturatingAdd(departure, tr.Duration)
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
				return singleTargetResult(st, target), nil
			}
		}

		if st.marked[round].None() {
			break
		}
	}

	if target != NoTarget {
		return singleTargetResult(st, target), nil
	}

	rounds := make([]int, numStops)
	for s := range rounds {
		rounds[s] = bestRound(st.arrival, st.bestArrival, s)
	}
	return &Result{AllArrivals: st.bestArrival, AllRounds: rounds}, nil
}

// singleTargetResult reads the target's best label off the state. The
// transfer count is the winning round minus one (round r boards r trips).
func singleTargetResult(st *state, target int) *Result {
	if st.bestArrival[target] == transit.Infinity {
		return &Result{}
	}
	best := st.bestArrival[target]
	transfers := bestRound(st.arrival, st.bestArrival, target) - 1
	if transfers < 0 {
		transfers = 0
	}
	return &Result{Arrival: &best, TransfersUsed: transfers}
}

// scanRoute walks one route pattern from startPos, boards the earliest
// catchable trip and relaxes every subsequent stop, upgrading to an
// earlier trip whenever the previous round reached a stop before this
// trip departs from it.
func scanRoute(data *transit.Data, st *state, route, startPos, prev, round, target int, targetBound transit.Time) error {
	stops, err := data.RouteStopsOf(route)
	if err != nil {
		return err
	}

	trip := -1
	boardPos := 0
	for pos := startPos; pos < len(stops); pos++ {
		earliest := st.board[prev][stops[pos]]
		if earliest == transit.Infinity {
			continue
		}
		if t, ok := findEarliestTrip(data, route, pos, earliest); ok {
			trip = t
			boardPos = pos
			break
		}
	}
	if trip < 0 {
		return nil
	}

	times, err := data.Trip(route, trip)
	if err != nil {
		return err
	}

	for pos := boardPos; pos < len(stops); pos++ {
		stop := stops[pos]

		prevBoard := st.board[prev][stop]
		if prevBoard < times[pos].Departure {
			if t, ok := findEarliestTrip(data, route, pos, prevBoard); ok && t != trip {
				trip = t
				if times, err = data.Trip(route, trip); err != nil {
					return err
				}
			}
		}

		actualArrival := times[pos].Arrival
		effectiveBoard := times[pos].Departure
		if stop == target {
			// At the target we report the arrival, not the departure.
			effectiveBoard = actualArrival
		}

		improved, err := st.update(round, stop, actualArrival, effectiveBoard)
		if err != nil {
			return err
		}
		if improved {
			st.marked[round].Set(uint(stop))
		}
		if effectiveBoard >= targetBound {
			break
		}
	}
	return nil
}

// processFootPaths relaxes the outgoing transfers of every stop marked in
// the current round. Transfers do not consume a round.
func processFootPaths(data *transit.Data, st *state, target, round int) (*bitset.BitSet, error) {
	newMarks := bitset.New(uint(len(data.Stops)))
	targetBound := st.targetBound(target)

	for stop, ok := st.marked[round].NextSet(0); ok; stop, ok = st.marked[round].NextSet(stop + 1) {
		board := st.board[round][stop]
		transfers, err := data.TransfersFrom(int(stop))
		if err != nil {
			return nil, err
		}
		for _, tr := range transfers {
			t := transit.SaturatingAdd(board, tr.Duration)
			if t >= st.board[round][tr.Target] || t >= targetBound {
				continue
			}
			improved, err := st.update(round, tr.Target, t, t)
			if err != nil {
				return nil, err
			}
			if improved {
				newMarks.Set(uint(tr.Target))
			}
		}
	}
	return newMarks, nil
}
