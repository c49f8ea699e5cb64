package raptor

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/chingiztob/ferrobus/transit"
)

// LegKind discriminates the closed set of journey leg variants.
type LegKind int

const (
	LegTransit LegKind = iota
	LegTransfer
	LegWaiting
)

// Leg is one segment of a reconstructed journey. Fields are populated
// according to Kind: Transit legs carry Route/Trip and From/To stops,
// Transfer legs From/To and Duration, Waiting legs AtStop and Duration.
type Leg struct {
	Kind LegKind

	Route int
	Trip  int

	From int
	To   int

	Departure transit.Time
	Arrival   transit.Time
	Duration  transit.Time

	AtStop int
}

// Journey is a chained sequence of legs from source to target.
type Journey struct {
	Legs          []Leg
	DepartureTime transit.Time
	ArrivalTime   transit.Time
	Transfers     int
}

type predKind uint8

const (
	predNone predKind = iota
	predSource
	predTransit
	predTransfer
)

// pred records how a (round, stop) label was reached. Transit predecessors
// step back one round during reconstruction, transfer predecessors stay in
// the same round.
type pred struct {
	kind      predKind
	route     int
	trip      int
	from      int
	departure transit.Time
	duration  transit.Time
}

type tracedState struct {
	*state
	preds [][]pred // [round][stop]
}

func newTracedState(numStops, maxRounds int) *tracedState {
	ts := &tracedState{state: newState(numStops, maxRounds)}
	ts.preds = make([][]pred, maxRounds)
	for r := range ts.preds {
		ts.preds[r] = make([]pred, numStops)
	}
	return ts
}

func (ts *tracedState) updateTraced(round, stop int, arrival, board transit.Time, p pred) (bool, error) {
	if round >= len(ts.arrival) || stop >= len(ts.bestArrival) {
		return false, ErrMaxTransfersExceeded
	}
	if arrival < ts.arrival[round][stop] {
		ts.arrival[round][stop] = arrival
		ts.board[round][stop] = board
		ts.preds[round][stop] = p
		if arrival < ts.bestArrival[stop] {
			ts.bestArrival[stop] = arrival
			return true, nil
		}
	}
	return false, nil
}

// RunTraced is Run with predecessor tracking and journey reconstruction.
// With a target it returns that journey (nil if unreachable); without one
// it returns a journey per stop.
func RunTraced(data *transit.Data, source, target int, departure transit.Time, maxTransfers int) (*Journey, []*Journey, error) {
	if err := validateInputs(data, source, target, departure); err != nil {
		return nil, nil, err
	}

	numStops := len(data.Stops)
	maxRounds := maxTransfers + 2
	st := newTracedState(numStops, maxRounds)

	if _, err := st.updateTraced(0, source, departure, departure, pred{kind: predSource}); err != nil {
		return nil, nil, err
	}
	st.marked[0].Set(uint(source))

	transfers, err := data.TransfersFrom(source)
	if err != nil {
		return nil, nil, err
	}
	for _, tr := range transfers {
		t := transit.SaturatingAdd(departure, tr.Duration)
		improved, err := st.updateTraced(0, tr.Target, t, t, pred{
			kind:      predTransfer,
			from:      source,
			departure: departure,
			duration:  tr.Duration,
		})
		if err != nil {
			return nil, nil, err
		}
		if improved {
			st.marked[0].Set(uint(tr.Target))
		}
	}

	for round := 1; round < maxRounds; round++ {
		prev := round - 1

		queue, err := routeQueue(data, st.marked[prev])
		if err != nil {
			return nil, nil, err
		}
		st.marked[prev].ClearAll()

		targetBound := st.targetBound(target)

		for _, entry := range queue {
			if err := scanRouteTraced(data, st, entry[0], entry[1], prev, round, target, targetBound); err != nil {
				return nil, nil, err
			}
		}

		newMarks, err := processFootPathsTraced(data, st, target, round)
		if err != nil {
			return nil, nil, err
		}
		st.marked[round].InPlaceUnion(newMarks)

		if target != NoTarget {
			arrival := st.arrival[round][target]
			// Reachable only once an earlier round already set bestArrival.
			if arrival != transit.Infinity && arrival > st.bestArrival[target] {
				journey, err := reconstructJourney(data, st, source, target)
				if err != nil {
					return nil, nil, err
				}
				return journey, nil, nil
			}
		}

		if st.marked[round].None() {
			break
		}
	}

	if target != NoTarget {
		if st.bestArrival[target] == transit.Infinity {
			return nil, nil, nil
		}
		journey, err := reconstructJourney(data, st, source, target)
		if err != nil {
			return nil, nil, err
		}
		return journey, nil, nil
	}

	journeys := make([]*Journey, numStops)
	for stop := 0; stop < numStops; stop++ {
		if st.bestArrival[stop] == transit.Infinity {
			continue
		}
		journey, err := reconstructJourney(data, st, source, stop)
		if err != nil {
			return nil, nil, err
		}
		journeys[stop] = journey
	}
	return nil, journeys, nil
}

func scanRouteTraced(data *transit.Data, st *tracedState, route, startPos, prev, round, target int, targetBound transit.Time) error {
	stops, err := data.RouteStopsOf(route)
	if err != nil {
		return err
	}

	trip := -1
	boardPos := 0
	boardingStop := 0
	var boardingTime transit.Time
	for pos := startPos; pos < len(stops); pos++ {
		earliest := st.board[prev][stops[pos]]
		if earliest == transit.Infinity {
			continue
		}
		if t, ok := findEarliestTrip(data, route, pos, earliest); ok {
			times, err := data.Trip(route, t)
			if err != nil {
				return err
			}
			trip = t
			boardPos = pos
			boardingStop = stops[pos]
			boardingTime = times[pos].Departure
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
				// An upgrade changes where the traced journey boards.
				boardingStop = stop
				boardingTime = times[pos].Departure
			}
		}

		actualArrival := times[pos].Arrival
		effectiveBoard := times[pos].Departure
		if stop == target {
			effectiveBoard = actualArrival
		}

		improved, err := st.updateTraced(round, stop, actualArrival, effectiveBoard, pred{
			kind:      predTransit,
			route:     route,
			trip:      trip,
			from:      boardingStop,
			departure: boardingTime,
		})
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

func processFootPathsTraced(data *transit.Data, st *tracedState, target, round int) (*bitset.BitSet, error) {
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
			improved, err := st.updateTraced(round, tr.Target, t, t, pred{
				kind:      predTransfer,
				from:      int(stop),
				departure: board,
				duration:  tr.Duration,
			})
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

// reconstructJourney backtracks the predecessor DAG from the round where
// the target's best arrival was achieved, then synthesizes waiting legs
// wherever a leg arrives before the next transit leg departs.
func reconstructJourney(data *transit.Data, st *tracedState, source, target int) (*Journey, error) {
	var legs []Leg
	stop := target
	round := 0
	for r := range st.arrival {
		if st.arrival[r][target] == st.bestArrival[target] {
			round = r
			break
		}
	}

	arrivalTime := st.bestArrival[target]

	for stop != source {
		p := &st.preds[round][stop]
		switch p.kind {
		case predNone:
			return nil, ErrInvalidJourney
		case predSource:
			stop = source
		case predTransit:
			times, err := data.Trip(p.route, p.trip)
			if err != nil {
				return nil, err
			}
			stops, err := data.RouteStopsOf(p.route)
			if err != nil {
				return nil, err
			}
			toIdx := -1
			for i, s := range stops {
				if s == stop {
					toIdx = i
					break
				}
			}
			if toIdx < 0 {
				return nil, ErrInvalidJourney
			}
			legs = append(legs, Leg{
				Kind:      LegTransit,
				Route:     p.route,
				Trip:      p.trip,
				From:      p.from,
				To:        stop,
				Departure: p.departure,
				Arrival:   times[toIdx].Arrival,
			})
			stop = p.from
			round--
		case predTransfer:
			legs = append(legs, Leg{
				Kind:      LegTransfer,
				From:      p.from,
				To:        stop,
				Departure: p.departure,
				Arrival:   transit.SaturatingAdd(p.departure, p.duration),
				Duration:  p.duration,
			})
			// Transfers stay in the round that produced them.
			stop = p.from
		}
	}

	for i, j := 0, len(legs)-1; i < j; i, j = i+1, j-1 {
		legs[i], legs[j] = legs[j], legs[i]
	}

	legs = insertWaitingLegs(legs)

	transfers := 0
	for _, leg := range legs {
		if leg.Kind == LegTransfer {
			transfers++
		}
	}

	return &Journey{
		Legs:          legs,
		DepartureTime: st.board[0][source],
		ArrivalTime:   arrivalTime,
		Transfers:     transfers,
	}, nil
}

func insertWaitingLegs(legs []Leg) []Leg {
	if len(legs) < 2 {
		return legs
	}
	out := make([]Leg, 0, len(legs)+2)
	for i, leg := range legs {
		out = append(out, leg)
		if i+1 >= len(legs) {
			break
		}
		next := &legs[i+1]
		if next.Kind == LegTransit && next.Departure > leg.Arrival {
			out = append(out, Leg{
				Kind:     LegWaiting,
				AtStop:   next.From,
				Duration: next.Departure - leg.Arrival,
			})
		}
	}
	return out
}
