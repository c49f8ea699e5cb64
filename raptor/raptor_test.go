package raptor_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chingiztob/ferrobus/raptor"
	"github.com/chingiztob/ferrobus/transit"
)

const (
	t0800 = transit.Time(8 * 3600)
	t0805 = transit.Time(8*3600 + 5*60)
	t0810 = transit.Time(8*3600 + 10*60)
	t0815 = transit.Time(8*3600 + 15*60)
)

// lineAB: stops A, B with one trip 08:00 -> 08:10.
func lineAB(t *testing.T) *transit.Data {
	b := transit.NewBuilder()
	a := b.AddStop("A", orb.Point{0, 0})
	bb := b.AddStop("B", orb.Point{0.01, 0})
	b.AddPattern([]int{a, bb}, [][]transit.StopTime{
		{{Arrival: t0800, Departure: t0800}, {Arrival: t0810, Departure: t0810}},
	})
	data, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, data.SetTransfers(make([][]transit.Transfer, 2)))
	return data
}

// triangle: route A->B at 08:00->08:05, footpath B->B2 of 60s, route
// B2->C at 08:10->08:15.
func triangle(t *testing.T) *transit.Data {
	b := transit.NewBuilder()
	a := b.AddStop("A", orb.Point{0, 0})
	bb := b.AddStop("B", orb.Point{0.01, 0})
	b2 := b.AddStop("B2", orb.Point{0.0101, 0})
	c := b.AddStop("C", orb.Point{0.02, 0})
	b.AddPattern([]int{a, bb}, [][]transit.StopTime{
		{{Arrival: t0800, Departure: t0800}, {Arrival: t0805, Departure: t0805}},
	})
	b.AddPattern([]int{b2, c}, [][]transit.StopTime{
		{{Arrival: t0810, Departure: t0810}, {Arrival: t0815, Departure: t0815}},
	})
	data, err := b.Build()
	require.NoError(t, err)

	byStop := make([][]transit.Transfer, 4)
	byStop[bb] = []transit.Transfer{{Target: b2, Duration: 60}}
	require.NoError(t, data.SetTransfers(byStop))
	return data
}

func TestSingleTrip(t *testing.T) {
	data := lineAB(t)

	res, err := raptor.Run(data, 0, 1, t0800, 0)
	require.NoError(t, err)
	require.NotNil(t, res.Arrival)
	assert.Equal(t, t0810, *res.Arrival)
	assert.Equal(t, 0, res.TransfersUsed)
}

func TestMissedTrip(t *testing.T) {
	data := lineAB(t)

	// Departing 08:05 misses the only trip.
	res, err := raptor.Run(data, 0, 1, t0805, 0)
	require.NoError(t, err)
	assert.Nil(t, res.Arrival)
}

func TestTransferJourney(t *testing.T) {
	data := triangle(t)

	res, err := raptor.Run(data, 0, 3, t0800, 1)
	require.NoError(t, err)
	require.NotNil(t, res.Arrival)
	assert.Equal(t, t0815, *res.Arrival)
	assert.Equal(t, 1, res.TransfersUsed)
}

func TestTransferNeedsRound(t *testing.T) {
	data := triangle(t)

	// With zero transfers allowed, C is out of reach.
	res, err := raptor.Run(data, 0, 3, t0800, 0)
	require.NoError(t, err)
	assert.Nil(t, res.Arrival)
}

func TestOneToAll(t *testing.T) {
	data := triangle(t)

	res, err := raptor.Run(data, 0, raptor.NoTarget, t0800, 2)
	require.NoError(t, err)
	require.Len(t, res.AllArrivals, 4)

	assert.Equal(t, t0800, res.AllArrivals[0])
	assert.Equal(t, t0805, res.AllArrivals[1])
	assert.Equal(t, t0805+60, res.AllArrivals[2])
	assert.Equal(t, t0815, res.AllArrivals[3])

	assert.Equal(t, 1, res.AllRounds[1])
	assert.Equal(t, 2, res.AllRounds[3])
}

func TestMonotoneInMaxTransfers(t *testing.T) {
	data := triangle(t)

	var prev *transit.Time
	for maxTransfers := 0; maxTransfers <= 3; maxTransfers++ {
		res, err := raptor.Run(data, 0, 3, t0800, maxTransfers)
		require.NoError(t, err)
		if prev != nil && res.Arrival != nil {
			assert.LessOrEqual(t, *res.Arrival, *prev)
		}
		if res.Arrival != nil {
			prev = res.Arrival
		}
	}
}

func TestIdempotence(t *testing.T) {
	data := triangle(t)

	first, err := raptor.Run(data, 0, 3, t0800, 2)
	require.NoError(t, err)
	second, err := raptor.Run(data, 0, 3, t0800, 2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSourceTransfersApply(t *testing.T) {
	// Footpath from the source applied in round 0: start at B, walk to
	// B2, ride to C.
	data := triangle(t)

	res, err := raptor.Run(data, 1, 3, t0805, 1)
	require.NoError(t, err)
	require.NotNil(t, res.Arrival)
	assert.Equal(t, t0815, *res.Arrival)
}

func TestInvalidInputs(t *testing.T) {
	data := lineAB(t)

	_, err := raptor.Run(data, 99, 1, t0800, 1)
	assert.ErrorIs(t, err, transit.ErrInvalidStop)

	_, err = raptor.Run(data, 0, 99, t0800, 1)
	assert.ErrorIs(t, err, transit.ErrInvalidStop)

	_, err = raptor.Run(data, 0, 1, 2*86400+1, 1)
	assert.ErrorIs(t, err, transit.ErrInvalidTime)
}

func TestTripUpgrade(t *testing.T) {
	// Two trips on one route and no transfers; the upgrade check at the
	// later stops must not switch away from the trip boarded at A.
	b := transit.NewBuilder()
	a := b.AddStop("A", orb.Point{0, 0})
	bb := b.AddStop("B", orb.Point{0.01, 0})
	c := b.AddStop("C", orb.Point{0.02, 0})
	b.AddPattern([]int{a, bb, c}, [][]transit.StopTime{
		{{Arrival: t0800, Departure: t0800}, {Arrival: t0805, Departure: t0805}, {Arrival: t0810, Departure: t0810}},
		{{Arrival: t0810, Departure: t0810}, {Arrival: t0815, Departure: t0815}, {Arrival: t0815 + 300, Departure: t0815 + 300}},
	})
	data, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, data.SetTransfers(make([][]transit.Transfer, 3)))

	// Departing A at 08:01 we miss trip 0 at A but board trip 1; no
	// earlier trip is catchable downstream, so arrival at C is 08:20.
	res, err := raptor.Run(data, 0, 2, t0800+60, 1)
	require.NoError(t, err)
	require.NotNil(t, res.Arrival)
	assert.Equal(t, t0815+300, *res.Arrival)
}

func TestBestArrivalConsistency(t *testing.T) {
	data := triangle(t)

	res, err := raptor.Run(data, 0, raptor.NoTarget, t0800, 3)
	require.NoError(t, err)

	// Every reported arrival is achieved at some round; unreached stops
	// report the sentinel.
	for s, arr := range res.AllArrivals {
		if arr == transit.Infinity {
			assert.Equal(t, -1, res.AllRounds[s])
		} else {
			assert.GreaterOrEqual(t, res.AllRounds[s], 0)
		}
	}
}
