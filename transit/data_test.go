package transit

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Small two-pattern network: route 0 serves A-B-C with two trips, route 1
// serves B-D with one trip.
func buildTestData(t *testing.T) *Data {
	b := NewBuilder()
	a := b.AddStop("A", orb.Point{0, 0})
	bb := b.AddStop("B", orb.Point{0.01, 0})
	c := b.AddStop("C", orb.Point{0.02, 0})
	d := b.AddStop("D", orb.Point{0.03, 0})

	b.AddPattern([]int{a, bb, c}, [][]StopTime{
		{{28800, 28800}, {29100, 29160}, {29400, 29400}},
		{{30600, 30600}, {30900, 30960}, {31200, 31200}},
	})
	b.AddPattern([]int{bb, d}, [][]StopTime{
		{{29400, 29400}, {29700, 29700}},
	})

	data, err := b.Build()
	require.NoError(t, err)
	return data
}

func TestDataAccessors(t *testing.T) {
	data := buildTestData(t)

	require.NoError(t, data.ValidateStop(0))
	assert.ErrorIs(t, data.ValidateStop(4), ErrInvalidStop)
	assert.ErrorIs(t, data.ValidateStop(-1), ErrInvalidStop)

	stops, err := data.RouteStopsOf(0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, stops)

	_, err = data.RouteStopsOf(2)
	assert.ErrorIs(t, err, ErrInvalidRoute)

	trip, err := data.Trip(0, 1)
	require.NoError(t, err)
	require.Len(t, trip, 3)
	assert.Equal(t, Time(30600), trip[0].Departure)
	assert.Equal(t, Time(31200), trip[2].Arrival)

	_, err = data.Trip(0, 2)
	assert.ErrorIs(t, err, ErrInvalidTrip)
	_, err = data.Trip(5, 0)
	assert.ErrorIs(t, err, ErrInvalidRoute)

	// B is served by both routes.
	assert.Equal(t, []int{0, 1}, data.RoutesForStop(1))
	assert.Equal(t, []int{0}, data.RoutesForStop(0))
}

func TestSourceDepartures(t *testing.T) {
	data := buildTestData(t)

	// Departures at B across both routes, sorted and deduped.
	deps, err := data.SourceDepartures(1, 0, 2*86400)
	require.NoError(t, err)
	assert.Equal(t, []Time{29160, 29400, 30960}, deps)

	// Window filters.
	deps, err = data.SourceDepartures(1, 29200, 30000)
	require.NoError(t, err)
	assert.Equal(t, []Time{29400}, deps)

	_, err = data.SourceDepartures(9, 0, 86400)
	assert.ErrorIs(t, err, ErrInvalidStop)
}

func TestTransfersTable(t *testing.T) {
	data := buildTestData(t)

	byStop := make([][]Transfer, len(data.Stops))
	byStop[1] = []Transfer{{Target: 3, Duration: 120}, {Target: 0, Duration: 300}}
	require.NoError(t, data.SetTransfers(byStop))

	transfers, err := data.TransfersFrom(1)
	require.NoError(t, err)
	// Sorted by target within the stop's window.
	assert.Equal(t, []Transfer{{Target: 0, Duration: 300}, {Target: 3, Duration: 120}}, transfers)

	empty, err := data.TransfersFrom(0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	// Self transfers are rejected.
	byStop[2] = []Transfer{{Target: 2, Duration: 60}}
	assert.Error(t, data.SetTransfers(byStop))
}

func TestSaturatingAdd(t *testing.T) {
	assert.Equal(t, Time(5), SaturatingAdd(2, 3))
	assert.Equal(t, Infinity, SaturatingAdd(Infinity, 1))
	assert.Equal(t, Infinity, SaturatingAdd(Infinity, Infinity))
	assert.Equal(t, Infinity, SaturatingAdd(1, Infinity))
}

func TestBuilderValidation(t *testing.T) {
	t.Run("departure before arrival", func(t *testing.T) {
		b := NewBuilder()
		a := b.AddStop("A", orb.Point{0, 0})
		c := b.AddStop("B", orb.Point{0.01, 0})
		b.AddPattern([]int{a, c}, [][]StopTime{{{100, 90}, {200, 200}}})
		_, err := b.Build()
		assert.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("times not monotone along trip", func(t *testing.T) {
		b := NewBuilder()
		a := b.AddStop("A", orb.Point{0, 0})
		c := b.AddStop("B", orb.Point{0.01, 0})
		b.AddPattern([]int{a, c}, [][]StopTime{{{300, 300}, {200, 200}}})
		_, err := b.Build()
		assert.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("FIFO violation", func(t *testing.T) {
		b := NewBuilder()
		a := b.AddStop("A", orb.Point{0, 0})
		c := b.AddStop("B", orb.Point{0.01, 0})
		// Second trip departs later at A but earlier at B: overtaking.
		b.AddPattern([]int{a, c}, [][]StopTime{
			{{100, 100}, {500, 500}},
			{{200, 200}, {400, 400}},
		})
		_, err := b.Build()
		assert.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("unknown stop", func(t *testing.T) {
		b := NewBuilder()
		a := b.AddStop("A", orb.Point{0, 0})
		b.AddPattern([]int{a, 7}, [][]StopTime{{{100, 100}, {200, 200}}})
		_, err := b.Build()
		assert.ErrorIs(t, err, ErrInvalidData)
	})
}
