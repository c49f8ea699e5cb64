package ferrobus_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chingiztob/ferrobus"
	"github.com/chingiztob/ferrobus/raptor"
	"github.com/chingiztob/ferrobus/transit"
)

func TestTracedRoutingWithTransfer(t *testing.T) {
	m := triangleModel(t)
	pts := points(t, m, [2]float64{0, 0}, [2]float64{0, 0.02})

	journey, err := ferrobus.TracedMultimodalRouting(m, pts[0], pts[1], t0800, 1)
	require.NoError(t, err)
	require.NotNil(t, journey)

	assert.Equal(t, transit.Time(900), journey.TotalTime)
	assert.Equal(t, t0800, journey.DepartureTime)
	assert.Equal(t, t0815, journey.ArrivalTime)
	assert.Equal(t, 1, journey.Transfers)
	require.NotNil(t, journey.TransitTime)
	assert.Equal(t, transit.Time(900), *journey.TransitTime)

	require.NotNil(t, journey.AccessLeg)
	assert.Equal(t, "A", journey.AccessLeg.ToName)
	require.NotNil(t, journey.EgressLeg)
	assert.Equal(t, "C", journey.EgressLeg.FromName)

	require.NotNil(t, journey.TransitLegs)
	transitLegs := 0
	for _, leg := range journey.TransitLegs.Legs {
		if leg.Kind == raptor.LegTransit {
			transitLegs++
		}
	}
	assert.Equal(t, 2, transitLegs)
}

func TestTracedRoutingWalkingOnly(t *testing.T) {
	m := twoStopModel(t)
	pts := points(t, m, [2]float64{0, 0}, [2]float64{0, 0.01})

	journey, err := ferrobus.TracedMultimodalRouting(m, pts[0], pts[1], t0805, 0)
	require.NoError(t, err)
	require.NotNil(t, journey)

	assert.Nil(t, journey.TransitLegs)
	assert.Nil(t, journey.TransitTime)
	assert.Equal(t, transit.Time(1200), journey.TotalTime)
	assert.Equal(t, transit.Time(1200), journey.WalkingTime)
	require.NotNil(t, journey.AccessLeg)
	assert.Equal(t, transit.Time(1200), journey.AccessLeg.Duration)
}

func TestTracedRoutingAgreesWithPlain(t *testing.T) {
	m := triangleModel(t)
	pts := points(t, m, [2]float64{0, 0}, [2]float64{0, 0.02})

	plain, err := ferrobus.FindRoute(m, pts[0], pts[1], t0800, 2)
	require.NoError(t, err)
	traced, err := ferrobus.TracedMultimodalRouting(m, pts[0], pts[1], t0800, 2)
	require.NoError(t, err)

	require.NotNil(t, plain)
	require.NotNil(t, traced)
	assert.Equal(t, plain.TravelTime, traced.TotalTime)
	assert.Equal(t, plain.UsedTransit, traced.TransitTime != nil)
}

func TestTracedJourneyGeoJSON(t *testing.T) {
	m := triangleModel(t)
	pts := points(t, m, [2]float64{0, 0}, [2]float64{0, 0.02})

	journey, err := ferrobus.TracedMultimodalRouting(m, pts[0], pts[1], t0800, 1)
	require.NoError(t, err)
	require.NotNil(t, journey)

	fc := journey.ToGeoJSON(m.Transit)
	// Access walk, 2 transit legs, 1 transfer, 1 wait, egress walk.
	assert.Len(t, fc.Features, 6)

	s := journey.ToGeoJSONString(m.Transit)
	assert.True(t, strings.Contains(s, "FeatureCollection"))
	assert.True(t, strings.Contains(s, "access_walk"))
	assert.True(t, strings.Contains(s, "egress_walk"))
	assert.True(t, strings.Contains(s, `"transfer"`))
}
