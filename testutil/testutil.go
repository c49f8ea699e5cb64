// Package testutil builds small in-memory networks for tests.
package testutil

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/chingiztob/ferrobus"
	"github.com/chingiztob/ferrobus/streets"
	"github.com/chingiztob/ferrobus/transit"
)

// Network accumulates stops, patterns and transfers, then builds a
// transit.Data. Times are plain seconds since midnight.
type Network struct {
	t       testing.TB
	builder *transit.Builder
	stops   int

	transfers map[int][]transit.Transfer
}

func NewNetwork(t testing.TB) *Network {
	return &Network{
		t:         t,
		builder:   transit.NewBuilder(),
		transfers: map[int][]transit.Transfer{},
	}
}

func (n *Network) AddStop(id string, lon, lat float64) int {
	n.stops++
	return n.builder.AddStop(id, orb.Point{lon, lat})
}

// AddRoute adds one pattern. Each trip is a list of {arrival, departure}
// pairs, one per stop.
func (n *Network) AddRoute(stops []int, trips ...[][2]transit.Time) {
	converted := make([][]transit.StopTime, 0, len(trips))
	for _, trip := range trips {
		times := make([]transit.StopTime, 0, len(trip))
		for _, pair := range trip {
			times = append(times, transit.StopTime{Arrival: pair[0], Departure: pair[1]})
		}
		converted = append(converted, times)
	}
	n.builder.AddPattern(stops, converted)
}

func (n *Network) AddTransfer(from, to int, seconds transit.Time) {
	n.transfers[from] = append(n.transfers[from], transit.Transfer{Target: to, Duration: seconds})
}

func (n *Network) Build() *transit.Data {
	data, err := n.builder.Build()
	require.NoError(n.t, err)

	byStop := make([][]transit.Transfer, n.stops)
	for from, list := range n.transfers {
		byStop[from] = list
	}
	require.NoError(n.t, data.SetTransfers(byStop))
	return data
}

// LineGraph builds a street graph laid out as a line of nodes, with
// walking between neighbors taking secondsPerEdge. Node i sits at
// (lonStart + i*step, lat).
func LineGraph(t testing.TB, nodes int, lonStart, lat, step float64, secondsPerEdge transit.Time) *streets.Graph {
	b := streets.NewBuilder()
	for i := 0; i < nodes; i++ {
		b.AddNode(orb.Point{lonStart + float64(i)*step, lat})
	}
	for i := 0; i+1 < nodes; i++ {
		a := orb.Point{lonStart + float64(i)*step, lat}
		c := orb.Point{lonStart + float64(i+1)*step, lat}
		b.AddEdge(i, i+1, secondsPerEdge, orb.LineString{a, c})
		b.AddEdge(i+1, i, secondsPerEdge, orb.LineString{c, a})
	}
	return b.Build()
}

// Model wires a graph and transit data into a queryable model. Stop s is
// snapped onto street node nodeOfStop[s]; the transfer table already on
// data is kept as is.
func Model(t testing.TB, graph *streets.Graph, data *transit.Data, nodeOfStop map[int]int) *ferrobus.TransitModel {
	for node := range data.NodeToStop {
		delete(data.NodeToStop, node)
	}
	for stop, node := range nodeOfStop {
		data.NodeToStop[node] = stop
	}
	return &ferrobus.TransitModel{
		Streets: graph,
		Transit: data,
		Meta:    ferrobus.Meta{MaxTransferTime: 1800},
	}
}
