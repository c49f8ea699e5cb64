package parse

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/chingiztob/ferrobus/transit"
)

type tripTimes struct {
	tripID string
	times  []transit.StopTime
}

type patternGroup struct {
	stops []int
	trips []tripTimes
}

// groupPatterns turns per-trip stop-time sequences into route patterns:
// trips sharing an identical stop sequence form one pattern, sorted by
// first-stop departure. A pattern whose trips overtake each other at some
// position is split so that every resulting pattern satisfies the FIFO
// ordering the trip binary search depends on.
func groupPatterns(byTrip map[string][]stopTimeRow, stopIndex map[string]int) []patternGroup {
	type rawGroup struct {
		stops []int
		trips []tripTimes
	}
	groups := map[string]*rawGroup{}

	for tripID, rows := range byTrip {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

		stops := make([]int, 0, len(rows))
		times := make([]transit.StopTime, 0, len(rows))
		skip := false
		for _, row := range rows {
			idx, ok := stopIndex[row.stopID]
			if !ok {
				logrus.WithFields(logrus.Fields{"trip": tripID, "stop": row.stopID}).
					Warn("trip references unknown stop, skipping trip")
				skip = true
				break
			}
			stops = append(stops, idx)
			times = append(times, row.time)
		}
		if skip || len(stops) < 2 {
			continue
		}

		key := signature(stops)
		g, ok := groups[key]
		if !ok {
			g = &rawGroup{stops: stops}
			groups[key] = g
		}
		g.trips = append(g.trips, tripTimes{tripID: tripID, times: times})
	}

	// Deterministic pattern order regardless of map iteration.
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var result []patternGroup
	for _, k := range keys {
		g := groups[k]
		sort.SliceStable(g.trips, func(i, j int) bool {
			a, b := g.trips[i], g.trips[j]
			if a.times[0].Departure != b.times[0].Departure {
				return a.times[0].Departure < b.times[0].Departure
			}
			return a.tripID < b.tripID
		})
		result = append(result, splitFIFO(g.stops, g.trips)...)
	}
	return result
}

// splitFIFO greedily assigns departure-sorted trips to the first subgroup
// whose last trip they never overtake; overtaking trips open a new
// pattern with the same stop sequence.
func splitFIFO(stops []int, trips []tripTimes) []patternGroup {
	var groups []patternGroup
	for _, trip := range trips {
		placed := false
		for gi := range groups {
			last := groups[gi].trips[len(groups[gi].trips)-1]
			if dominates(trip.times, last.times) {
				groups[gi].trips = append(groups[gi].trips, trip)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, patternGroup{stops: stops, trips: []tripTimes{trip}})
		}
	}
	if len(groups) > 1 {
		logrus.WithFields(logrus.Fields{"patterns": len(groups), "trips": len(trips)}).
			Debug("pattern split to preserve FIFO ordering")
	}
	return groups
}

// dominates reports whether trip a departs at or after trip b at every
// position of the pattern.
func dominates(a, b []transit.StopTime) bool {
	for i := range a {
		if a[i].Departure < b[i].Departure {
			return false
		}
	}
	return true
}

func signature(stops []int) string {
	var sb strings.Builder
	for i, s := range stops {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(s))
	}
	return sb.String()
}
