package ferrobus

import (
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/chingiztob/ferrobus/parse"
	"github.com/chingiztob/ferrobus/streets"
	"github.com/chingiztob/ferrobus/transit"
)

const unsnapped = -1

// calculateTransfers precomputes the foot-transfer table: every stop is
// snapped to the street graph and a bounded Dijkstra discovers the other
// stops reachable within maxTransferTime. GTFS-declared transfers then
// override computed entries on the same (from, to) pair. The computation
// is infallible: stops that cannot participate are skipped with a warning.
func calculateTransfers(m *TransitModel, declared []parse.DeclaredTransfer, maxTransferTime transit.Time) {
	data := m.Transit
	stopCount := len(data.Stops)

	logrus.WithField("stops", stopCount).Info("calculating transfers between stops")

	// Snap each stop to its nearest street node.
	stopNodes := make([]int, stopCount)
	for s := range data.Stops {
		node, seconds, ok := m.Streets.NearestNode(data.Stops[s].Point)
		if !ok || seconds > maxTransferTime {
			if !ok {
				logrus.WithField("stop", data.Stops[s].ID).Warn("stop could not be snapped to the street network")
			} else {
				logrus.WithFields(logrus.Fields{
					"stop":    data.Stops[s].ID,
					"seconds": seconds,
				}).Warn("stop too far from the street network, excluded from transfers")
			}
			stopNodes[s] = unsnapped
			continue
		}
		stopNodes[s] = node
	}

	stopsAtNode := map[int][]int{}
	for s, node := range stopNodes {
		if node != unsnapped {
			stopsAtNode[node] = append(stopsAtNode[node], s)
		}
	}

	// One independent Dijkstra per stop, each writing to its own slot.
	byStop := make([][]transit.Transfer, stopCount)
	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())
	for s := 0; s < stopCount; s++ {
		if stopNodes[s] == unsnapped {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(s int) {
			defer wg.Done()
			defer func() { <-sem }()

			reached := m.Streets.DijkstraWeights(stopNodes[s], streets.NoTarget, maxTransferTime)
			var local []transit.Transfer
			for node, cost := range reached {
				if cost > maxTransferTime {
					continue
				}
				for _, target := range stopsAtNode[node] {
					if target != s {
						local = append(local, transit.Transfer{Target: target, Duration: cost})
					}
				}
			}
			byStop[s] = local
		}(s)
	}
	wg.Wait()

	mergeDeclaredTransfers(data, byStop, declared, maxTransferTime)

	// SetTransfers sorts per-stop slices and flattens in stop order, so
	// the final layout is reproducible across builds.
	if err := data.SetTransfers(byStop); err != nil {
		logrus.WithError(err).Warn("dropping inconsistent transfer table")
		_ = data.SetTransfers(make([][]transit.Transfer, stopCount))
	}

	data.NodeToStop = map[int]int{}
	for s, node := range stopNodes {
		if node != unsnapped {
			data.NodeToStop[node] = s
		}
	}
}

// mergeDeclaredTransfers applies transfers.txt rows on top of the
// computed table. Type 3 forbids a connection; other types overwrite (or
// insert) the pair with the declared minimum time, provided it fits the
// cutoff.
func mergeDeclaredTransfers(data *transit.Data, byStop [][]transit.Transfer, declared []parse.DeclaredTransfer, maxTransferTime transit.Time) {
	stopIndex := make(map[string]int, len(data.Stops))
	for i := range data.Stops {
		stopIndex[data.Stops[i].ID] = i
	}

	for _, d := range declared {
		from, okFrom := stopIndex[d.FromStopID]
		to, okTo := stopIndex[d.ToStopID]
		if !okFrom || !okTo {
			logrus.WithFields(logrus.Fields{
				"from": d.FromStopID,
				"to":   d.ToStopID,
			}).Warn("declared transfer references unknown stop, skipped")
			continue
		}
		if from == to {
			continue
		}

		if d.Type == 3 {
			// Forbidden: remove any computed entry for the pair.
			byStop[from] = removeTransfer(byStop[from], to)
			continue
		}
		if d.MinTime > maxTransferTime {
			continue
		}

		replaced := false
		for i := range byStop[from] {
			if byStop[from][i].Target == to {
				byStop[from][i].Duration = d.MinTime
				replaced = true
				break
			}
		}
		if !replaced {
			byStop[from] = append(byStop[from], transit.Transfer{Target: to, Duration: d.MinTime})
		}
	}
}

func removeTransfer(list []transit.Transfer, target int) []transit.Transfer {
	out := list[:0]
	for _, t := range list {
		if t.Target != target {
			out = append(out, t)
		}
	}
	return out
}
