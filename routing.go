package ferrobus

import (
	"runtime"
	"sync"

	"github.com/chingiztob/ferrobus/raptor"
	"github.com/chingiztob/ferrobus/transit"
)

// MaxCandidateStops caps how many nearby stops are tried as access and
// egress candidates per query endpoint.
const MaxCandidateStops = 5

// Result is the summary of a one-to-one multimodal query. TransitTime is
// nil for walking-only journeys.
type Result struct {
	TravelTime  transit.Time
	WalkingTime transit.Time
	TransitTime *transit.Time
	Transfers   int
	UsedTransit bool
}

type transitCandidate struct {
	totalTime   transit.Time
	transitTime transit.Time
	transfers   int
	accessTime  transit.Time
	egressTime  transit.Time
}

// FindRoute computes the fastest multimodal journey between two points at
// the given departure time. It returns nil (and no error) when neither
// transit nor walking connects them.
func FindRoute(m *TransitModel, start, end *TransitPoint, departure transit.Time, maxTransfers int) (*Result, error) {
	directWalking := m.walkingTime(start, end)

	var best *transitCandidate
	for _, access := range candidates(start) {
		for _, egress := range candidates(end) {
			overhead := transit.SaturatingAdd(access.Seconds, egress.Seconds)
			if directWalking != nil && overhead >= *directWalking {
				continue
			}
			if best != nil && overhead >= best.totalTime {
				continue
			}

			res, err := raptor.Run(m.Transit, access.Stop, egress.Stop,
				transit.SaturatingAdd(departure, access.Seconds), maxTransfers)
			if err != nil {
				return nil, err
			}
			if res.Arrival == nil {
				continue
			}

			transitTime := *res.Arrival - (departure + access.Seconds)
			total := access.Seconds + transitTime + egress.Seconds
			if best == nil || total < best.totalTime {
				best = &transitCandidate{
					totalTime:   total,
					transitTime: transitTime,
					transfers:   res.TransfersUsed,
					accessTime:  access.Seconds,
					egressTime:  egress.Seconds,
				}
			}
		}
	}

	return buildResult(directWalking, best), nil
}

// FindRoutesOneToMany answers the same question for many destinations,
// reusing one one-to-all RAPTOR run per access stop. Unreachable targets
// yield nil entries.
func FindRoutesOneToMany(m *TransitModel, start *TransitPoint, ends []*TransitPoint, departure transit.Time, maxTransfers int) ([]*Result, error) {
	results := make([]*Result, len(ends))

	type allRun struct {
		access  NearStop
		arrival []transit.Time
		rounds  []int
	}

	runs := make([]allRun, 0, MaxCandidateStops)
	for _, access := range candidates(start) {
		res, err := raptor.Run(m.Transit, access.Stop, raptor.NoTarget,
			transit.SaturatingAdd(departure, access.Seconds), maxTransfers)
		if err != nil {
			return nil, err
		}
		runs = append(runs, allRun{access: access, arrival: res.AllArrivals, rounds: res.AllRounds})
	}

	for i, end := range ends {
		if end == nil {
			continue
		}
		var best *transitCandidate
		for _, run := range runs {
			for _, egress := range candidates(end) {
				arr := run.arrival[egress.Stop]
				if arr == transit.Infinity {
					continue
				}
				transitTime := arr - (departure + run.access.Seconds)
				total := run.access.Seconds + transitTime + egress.Seconds
				if best == nil || total < best.totalTime {
					transfers := run.rounds[egress.Stop] - 1
					if transfers < 0 {
						transfers = 0
					}
					best = &transitCandidate{
						totalTime:   total,
						transitTime: transitTime,
						transfers:   transfers,
						accessTime:  run.access.Seconds,
						egressTime:  egress.Seconds,
					}
				}
			}
		}
		results[i] = buildResult(nil, best)
	}

	return results, nil
}

// TravelTimeMatrix computes pairwise multimodal travel times between the
// given points. Rows run in parallel; a failing row collapses to nils
// without failing the whole call.
func TravelTimeMatrix(m *TransitModel, points []*TransitPoint, departure transit.Time, maxTransfers int) ([][]*transit.Time, error) {
	matrix := make([][]*transit.Time, len(points))

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())
	for i := range points {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			row := make([]*transit.Time, len(points))
			results, err := FindRoutesOneToMany(m, points[i], points, departure, maxTransfers)
			if err == nil {
				for j, res := range results {
					if res != nil {
						t := res.TravelTime
						row[j] = &t
					}
				}
			}
			matrix[i] = row
		}(i)
	}
	wg.Wait()

	return matrix, nil
}

func candidates(p *TransitPoint) []NearStop {
	if len(p.NearestStops) > MaxCandidateStops {
		return p.NearestStops[:MaxCandidateStops]
	}
	return p.NearestStops
}

// buildResult applies the walking-alternative rules: walking wins whenever
// it exists and is at least as fast as the best transit journey, and is
// the fallback when transit found nothing.
func buildResult(directWalking *transit.Time, best *transitCandidate) *Result {
	walkingBetter := directWalking != nil && (best == nil || *directWalking <= best.totalTime)
	if walkingBetter {
		return &Result{
			TravelTime:  *directWalking,
			WalkingTime: *directWalking,
			UsedTransit: false,
		}
	}
	if best != nil {
		transitTime := best.transitTime
		return &Result{
			TravelTime:  best.totalTime,
			WalkingTime: best.accessTime + best.egressTime,
			TransitTime: &transitTime,
			Transfers:   best.transfers,
			UsedTransit: true,
		}
	}
	return nil
}
