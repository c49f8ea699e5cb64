package ferrobus

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/chingiztob/ferrobus/raptor"
	"github.com/chingiztob/ferrobus/transit"
)

// WalkingLeg is an access or egress walk outside the transit network.
type WalkingLeg struct {
	FromLocation orb.Point
	ToLocation   orb.Point
	FromName     string
	ToName       string
	Departure    transit.Time
	Arrival      transit.Time
	Duration     transit.Time
}

// DetailedJourney is a complete door-to-door journey with first/last mile
// connections and the reconstructed transit legs in between.
type DetailedJourney struct {
	AccessLeg     *WalkingLeg
	TransitLegs   *raptor.Journey
	EgressLeg     *WalkingLeg
	TotalTime     transit.Time
	WalkingTime   transit.Time
	TransitTime   *transit.Time
	Transfers     int
	DepartureTime transit.Time
	ArrivalTime   transit.Time
}

func walkingOnlyJourney(start, end *TransitPoint, departure, walkingTime transit.Time) *DetailedJourney {
	arrival := transit.SaturatingAdd(departure, walkingTime)
	return &DetailedJourney{
		AccessLeg: &WalkingLeg{
			FromLocation: start.Geometry,
			ToLocation:   end.Geometry,
			Departure:    departure,
			Arrival:      arrival,
			Duration:     walkingTime,
		},
		TotalTime:     walkingTime,
		WalkingTime:   walkingTime,
		DepartureTime: departure,
		ArrivalTime:   arrival,
	}
}

// TracedMultimodalRouting is FindRoute with full journey reconstruction.
// It returns nil when no journey exists.
func TracedMultimodalRouting(m *TransitModel, start, end *TransitPoint, departure transit.Time, maxTransfers int) (*DetailedJourney, error) {
	directWalking := m.walkingTime(start, end)

	var (
		best       *raptor.Journey
		bestTotal  transit.Time
		bestAccess NearStop
		bestEgress NearStop
	)

	for _, access := range candidates(start) {
		for _, egress := range candidates(end) {
			overhead := transit.SaturatingAdd(access.Seconds, egress.Seconds)
			if directWalking != nil && overhead >= *directWalking {
				continue
			}
			if best != nil && overhead >= bestTotal {
				continue
			}

			journey, _, err := raptor.RunTraced(m.Transit, access.Stop, egress.Stop,
				transit.SaturatingAdd(departure, access.Seconds), maxTransfers)
			if err != nil {
				return nil, err
			}
			if journey == nil {
				continue
			}

			transitTime := journey.ArrivalTime - (departure + access.Seconds)
			total := access.Seconds + transitTime + egress.Seconds
			if best == nil || total < bestTotal {
				best = journey
				bestTotal = total
				bestAccess = access
				bestEgress = egress
			}
		}
	}

	if directWalking != nil && (best == nil || *directWalking <= bestTotal) {
		return walkingOnlyJourney(start, end, departure, *directWalking), nil
	}
	if best == nil {
		return nil, nil
	}

	return journeyWithTransit(m.Transit, start, end, bestAccess, bestEgress, best, departure), nil
}

func journeyWithTransit(data *transit.Data, start, end *TransitPoint, access, egress NearStop, journey *raptor.Journey, departure transit.Time) *DetailedJourney {
	transitDeparture := transit.SaturatingAdd(departure, access.Seconds)
	transitArrival := journey.ArrivalTime
	finalArrival := transit.SaturatingAdd(transitArrival, egress.Seconds)

	transitTime := transitArrival - transitDeparture
	return &DetailedJourney{
		AccessLeg: &WalkingLeg{
			FromLocation: start.Geometry,
			ToLocation:   data.StopLocation(access.Stop),
			ToName:       data.StopName(access.Stop),
			Departure:    departure,
			Arrival:      transitDeparture,
			Duration:     access.Seconds,
		},
		TransitLegs: journey,
		EgressLeg: &WalkingLeg{
			FromLocation: data.StopLocation(egress.Stop),
			ToLocation:   end.Geometry,
			FromName:     data.StopName(egress.Stop),
			Departure:    transitArrival,
			Arrival:      finalArrival,
			Duration:     egress.Seconds,
		},
		TotalTime:     finalArrival - departure,
		WalkingTime:   access.Seconds + egress.Seconds,
		TransitTime:   &transitTime,
		Transfers:     journey.Transfers,
		DepartureTime: departure,
		ArrivalTime:   finalArrival,
	}
}

// ToGeoJSON renders the journey as a FeatureCollection: walking and
// transfer legs as two-point lines, transit legs as the stop chain along
// the route, waiting legs as points.
func (j *DetailedJourney) ToGeoJSON(data *transit.Data) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	if j.AccessLeg != nil {
		fc.Append(walkingFeature(j.AccessLeg, "access_walk"))
	}
	if j.TransitLegs != nil {
		for idx, leg := range j.TransitLegs.Legs {
			switch leg.Kind {
			case raptor.LegTransit:
				fc.Append(transitFeature(data, leg, idx))
			case raptor.LegTransfer:
				fc.Append(transferFeature(data, leg, idx))
			case raptor.LegWaiting:
				f := geojson.NewFeature(data.StopLocation(leg.AtStop))
				f.Properties["leg_type"] = "waiting"
				f.Properties["duration"] = leg.Duration
				fc.Append(f)
			}
		}
	}
	if j.EgressLeg != nil {
		fc.Append(walkingFeature(j.EgressLeg, "egress_walk"))
	}
	return fc
}

// ToGeoJSONString is ToGeoJSON marshaled, empty on failure.
func (j *DetailedJourney) ToGeoJSONString(data *transit.Data) string {
	buf, err := json.Marshal(j.ToGeoJSON(data))
	if err != nil {
		return ""
	}
	return string(buf)
}

func walkingFeature(leg *WalkingLeg, legType string) *geojson.Feature {
	f := geojson.NewFeature(orb.LineString{leg.FromLocation, leg.ToLocation})
	f.Properties["leg_type"] = legType
	f.Properties["from_name"] = leg.FromName
	f.Properties["to_name"] = leg.ToName
	f.Properties["departure_time"] = leg.Departure
	f.Properties["arrival_time"] = leg.Arrival
	f.Properties["duration"] = leg.Duration
	return f
}

func transitFeature(data *transit.Data, leg raptor.Leg, idx int) *geojson.Feature {
	line := orb.LineString{data.StopLocation(leg.From)}

	// Chain the intermediate stops of the route between boarding and
	// alighting so the rendered leg follows the service.
	if stops, err := data.RouteStopsOf(leg.Route); err == nil {
		fromIdx, toIdx := -1, -1
		for i, s := range stops {
			if s == leg.From && fromIdx < 0 {
				fromIdx = i
			}
			if s == leg.To {
				toIdx = i
			}
		}
		if fromIdx >= 0 && toIdx > fromIdx {
			for i := fromIdx + 1; i < toIdx; i++ {
				line = append(line, data.StopLocation(stops[i]))
			}
		}
	}
	line = append(line, data.StopLocation(leg.To))

	f := geojson.NewFeature(line)
	f.Properties["leg_type"] = "transit"
	f.Properties["leg_index"] = idx
	f.Properties["route_id"] = leg.Route
	f.Properties["trip_id"] = leg.Trip
	f.Properties["from_name"] = data.StopName(leg.From)
	f.Properties["to_name"] = data.StopName(leg.To)
	f.Properties["departure_time"] = leg.Departure
	f.Properties["arrival_time"] = leg.Arrival
	f.Properties["duration"] = leg.Arrival - leg.Departure
	return f
}

func transferFeature(data *transit.Data, leg raptor.Leg, idx int) *geojson.Feature {
	f := geojson.NewFeature(orb.LineString{data.StopLocation(leg.From), data.StopLocation(leg.To)})
	f.Properties["leg_type"] = "transfer"
	f.Properties["leg_index"] = idx
	f.Properties["from_name"] = data.StopName(leg.From)
	f.Properties["to_name"] = data.StopName(leg.To)
	f.Properties["departure_time"] = leg.Departure
	f.Properties["arrival_time"] = leg.Arrival
	f.Properties["duration"] = leg.Duration
	return f
}
