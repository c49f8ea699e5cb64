package transit

import (
	"math"

	"github.com/paulmach/orb"
)

// Time is seconds since the service day's midnight. Trips running past
// midnight use values above 86400, up to MaxTime.
type Time uint32

const (
	// Infinity marks a stop as unreached.
	Infinity Time = math.MaxUint32

	// MaxTime is the largest valid departure time (two service days).
	MaxTime Time = 2 * 86400
)

// SaturatingAdd adds two times, clamping at Infinity so that sentinel
// values never wrap around.
func SaturatingAdd(a, b Time) Time {
	if s := a + b; s >= a {
		return s
	}
	return Infinity
}

// Stop is a boarding point. RoutesStart/RoutesLen and
// TransfersStart/TransfersLen are windows into Data.StopRoutes and
// Data.Transfers.
type Stop struct {
	ID    string
	Point orb.Point

	RoutesStart int
	RoutesLen   int

	TransfersStart int
	TransfersLen   int
}

// Route is a distinct stop-sequence pattern. All trips on a route share
// the same stop sequence and are sorted by departure time at every stop.
//
// StopTimes layout: Data.StopTimes[TripsStart + t*NumStops + i] is the
// time pair for trip t at stop position i.
type Route struct {
	NumStops   int
	NumTrips   int
	StopsStart int
	TripsStart int
}

// StopTime is one arrival/departure pair. Departure >= Arrival.
type StopTime struct {
	Arrival   Time
	Departure Time
}

// Transfer is a walking connection to another stop.
type Transfer struct {
	Target   int
	Duration Time
}

// FeedInfo carries feed_info.txt metadata for one GTFS feed.
type FeedInfo struct {
	PublisherName string
	PublisherURL  string
	Lang          string
	Version       string
	StartDate     string
	EndDate       string
}
