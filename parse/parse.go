// Package parse loads GTFS directories into the flat transit data model.
// One service day is selected up front; trips outside it are dropped, and
// the remaining trips are grouped into route patterns.
package parse

import (
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spkg/bom"

	"github.com/paulmach/orb"

	"github.com/chingiztob/ferrobus/transit"
)

func init() {
	// LazyCSVReader survives sloppy quoting; the BOM reader strips unicode
	// BOMs some agencies prepend.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})
}

// DeclaredTransfer is a transfers.txt row, resolved against the computed
// transfer table during model build. Type 3 forbids the connection.
type DeclaredTransfer struct {
	FromStopID string
	ToStopID   string
	Type       int
	MinTime    transit.Time
}

type stopTimeRow struct {
	stopID string
	seq    int
	time   transit.StopTime
}

// Load reads the GTFS directories and returns the transit data for the
// selected service day plus any declared transfers. Optional tables
// (calendar, calendar_dates, transfers, feed_info) may be absent, but at
// least one of calendar and calendar_dates must contribute rows.
func Load(dirs []string, serviceDay string) (*transit.Data, []DeclaredTransfer, error) {
	var (
		stops     []StopCSV
		trips     []TripCSV
		stopTimes []StopTimeCSV
		calendar  []CalendarCSV
		dates     []CalendarDateCSV
		transfers []TransferCSV
		feedInfos []FeedInfoCSV
	)

	for _, dir := range dirs {
		if err := readTable(filepath.Join(dir, "stops.txt"), &stops, true); err != nil {
			return nil, nil, err
		}
		if err := readTable(filepath.Join(dir, "trips.txt"), &trips, true); err != nil {
			return nil, nil, err
		}
		if err := readTable(filepath.Join(dir, "stop_times.txt"), &stopTimes, true); err != nil {
			return nil, nil, err
		}
		if err := readTable(filepath.Join(dir, "calendar.txt"), &calendar, false); err != nil {
			return nil, nil, err
		}
		if err := readTable(filepath.Join(dir, "calendar_dates.txt"), &dates, false); err != nil {
			return nil, nil, err
		}
		if err := readTable(filepath.Join(dir, "transfers.txt"), &transfers, false); err != nil {
			return nil, nil, err
		}
		if err := readTable(filepath.Join(dir, "feed_info.txt"), &feedInfos, false); err != nil {
			return nil, nil, err
		}
	}

	if len(calendar) == 0 && len(dates) == 0 {
		return nil, nil, errors.Wrap(transit.ErrInvalidData, "missing calendar.txt and calendar_dates.txt")
	}

	active, err := activeServices(serviceDay, calendar, dates)
	if err != nil {
		return nil, nil, errors.Wrap(transit.ErrInvalidData, err.Error())
	}

	activeTrips := map[string]bool{}
	for _, t := range trips {
		if active[t.ServiceID] {
			activeTrips[t.TripID] = true
		}
	}

	builder := transit.NewBuilder()
	stopIndex := make(map[string]int, len(stops))
	for _, s := range stops {
		if _, dup := stopIndex[s.StopID]; dup {
			continue
		}
		lon, errLon := strconv.ParseFloat(s.StopLon, 64)
		lat, errLat := strconv.ParseFloat(s.StopLat, 64)
		if errLon != nil || errLat != nil {
			logrus.WithField("stop", s.StopID).Warn("invalid stop coordinates")
			lon, lat = 0, 0
		}
		stopIndex[s.StopID] = builder.AddStop(s.StopID, orb.Point{lon, lat})
	}

	byTrip := map[string][]stopTimeRow{}
	for i, st := range stopTimes {
		if !activeTrips[st.TripID] {
			continue
		}
		seq, err := strconv.Atoi(st.StopSequence)
		if err != nil {
			return nil, nil, errors.Wrapf(transit.ErrInvalidData,
				"bad stop_sequence %q (row %d)", st.StopSequence, i+1)
		}
		arrival, err := ParseTime(st.ArrivalTime)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "parsing arrival_time (row %d)", i+1)
		}
		departure, err := ParseTime(st.DepartureTime)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "parsing departure_time (row %d)", i+1)
		}
		byTrip[st.TripID] = append(byTrip[st.TripID], stopTimeRow{
			stopID: st.StopID,
			seq:    seq,
			time:   transit.StopTime{Arrival: arrival, Departure: departure},
		})
	}

	for _, group := range groupPatterns(byTrip, stopIndex) {
		tripSlices := make([][]transit.StopTime, 0, len(group.trips))
		for _, t := range group.trips {
			tripSlices = append(tripSlices, t.times)
		}
		builder.AddPattern(group.stops, tripSlices)
	}

	for _, fi := range feedInfos {
		builder.AddFeedInfo(transit.FeedInfo{
			PublisherName: fi.PublisherName,
			PublisherURL:  fi.PublisherURL,
			Lang:          fi.Lang,
			Version:       fi.Version,
			StartDate:     fi.StartDate,
			EndDate:       fi.EndDate,
		})
	}

	data, err := builder.Build()
	if err != nil {
		return nil, nil, err
	}

	declared := make([]DeclaredTransfer, 0, len(transfers))
	for _, t := range transfers {
		transferType := 0
		if t.TransferType != "" {
			if transferType, err = strconv.Atoi(t.TransferType); err != nil {
				logrus.WithField("transfer_type", t.TransferType).Warn("bad transfer_type, treating as 0")
				transferType = 0
			}
		}
		minTime := transit.Time(0)
		if t.MinTransferTime != "" {
			v, err := strconv.Atoi(t.MinTransferTime)
			if err != nil || v < 0 {
				logrus.WithField("min_transfer_time", t.MinTransferTime).Warn("bad min_transfer_time, treating as 0")
			} else {
				minTime = transit.Time(v)
			}
		}
		declared = append(declared, DeclaredTransfer{
			FromStopID: t.FromStopID,
			ToStopID:   t.ToStopID,
			Type:       transferType,
			MinTime:    minTime,
		})
	}

	logrus.WithFields(logrus.Fields{
		"stops":  len(data.Stops),
		"routes": len(data.Routes),
		"trips":  len(activeTrips),
	}).Info("GTFS data loaded")

	return data, declared, nil
}

// readTable appends the rows of one CSV table to out, so repeated calls
// accumulate rows across GTFS directories.
func readTable[T any](path string, out *[]T, required bool) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	var rows []T
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return errors.Wrapf(err, "unmarshaling %s", path)
	}
	*out = append(*out, rows...)
	return nil
}
