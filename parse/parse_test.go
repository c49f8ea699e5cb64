package parse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chingiztob/ferrobus/transit"
)

func writeGTFS(t *testing.T, files map[string][]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, lines := range files {
		content := ""
		for _, l := range lines {
			content += l + "\n"
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func minimalFeed(t *testing.T) string {
	return writeGTFS(t, map[string][]string{
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"A,Stop A,55.75,37.61",
			"B,Stop B,55.76,37.62",
			"C,Stop C,55.77,37.63",
		},
		"trips.txt": {
			"route_id,service_id,trip_id",
			"r1,wk,t1",
			"r1,wk,t2",
			"r1,we,t3",
		},
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"t1,08:00:00,08:00:00,A,1",
			"t1,08:10:00,08:11:00,B,2",
			"t1,08:20:00,08:20:00,C,3",
			"t2,09:00:00,09:00:00,A,1",
			"t2,09:10:00,09:11:00,B,2",
			"t2,09:20:00,09:20:00,C,3",
			"t3,10:00:00,10:00:00,A,1",
			"t3,10:10:00,10:11:00,B,2",
			"t3,10:20:00,10:20:00,C,3",
		},
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"wk,1,1,1,1,1,0,0,20250101,20251231",
			"we,0,0,0,0,0,1,1,20250101,20251231",
		},
	})
}

func TestLoadGroupsTripsIntoPatterns(t *testing.T) {
	dir := minimalFeed(t)

	data, declared, err := Load([]string{dir}, "monday")
	require.NoError(t, err)
	assert.Empty(t, declared)

	require.Len(t, data.Stops, 3)
	// t1 and t2 share a stop pattern; t3 runs on the weekend service and
	// is dropped. One route with two trips.
	require.Len(t, data.Routes, 1)
	assert.Equal(t, 2, data.Routes[0].NumTrips)
	assert.Equal(t, 3, data.Routes[0].NumStops)

	// Trips sorted by departure.
	trip0, err := data.Trip(0, 0)
	require.NoError(t, err)
	trip1, err := data.Trip(0, 1)
	require.NoError(t, err)
	assert.Equal(t, transit.Time(8*3600), trip0[0].Departure)
	assert.Equal(t, transit.Time(9*3600), trip1[0].Departure)
	assert.Equal(t, transit.Time(8*3600+11*60), trip0[1].Departure)
}

func TestLoadWeekendService(t *testing.T) {
	dir := minimalFeed(t)

	data, _, err := Load([]string{dir}, "saturday")
	require.NoError(t, err)
	require.Len(t, data.Routes, 1)
	assert.Equal(t, 1, data.Routes[0].NumTrips)
}

func TestLoadByDate(t *testing.T) {
	dir := minimalFeed(t)

	// 2025-06-02 is a Monday.
	data, _, err := Load([]string{dir}, "20250602")
	require.NoError(t, err)
	require.Len(t, data.Routes, 1)
	assert.Equal(t, 2, data.Routes[0].NumTrips)

	// Outside the calendar range nothing runs.
	data, _, err = Load([]string{dir}, "20240602")
	require.NoError(t, err)
	assert.Empty(t, data.Routes)
}

func TestCalendarDateExceptions(t *testing.T) {
	dir := writeGTFS(t, map[string][]string{
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"A,Stop A,55.75,37.61",
			"B,Stop B,55.76,37.62",
		},
		"trips.txt": {
			"route_id,service_id,trip_id",
			"r1,wk,t1",
		},
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"t1,08:00:00,08:00:00,A,1",
			"t1,08:10:00,08:10:00,B,2",
		},
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"wk,1,1,1,1,1,0,0,20250101,20251231",
		},
		"calendar_dates.txt": {
			"service_id,date,exception_type",
			"wk,20250602,2",
		},
	})

	// Removed by exception on that Monday.
	data, _, err := Load([]string{dir}, "20250602")
	require.NoError(t, err)
	assert.Empty(t, data.Routes)
}

func TestFIFOSplit(t *testing.T) {
	dir := writeGTFS(t, map[string][]string{
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"A,Stop A,55.75,37.61",
			"B,Stop B,55.76,37.62",
		},
		"trips.txt": {
			"route_id,service_id,trip_id",
			"r1,wk,slow",
			"r1,wk,fast",
		},
		// The later departure overtakes the earlier one, which would
		// break the trip binary search if kept on one pattern.
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"slow,08:00:00,08:00:00,A,1",
			"slow,09:00:00,09:00:00,B,2",
			"fast,08:30:00,08:30:00,A,1",
			"fast,08:45:00,08:45:00,B,2",
		},
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"wk,1,1,1,1,1,1,1,20250101,20251231",
		},
	})

	data, _, err := Load([]string{dir}, "monday")
	require.NoError(t, err)

	require.Len(t, data.Routes, 2)
	assert.Equal(t, 1, data.Routes[0].NumTrips)
	assert.Equal(t, 1, data.Routes[1].NumTrips)
}

func TestDeclaredTransfers(t *testing.T) {
	dir := writeGTFS(t, map[string][]string{
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"A,Stop A,55.75,37.61",
			"B,Stop B,55.76,37.62",
		},
		"trips.txt": {
			"route_id,service_id,trip_id",
			"r1,wk,t1",
		},
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"t1,08:00:00,08:00:00,A,1",
			"t1,08:10:00,08:10:00,B,2",
		},
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"wk,1,1,1,1,1,1,1,20250101,20251231",
		},
		"transfers.txt": {
			"from_stop_id,to_stop_id,transfer_type,min_transfer_time",
			"A,B,2,120",
			"B,A,3,",
		},
	})

	_, declared, err := Load([]string{dir}, "monday")
	require.NoError(t, err)
	require.Len(t, declared, 2)
	assert.Equal(t, DeclaredTransfer{FromStopID: "A", ToStopID: "B", Type: 2, MinTime: 120}, declared[0])
	assert.Equal(t, 3, declared[1].Type)
}

func TestLoadMissingCalendar(t *testing.T) {
	dir := writeGTFS(t, map[string][]string{
		"stops.txt":      {"stop_id,stop_name,stop_lat,stop_lon", "A,Stop A,55.75,37.61"},
		"trips.txt":      {"route_id,service_id,trip_id", "r1,wk,t1"},
		"stop_times.txt": {"trip_id,arrival_time,departure_time,stop_id,stop_sequence"},
	})

	_, _, err := Load([]string{dir}, "monday")
	assert.ErrorIs(t, err, transit.ErrInvalidData)
}

func TestParseTime(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want transit.Time
		ok   bool
	}{
		{"08:00:00", 28800, true},
		{"25:30:00", 91800, true}, // post-midnight trip
		{"00:00:01", 1, true},
		{"8:00", 0, false},
		{"08:61:00", 0, false},
		{"aa:bb:cc", 0, false},
	} {
		got, err := ParseTime(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.want, got, tc.in)
		} else {
			assert.Error(t, err, tc.in)
		}
	}
}
