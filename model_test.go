package ferrobus_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chingiztob/ferrobus"
	"github.com/chingiztob/ferrobus/transit"
)

func writeEmptyFile(path string) error {
	return os.WriteFile(path, nil, 0o644)
}

func TestCreateTransitModelValidatesConfig(t *testing.T) {
	_, err := ferrobus.CreateTransitModel(ferrobus.Config{
		OSMPath:         "/does/not/exist.osm.pbf",
		GTFSDirs:        []string{t.TempDir()},
		ServiceDay:      "monday",
		MaxTransferTime: 1800,
	})
	assert.ErrorIs(t, err, ferrobus.ErrInvalidData)

	osm := t.TempDir() + "/empty.osm.pbf"
	require.NoError(t, writeEmptyFile(osm))

	_, err = ferrobus.CreateTransitModel(ferrobus.Config{
		OSMPath:         osm,
		ServiceDay:      "monday",
		MaxTransferTime: 1800,
	})
	assert.ErrorIs(t, err, ferrobus.ErrInvalidData)

	_, err = ferrobus.CreateTransitModel(ferrobus.Config{
		OSMPath:         osm,
		GTFSDirs:        []string{"/does/not/exist"},
		ServiceDay:      "monday",
		MaxTransferTime: 1800,
	})
	assert.ErrorIs(t, err, ferrobus.ErrInvalidData)

	_, err = ferrobus.CreateTransitModel(ferrobus.Config{
		OSMPath:    osm,
		GTFSDirs:   []string{t.TempDir()},
		ServiceDay: "monday",
	})
	assert.ErrorIs(t, err, ferrobus.ErrInvalidData)
}

func TestModelAccessors(t *testing.T) {
	m := twoStopModel(t)

	assert.Equal(t, 2, m.StopCount())
	assert.Equal(t, 1, m.RouteCount())
	assert.Equal(t, "no feed info", m.FeedsInfo())

	m.Transit.Feeds = append(m.Transit.Feeds, transit.FeedInfo{
		PublisherName: "City Transit",
		Version:       "2025-06",
		StartDate:     "20250101",
		EndDate:       "20251231",
	})
	assert.Contains(t, m.FeedsInfo(), "City Transit")
	assert.Contains(t, m.FeedsInfo(), "2025-06")
}
