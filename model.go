// Package ferrobus computes fastest-path journeys in a multimodal transit
// network: scheduled services routed with RAPTOR, attached to a pedestrian
// street graph for access, egress and transfers, with isochrones driven by
// one-to-many queries over a hexagonal cell index.
package ferrobus

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/chingiztob/ferrobus/osm"
	"github.com/chingiztob/ferrobus/parse"
	"github.com/chingiztob/ferrobus/streets"
	"github.com/chingiztob/ferrobus/transit"
)

// Config describes one model build. ServiceDay is either a lowercase
// weekday name ("monday") or a YYYYMMDD date checked against the GTFS
// calendars.
type Config struct {
	OSMPath         string
	GTFSDirs        []string
	ServiceDay      string
	MaxTransferTime transit.Time
}

// Meta carries build parameters the queries need later.
type Meta struct {
	MaxTransferTime transit.Time
}

// TransitModel is the frozen multimodal network: the street graph plus the
// flat transit data. It is built once and read-only afterwards; all query
// entry points share it without locking.
type TransitModel struct {
	Streets *streets.Graph
	Transit *transit.Data
	Meta    Meta
}

func (m *TransitModel) StopCount() int  { return len(m.Transit.Stops) }
func (m *TransitModel) RouteCount() int { return len(m.Transit.Routes) }

// FeedsInfo summarizes the feed_info metadata of the loaded GTFS feeds.
func (m *TransitModel) FeedsInfo() string {
	if len(m.Transit.Feeds) == 0 {
		return "no feed info"
	}
	s := ""
	for i, f := range m.Transit.Feeds {
		if i > 0 {
			s += "; "
		}
		s += fmt.Sprintf("%s %s (%s - %s)", f.PublisherName, f.Version, f.StartDate, f.EndDate)
	}
	return s
}

// NewModel assembles a model from prebuilt parts and runs transfer
// precomputation. Used by CreateTransitModel, snapshot loading and tests.
func NewModel(graph *streets.Graph, data *transit.Data, declared []parse.DeclaredTransfer, meta Meta) *TransitModel {
	m := &TransitModel{Streets: graph, Transit: data, Meta: meta}
	calculateTransfers(m, declared, meta.MaxTransferTime)
	return m
}

// CreateTransitModel builds the full model: the street graph is parsed on
// a separate worker while GTFS loads on the caller, then the two join for
// transfer precomputation.
func CreateTransitModel(cfg Config) (*TransitModel, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	logrus.WithField("path", cfg.OSMPath).Info("processing street data (OSM)")

	var g errgroup.Group
	var graph *streets.Graph
	g.Go(func() error {
		var err error
		graph, err = osm.ReadGraph(cfg.OSMPath)
		return err
	})

	logrus.Info("processing public transit data (GTFS)")
	data, declared, err := parse.Load(cfg.GTFSDirs, cfg.ServiceDay)
	if err != nil {
		return nil, err
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	warnStopsOutsideCoverage(graph, data)

	m := NewModel(graph, data, declared, Meta{MaxTransferTime: cfg.MaxTransferTime})
	logrus.WithField("transfers", len(m.Transit.Transfers)).Info("transit model created")
	return m, nil
}

func validateConfig(cfg Config) error {
	if _, err := os.Stat(cfg.OSMPath); err != nil {
		return errors.Wrapf(ErrInvalidData, "OSM file not found: %s", cfg.OSMPath)
	}
	if len(cfg.GTFSDirs) == 0 {
		return errors.Wrap(ErrInvalidData, "no GTFS directories provided")
	}
	for _, dir := range cfg.GTFSDirs {
		if _, err := os.Stat(dir); err != nil {
			return errors.Wrapf(ErrInvalidData, "GTFS directory not found: %s", dir)
		}
	}
	if cfg.MaxTransferTime == 0 {
		return errors.Wrap(ErrInvalidData, "max transfer time must be positive")
	}
	return nil
}

// warnStopsOutsideCoverage flags stops falling outside the street graph's
// bounding box; they may be unreachable for routing.
func warnStopsOutsideCoverage(graph *streets.Graph, data *transit.Data) {
	if graph.NumNodes() == 0 || len(data.Stops) == 0 {
		return
	}
	bound := orb.Bound{Min: graph.NodePoint(0), Max: graph.NodePoint(0)}
	for i := 1; i < graph.NumNodes(); i++ {
		bound = bound.Extend(graph.NodePoint(i))
	}

	outside := 0
	for i := range data.Stops {
		if !bound.Contains(data.Stops[i].Point) {
			outside++
		}
	}
	if outside > 0 {
		logrus.WithFields(logrus.Fields{
			"outside": outside,
			"total":   len(data.Stops),
		}).Warn("transit stops outside street network coverage may be unreachable")
	}
}
