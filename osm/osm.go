// Package osm builds the pedestrian street graph from an OpenStreetMap
// PBF extract.
package osm

import (
	"context"
	"math"
	"os"
	"runtime"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chingiztob/ferrobus/streets"
	"github.com/chingiztob/ferrobus/transit"
)

// Highways pedestrians cannot use regardless of other tags.
var excludedHighways = map[string]bool{
	"motorway":      true,
	"motorway_link": true,
	"trunk":         true,
	"trunk_link":    true,
}

type way struct {
	nodes []osm.NodeID
}

// ReadGraph parses the PBF file at path and returns the walkable street
// graph. The file is scanned twice: first for walkable ways, then for the
// coordinates of the nodes those ways reference.
func ReadGraph(path string) (*streets.Graph, error) {
	ways, needed, err := scanWays(path)
	if err != nil {
		return nil, err
	}
	coords, err := scanNodes(path, needed)
	if err != nil {
		return nil, err
	}

	builder := streets.NewBuilder()
	index := make(map[osm.NodeID]int, len(coords))
	nodeFor := func(id osm.NodeID) (int, bool) {
		if n, ok := index[id]; ok {
			return n, true
		}
		p, ok := coords[id]
		if !ok {
			return 0, false
		}
		n := builder.AddNode(p)
		index[id] = n
		return n, true
	}

	edges := 0
	for _, w := range ways {
		for i := 0; i+1 < len(w.nodes); i++ {
			from, ok := nodeFor(w.nodes[i])
			if !ok {
				continue
			}
			to, ok := nodeFor(w.nodes[i+1])
			if !ok {
				continue
			}
			a, b := coords[w.nodes[i]], coords[w.nodes[i+1]]
			seconds := transit.Time(math.Max(1, math.Round(geo.DistanceHaversine(a, b)/streets.WalkingSpeed)))
			geom := orb.LineString{a, b}
			builder.AddEdge(from, to, seconds, geom)
			builder.AddEdge(to, from, seconds, orb.LineString{b, a})
			edges += 2
		}
	}

	logrus.WithFields(logrus.Fields{
		"nodes": len(index),
		"edges": edges,
		"ways":  len(ways),
	}).Info("street graph built")

	return builder.Build(), nil
}

func scanWays(path string) ([]way, map[osm.NodeID]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening OSM file")
	}
	defer f.Close()

	scanner := osmpbf.New(context.Background(), f, runtime.NumCPU())
	defer scanner.Close()
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	var ways []way
	needed := map[osm.NodeID]bool{}
	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok || !walkable(w) {
			continue
		}
		ids := make([]osm.NodeID, 0, len(w.Nodes))
		for _, wn := range w.Nodes {
			ids = append(ids, wn.ID)
			needed[wn.ID] = true
		}
		ways = append(ways, way{nodes: ids})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "scanning OSM ways")
	}
	return ways, needed, nil
}

func scanNodes(path string, needed map[osm.NodeID]bool) (map[osm.NodeID]orb.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening OSM file")
	}
	defer f.Close()

	scanner := osmpbf.New(context.Background(), f, runtime.NumCPU())
	defer scanner.Close()
	scanner.SkipWays = true
	scanner.SkipRelations = true

	coords := make(map[osm.NodeID]orb.Point, len(needed))
	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok || !needed[n.ID] {
			continue
		}
		coords[n.ID] = orb.Point{n.Lon, n.Lat}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning OSM nodes")
	}
	return coords, nil
}

func walkable(w *osm.Way) bool {
	highway := w.Tags.Find("highway")
	if highway == "" || excludedHighways[highway] {
		return false
	}
	if w.Tags.Find("foot") == "no" {
		return false
	}
	if w.Tags.Find("access") == "private" {
		return false
	}
	return true
}
