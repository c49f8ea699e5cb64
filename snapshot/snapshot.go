// Package snapshot persists a built transit model to a single SQLite file
// so hosts can skip the OSM + GTFS build on restart. The file holds the
// flat arrays verbatim; loading reconstructs the model without rerunning
// transfer precomputation.
package snapshot

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"github.com/chingiztob/ferrobus"
	"github.com/chingiztob/ferrobus/streets"
	"github.com/chingiztob/ferrobus/transit"
)

const schema = `
CREATE TABLE meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE nodes (
	id INTEGER PRIMARY KEY,
	lon REAL NOT NULL,
	lat REAL NOT NULL
);
CREATE TABLE edges (
	from_node INTEGER NOT NULL,
	to_node INTEGER NOT NULL,
	seconds INTEGER NOT NULL
);
CREATE TABLE stops (
	id INTEGER PRIMARY KEY,
	stop_id TEXT NOT NULL,
	lon REAL NOT NULL,
	lat REAL NOT NULL,
	routes_start INTEGER NOT NULL,
	routes_len INTEGER NOT NULL,
	transfers_start INTEGER NOT NULL,
	transfers_len INTEGER NOT NULL
);
CREATE TABLE routes (
	id INTEGER PRIMARY KEY,
	num_stops INTEGER NOT NULL,
	num_trips INTEGER NOT NULL,
	stops_start INTEGER NOT NULL,
	trips_start INTEGER NOT NULL
);
CREATE TABLE route_stops (
	pos INTEGER PRIMARY KEY,
	stop INTEGER NOT NULL
);
CREATE TABLE stop_times (
	pos INTEGER PRIMARY KEY,
	arrival INTEGER NOT NULL,
	departure INTEGER NOT NULL
);
CREATE TABLE stop_routes (
	pos INTEGER PRIMARY KEY,
	route INTEGER NOT NULL
);
CREATE TABLE transfers (
	pos INTEGER PRIMARY KEY,
	target INTEGER NOT NULL,
	seconds INTEGER NOT NULL
);
CREATE TABLE node_to_stop (
	node INTEGER PRIMARY KEY,
	stop INTEGER NOT NULL
);
CREATE TABLE feeds (
	id INTEGER PRIMARY KEY,
	publisher_name TEXT NOT NULL,
	publisher_url TEXT NOT NULL,
	lang TEXT NOT NULL,
	version TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL
);
`

// Save writes the model to path, replacing any previous snapshot. All
// inserts run in one transaction.
func Save(path string, m *ferrobus.TransitModel) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return errors.Wrap(err, "opening snapshot")
	}
	defer db.Close()

	if _, err := db.Exec(dropAll()); err != nil {
		return errors.Wrap(err, "resetting snapshot")
	}
	if _, err := db.Exec(schema); err != nil {
		return errors.Wrap(err, "creating schema")
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if err := writeModel(tx, m); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing snapshot")
}

func dropAll() string {
	s := ""
	for _, table := range []string{
		"meta", "nodes", "edges", "stops", "routes", "route_stops",
		"stop_times", "stop_routes", "transfers", "node_to_stop", "feeds",
	} {
		s += "DROP TABLE IF EXISTS " + table + ";\n"
	}
	return s
}

func writeModel(tx *sql.Tx, m *ferrobus.TransitModel) error {
	if _, err := tx.Exec(
		"INSERT INTO meta (key, value) VALUES ('max_transfer_time', ?)",
		fmt.Sprintf("%d", m.Meta.MaxTransferTime),
	); err != nil {
		return errors.Wrap(err, "writing meta")
	}

	nodeStmt, err := tx.Prepare("INSERT INTO nodes (id, lon, lat) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	for i := 0; i < m.Streets.NumNodes(); i++ {
		p := m.Streets.NodePoint(i)
		if _, err := nodeStmt.Exec(i, p[0], p[1]); err != nil {
			return errors.Wrap(err, "writing node")
		}
	}

	edgeStmt, err := tx.Prepare("INSERT INTO edges (from_node, to_node, seconds) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	for i := 0; i < m.Streets.NumNodes(); i++ {
		for _, e := range m.Streets.OutEdges(i) {
			if _, err := edgeStmt.Exec(i, e.To, e.Weight); err != nil {
				return errors.Wrap(err, "writing edge")
			}
		}
	}

	stopStmt, err := tx.Prepare(`INSERT INTO stops
		(id, stop_id, lon, lat, routes_start, routes_len, transfers_start, transfers_len)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	for i, s := range m.Transit.Stops {
		if _, err := stopStmt.Exec(i, s.ID, s.Point[0], s.Point[1],
			s.RoutesStart, s.RoutesLen, s.TransfersStart, s.TransfersLen); err != nil {
			return errors.Wrap(err, "writing stop")
		}
	}

	routeStmt, err := tx.Prepare(
		"INSERT INTO routes (id, num_stops, num_trips, stops_start, trips_start) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	for i, r := range m.Transit.Routes {
		if _, err := routeStmt.Exec(i, r.NumStops, r.NumTrips, r.StopsStart, r.TripsStart); err != nil {
			return errors.Wrap(err, "writing route")
		}
	}

	if err := writeIntColumn(tx, "INSERT INTO route_stops (pos, stop) VALUES (?, ?)", m.Transit.RouteStops); err != nil {
		return err
	}
	if err := writeIntColumn(tx, "INSERT INTO stop_routes (pos, route) VALUES (?, ?)", m.Transit.StopRoutes); err != nil {
		return err
	}

	stStmt, err := tx.Prepare("INSERT INTO stop_times (pos, arrival, departure) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	for i, st := range m.Transit.StopTimes {
		if _, err := stStmt.Exec(i, st.Arrival, st.Departure); err != nil {
			return errors.Wrap(err, "writing stop time")
		}
	}

	trStmt, err := tx.Prepare("INSERT INTO transfers (pos, target, seconds) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	for i, t := range m.Transit.Transfers {
		if _, err := trStmt.Exec(i, t.Target, t.Duration); err != nil {
			return errors.Wrap(err, "writing transfer")
		}
	}

	ntsStmt, err := tx.Prepare("INSERT INTO node_to_stop (node, stop) VALUES (?, ?)")
	if err != nil {
		return err
	}
	for node, stop := range m.Transit.NodeToStop {
		if _, err := ntsStmt.Exec(node, stop); err != nil {
			return errors.Wrap(err, "writing node mapping")
		}
	}

	feedStmt, err := tx.Prepare(`INSERT INTO feeds
		(id, publisher_name, publisher_url, lang, version, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	for i, f := range m.Transit.Feeds {
		if _, err := feedStmt.Exec(i, f.PublisherName, f.PublisherURL, f.Lang,
			f.Version, f.StartDate, f.EndDate); err != nil {
			return errors.Wrap(err, "writing feed info")
		}
	}

	return nil
}

func writeIntColumn(tx *sql.Tx, query string, values []int) error {
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	for i, v := range values {
		if _, err := stmt.Exec(i, v); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}
	return nil
}

// Load reads a snapshot back into a ready-to-query model.
func Load(path string) (*ferrobus.TransitModel, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening snapshot")
	}
	defer db.Close()

	var maxTransfer uint32
	var value string
	if err := db.QueryRow("SELECT value FROM meta WHERE key = 'max_transfer_time'").Scan(&value); err != nil {
		return nil, errors.Wrap(err, "reading meta")
	}
	if _, err := fmt.Sscanf(value, "%d", &maxTransfer); err != nil {
		return nil, errors.Wrap(err, "parsing max_transfer_time")
	}

	graph, err := loadGraph(db)
	if err != nil {
		return nil, err
	}
	data, err := loadTransit(db)
	if err != nil {
		return nil, err
	}

	return &ferrobus.TransitModel{
		Streets: graph,
		Transit: data,
		Meta:    ferrobus.Meta{MaxTransferTime: transit.Time(maxTransfer)},
	}, nil
}

func loadGraph(db *sql.DB) (*streets.Graph, error) {
	builder := streets.NewBuilder()
	points := []orb.Point{}

	rows, err := db.Query("SELECT id, lon, lat FROM nodes ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "reading nodes")
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		var lon, lat float64
		if err := rows.Scan(&id, &lon, &lat); err != nil {
			return nil, errors.Wrap(err, "scanning node")
		}
		builder.AddNode(orb.Point{lon, lat})
		points = append(points, orb.Point{lon, lat})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edgeRows, err := db.Query("SELECT from_node, to_node, seconds FROM edges")
	if err != nil {
		return nil, errors.Wrap(err, "reading edges")
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var from, to int
		var seconds uint32
		if err := edgeRows.Scan(&from, &to, &seconds); err != nil {
			return nil, errors.Wrap(err, "scanning edge")
		}
		if from < len(points) && to < len(points) {
			builder.AddEdge(from, to, transit.Time(seconds), orb.LineString{points[from], points[to]})
		}
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	return builder.Build(), nil
}

func loadTransit(db *sql.DB) (*transit.Data, error) {
	data := &transit.Data{NodeToStop: map[int]int{}}

	rows, err := db.Query(`SELECT stop_id, lon, lat, routes_start, routes_len,
		transfers_start, transfers_len FROM stops ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "reading stops")
	}
	defer rows.Close()
	for rows.Next() {
		var s transit.Stop
		var lon, lat float64
		if err := rows.Scan(&s.ID, &lon, &lat, &s.RoutesStart, &s.RoutesLen,
			&s.TransfersStart, &s.TransfersLen); err != nil {
			return nil, errors.Wrap(err, "scanning stop")
		}
		s.Point = orb.Point{lon, lat}
		data.Stops = append(data.Stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	routeRows, err := db.Query("SELECT num_stops, num_trips, stops_start, trips_start FROM routes ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "reading routes")
	}
	defer routeRows.Close()
	for routeRows.Next() {
		var r transit.Route
		if err := routeRows.Scan(&r.NumStops, &r.NumTrips, &r.StopsStart, &r.TripsStart); err != nil {
			return nil, errors.Wrap(err, "scanning route")
		}
		data.Routes = append(data.Routes, r)
	}
	if err := routeRows.Err(); err != nil {
		return nil, err
	}

	if data.RouteStops, err = readIntColumn(db, "SELECT stop FROM route_stops ORDER BY pos"); err != nil {
		return nil, err
	}
	if data.StopRoutes, err = readIntColumn(db, "SELECT route FROM stop_routes ORDER BY pos"); err != nil {
		return nil, err
	}

	stRows, err := db.Query("SELECT arrival, departure FROM stop_times ORDER BY pos")
	if err != nil {
		return nil, errors.Wrap(err, "reading stop times")
	}
	defer stRows.Close()
	for stRows.Next() {
		var arr, dep uint32
		if err := stRows.Scan(&arr, &dep); err != nil {
			return nil, errors.Wrap(err, "scanning stop time")
		}
		data.StopTimes = append(data.StopTimes, transit.StopTime{
			Arrival:   transit.Time(arr),
			Departure: transit.Time(dep),
		})
	}
	if err := stRows.Err(); err != nil {
		return nil, err
	}

	trRows, err := db.Query("SELECT target, seconds FROM transfers ORDER BY pos")
	if err != nil {
		return nil, errors.Wrap(err, "reading transfers")
	}
	defer trRows.Close()
	for trRows.Next() {
		var target int
		var seconds uint32
		if err := trRows.Scan(&target, &seconds); err != nil {
			return nil, errors.Wrap(err, "scanning transfer")
		}
		data.Transfers = append(data.Transfers, transit.Transfer{
			Target:   target,
			Duration: transit.Time(seconds),
		})
	}
	if err := trRows.Err(); err != nil {
		return nil, err
	}

	ntsRows, err := db.Query("SELECT node, stop FROM node_to_stop")
	if err != nil {
		return nil, errors.Wrap(err, "reading node mapping")
	}
	defer ntsRows.Close()
	for ntsRows.Next() {
		var node, stop int
		if err := ntsRows.Scan(&node, &stop); err != nil {
			return nil, errors.Wrap(err, "scanning node mapping")
		}
		data.NodeToStop[node] = stop
	}
	if err := ntsRows.Err(); err != nil {
		return nil, err
	}

	feedRows, err := db.Query(`SELECT publisher_name, publisher_url, lang, version,
		start_date, end_date FROM feeds ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "reading feeds")
	}
	defer feedRows.Close()
	for feedRows.Next() {
		var f transit.FeedInfo
		if err := feedRows.Scan(&f.PublisherName, &f.PublisherURL, &f.Lang,
			&f.Version, &f.StartDate, &f.EndDate); err != nil {
			return nil, errors.Wrap(err, "scanning feed info")
		}
		data.Feeds = append(data.Feeds, f)
	}
	if err := feedRows.Err(); err != nil {
		return nil, err
	}

	return data, nil
}

func readIntColumn(db *sql.DB, query string) ([]int, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.Wrap(err, "reading column")
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scanning value")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
