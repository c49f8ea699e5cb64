package main

import (
	"fmt"
	"os"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/spf13/cobra"

	"github.com/chingiztob/ferrobus"
	"github.com/chingiztob/ferrobus/parse"
	"github.com/chingiztob/ferrobus/transit"
)

var (
	isoLat, isoLon float64
	areaFile       string
	resolution     int
	cutoff         uint32
	isoDeparture   string
	isoTransfers   int
	isoMaxWalk     uint32
)

func init() {
	isochroneCmd.Flags().Float64Var(&isoLat, "lat", 0, "start latitude")
	isochroneCmd.Flags().Float64Var(&isoLon, "lon", 0, "start longitude")
	isochroneCmd.Flags().StringVar(&areaFile, "area", "", "file with the area polygon as WKT")
	isochroneCmd.Flags().IntVar(&resolution, "resolution", 8, "hex cell resolution")
	isochroneCmd.Flags().Uint32Var(&cutoff, "cutoff", 1800, "travel time cutoff in seconds")
	isochroneCmd.Flags().StringVar(&isoDeparture, "departure", "08:00:00", "departure time HH:MM:SS")
	isochroneCmd.Flags().IntVar(&isoTransfers, "max-transfers", 3, "maximum transfers")
	isochroneCmd.Flags().Uint32Var(&isoMaxWalk, "max-walking-time", 1200, "walking cutoff in seconds")
}

var isochroneCmd = &cobra.Command{
	Use:   "isochrone",
	Short: "Compute the area reachable within a time cutoff, printed as WKT",
	RunE: func(cmd *cobra.Command, args []string) error {
		if areaFile == "" {
			return fmt.Errorf("--area is required")
		}
		area, err := os.ReadFile(areaFile)
		if err != nil {
			return err
		}

		model, err := loadModel()
		if err != nil {
			return err
		}

		departure, err := parse.ParseTime(isoDeparture)
		if err != nil {
			return fmt.Errorf("invalid departure: %w", err)
		}

		index, err := ferrobus.NewIsochroneIndex(model, string(area), resolution, transit.Time(isoMaxWalk))
		if err != nil {
			return err
		}

		start, err := ferrobus.NewTransitPoint(isoLat, isoLon, model, transit.Time(isoMaxWalk), 10)
		if err != nil {
			return err
		}

		iso, err := ferrobus.CalculateIsochrone(model, start, departure, isoTransfers, transit.Time(cutoff), index)
		if err != nil {
			return err
		}

		fmt.Println(wkt.MarshalString(iso))
		return nil
	},
}
