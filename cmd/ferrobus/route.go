package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chingiztob/ferrobus"
	"github.com/chingiztob/ferrobus/parse"
	"github.com/chingiztob/ferrobus/transit"
)

var (
	fromLat, fromLon float64
	toLat, toLon     float64
	departureStr     string
	maxTransfers     int
	maxWalkingTime   uint32
	detailed         bool
)

func init() {
	routeCmd.Flags().Float64Var(&fromLat, "from-lat", 0, "origin latitude")
	routeCmd.Flags().Float64Var(&fromLon, "from-lon", 0, "origin longitude")
	routeCmd.Flags().Float64Var(&toLat, "to-lat", 0, "destination latitude")
	routeCmd.Flags().Float64Var(&toLon, "to-lon", 0, "destination longitude")
	routeCmd.Flags().StringVar(&departureStr, "departure", "08:00:00", "departure time HH:MM:SS")
	routeCmd.Flags().IntVar(&maxTransfers, "max-transfers", 3, "maximum transfers")
	routeCmd.Flags().Uint32Var(&maxWalkingTime, "max-walking-time", 1200, "access/egress walking cutoff in seconds")
	routeCmd.Flags().BoolVar(&detailed, "detailed", false, "print the full journey as GeoJSON")
}

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Find the fastest multimodal journey between two coordinates",
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := loadModel()
		if err != nil {
			return err
		}

		departure, err := parse.ParseTime(departureStr)
		if err != nil {
			return fmt.Errorf("invalid departure: %w", err)
		}

		start, err := ferrobus.NewTransitPoint(fromLat, fromLon, model, transit.Time(maxWalkingTime), 10)
		if err != nil {
			return err
		}
		end, err := ferrobus.NewTransitPoint(toLat, toLon, model, transit.Time(maxWalkingTime), 10)
		if err != nil {
			return err
		}

		if detailed {
			journey, err := ferrobus.TracedMultimodalRouting(model, start, end, departure, maxTransfers)
			if err != nil {
				return err
			}
			if journey == nil {
				fmt.Println("no journey found")
				return nil
			}
			fmt.Println(journey.ToGeoJSONString(model.Transit))
			return nil
		}

		result, err := ferrobus.FindRoute(model, start, end, departure, maxTransfers)
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Println("no journey found")
			return nil
		}
		return json.NewEncoder(os.Stdout).Encode(result)
	},
}
