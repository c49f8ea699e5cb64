package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chingiztob/ferrobus"
	"github.com/chingiztob/ferrobus/snapshot"
	"github.com/chingiztob/ferrobus/transit"
)

var rootCmd = &cobra.Command{
	Use:          "ferrobus",
	Short:        "Multimodal transit routing",
	Long:         "Builds multimodal transit models and answers routing and isochrone queries",
	SilenceUsage: true,
}

var (
	osmPath         string
	gtfsDirs        []string
	serviceDay      string
	maxTransferTime uint32
	snapshotPath    string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&osmPath, "osm", "", "", "OSM PBF file")
	rootCmd.PersistentFlags().StringSliceVarP(&gtfsDirs, "gtfs", "", []string{}, "GTFS directory (repeatable)")
	rootCmd.PersistentFlags().StringVarP(&serviceDay, "service-day", "", "monday", "weekday name or YYYYMMDD date")
	rootCmd.PersistentFlags().Uint32VarP(&maxTransferTime, "max-transfer-time", "", 1800, "transfer cutoff in seconds")
	rootCmd.PersistentFlags().StringVarP(&snapshotPath, "snapshot", "", "", "model snapshot file (loaded if present, written after builds)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(isochroneCmd)
	rootCmd.AddCommand(matrixCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadModel prefers the snapshot and falls back to a full build.
func loadModel() (*ferrobus.TransitModel, error) {
	if snapshotPath != "" {
		if _, err := os.Stat(snapshotPath); err == nil {
			return snapshot.Load(snapshotPath)
		}
	}

	model, err := ferrobus.CreateTransitModel(ferrobus.Config{
		OSMPath:         osmPath,
		GTFSDirs:        gtfsDirs,
		ServiceDay:      serviceDay,
		MaxTransferTime: transit.Time(maxTransferTime),
	})
	if err != nil {
		return nil, err
	}

	if snapshotPath != "" {
		if err := snapshot.Save(snapshotPath, model); err != nil {
			return nil, fmt.Errorf("saving snapshot: %w", err)
		}
	}
	return model, nil
}
