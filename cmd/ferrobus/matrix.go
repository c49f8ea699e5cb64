package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chingiztob/ferrobus"
	"github.com/chingiztob/ferrobus/parse"
	"github.com/chingiztob/ferrobus/transit"
)

var (
	pointsFile      string
	matrixDeparture string
	matrixTransfers int
	matrixMaxWalk   uint32
)

func init() {
	matrixCmd.Flags().StringVar(&pointsFile, "points", "", "CSV file of lat,lon rows")
	matrixCmd.Flags().StringVar(&matrixDeparture, "departure", "08:00:00", "departure time HH:MM:SS")
	matrixCmd.Flags().IntVar(&matrixTransfers, "max-transfers", 3, "maximum transfers")
	matrixCmd.Flags().Uint32Var(&matrixMaxWalk, "max-walking-time", 1200, "walking cutoff in seconds")
}

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Compute a travel-time matrix between coordinates, printed as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		if pointsFile == "" {
			return fmt.Errorf("--points is required")
		}
		f, err := os.Open(pointsFile)
		if err != nil {
			return err
		}
		defer f.Close()

		rows, err := csv.NewReader(f).ReadAll()
		if err != nil {
			return err
		}

		model, err := loadModel()
		if err != nil {
			return err
		}

		departure, err := parse.ParseTime(matrixDeparture)
		if err != nil {
			return fmt.Errorf("invalid departure: %w", err)
		}

		points := make([]*ferrobus.TransitPoint, 0, len(rows))
		for i, row := range rows {
			if len(row) != 2 {
				return fmt.Errorf("row %d: want lat,lon", i+1)
			}
			lat, errLat := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
			lon, errLon := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
			if errLat != nil || errLon != nil {
				return fmt.Errorf("row %d: bad coordinates", i+1)
			}
			p, err := ferrobus.NewTransitPoint(lat, lon, model, transit.Time(matrixMaxWalk), 10)
			if err != nil {
				return err
			}
			points = append(points, p)
		}

		matrix, err := ferrobus.TravelTimeMatrix(model, points, departure, matrixTransfers)
		if err != nil {
			return err
		}

		w := csv.NewWriter(os.Stdout)
		for _, row := range matrix {
			record := make([]string, len(row))
			for j, t := range row {
				if t != nil {
					record[j] = strconv.FormatUint(uint64(*t), 10)
				}
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	},
}
