package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a transit model and write it to the snapshot file (an existing snapshot is loaded instead)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if snapshotPath == "" {
			return fmt.Errorf("--snapshot is required for build")
		}

		model, err := loadModel()
		if err != nil {
			return err
		}

		fmt.Printf("model: %d stops, %d routes\n", model.StopCount(), model.RouteCount())
		fmt.Printf("feeds: %s\n", model.FeedsInfo())
		return nil
	},
}
