package main

import (
	"github.com/spf13/cobra"

	"recognition-pipeline/internal/model"
	"recognition-pipeline/internal/pipeline"
	"recognition-pipeline/internal/store"
)

var compareTenant string

// compareCmd compares run directories or stored runs
var compareCmd = &cobra.Command{
	Use:   "compare [run-dir|run-name]...",
	Short: "Compare classification runs",
	Long: `Each argument is a run directory holding any of taxonomy.json,
classifications.json and summary.json. With --tenant, arguments are names of
runs stored in the database instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareTenant, "tenant", "", "compare stored runs of this tenant")
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts := cfg.ServiceOptions()

	var data model.ComparisonData
	if compareTenant != "" {
		db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, logger.Named("store"))
		if err != nil {
			return err
		}
		defer db.Close()

		svc, err := pipeline.NewService(db, logger.Named("pipeline"), opts)
		if err != nil {
			return err
		}
		if data, err = svc.CompareRuns(ctx, compareTenant, args); err != nil {
			return err
		}
	} else {
		runs, err := pipeline.LoadRunDirs(ctx, args)
		if err != nil {
			return err
		}
		data = pipeline.Compare(runs, opts.Radar)
	}
	return writeJSONResult(cmd, "comparison.json", data, len(data.Scores))
}
