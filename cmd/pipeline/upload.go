package main

import (
	"os"

	"github.com/spf13/cobra"

	"recognition-pipeline/internal/model"
	"recognition-pipeline/internal/pipeline"
	"recognition-pipeline/internal/store"
)

var (
	uploadTenant string
	uploadType   string
)

// uploadCmd merges a CSV file into a tenant dataset in the database
var uploadCmd = &cobra.Command{
	Use:   "upload [file.csv]",
	Short: "Merge a CSV file into a stored tenant dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadTenant, "tenant", "", "tenant ID")
	uploadCmd.Flags().StringVar(&uploadType, "type", "", "record type (awards, employees, departments)")
	_ = uploadCmd.MarkFlagRequired("tenant")
	_ = uploadCmd.MarkFlagRequired("type")
}

func runUpload(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, logger.Named("store"))
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := pipeline.NewService(db, logger.Named("pipeline"), cfg.ServiceOptions())
	if err != nil {
		return err
	}
	result, err := svc.UploadDataset(ctx, uploadTenant, uploadType, string(data), model.UploadOptions{})
	if err != nil {
		return err
	}
	return writeJSONResult(cmd, "upload.json", result, result.Metrics.MergedRecords)
}
