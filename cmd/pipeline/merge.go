package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recognition-pipeline/internal/model"
	"recognition-pipeline/internal/pipeline"
)

var (
	mergeType            string
	mergeTransformations []string
)

// mergeCmd merges two CSV files without touching the database
var mergeCmd = &cobra.Command{
	Use:   "merge [existing.csv] [incoming.csv]",
	Short: "Merge an incoming CSV into an existing one",
	Long: `Applies the record type's merge strategy:
  awards       append new award_id/id keys, keep keyless rows
  employees    upsert by employee_id/id, ignore keyless rows
  departments  upsert by dept_id/id/department_id, ignore keyless rows`,
	Args: cobra.ExactArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeType, "type", "", "record type (awards, employees, departments)")
	mergeCmd.Flags().StringSliceVar(&mergeTransformations, "transform", nil, "transformations applied to the incoming file")
	_ = mergeCmd.MarkFlagRequired("type")
}

func runMerge(cmd *cobra.Command, args []string) error {
	t, err := model.ParseRecordType(mergeType)
	if err != nil {
		return err
	}
	existing, err := readDataset(args[0])
	if err != nil {
		return err
	}
	incoming, err := readDataset(args[1])
	if err != nil {
		return err
	}
	if incoming, err = pipeline.ApplyTransformations(incoming, mergeTransformations); err != nil {
		return err
	}

	warnings, err := pipeline.ValidateUpload(t, existing, incoming)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn(w.Message, zap.String("check", w.ErrorType))
	}

	merged, stats, err := pipeline.MergeDetailed(t, existing, incoming)
	if err != nil {
		return err
	}
	logger.Info("merged",
		zap.String("record_type", string(t)),
		zap.Int("existing", stats.Existing),
		zap.Int("incoming", stats.Incoming),
		zap.Int("merged", stats.Merged),
		zap.Int("appended", stats.Appended),
		zap.Int("updated", stats.Updated),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("ignored_keyless", stats.IgnoredKeyless))

	return writeCSVResult(cmd, string(t)+".csv", merged)
}

func readDataset(path string) (model.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Dataset{}, err
	}
	res, err := pipeline.ParseDetailed(string(data))
	if err != nil {
		return model.Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	for _, fe := range res.Skipped {
		logger.Warn("skipped malformed row", zap.String("file", path), zap.Int("line", fe.Line), zap.Error(fe.Err))
	}
	return res.Dataset, nil
}
