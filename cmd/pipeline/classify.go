package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"recognition-pipeline/internal/model"
	"recognition-pipeline/internal/pipeline"
	"recognition-pipeline/pkg/utils"
)

var classifyTaxonomy string

// classifyCmd classifies award messages from a file
var classifyCmd = &cobra.Command{
	Use:   "classify [messages.json|messages.csv]",
	Short: "Classify award messages against a taxonomy",
	Long: `Reads messages as a JSON array of {id, title, body} or as CSV with
id, title and body (or message) columns. Without --taxonomy every message
gets the default category at confidence 0.5.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyTaxonomy, "taxonomy", "", "taxonomy file (.json, .yaml)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	msgs, err := readMessages(args[0])
	if err != nil {
		return err
	}

	var tax *model.Taxonomy
	if classifyTaxonomy != "" {
		if tax, err = pipeline.LoadTaxonomyFile(classifyTaxonomy); err != nil {
			return err
		}
	}

	svc, err := pipeline.NewService(nil, logger.Named("pipeline"), cfg.ServiceOptions())
	if err != nil {
		return err
	}
	out, err := svc.ClassifyBatch(cmd.Context(), tax, msgs)
	if err != nil {
		return err
	}
	return writeJSONResult(cmd, "classifications.json", out, len(out))
}

func readMessages(path string) ([]model.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if utils.FileType(path) == "csv" {
		d, err := pipeline.Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		msgs := make([]model.Message, 0, d.Len())
		for _, rec := range d.Records {
			msgs = append(msgs, model.Message{
				ID:    rec.FirstValue("id", "award_id"),
				Title: rec["title"],
				Body:  rec.FirstValue("body", "message"),
			})
		}
		return msgs, nil
	}

	var msgs []model.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return msgs, nil
}
