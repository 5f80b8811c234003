package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recognition-pipeline/internal/logging"
	"recognition-pipeline/internal/model"
	"recognition-pipeline/internal/pipeline"
	"recognition-pipeline/pkg/config"
	"recognition-pipeline/pkg/utils"
)

var (
	// Global flags
	configPath string
	logLevel   string
	outDir     string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Merge, classify and compare HR recognition data",
	Long: `pipeline merges award, employee and department records into tenant
datasets, classifies award messages against a taxonomy by keyword overlap,
and compares classification runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.JSON)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&outDir, "out-dir", "", "write results under <out-dir>/<job-id>/ instead of stdout")

	rootCmd.AddCommand(mergeCmd, uploadCmd, classifyCmd, compareCmd, serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// writeCSVResult prints d, or writes it to the output directory.
func writeCSVResult(cmd *cobra.Command, fileName string, d model.Dataset) error {
	if outDir == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), pipeline.Serialize(d))
		return err
	}
	path, err := utils.NewOutputManager(outDir).GetOutputFilePath(uuid.NewString(), fileName)
	if err != nil {
		return err
	}
	return reportExport(cmd, pipeline.WriteCSVFile(path, d))
}

// writeJSONResult prints v as JSON, or writes it to the output directory.
func writeJSONResult(cmd *cobra.Command, fileName string, v any, count int) error {
	if outDir == "" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	path, err := utils.NewOutputManager(outDir).GetOutputFilePath(uuid.NewString(), fileName)
	if err != nil {
		return err
	}
	return reportExport(cmd, pipeline.WriteJSONFile(path, v, count))
}

func reportExport(cmd *cobra.Command, res model.ExportResult) error {
	if !res.Success {
		return fmt.Errorf("export %s: %s", res.Path, res.Error)
	}
	logger.Info("results written",
		zap.String("path", res.Path),
		zap.String("type", res.Type),
		zap.Int("records", res.RecordCount))
	fmt.Fprintln(cmd.OutOrStdout(), res.Path)
	return nil
}
