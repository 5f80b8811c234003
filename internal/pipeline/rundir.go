package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"recognition-pipeline/internal/model"
	"recognition-pipeline/pkg/utils"
)

// Run directory layout written by the classification program.
const (
	TaxonomyFile        = "taxonomy.json"
	TaxonomyYAMLFile    = "taxonomy.yaml"
	ClassificationsFile = "classifications.json"
	SummaryFile         = "summary.json"
)

// LoadRunDir reads a run's documents from dir. The run is named after the
// directory. Missing files leave the matching field nil; an unreadable
// taxonomy degrades to nil while a corrupt batch or summary is an error.
func LoadRunDir(dir string) (model.PipelineRun, error) {
	run := model.PipelineRun{Name: filepath.Base(filepath.Clean(dir))}

	tax, err := loadRunTaxonomy(dir)
	if err != nil {
		return run, err
	}
	run.Taxonomy = tax

	if data, err := readOptional(filepath.Join(dir, ClassificationsFile)); err != nil {
		return run, err
	} else if data != nil {
		run.Batch = &model.ClassificationBatch{}
		if err := json.Unmarshal(data, run.Batch); err != nil {
			return run, &FormatError{Source: "run " + run.Name, Field: "classifications", Err: err}
		}
	}

	if data, err := readOptional(filepath.Join(dir, SummaryFile)); err != nil {
		return run, err
	} else if data != nil {
		run.Summary = &model.RunSummary{}
		if err := json.Unmarshal(data, run.Summary); err != nil {
			return run, &FormatError{Source: "run " + run.Name, Field: "summary", Err: err}
		}
	}
	return run, nil
}

// loadRunTaxonomy prefers taxonomy.json over taxonomy.yaml. Malformed
// documents yield nil.
func loadRunTaxonomy(dir string) (*model.Taxonomy, error) {
	data, err := readOptional(filepath.Join(dir, TaxonomyFile))
	if err != nil || data != nil {
		return LoadTaxonomy(data), err
	}
	data, err = readOptional(filepath.Join(dir, TaxonomyYAMLFile))
	if err != nil || data == nil {
		return nil, err
	}
	tax, err := DecodeTaxonomyYAML(data)
	if err != nil {
		return nil, nil
	}
	return tax, nil
}

// LoadRunDirs loads every directory concurrently, keeping the given order.
func LoadRunDirs(ctx context.Context, dirs []string) ([]model.PipelineRun, error) {
	runs := make([]model.PipelineRun, len(dirs))
	g, ctx := errgroup.WithContext(ctx)
	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			run, err := LoadRunDir(dir)
			if err != nil {
				return err
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

// LoadTaxonomyFile decodes a taxonomy file, choosing YAML or JSON by
// extension.
func LoadTaxonomyFile(path string) (*model.Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	if utils.FileType(path) == "yaml" {
		return DecodeTaxonomyYAML(data)
	}
	return DecodeTaxonomy(data)
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
