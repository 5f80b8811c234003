package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRunFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func TestLoadRunDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run-2024-05")
	writeRunFiles(t, dir, map[string]string{
		TaxonomyFile: `{"taxonomy": {"categories": [{"id": 1, "name": "Teamwork"}]}}`,
		ClassificationsFile: `{
			"metadata": {"total_messages": 4, "total_classified": 3, "batch_size": 2, "model": "m"},
			"classifications": [{"category": "1", "subcategory": ""}, {"category": "9", "subcategory": ""}]
		}`,
		SummaryFile: `{"pipeline": {"total_time_seconds": 3.5, "phases_run": [1, "2"]}, "results": {"candidates_found": 2}}`,
	})

	run, err := LoadRunDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "run-2024-05", run.Name)
	require.NotNil(t, run.Taxonomy)
	assert.Equal(t, "1", run.Taxonomy.Categories[0].ID)
	require.NotNil(t, run.Batch)
	assert.Len(t, run.Batch.Classifications, 2)
	require.NotNil(t, run.Summary)
	assert.Equal(t, []string{"1", "2"}, []string(run.Summary.Pipeline.PhasesRun))

	score := ComputeScore(run)
	assert.Equal(t, 75.0, score.SuccessRate)
	assert.Equal(t, 50.0, score.MalformedPct)
}

func TestLoadRunDirPartialAndDegraded(t *testing.T) {
	dir := t.TempDir()

	yamlRun := filepath.Join(dir, "yaml")
	writeRunFiles(t, yamlRun, map[string]string{
		TaxonomyYAMLFile: "categories:\n  - id: a\n    name: Alpha\n",
	})
	run, err := LoadRunDir(yamlRun)
	require.NoError(t, err)
	require.NotNil(t, run.Taxonomy)
	assert.Nil(t, run.Batch)
	assert.Nil(t, run.Summary)

	badTaxonomy := filepath.Join(dir, "bad-taxonomy")
	writeRunFiles(t, badTaxonomy, map[string]string{TaxonomyFile: `{"oops": true}`})
	run, err = LoadRunDir(badTaxonomy)
	require.NoError(t, err)
	assert.Nil(t, run.Taxonomy)

	run, err = LoadRunDir(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Equal(t, "missing", run.Name)
	assert.Nil(t, run.Taxonomy)
}

func TestLoadRunDirCorruptBatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "broken")
	writeRunFiles(t, dir, map[string]string{ClassificationsFile: `{"classifications": 5}`})

	_, err := LoadRunDir(dir)
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "classifications", fe.Field)
	assert.Contains(t, err.Error(), "run broken")
}

func TestLoadRunDirs(t *testing.T) {
	root := t.TempDir()
	var dirs []string
	for _, name := range []string{"c", "a", "b"} {
		dir := filepath.Join(root, name)
		writeRunFiles(t, dir, map[string]string{SummaryFile: `{"results": {"final_categories": 1}}`})
		dirs = append(dirs, dir)
	}

	runs, err := LoadRunDirs(context.Background(), dirs)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "c", runs[0].Name)
	assert.Equal(t, "b", runs[2].Name)

	writeRunFiles(t, filepath.Join(root, "bad"), map[string]string{SummaryFile: `[`})
	_, err = LoadRunDirs(context.Background(), append(dirs, filepath.Join(root, "bad")))
	assert.Error(t, err)
}

func TestLoadTaxonomyFile(t *testing.T) {
	dir := t.TempDir()
	writeRunFiles(t, dir, map[string]string{
		"tax.yml":  "categories:\n  - name: Alpha\n",
		"tax.json": `{"categories": [{"name": "Beta"}]}`,
	})

	tax, err := LoadTaxonomyFile(filepath.Join(dir, "tax.yml"))
	require.NoError(t, err)
	assert.Equal(t, "Alpha", tax.Categories[0].ID)

	tax, err = LoadTaxonomyFile(filepath.Join(dir, "tax.json"))
	require.NoError(t, err)
	assert.Equal(t, "Beta", tax.Categories[0].ID)

	_, err = LoadTaxonomyFile(filepath.Join(dir, "nope.json"))
	assert.Error(t, err)
}
