package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recognition-pipeline/internal/model"
	"recognition-pipeline/internal/pipeline"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	configPath, logLevel, outDir = "", "", ""
	mergeTransformations = nil
	classifyTaxonomy, compareTenant = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestMergeCommand(t *testing.T) {
	dir := t.TempDir()
	existing := writeFile(t, dir, "existing.csv", "employee_id,title\nE1,Dev\n")
	incoming := writeFile(t, dir, "incoming.csv", "employee_id,title\nE1, Senior Dev \nE2,PM\n")

	out, err := execute(t, "merge", existing, incoming, "--type", "employees", "--transform", "trimStrings")
	require.NoError(t, err)
	assert.Equal(t, "employee_id,title\nE1,Senior Dev\nE2,PM\n", out)

	_, err = execute(t, "merge", existing, incoming, "--type", "invoices")
	assert.Error(t, err)
}

func TestMergeCommandWritesOutputDir(t *testing.T) {
	dir := t.TempDir()
	existing := writeFile(t, dir, "existing.csv", "award_id\nA1\n")
	incoming := writeFile(t, dir, "incoming.csv", "award_id\nA1\nA2\n")
	results := filepath.Join(dir, "results")

	out, err := execute(t, "merge", existing, incoming, "--type", "awards", "--out-dir", results)
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.Equal(t, "awards.csv", filepath.Base(path))
	assert.True(t, strings.HasPrefix(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "award_id\nA1\nA2\n", string(data))
}

func TestClassifyCommand(t *testing.T) {
	dir := t.TempDir()
	tax := writeFile(t, dir, "taxonomy.yaml", `
categories:
  - id: team
    name: Teamwork
    description: Helping colleagues
  - id: innovation
    name: Innovation
    description: Creative ideas
`)
	jsonMsgs := writeFile(t, dir, "messages.json", `[{"id": "1", "body": "creative work"}, {"id": "2", "body": "thanks"}]`)
	csvMsgs := writeFile(t, dir, "messages.csv", "award_id,message\n1,creative work\n2,thanks\n")

	for _, input := range []string{jsonMsgs, csvMsgs} {
		out, err := execute(t, "classify", input, "--taxonomy", tax)
		require.NoError(t, err, input)

		var got []model.Classification
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "1", got[0].MessageID)
		assert.Equal(t, "innovation", got[0].Category)
		assert.Equal(t, "team", got[1].Category)
		assert.Equal(t, 0.5, got[1].Confidence)
	}
}

func TestReadMessages(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "m.CSV", "id,title,body\n7,Kudos,great\n")

	msgs, err := readMessages(path)
	require.NoError(t, err)
	assert.Equal(t, []model.Message{{ID: "7", Title: "Kudos", Body: "great"}}, msgs)

	_, err = readMessages(writeFile(t, dir, "bad.json", `{"id": 1}`))
	assert.Error(t, err)
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "run-a/"+pipeline.TaxonomyFile, `{"categories": [{"id": "a", "name": "Teamwork"}]}`)
	writeFile(t, dir, "run-a/"+pipeline.ClassificationsFile, `{"metadata": {"total_messages": 2, "total_classified": 1}, "classifications": [{"category": "a"}]}`)
	writeFile(t, dir, "run-b/"+pipeline.SummaryFile, `{"results": {"final_categories": 3}}`)

	out, err := execute(t, "compare", filepath.Join(dir, "run-a"), filepath.Join(dir, "run-b"))
	require.NoError(t, err)

	var data model.ComparisonData
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Equal(t, []string{"run-a", "run-b"}, data.Runs)
	assert.Equal(t, 50.0, data.Scores[0].SuccessRate)
	assert.Equal(t, 3, data.Scores[1].CategoryCount)
}

func TestUploadCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RECOGNITION_DATABASE_DRIVER", "sqlite")
	t.Setenv("RECOGNITION_DATABASE_DSN", filepath.Join(dir, "cli.db"))
	file := writeFile(t, dir, "awards.csv", "award_id,message\nA1,thanks\nA1,again\n")

	out, err := execute(t, "upload", file, "--tenant", "acme", "--type", "awards")
	require.NoError(t, err)

	var result pipeline.UploadResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "acme", result.Tenant)
	assert.Equal(t, 2, result.Metrics.MergedRecords)

	out, err = execute(t, "upload", file, "--tenant", "acme", "--type", "awards")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2, result.Metrics.Duplicates)
	assert.Equal(t, 2, result.Metrics.MergedRecords)
}
