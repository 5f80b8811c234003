package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recognition-pipeline/internal/api/handler"
	"recognition-pipeline/internal/model"
	"recognition-pipeline/internal/pipeline"
	"recognition-pipeline/internal/store"
	"recognition-pipeline/pkg/router"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := store.Open(context.Background(), store.DriverSQLite, filepath.Join(t.TempDir(), "api.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc, err := pipeline.NewService(db, zap.NewNop(), pipeline.DefaultOptions())
	require.NoError(t, err)

	r := router.New(zap.NewNop())
	RegisterRoutes(r, handler.New(svc, db, zap.NewNop()))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestDatasetUploadFlow(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/v1/tenants/acme/datasets/employees"

	resp, body := do(t, http.MethodGet, base, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, http.MethodPost, base, "text/csv", "employee_id,title\nE1,Dev\n")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = do(t, http.MethodPost, base, "text/csv", "employee_id,title\nE1,Senior Dev\nE2,PM\n")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var result pipeline.UploadResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 1, result.Metrics.Updated)
	assert.Equal(t, 1, result.Metrics.Appended)
	require.NotEmpty(t, result.JobID)

	resp, body = do(t, http.MethodGet, base, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "employee_id,title\nE1,Senior Dev\nE2,PM\n", string(body))

	// job tracking
	resp, body = do(t, http.MethodGet, srv.URL+"/api/v1/jobs/"+result.JobID, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var job model.UploadJob
	require.NoError(t, json.Unmarshal(body, &job))
	assert.Equal(t, model.JobCompleted, job.Status)
	assert.Equal(t, 2, job.Metrics.MergedRecords)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/v1/jobs?tenant=acme", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var jobs []model.UploadJob
	require.NoError(t, json.Unmarshal(body, &jobs))
	assert.Len(t, jobs, 2)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/jobs/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDatasetUploadRecordsErrors(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/tenants/acme/datasets/awards?transformations=trimStrings,dropEmptyRows",
		"text/csv", "award_id,message\nA1,\"ok\"\nA2,br\"oken\n")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var result pipeline.UploadResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 1, result.Metrics.RowsSkipped)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/v1/jobs/"+result.JobID+"/errors", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var errs struct {
		JobID  string              `json:"job_id"`
		Errors []model.ErrorDetail `json:"errors"`
		Count  int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &errs))
	require.Equal(t, 1, errs.Count)
	assert.Equal(t, "malformed_row", errs.Errors[0].ErrorType)
	assert.Equal(t, 3, errs.Errors[0].Line)
}

func TestDatasetUploadRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := do(t, http.MethodPost, srv.URL+"/api/v1/tenants/acme/datasets/invoices", "text/csv", "id\n1\n")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/tenants/acme/datasets/awards?transformations=shout", "text/csv", "id\n1\n")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, srv.URL+"/api/v1/tenants/acme/datasets/awards", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRunsAndCompare(t *testing.T) {
	srv := newTestServer(t)
	runs := srv.URL + "/api/v1/tenants/acme/runs"

	baseline := `{
		"name": "baseline",
		"taxonomy": {"categories": [{"id": "a", "name": "Teamwork"}, {"id": "b", "name": "Innovation"}]},
		"classifications": {
			"metadata": {"total_messages": 10, "total_classified": 10},
			"classifications": [
				{"category": "a"}, {"category": "a"}, {"category": "a"}, {"category": "a"}, {"category": "a"},
				{"category": "a"}, {"category": "a"}, {"category": "a"}, {"category": "a"}, {"category": "a"}
			]
		},
		"summary": {"pipeline": {"total_time_seconds": 4, "phases_run": [1, 2]}, "results": {"candidates_found": 1}}
	}`
	resp, body := do(t, http.MethodPost, runs, "application/json", baseline)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var info model.RunInfo
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, "baseline", info.Name)
	assert.NotEmpty(t, info.ID)

	candidate := `{"name": "candidate", "taxonomy": {"taxonomy": {"categories": [{"id": "t", "name": "teamwork"}]}}}`
	resp, body = do(t, http.MethodPost, runs, "application/json", candidate)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, _ = do(t, http.MethodPost, runs, "application/json", `{"name": ""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, http.MethodGet, runs, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []model.RunInfo
	require.NoError(t, json.Unmarshal(body, &listed))
	assert.Len(t, listed, 2)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/v1/tenants/acme/compare?runs=baseline,candidate", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var data model.ComparisonData
	require.NoError(t, json.Unmarshal(body, &data))
	assert.Equal(t, []string{"baseline", "candidate"}, data.Runs)
	assert.Equal(t, 100.0, data.Scores[0].BiasScore)
	assert.Equal(t, 100.0, data.Scores[0].SuccessRate)
	require.NotEmpty(t, data.Diff)
	assert.Equal(t, []string{"baseline", "candidate"}, data.Diff[0].Present)
	assert.Len(t, data.Radar, 6)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/tenants/acme/compare?runs=baseline,ghost", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/tenants/acme/compare", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSwaggerMounted(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/swagger/doc.json", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "/tenants/{tenant}/datasets/{type}")
}
