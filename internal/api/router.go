package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	"recognition-pipeline/internal/api/handler"
	_ "recognition-pipeline/internal/docs"
	"recognition-pipeline/pkg/router"
)

// @title Recognition Pipeline API
// @version 1.0
// @description Merge HR recognition records, classify award messages and compare classification runs.
// @BasePath /api/v1
func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST("/api/v1/classify", h.Classify)

	r.GET("/api/v1/jobs", h.ListJobs)
	// More specific routes first
	r.GET("/api/v1/jobs/*/errors", h.GetJobErrors)
	r.GET("/api/v1/jobs/*", h.GetJob)

	r.POST("/api/v1/tenants/*/datasets/*", h.UploadDataset)
	r.GET("/api/v1/tenants/*/datasets/*", h.GetDataset)
	r.POST("/api/v1/tenants/*/runs", h.SaveRun)
	r.GET("/api/v1/tenants/*/runs", h.ListRuns)
	r.GET("/api/v1/tenants/*/compare", h.CompareRuns)

	r.Handle("/swagger/", httpSwagger.WrapHandler)
}
