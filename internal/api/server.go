package api

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"recognition-pipeline/internal/api/handler"
	"recognition-pipeline/internal/pipeline"
	"recognition-pipeline/internal/store"
	"recognition-pipeline/pkg/config"
	"recognition-pipeline/pkg/router"
)

// Serve opens the store, registers every route and serves until ctx is
// cancelled.
func Serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, logger.Named("store"))
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := pipeline.NewService(db, logger.Named("pipeline"), cfg.ServiceOptions())
	if err != nil {
		return fmt.Errorf("configure pipeline: %w", err)
	}

	r := router.New(logger.Named("http"))
	RegisterRoutes(r, handler.New(svc, db, logger.Named("api")))
	return r.Start(ctx, cfg.Server.Addr)
}
