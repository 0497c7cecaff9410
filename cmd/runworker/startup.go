package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/animus-labs/runworker/internal/platform/objectstore"
	"github.com/animus-labs/runworker/internal/platform/postgres"
	"github.com/minio/minio-go/v7"
)

// openStateDB fails only on bad configuration. An unreachable database is
// logged and left to surface on each job's state updates.
func openStateDB(ctx context.Context, logger *slog.Logger, cfg postgres.Config) (*sql.DB, error) {
	db, err := postgres.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := postgres.Ping(ctx, db, cfg); err != nil {
		logger.Warn("database not reachable at startup", "error", err)
	}
	return db, nil
}

// prepareBucket reports whether the bucket is ready. Failures are logged
// only; /readyz keeps reporting the bucket state.
func prepareBucket(ctx context.Context, logger *slog.Logger, client *minio.Client, cfg objectstore.Config, timeout time.Duration) bool {
	bucketCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := objectstore.EnsureBucket(bucketCtx, client, cfg); err != nil {
		logger.Warn("object store not ready at startup", "bucket", cfg.Bucket, "error", err)
		return false
	}
	return true
}
