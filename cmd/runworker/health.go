package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/animus-labs/runworker/internal/platform/broker"
	"github.com/animus-labs/runworker/internal/platform/httpserver"
	"github.com/animus-labs/runworker/internal/platform/objectstore"
	"github.com/animus-labs/runworker/internal/worker"
	"github.com/minio/minio-go/v7"
)

func storeClientCheck(client *minio.Client, cfg objectstore.Config) func(context.Context) error {
	return func(ctx context.Context) error {
		return objectstore.CheckBucket(ctx, client, cfg)
	}
}

func serveHealth(
	ctx context.Context,
	logger *slog.Logger,
	cfg workerConfig,
	db *sql.DB,
	bucketCheck func(context.Context) error,
	sub *broker.Subscription,
	stats *worker.Stats,
) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz(service, stats.Snapshot))
	mux.HandleFunc("/readyz", httpserver.ReadyzWithChecks(service,
		httpserver.ReadinessCheck{Name: "postgres", Check: db.PingContext},
		httpserver.ReadinessCheck{Name: "minio", Check: bucketCheck},
		httpserver.ReadinessCheck{Name: "rabbitmq", Check: func(context.Context) error { return sub.Check() }},
	))

	return httpserver.Run(ctx, logger, httpserver.Config{
		Service:         service,
		Addr:            cfg.HTTPAddr,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, httpserver.Wrap(logger, mux))
}
