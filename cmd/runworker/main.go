package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/animus-labs/runworker/internal/harvest"
	"github.com/animus-labs/runworker/internal/platform/broker"
	"github.com/animus-labs/runworker/internal/platform/env"
	"github.com/animus-labs/runworker/internal/platform/objectstore"
	"github.com/animus-labs/runworker/internal/platform/postgres"
	"github.com/animus-labs/runworker/internal/repo"
	runrepo "github.com/animus-labs/runworker/internal/repo/postgres"
	"github.com/animus-labs/runworker/internal/runtimeexec"
	"github.com/animus-labs/runworker/internal/storage/artifacts"
	"github.com/animus-labs/runworker/internal/worker"
	"golang.org/x/sync/errgroup"
)

const service = "runworker"

func main() {
	if err := env.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "load .env:", err)
		os.Exit(2)
	}
	level, levelErr := env.Level("WORKER_LOG_LEVEL", slog.LevelInfo)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	if levelErr != nil {
		logger.Error("invalid env", "error", levelErr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, logger)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, logger *slog.Logger) int {
	cfg, err := loadWorkerConfig()
	if err != nil {
		logger.Error("invalid worker config", "error", err)
		return 2
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		return 2
	}
	db, err := openStateDB(ctx, logger, dbCfg)
	if err != nil {
		logger.Error("database init failed", "error", err)
		return 2
	}
	defer func() { _ = db.Close() }()

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid object store config", "error", err)
		return 2
	}
	storeClient, err := objectstore.NewMinIOClient(storeCfg)
	if err != nil {
		logger.Error("object store client init failed", "error", err)
		return 2
	}
	prepareBucket(ctx, logger, storeClient, storeCfg, 5*time.Second)

	execCfg, err := runtimeexec.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid executor config", "error", err)
		return 2
	}
	executor, err := runtimeexec.NewLocalExecutor(execCfg)
	if err != nil {
		logger.Error("executor init failed", "error", err)
		return 2
	}

	artifactStore, err := artifacts.NewClient(storeClient, storeCfg.Bucket, cfg.StagingRoot)
	if err != nil {
		logger.Error("artifact store init failed", "error", err)
		return 2
	}
	collector, err := harvest.NewCollector(artifactStore, logger)
	if err != nil {
		logger.Error("collector init failed", "error", err)
		return 2
	}
	runs := repo.NewRetryingStore(runrepo.NewRunStore(db), runrepo.IsTransient, logger, repo.RetryOptions{
		Attempts:  cfg.StateAttempts,
		BaseDelay: cfg.StateRetryDelay,
	})

	pipeline, err := worker.NewPipeline(worker.Deps{
		Stager:    artifactStore,
		States:    runs,
		Executor:  executor,
		Harvester: collector,
		Logger:    logger,
	}, worker.Options{
		CleanupStaging: cfg.CleanupStaging,
		ClassifyStateError: func(err error) string {
			return runrepo.Classify(err).String()
		},
	})
	if err != nil {
		logger.Error("pipeline init failed", "error", err)
		return 2
	}

	brokerCfg, err := broker.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid broker config", "error", err)
		return 2
	}
	sub, err := broker.Subscribe(brokerCfg)
	if err != nil {
		logger.Error("broker unavailable", "error", err)
		return 1
	}
	defer func() {
		if err := sub.Close(); err != nil {
			logger.Warn("broker close failed", "error", err)
		}
	}()

	consumer, err := worker.NewConsumer(sub, pipeline, logger.With("queue", sub.Queue()))
	if err != nil {
		logger.Error("consumer init failed", "error", err)
		return 2
	}

	logger.Info("worker started",
		"queue", sub.Queue(),
		"bucket", storeCfg.Bucket,
		"staging_root", cfg.StagingRoot,
		"interpreter", execCfg.Interpreter,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(gctx)
	})
	if cfg.HTTPAddr != "" {
		g.Go(func() error {
			return serveHealth(gctx, logger, cfg, db, storeClientCheck(storeClient, storeCfg), sub, pipeline.Stats())
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped", "error", err)
		return 1
	}
	logger.Info("worker stopped")
	return 0
}
