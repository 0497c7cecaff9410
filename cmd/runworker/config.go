package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/animus-labs/runworker/internal/platform/env"
)

type workerConfig struct {
	// StagingRoot is both where artifacts are downloaded to and where they
	// are executed from.
	StagingRoot     string
	CleanupStaging  bool
	HTTPAddr        string
	ShutdownTimeout time.Duration
	StateAttempts   int
	StateRetryDelay time.Duration
}

func loadWorkerConfig() (workerConfig, error) {
	root := strings.TrimSpace(env.String("WORKER_STAGING_ROOT", "code"))
	if root == "" {
		return workerConfig{}, errors.New("WORKER_STAGING_ROOT is required")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return workerConfig{}, fmt.Errorf("resolve WORKER_STAGING_ROOT: %w", err)
	}

	cleanup, err := env.Bool("WORKER_CLEANUP_STAGING", false)
	if err != nil {
		return workerConfig{}, err
	}
	shutdownTimeout, err := env.Duration("WORKER_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return workerConfig{}, err
	}
	attempts, err := env.Int("WORKER_STATE_RETRY_ATTEMPTS", 3)
	if err != nil {
		return workerConfig{}, err
	}
	if attempts < 1 {
		return workerConfig{}, errors.New("WORKER_STATE_RETRY_ATTEMPTS must be >= 1")
	}
	retryDelay, err := env.Duration("WORKER_STATE_RETRY_DELAY", 200*time.Millisecond)
	if err != nil {
		return workerConfig{}, err
	}

	return workerConfig{
		StagingRoot:     absRoot,
		CleanupStaging:  cleanup,
		HTTPAddr:        strings.TrimSpace(env.String("WORKER_HTTP_ADDR", "")),
		ShutdownTimeout: shutdownTimeout,
		StateAttempts:   attempts,
		StateRetryDelay: retryDelay,
	}, nil
}
