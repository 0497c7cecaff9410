package main

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWorkerConfigDefaults(t *testing.T) {
	cfg, err := loadWorkerConfig()
	if err != nil {
		t.Fatalf("loadWorkerConfig() err=%v", err)
	}
	if !filepath.IsAbs(cfg.StagingRoot) || filepath.Base(cfg.StagingRoot) != "code" {
		t.Fatalf("StagingRoot=%q, want absolute path ending in code", cfg.StagingRoot)
	}
	if cfg.CleanupStaging {
		t.Fatalf("CleanupStaging should default to false")
	}
	if cfg.HTTPAddr != "" {
		t.Fatalf("HTTPAddr=%q, want empty", cfg.HTTPAddr)
	}
	if cfg.StateAttempts != 3 || cfg.StateRetryDelay != 200*time.Millisecond {
		t.Fatalf("retry config=%d/%v", cfg.StateAttempts, cfg.StateRetryDelay)
	}
}

func TestLoadWorkerConfigOverrides(t *testing.T) {
	root := t.TempDir()
	t.Setenv("WORKER_STAGING_ROOT", root)
	t.Setenv("WORKER_CLEANUP_STAGING", "true")
	t.Setenv("WORKER_HTTP_ADDR", ":8090")

	cfg, err := loadWorkerConfig()
	if err != nil {
		t.Fatalf("loadWorkerConfig() err=%v", err)
	}
	if cfg.StagingRoot != root {
		t.Fatalf("StagingRoot=%q, want %q", cfg.StagingRoot, root)
	}
	if !cfg.CleanupStaging {
		t.Fatalf("CleanupStaging=false, want true")
	}
	if cfg.HTTPAddr != ":8090" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
}

func TestLoadWorkerConfigRejectsZeroAttempts(t *testing.T) {
	t.Setenv("WORKER_STATE_RETRY_ATTEMPTS", "0")
	if _, err := loadWorkerConfig(); err == nil {
		t.Fatalf("loadWorkerConfig() expected error")
	}
}
