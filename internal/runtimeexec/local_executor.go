package runtimeexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/animus-labs/runworker/internal/domain"
)

type LocalExecutor struct {
	cfg Config
}

func NewLocalExecutor(cfg Config) (*LocalExecutor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(cfg.Interpreter); err != nil {
		return nil, fmt.Errorf("interpreter not found: %w", err)
	}
	return &LocalExecutor{cfg: cfg}, nil
}

func (e *LocalExecutor) Plan(strategy domain.Strategy, artifactPath string) Invocation {
	return e.cfg.Plan(strategy, artifactPath)
}

// Run starts the child and waits for it. On timeout the whole process group
// is killed; whatever output was produced until then is kept.
func (e *LocalExecutor) Run(ctx context.Context, strategy domain.Strategy, artifactPath string) Result {
	inv := e.cfg.Plan(strategy, artifactPath)
	res := Result{Strategy: strategy, Command: inv.Command(), ExitCode: -1}

	runCtx, cancel := context.WithTimeout(ctx, inv.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, inv.Path, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = e.cfg.KillGrace
	setProcessGroup(cmd)

	start := time.Now()
	err := cmd.Run()
	res.Duration = time.Since(start)
	res.Stdout = strings.TrimSpace(stdout.String())
	res.Stderr = strings.TrimSpace(stderr.String())

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		return res
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.Err = err
	}
	return res
}
