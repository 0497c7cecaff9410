package runtimeexec

import (
	"context"
	"time"

	"github.com/animus-labs/runworker/internal/domain"
)

// Executor runs a staged artifact to completion under a strategy. It never
// returns an error: every way the child can end is described by the Result.
type Executor interface {
	Run(ctx context.Context, strategy domain.Strategy, artifactPath string) Result
}

// Invocation is the fully resolved child process for one run.
type Invocation struct {
	Strategy domain.Strategy
	Path     string
	Args     []string
	Dir      string
	Timeout  time.Duration
}

func (i Invocation) Command() []string {
	return append([]string{i.Path}, i.Args...)
}

type Outcome string

const (
	OutcomeSucceeded     Outcome = "succeeded"
	OutcomeExitedNonZero Outcome = "exited_nonzero"
	OutcomeTimedOut      Outcome = "timed_out"
	OutcomeLaunchFailed  Outcome = "launch_failed"
)

type Result struct {
	Strategy domain.Strategy
	Command  []string
	ExitCode int
	TimedOut bool
	Stdout   string
	Stderr   string
	Duration time.Duration
	// Err is set when the process could not be started or waited on.
	Err error
}

func (r Result) Outcome() Outcome {
	switch {
	case r.TimedOut:
		return OutcomeTimedOut
	case r.Err != nil:
		return OutcomeLaunchFailed
	case r.ExitCode != 0:
		return OutcomeExitedNonZero
	default:
		return OutcomeSucceeded
	}
}
