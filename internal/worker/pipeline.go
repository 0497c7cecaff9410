// Package worker drives one job descriptor at a time through staging,
// execution and harvesting.
//
// Per message:
//   - parse the body; an unusable body is acknowledged and dropped
//   - download the input artifact (failure is logged, the job continues)
//   - mark the run running and read its type
//   - acknowledge the message
//   - execute the artifact under the strategy picked by the run type
//   - upload qualifying output files
//   - mark the run completed, whatever the child's outcome was
//
// The message is acknowledged before execution starts. A crash after that
// point leaves the run in running with no redelivery.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/animus-labs/runworker/internal/domain"
	"github.com/animus-labs/runworker/internal/harvest"
	"github.com/animus-labs/runworker/internal/repo"
	"github.com/animus-labs/runworker/internal/runtimeexec"
)

// Message is one queue delivery.
type Message struct {
	ID   string
	Body []byte
	Ack  func() error
}

type Stager interface {
	Download(ctx context.Context, ref domain.ArtifactRef) (string, error)
	LocalPath(ref domain.ArtifactRef) string
	RemoveRunDir(runID string) error
}

type Harvester interface {
	Collect(ctx context.Context, runID, dir string) (harvest.Report, error)
}

type Deps struct {
	Stager    Stager
	States    repo.RunStateStore
	Executor  runtimeexec.Executor
	Harvester Harvester
	Logger    *slog.Logger
}

type Options struct {
	// CleanupStaging removes the run's staging directory once the run is
	// marked completed.
	CleanupStaging bool
	// ClassifyStateError labels state store errors in logs.
	ClassifyStateError func(error) string
}

type Pipeline struct {
	stager    Stager
	states    repo.RunStateStore
	executor  runtimeexec.Executor
	harvester Harvester
	logger    *slog.Logger
	opts      Options
	stats     *Stats
}

func NewPipeline(deps Deps, opts Options) (*Pipeline, error) {
	if deps.Stager == nil {
		return nil, errors.New("stager is required")
	}
	if deps.States == nil {
		return nil, errors.New("state store is required")
	}
	if deps.Executor == nil {
		return nil, errors.New("executor is required")
	}
	if deps.Harvester == nil {
		return nil, errors.New("harvester is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ClassifyStateError == nil {
		opts.ClassifyStateError = func(error) string { return "unknown" }
	}
	return &Pipeline{
		stager:    deps.Stager,
		states:    deps.States,
		executor:  deps.Executor,
		harvester: deps.Harvester,
		logger:    logger,
		opts:      opts,
		stats:     &Stats{},
	}, nil
}

func (p *Pipeline) Stats() *Stats {
	return p.stats
}

func (p *Pipeline) Handle(ctx context.Context, msg Message) {
	logger := p.logger.With("delivery_id", msg.ID)

	job, err := domain.ParseJobDescriptor(msg.Body)
	if err != nil {
		logger.Warn("discarding message", "error", err, "body_bytes", len(msg.Body))
		p.ack(logger, msg)
		p.stats.recordDiscarded()
		return
	}
	logger = logger.With("run_id", job.RunID)
	logger.Info("job received", "file", job.Artifact().FileName())

	ref := job.Artifact()
	local, err := p.stager.Download(ctx, ref)
	if err != nil {
		logger.Error("artifact download failed", "key", ref.ObjectKey(), "error", err)
	}
	if local == "" {
		local = p.stager.LocalPath(ref)
	}

	p.transition(ctx, logger, job.RunID, domain.RunStatusRunning)

	runType, err := p.states.LookupType(ctx, job.RunID)
	if err != nil {
		logger.Error("run type lookup failed, using default strategy",
			"error", err,
			"error_class", p.opts.ClassifyStateError(err),
		)
		runType = ""
	}
	strategy := domain.StrategyForRunType(runType)

	p.ack(logger, msg)

	logger.Info("executing artifact", "run_type", runType, "strategy", strategy.String(), "path", local)
	res := p.executor.Run(ctx, strategy, local)
	attrs := []any{
		"strategy", res.Strategy.String(),
		"outcome", string(res.Outcome()),
		"exit_code", res.ExitCode,
		"duration_ms", res.Duration.Milliseconds(),
		"stdout", res.Stdout,
		"stderr", res.Stderr,
	}
	if res.Err != nil {
		attrs = append(attrs, "error", res.Err)
	}
	if res.Outcome() == runtimeexec.OutcomeSucceeded {
		logger.Info("execution finished", attrs...)
	} else {
		logger.Warn("execution finished", attrs...)
	}

	report, err := p.harvester.Collect(ctx, job.RunID, filepath.Dir(local))
	if err != nil {
		logger.Error("output harvest failed", "error", err)
	} else {
		logger.Info("outputs harvested",
			"uploaded", len(report.Uploaded),
			"failed", len(report.Failed),
			"skipped", len(report.Skipped),
		)
	}

	p.transition(ctx, logger, job.RunID, domain.RunStatusCompleted)

	if p.opts.CleanupStaging {
		if err := p.stager.RemoveRunDir(job.RunID); err != nil {
			logger.Warn("staging cleanup failed", "error", err)
		}
	}

	p.stats.recordCompleted(job.RunID, res.Outcome(), time.Now())
}

func (p *Pipeline) transition(ctx context.Context, logger *slog.Logger, runID string, status domain.RunStatus) {
	if err := p.states.Transition(ctx, runID, status); err != nil {
		logger.Error("run status update failed",
			"status", status.String(),
			"error", err,
			"error_class", p.opts.ClassifyStateError(err),
		)
		p.stats.recordStateError()
		return
	}
	logger.Info("run status updated", "status", status.String())
}

func (p *Pipeline) ack(logger *slog.Logger, msg Message) {
	if msg.Ack == nil {
		return
	}
	if err := msg.Ack(); err != nil {
		logger.Error("message ack failed", "error", err)
	}
}
