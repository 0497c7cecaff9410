package repo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/animus-labs/runworker/internal/domain"
)

type RetryOptions struct {
	Attempts  int
	BaseDelay time.Duration
}

// RetryingStore retries calls that fail with an error isTransient accepts.
// Both operations are idempotent per run id.
type RetryingStore struct {
	next        RunStateStore
	isTransient func(error) bool
	logger      *slog.Logger
	attempts    int
	baseDelay   time.Duration
}

func NewRetryingStore(next RunStateStore, isTransient func(error) bool, logger *slog.Logger, opts RetryOptions) *RetryingStore {
	if opts.Attempts < 1 {
		opts.Attempts = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingStore{
		next:        next,
		isTransient: isTransient,
		logger:      logger,
		attempts:    opts.Attempts,
		baseDelay:   opts.BaseDelay,
	}
}

func (r *RetryingStore) Transition(ctx context.Context, runID string, status domain.RunStatus) error {
	return r.do(ctx, "transition", runID, func(ctx context.Context) error {
		return r.next.Transition(ctx, runID, status)
	})
}

func (r *RetryingStore) LookupType(ctx context.Context, runID string) (string, error) {
	var runType string
	err := r.do(ctx, "lookup_type", runID, func(ctx context.Context) error {
		var err error
		runType, err = r.next.LookupType(ctx, runID)
		return err
	})
	return runType, err
}

func (r *RetryingStore) do(ctx context.Context, op, runID string, fn func(context.Context) error) error {
	delay := r.baseDelay
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNotFound) || r.isTransient == nil || !r.isTransient(err) || attempt >= r.attempts {
			return err
		}

		r.logger.Warn("state store call failed, retrying",
			"op", op,
			"run_id", runID,
			"attempt", attempt,
			"delay_ms", delay.Milliseconds(),
			"error", err,
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
		delay *= 2
	}
}
