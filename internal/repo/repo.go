package repo

import (
	"context"
	"errors"

	"github.com/animus-labs/runworker/internal/domain"
)

var ErrNotFound = errors.New("not_found")

// RunStateStore moves run rows through their statuses and reads their type.
type RunStateStore interface {
	Transition(ctx context.Context, runID string, status domain.RunStatus) error
	LookupType(ctx context.Context, runID string) (string, error)
}
