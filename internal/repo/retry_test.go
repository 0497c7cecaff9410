package repo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/animus-labs/runworker/internal/domain"
)

var errFlaky = errors.New("flaky")

type scriptedStore struct {
	errs     []error
	calls    int
	runType  string
	statuses []domain.RunStatus
}

func (s *scriptedStore) next() error {
	s.calls++
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

func (s *scriptedStore) Transition(ctx context.Context, runID string, status domain.RunStatus) error {
	if err := s.next(); err != nil {
		return err
	}
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *scriptedStore) LookupType(ctx context.Context, runID string) (string, error) {
	if err := s.next(); err != nil {
		return "", err
	}
	return s.runType, nil
}

func isFlaky(err error) bool { return errors.Is(err, errFlaky) }

func newTestRetrying(store RunStateStore, attempts int) *RetryingStore {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRetryingStore(store, isFlaky, logger, RetryOptions{Attempts: attempts, BaseDelay: time.Millisecond})
}

func TestRetryingStoreRetriesTransient(t *testing.T) {
	inner := &scriptedStore{errs: []error{errFlaky, errFlaky}}
	store := newTestRetrying(inner, 3)

	if err := store.Transition(context.Background(), "r1", domain.RunStatusRunning); err != nil {
		t.Fatalf("Transition() err=%v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("calls=%d, want 3", inner.calls)
	}
	if len(inner.statuses) != 1 || inner.statuses[0] != domain.RunStatusRunning {
		t.Fatalf("statuses=%v", inner.statuses)
	}
}

func TestRetryingStoreGivesUp(t *testing.T) {
	inner := &scriptedStore{errs: []error{errFlaky, errFlaky, errFlaky, errFlaky}}
	store := newTestRetrying(inner, 2)

	if err := store.Transition(context.Background(), "r1", domain.RunStatusRunning); !errors.Is(err, errFlaky) {
		t.Fatalf("Transition() err=%v, want errFlaky", err)
	}
	if inner.calls != 2 {
		t.Fatalf("calls=%d, want 2", inner.calls)
	}
}

func TestRetryingStoreDoesNotRetryFatal(t *testing.T) {
	fatal := errors.New("permission denied")
	inner := &scriptedStore{errs: []error{fatal}}
	store := newTestRetrying(inner, 5)

	if _, err := store.LookupType(context.Background(), "r1"); !errors.Is(err, fatal) {
		t.Fatalf("LookupType() err=%v, want fatal", err)
	}
	if inner.calls != 1 {
		t.Fatalf("calls=%d, want 1", inner.calls)
	}
}

func TestRetryingStoreDoesNotRetryNotFound(t *testing.T) {
	inner := &scriptedStore{errs: []error{ErrNotFound}}
	store := NewRetryingStore(inner, func(error) bool { return true }, nil, RetryOptions{Attempts: 5, BaseDelay: time.Millisecond})

	if err := store.Transition(context.Background(), "r1", domain.RunStatusCompleted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Transition() err=%v, want ErrNotFound", err)
	}
	if inner.calls != 1 {
		t.Fatalf("calls=%d, want 1", inner.calls)
	}
}

func TestRetryingStoreLookupTypeAfterRetry(t *testing.T) {
	inner := &scriptedStore{errs: []error{errFlaky}, runType: "ml"}
	store := newTestRetrying(inner, 3)

	got, err := store.LookupType(context.Background(), "r1")
	if err != nil {
		t.Fatalf("LookupType() err=%v", err)
	}
	if got != "ml" {
		t.Fatalf("LookupType()=%q, want ml", got)
	}
}

func TestRetryingStoreStopsOnCancel(t *testing.T) {
	inner := &scriptedStore{errs: []error{errFlaky, errFlaky, errFlaky}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewRetryingStore(inner, isFlaky, logger, RetryOptions{Attempts: 3, BaseDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := store.Transition(ctx, "r1", domain.RunStatusRunning)
	if !errors.Is(err, context.Canceled) || !errors.Is(err, errFlaky) {
		t.Fatalf("Transition() err=%v, want flaky and canceled", err)
	}
	if inner.calls != 1 {
		t.Fatalf("calls=%d, want 1", inner.calls)
	}
}
