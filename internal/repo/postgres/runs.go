package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/animus-labs/runworker/internal/domain"
	"github.com/animus-labs/runworker/internal/repo"
)

const (
	updateRunStatusQuery = `UPDATE run SET status = $1 WHERE id = $2`
	selectRunTypeQuery   = `SELECT type FROM run WHERE id = $1`
)

// RunStore reads and updates rows of the run table. Rows are created by the
// producer that enqueues jobs; this store never inserts or deletes.
type RunStore struct {
	db DB
}

func NewRunStore(db DB) *RunStore {
	if db == nil {
		return nil
	}
	return &RunStore{db: db}
}

func (s *RunStore) Transition(ctx context.Context, runID string, status domain.RunStatus) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("run store not initialized")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	if !status.Valid() {
		return fmt.Errorf("invalid run status %q", status)
	}

	res, err := s.db.ExecContext(ctx, updateRunStatusQuery, string(status), runID)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run status rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", runID, repo.ErrNotFound)
	}
	return nil
}

// LookupType returns the run's type, or "" when the column is NULL.
func (s *RunStore) LookupType(ctx context.Context, runID string) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("run store not initialized")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	var runType sql.NullString
	if err := s.db.QueryRowContext(ctx, selectRunTypeQuery, runID).Scan(&runType); err != nil {
		return "", fmt.Errorf("select run type: %w", handleNotFound(err))
	}
	return runType.String, nil
}
