package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/animus-labs/runworker/internal/repo"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{name: "nil", err: nil, want: ClassNone},
		{name: "not found", err: fmt.Errorf("run r1: %w", repo.ErrNotFound), want: ClassNotFound},
		{name: "serialization", err: &pgconn.PgError{Code: "40001"}, want: ClassTransient},
		{name: "connection failure", err: &pgconn.PgError{Code: "08006"}, want: ClassTransient},
		{name: "admin shutdown", err: fmt.Errorf("update: %w", &pgconn.PgError{Code: "57P01"}), want: ClassTransient},
		{name: "undefined table", err: &pgconn.PgError{Code: "42P01"}, want: ClassFatal},
		{name: "auth", err: &pgconn.PgError{Code: "28P01"}, want: ClassFatal},
		{name: "deadline", err: context.DeadlineExceeded, want: ClassTransient},
		{name: "canceled", err: context.Canceled, want: ClassFatal},
		{name: "bad conn", err: fmt.Errorf("exec: %w", driver.ErrBadConn), want: ClassTransient},
		{name: "other", err: errors.New("boom"), want: ClassFatal},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("%s: Classify()=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(&pgconn.PgError{Code: "40001"}) {
		t.Fatalf("40001 should be transient")
	}
	if IsTransient(repo.ErrNotFound) {
		t.Fatalf("not found should not be transient")
	}
}
