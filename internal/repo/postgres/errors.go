package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/animus-labs/runworker/internal/repo"
	"github.com/jackc/pgx/v5/pgconn"
)

type ErrorClass int

const (
	ClassNone ErrorClass = iota
	ClassTransient
	ClassNotFound
	ClassFatal
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransient:
		return "transient"
	case ClassNotFound:
		return "not_found"
	default:
		return "fatal"
	}
}

// Classify sorts a store error into retry-worthy or not. CockroachDB reports
// transaction restarts as 40001, which is always safe to retry.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, repo.ErrNotFound) {
		return ClassNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
			return ClassTransient
		}
		switch pgErr.Code {
		case "40001", "40P01", "53300", "55P03", "57P01", "57P02", "57P03":
			return ClassTransient
		}
		return ClassFatal
	}

	if errors.Is(err, context.Canceled) {
		return ClassFatal
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return ClassTransient
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return ClassTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassTransient
	}
	return ClassFatal
}

func IsTransient(err error) bool {
	return Classify(err) == ClassTransient
}
