package dberr

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind classifies a storage failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUniqueViolation
	KindForeignKey
	KindRetryable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUniqueViolation:
		return "unique_violation"
	case KindForeignKey:
		return "foreign_key"
	case KindRetryable:
		return "retryable"
	default:
		return "unknown"
	}
}

// ErrConcurrentUpdate reports that a conditional write matched fewer rows than
// the transaction read. The transaction may be re-run.
var ErrConcurrentUpdate = errors.New("concurrent update")

// Classify maps driver errors from PostgreSQL (pgconn) and SQLite onto a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return KindUniqueViolation
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrConcurrentUpdate):
		return KindRetryable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return KindUniqueViolation // unique_violation
		case "23503":
			return KindForeignKey // foreign_key_violation
		case "40001", "40P01", "55P03":
			return KindRetryable // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "unique constraint failed"),
		strings.Contains(msg, "duplicate key"):
		return KindUniqueViolation
	case strings.Contains(msg, "foreign key constraint failed"):
		return KindForeignKey
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "database table is locked"),
		strings.Contains(msg, "sqlite_busy"),
		strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "could not serialize"):
		return KindRetryable
	default:
		return KindUnknown
	}
}

func IsNotFound(err error) bool        { return Classify(err) == KindNotFound }
func IsUniqueViolation(err error) bool { return Classify(err) == KindUniqueViolation }

// IsRetryable reports whether a transaction that failed with err may be re-run.
// Unique violations count: the retry re-reads the rows that won the race.
func IsRetryable(err error) bool {
	switch Classify(err) {
	case KindRetryable, KindUniqueViolation:
		return true
	default:
		return false
	}
}
