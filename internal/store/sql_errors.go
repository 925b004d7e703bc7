package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ErrorClassification tells [DB.withRetry] whether a failed write may
// succeed when attempted again.
type ErrorClassification int

const (
	// NonRetryable is the classification of every error not known to be
	// transient, including constraint violations and cancelled queries.
	NonRetryable ErrorClassification = iota

	// Retryable marks lock contention and transient connection loss.
	Retryable
)

func (c ErrorClassification) String() string {
	if c == Retryable {
		return "retryable"
	}
	return "non-retryable"
}

// SQLiteErrorClassifier implements [ErrorClassificator] for SQLite.
// Parallel folder syncs share one database file, so SQLITE_BUSY and
// SQLITE_LOCKED are expected and retried.
type SQLiteErrorClassifier struct{}

func NewSQLiteErrorClassifier() *SQLiteErrorClassifier {
	return &SQLiteErrorClassifier{}
}

func (c *SQLiteErrorClassifier) Classify(err error) ErrorClassification {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return NonRetryable
	}

	switch sqliteErr.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return Retryable
	}
	return NonRetryable
}

// PostgresErrorClassifier implements [ErrorClassificator] for PostgreSQL
// using the SQLSTATE of the *pgconn.PgError returned by pgx.
type PostgresErrorClassifier struct{}

func NewPostgresErrorClassifier() *PostgresErrorClassifier {
	return &PostgresErrorClassifier{}
}

// Classify implements [ErrorClassificator].
//
// Retryable SQLSTATEs:
//   - class 08, connection exceptions;
//   - class 40, transaction rollback (serialization failure, deadlock);
//   - 53300 too_many_connections and 57P03 cannot_connect_now;
//   - 55P03 lock_not_available, raised when two folder runs upsert the
//     same rows under a lock timeout.
//
// See https://www.postgresql.org/docs/current/errcodes-appendix.html.
func (c *PostgresErrorClassifier) Classify(err error) ErrorClassification {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return NonRetryable
	}

	switch {
	case pgerrcode.IsConnectionException(pgErr.Code),
		pgerrcode.IsTransactionRollback(pgErr.Code):
		return Retryable
	}

	switch pgErr.Code {
	case pgerrcode.TooManyConnections,
		pgerrcode.CannotConnectNow,
		pgerrcode.LockNotAvailable:
		return Retryable
	}

	return NonRetryable
}
