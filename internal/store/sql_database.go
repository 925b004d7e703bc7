package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/migrations"
	sq "github.com/Masterminds/squirrel"
	"github.com/sethvargo/go-retry"
)

// Dialect selects SQL placeholders and the migration dialect.
type Dialect string

const (
	DialectSQLite   Dialect = migrations.DialectSQLite
	DialectPostgres Dialect = migrations.DialectPostgres
)

// Write retry policy for Retryable failures.
const (
	maxWriteRetries  = 3
	writeRetryBase   = 50 * time.Millisecond
	writeRetryMaxDur = 2 * time.Second
)

// ErrorClassificator decides whether a failed database operation may be
// retried.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

type DB struct {
	*sql.DB
	dialect            Dialect
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// NewConnect opens the database named by cfg.DSN. DSNs starting with
// postgres:// or postgresql:// select PostgreSQL; anything else is a SQLite
// file path.
func NewConnect(ctx context.Context, cfg config.ClientDB, log *logger.Logger) (*DB, error) {
	switch DialectFromDSN(cfg.DSN) {
	case DialectPostgres:
		return NewConnectPostgres(ctx, cfg, log)
	default:
		return NewConnectSQLite(ctx, cfg, log)
	}
}

// DialectFromDSN reports the database dialect of dsn.
func DialectFromDSN(dsn string) Dialect {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, string(db.dialect))
}

// builder returns a squirrel statement builder with the placeholder format
// of the connected dialect.
func (db *DB) builder() sq.StatementBuilderType {
	return statementBuilder(db.dialect)
}

func statementBuilder(dialect Dialect) sq.StatementBuilderType {
	if dialect == DialectPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// withRetry runs fn and retries it with exponential backoff while the
// classifier reports its error as Retryable.
func (db *DB) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := retry.WithCappedDuration(writeRetryMaxDur, retry.NewExponential(writeRetryBase))
	backoff = retry.WithMaxRetries(maxWriteRetries, backoff)

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil || db.errorClassificator == nil {
			return err
		}
		if db.errorClassificator.Classify(err) != Retryable {
			return err
		}

		db.logger.Warn().
			Err(err).
			Str("func", "DB.withRetry").
			Str("op", op).
			Int("attempt", attempt).
			Msg("retryable database error")
		return retry.RetryableError(err)
	})
}

// inTx runs fn inside a transaction, committing on success and rolling back
// otherwise.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return nil
}
