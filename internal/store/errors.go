package store

import "errors"

// Sentinel errors returned by the storage layer. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrInvalidFolder is returned for an empty folder identifier.
	ErrInvalidFolder = errors.New("invalid folder id")

	// ErrInvalidMessage is returned when a message lacks a server ID.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrFolderNotFound is returned when a folder row is missing, e.g. when
	// marking an unregistered folder as synced.
	ErrFolderNotFound = errors.New("folder was not found")

	// ErrMessageNotSaved is returned when an upsert completes without error
	// but affects no rows.
	ErrMessageNotSaved = errors.New("message was not saved")

	// ErrUnsupportedDSN is returned when the DSN names no known database.
	ErrUnsupportedDSN = errors.New("unsupported database dsn")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning a result row fails.
	ErrScanningRow = errors.New("failed to scan message row")

	// ErrScanningRows is returned when row iteration fails mid-result-set.
	ErrScanningRows = errors.New("failed to scan message rows")
)

// Body store errors.
var (
	// ErrWritingBody is returned when a message body cannot be written to
	// the body store.
	ErrWritingBody = errors.New("failed to write message body")

	// ErrRemovingBody is returned when a stored body cannot be removed.
	ErrRemovingBody = errors.New("failed to remove message body")
)
