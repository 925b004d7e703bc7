package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/models"
)

// messageRepository is the SQL-backed implementation of
// [MessageRepository]. Queries are built with squirrel for the dialect of
// the embedded [*DB]; writes go through [DB.withRetry].
type messageRepository struct {
	*DB
	logger *logger.Logger

	// now is replaced in tests.
	now func() time.Time
}

// NewMessageRepository constructs a [MessageRepository] backed by db.
func NewMessageRepository(db *DB, logger *logger.Logger) MessageRepository {
	return &messageRepository{
		DB:     db,
		logger: logger,
		now:    time.Now,
	}
}

// EnsureFolder registers folderID. Registering an existing folder is a
// no-op.
func (r *messageRepository) EnsureFolder(ctx context.Context, folderID string) error {
	log := logger.FromContext(ctx)

	query, args, err := buildEnsureFolderQuery(r.builder(), folderID)
	if err != nil {
		log.Err(err).
			Str("func", "messageRepository.EnsureFolder").
			Str("folder_id", folderID).
			Msg("failed to build query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	err = r.withRetry(ctx, "EnsureFolder", func(ctx context.Context) error {
		_, execErr := r.DB.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		log.Err(err).
			Str("func", "messageRepository.EnsureFolder").
			Str("folder_id", folderID).
			Msg("failed to register folder")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// GetServerIDs returns the server IDs stored for folderID, ordered.
func (r *messageRepository) GetServerIDs(ctx context.Context, folderID string) ([]string, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildSelectServerIDsQuery(r.builder(), folderID)
	if err != nil {
		log.Err(err).
			Str("func", "messageRepository.GetServerIDs").
			Str("folder_id", folderID).
			Msg("failed to build query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "messageRepository.GetServerIDs").
			Str("folder_id", folderID).
			Msg("failed to execute query for getting server ids")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	ids := make([]string, 0, 64)
	for rows.Next() {
		var id string
		if scanErr := rows.Scan(&id); scanErr != nil {
			log.Err(scanErr).
				Str("func", "messageRepository.GetServerIDs").
				Str("folder_id", folderID).
				Msg("failed to scan server id")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		ids = append(ids, id)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "messageRepository.GetServerIDs").
			Str("folder_id", folderID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return ids, nil
}

// UpsertMessage inserts message or replaces the row with the same
// (folder_id, server_id) key.
func (r *messageRepository) UpsertMessage(ctx context.Context, message models.Message) error {
	log := logger.FromContext(ctx)

	if message.FolderID == "" || message.ServerID == "" {
		return fmt.Errorf("%w: folder and server id are required", ErrInvalidMessage)
	}

	query, args, err := buildUpsertMessageQuery(r.builder(), message, r.now().UTC())
	if err != nil {
		log.Err(err).
			Str("func", "messageRepository.UpsertMessage").
			Str("folder_id", message.FolderID).
			Str("server_id", message.ServerID).
			Msg("failed to build query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var affected int64
	err = r.withRetry(ctx, "UpsertMessage", func(ctx context.Context) error {
		res, execErr := r.DB.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		log.Err(err).
			Str("func", "messageRepository.UpsertMessage").
			Str("folder_id", message.FolderID).
			Str("server_id", message.ServerID).
			Msg("failed to execute upsert for message")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrMessageNotSaved, message.FolderID, message.ServerID)
	}

	return nil
}

// DeleteMessages removes ids from folderID in one transaction and returns
// the body paths of the removed rows.
func (r *messageRepository) DeleteMessages(ctx context.Context, folderID string, ids []string) ([]string, error) {
	log := logger.FromContext(ctx)

	if len(ids) == 0 {
		return nil, nil
	}

	b := r.builder()
	selectQuery, selectArgs, err := buildSelectBodyPathsQuery(b, folderID, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	deleteQuery, deleteArgs, err := buildDeleteMessagesQuery(b, folderID, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var paths []string
	err = r.withRetry(ctx, "DeleteMessages", func(ctx context.Context) error {
		paths = paths[:0]
		return r.inTx(ctx, func(tx *sql.Tx) error {
			rows, queryErr := tx.QueryContext(ctx, selectQuery, selectArgs...)
			if queryErr != nil {
				return fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
			}
			defer rows.Close()

			for rows.Next() {
				var path string
				if scanErr := rows.Scan(&path); scanErr != nil {
					return fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
				}
				paths = append(paths, path)
			}
			if rowsErr := rows.Err(); rowsErr != nil {
				return fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
			}

			if _, execErr := tx.ExecContext(ctx, deleteQuery, deleteArgs...); execErr != nil {
				return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
			}
			return nil
		})
	})
	if err != nil {
		log.Err(err).
			Str("func", "messageRepository.DeleteMessages").
			Str("folder_id", folderID).
			Int("ids", len(ids)).
			Msg("failed to delete messages")
		return nil, err
	}

	return paths, nil
}

// MarkSynced stores at as the last successful sync time of folderID.
func (r *messageRepository) MarkSynced(ctx context.Context, folderID string, at time.Time) error {
	log := logger.FromContext(ctx)

	query, args, err := buildMarkSyncedQuery(r.builder(), folderID, at.UTC())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var affected int64
	err = r.withRetry(ctx, "MarkSynced", func(ctx context.Context) error {
		res, execErr := r.DB.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		log.Err(err).
			Str("func", "messageRepository.MarkSynced").
			Str("folder_id", folderID).
			Msg("failed to mark folder synced")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrFolderNotFound, folderID)
	}

	return nil
}
