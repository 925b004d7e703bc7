package store

import (
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-mail-sync/models"
)

const (
	foldersTable  = "folders"
	messagesTable = "messages"
)

// messageUpsertSuffix replaces every column but the key and created_at when
// the (folder_id, server_id) pair already exists.
const messageUpsertSuffix = `ON CONFLICT (folder_id, server_id) DO UPDATE SET
	blob_id       = excluded.blob_id,
	size          = excluded.size,
	received_at   = excluded.received_at,
	body_path     = excluded.body_path,
	body_checksum = excluded.body_checksum`

// buildEnsureFolderQuery inserts the folder row unless it exists.
func buildEnsureFolderQuery(b sq.StatementBuilderType, folderID string) (string, []any, error) {
	return b.Insert(foldersTable).
		Columns("folder_id").
		Values(folderID).
		Suffix("ON CONFLICT (folder_id) DO NOTHING").
		ToSql()
}

func buildSelectServerIDsQuery(b sq.StatementBuilderType, folderID string) (string, []any, error) {
	return b.Select("server_id").
		From(messagesTable).
		Where(sq.Eq{"folder_id": folderID}).
		OrderBy("server_id").
		ToSql()
}

func buildUpsertMessageQuery(b sq.StatementBuilderType, m models.Message, now time.Time) (string, []any, error) {
	return b.Insert(messagesTable).
		Columns("folder_id", "server_id", "blob_id", "size", "received_at", "body_path", "body_checksum", "created_at").
		Values(m.FolderID, m.ServerID, m.BlobID, m.Size, m.ReceivedAt, m.BodyPath, m.BodyChecksum, now).
		Suffix(messageUpsertSuffix).
		ToSql()
}

// buildSelectBodyPathsQuery selects the body paths of ids within folderID.
func buildSelectBodyPathsQuery(b sq.StatementBuilderType, folderID string, ids []string) (string, []any, error) {
	return b.Select("body_path").
		From(messagesTable).
		Where(sq.Eq{"folder_id": folderID, "server_id": ids}).
		ToSql()
}

func buildDeleteMessagesQuery(b sq.StatementBuilderType, folderID string, ids []string) (string, []any, error) {
	return b.Delete(messagesTable).
		Where(sq.Eq{"folder_id": folderID, "server_id": ids}).
		ToSql()
}

func buildMarkSyncedQuery(b sq.StatementBuilderType, folderID string, at time.Time) (string, []any, error) {
	return b.Update(foldersTable).
		Set("last_synced_at", at).
		Where(sq.Eq{"folder_id": folderID}).
		ToSql()
}
