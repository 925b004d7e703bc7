package store

import (
	"context"
	"io"
	"time"

	"github.com/MKhiriev/go-mail-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// MailStorage is the local persisted mailbox.
type MailStorage interface {
	// Folder returns the handle of folderID, registering the folder locally
	// on first use.
	Folder(ctx context.Context, folderID string) (FolderHandle, error)
}

// FolderHandle gives access to the messages of one local folder.
type FolderHandle interface {
	// ID returns the server-assigned folder identifier.
	ID() string

	// MessageServerIDs returns the server IDs of all locally stored messages.
	MessageServerIDs(ctx context.Context) (map[string]struct{}, error)

	// CreateMessage persists body and its metadata under meta.ServerID. An
	// existing message with the same server ID is replaced.
	CreateMessage(ctx context.Context, meta models.MessageMetadata, body io.Reader) error

	// DeleteMessages removes the given messages and their bodies. Unknown
	// IDs are ignored.
	DeleteMessages(ctx context.Context, ids ...string) error

	// MarkSynced records the completion time of a successful sync.
	MarkSynced(ctx context.Context, at time.Time) error
}

// MessageRepository is the relational part of the local mailbox: folder
// bookkeeping and message rows.
type MessageRepository interface {
	EnsureFolder(ctx context.Context, folderID string) error
	GetServerIDs(ctx context.Context, folderID string) ([]string, error)
	UpsertMessage(ctx context.Context, message models.Message) error
	DeleteMessages(ctx context.Context, folderID string, ids []string) (bodyPaths []string, err error)
	MarkSynced(ctx context.Context, folderID string, at time.Time) error
}

// BodyStorage keeps raw message bodies outside the database.
type BodyStorage interface {
	// Write streams body to its final location and reports where it was
	// stored together with its size and checksum.
	Write(ctx context.Context, folderID, serverID string, body io.Reader) (models.StoredBody, error)

	// Remove deletes the bodies at paths. Missing files are ignored.
	Remove(ctx context.Context, paths ...string) error
}
