package store

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/models"
)

// mailStorage composes a [MessageRepository] for rows and a [BodyStorage]
// for raw bodies into a [MailStorage].
type mailStorage struct {
	repo   MessageRepository
	bodies BodyStorage
	logger *logger.Logger
}

// NewMailStorage constructs a [MailStorage] from its two halves.
func NewMailStorage(repo MessageRepository, bodies BodyStorage, logger *logger.Logger) MailStorage {
	return &mailStorage{
		repo:   repo,
		bodies: bodies,
		logger: logger,
	}
}

// Folder implements [MailStorage].
func (s *mailStorage) Folder(ctx context.Context, folderID string) (FolderHandle, error) {
	if strings.TrimSpace(folderID) == "" {
		return nil, ErrInvalidFolder
	}

	if err := s.repo.EnsureFolder(ctx, folderID); err != nil {
		return nil, fmt.Errorf("failed to open folder %s: %w", folderID, err)
	}

	return &folderHandle{id: folderID, storage: s}, nil
}

type folderHandle struct {
	id      string
	storage *mailStorage
}

func (f *folderHandle) ID() string {
	return f.id
}

func (f *folderHandle) MessageServerIDs(ctx context.Context) (map[string]struct{}, error) {
	ids, err := f.storage.repo.GetServerIDs(ctx, f.id)
	if err != nil {
		return nil, fmt.Errorf("failed to read local ids of %s: %w", f.id, err)
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// CreateMessage writes the body first and the row second. A failed row write
// leaves the body file behind; the next sync of the same ID overwrites it.
func (f *folderHandle) CreateMessage(ctx context.Context, meta models.MessageMetadata, body io.Reader) error {
	log := logger.FromContext(ctx)

	if meta.ServerID == "" {
		return fmt.Errorf("%w: empty server id", ErrInvalidMessage)
	}

	stored, err := f.storage.bodies.Write(ctx, f.id, meta.ServerID, body)
	if err != nil {
		return fmt.Errorf("failed to store body of %s: %w", meta.ServerID, err)
	}

	if meta.Size > 0 && meta.Size != stored.Size {
		log.Warn().
			Str("func", "folderHandle.CreateMessage").
			Str("folder_id", f.id).
			Str("server_id", meta.ServerID).
			Int64("reported_size", meta.Size).
			Int64("written_size", stored.Size).
			Msg("body size differs from server metadata")
	}

	message := models.Message{
		FolderID:     f.id,
		ServerID:     meta.ServerID,
		BlobID:       meta.BlobID,
		Size:         stored.Size,
		ReceivedAt:   meta.ReceivedAt,
		BodyPath:     stored.Path,
		BodyChecksum: stored.Checksum,
	}
	if err = f.storage.repo.UpsertMessage(ctx, message); err != nil {
		return fmt.Errorf("failed to save message %s: %w", meta.ServerID, err)
	}

	return nil
}

func (f *folderHandle) DeleteMessages(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	paths, err := f.storage.repo.DeleteMessages(ctx, f.id, ids)
	if err != nil {
		return fmt.Errorf("failed to delete messages of %s: %w", f.id, err)
	}

	if err = f.storage.bodies.Remove(ctx, paths...); err != nil {
		return fmt.Errorf("failed to remove bodies of %s: %w", f.id, err)
	}
	return nil
}

func (f *folderHandle) MarkSynced(ctx context.Context, at time.Time) error {
	if err := f.storage.repo.MarkSynced(ctx, f.id, at); err != nil {
		return fmt.Errorf("failed to mark %s synced: %w", f.id, err)
	}
	return nil
}
