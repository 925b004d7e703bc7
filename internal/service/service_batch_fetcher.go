package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-mail-sync/internal/adapter"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/models"
)

// DefaultDownloadConcurrency bounds parallel body downloads within a batch
// when no explicit limit is configured.
const DefaultDownloadConcurrency = 4

type batchFetcher struct {
	transport   adapter.MailTransport
	concurrency int
	logger      *logger.Logger
}

// NewBatchFetcher constructs a BatchFetcher downloading at most concurrency
// bodies of a batch at a time.
func NewBatchFetcher(transport adapter.MailTransport, concurrency int, logger *logger.Logger) BatchFetcher {
	if concurrency <= 0 {
		concurrency = DefaultDownloadConcurrency
	}

	return &batchFetcher{
		transport:   transport,
		concurrency: concurrency,
		logger:      logger,
	}
}

// FetchAll implements BatchFetcher.
//
// Batches run strictly one after another. Within a batch the bodies are
// downloaded concurrently; completions are serialized under a mutex before
// being reported, so Completed grows by exactly one per event. Total is the
// plan size and does not shrink when the server no longer knows an ID.
func (f *batchFetcher) FetchAll(ctx context.Context, folder store.FolderHandle, plan models.SyncPlan, emit func(models.SyncEvent)) error {
	log := logger.FromContext(ctx)
	folderID := folder.ID()
	total := len(plan.ToFetch)

	var (
		mu        sync.Mutex
		completed int
	)
	persisted := func() {
		mu.Lock()
		defer mu.Unlock()

		completed++
		emit(models.ProgressEvent(folderID, completed, total))
	}

	for n, batch := range plan.Batches() {
		if err := ctx.Err(); err != nil {
			return err
		}

		metas, err := f.transport.GetMetadata(ctx, folderID, batch)
		if err != nil {
			log.Err(err).
				Str("func", "batchFetcher.FetchAll").
				Str("folder_id", folderID).
				Int("batch", n).
				Int("batch_size", len(batch)).
				Msg("failed to fetch metadata")
			return fmt.Errorf("%w: batch %d: %w", ErrFetchingMetadata, n, err)
		}

		records := matchBatch(folderID, batch, metas)
		if missing := len(batch) - len(records); missing > 0 {
			log.Warn().
				Str("func", "batchFetcher.FetchAll").
				Str("folder_id", folderID).
				Int("batch", n).
				Int("missing", missing).
				Msg("server no longer knows some messages, skipping them")
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(f.concurrency)
		for _, meta := range records {
			g.Go(func() error {
				ok, err := f.fetchOne(gctx, folder, meta)
				if err != nil {
					return err
				}
				if ok {
					persisted()
				}
				return nil
			})
		}
		if err = g.Wait(); err != nil {
			// a cancelled run reports the cancellation, not the
			// aborted download it caused
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
	}

	return nil
}

// fetchOne downloads and persists one message. It reports false without an
// error when the message vanished from the server in the meantime.
func (f *batchFetcher) fetchOne(ctx context.Context, folder store.FolderHandle, meta models.MessageMetadata) (bool, error) {
	log := logger.FromContext(ctx)

	body, err := f.transport.DownloadBody(ctx, meta)
	if errors.Is(err, adapter.ErrNotFound) {
		log.Warn().
			Str("func", "batchFetcher.fetchOne").
			Str("folder_id", meta.FolderID).
			Str("server_id", meta.ServerID).
			Msg("message body is gone, skipping")
		return false, nil
	}
	if err != nil {
		log.Err(err).
			Str("func", "batchFetcher.fetchOne").
			Str("folder_id", meta.FolderID).
			Str("server_id", meta.ServerID).
			Msg("failed to download body")
		return false, fmt.Errorf("%w: %s: %w", ErrDownloadingBody, meta.ServerID, err)
	}
	defer body.Close()

	err = folder.CreateMessage(ctx, meta, body)
	if errors.Is(err, adapter.ErrNotFound) {
		// streamed transports only learn about a missing body while reading
		log.Warn().
			Str("func", "batchFetcher.fetchOne").
			Str("folder_id", meta.FolderID).
			Str("server_id", meta.ServerID).
			Msg("message body is gone, skipping")
		return false, nil
	}
	if err != nil {
		log.Err(err).
			Str("func", "batchFetcher.fetchOne").
			Str("folder_id", meta.FolderID).
			Str("server_id", meta.ServerID).
			Msg("failed to persist message")
		return false, fmt.Errorf("%w: %s: %w", ErrPersisting, meta.ServerID, err)
	}

	return true, nil
}

// matchBatch returns the records answering batch, in batch order. Records
// for IDs outside the batch and repeated records are dropped.
func matchBatch(folderID string, batch []string, metas []models.MessageMetadata) []models.MessageMetadata {
	byID := make(map[string]models.MessageMetadata, len(metas))
	for _, m := range metas {
		if _, dup := byID[m.ServerID]; !dup {
			byID[m.ServerID] = m
		}
	}

	records := make([]models.MessageMetadata, 0, len(batch))
	for _, id := range batch {
		m, ok := byID[id]
		if !ok {
			continue
		}
		delete(byID, id)

		if m.FolderID == "" {
			m.FolderID = folderID
		}
		records = append(records, m)
	}
	return records
}
