// Package service implements the mail sync core: planning which messages to
// fetch, fetching them in batches and driving one sync run per folder while
// reporting lifecycle events to a listener.
package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/models"
)

// SyncPlanner decides which remote messages a folder is missing.
type SyncPlanner interface {
	// BuildPlan compares the remote IDs (in server order) with the IDs
	// already stored locally. It performs no I/O; ctx is only consulted for
	// cancellation. A batchSize of zero or less selects [DefaultMaxBatch].
	BuildPlan(ctx context.Context, remote []string, local map[string]struct{}, batchSize int) (models.SyncPlan, error)
}

// BatchFetcher executes a plan against the remote server.
type BatchFetcher interface {
	// FetchAll requests metadata one batch at a time in planning order,
	// downloads every body of the batch and persists it into folder. emit
	// receives one Progress event per persisted message. The first failure
	// aborts the remaining batches.
	FetchAll(ctx context.Context, folder store.FolderHandle, plan models.SyncPlan, emit func(models.SyncEvent)) error
}

// SyncListener receives the lifecycle events of a sync run. OnEvent is
// called synchronously in emission order, possibly from download goroutines.
type SyncListener interface {
	OnEvent(event models.SyncEvent)
}

// MailSyncService synchronizes remote folders into local storage.
type MailSyncService interface {
	// Sync runs one sync of folderID. It has no result: the outcome is the
	// terminal event (Finished or Failed) delivered to listener.
	Sync(ctx context.Context, folderID string, listener SyncListener)

	// SyncStream runs Sync in the background and delivers its events on the
	// returned channel, which is closed after the terminal event. A reader
	// that stops early must cancel ctx to release the run.
	SyncStream(ctx context.Context, folderID string) <-chan models.SyncEvent

	// SyncAll syncs every distinct folder in parallel and returns an error
	// naming each folder whose run failed.
	SyncAll(ctx context.Context, folders []string, listener SyncListener) error
}

// SyncJob defines a background job that periodically syncs a set of
// folders. Runs never overlap.
type SyncJob interface {
	// Start launches the periodic job. A previously started job is stopped
	// first. Non-positive interval falls back to a default.
	Start(ctx context.Context, folders []string, interval time.Duration)

	// Stop cancels the job and waits for the in-flight run to return.
	Stop()
}
