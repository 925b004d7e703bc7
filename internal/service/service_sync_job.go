package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/logger"
)

// DefaultSyncInterval is the job period used for non-positive intervals.
const DefaultSyncInterval = 5 * time.Minute

type syncJob struct {
	syncService MailSyncService
	listener    SyncListener
	logger      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob creates a syncJob that calls syncService.SyncAll on a ticker.
// The job is idle until Start is called.
func NewSyncJob(syncService MailSyncService, listener SyncListener, logger *logger.Logger) SyncJob {
	return &syncJob{
		syncService: syncService,
		listener:    listener,
		logger:      logger,
	}
}

// Start implements SyncJob. It stops any previously running job, then
// launches a background goroutine that calls SyncAll every interval. Ticks
// arriving while a run is in flight are dropped by the ticker, so runs never
// overlap. The goroutine exits when ctx is cancelled or Stop is called.
func (j *syncJob) Start(ctx context.Context, folders []string, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	folders = append([]string(nil), folders...)

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				if err := j.syncService.SyncAll(jobCtx, folders, j.listener); err != nil {
					j.logger.Err(err).
						Str("func", "syncJob.Start").
						Strs("folders", folders).
						Msg("periodic sync finished with failures")
				}
			}
		}
	}()
}

// Stop implements SyncJob. It cancels the background goroutine's context and
// blocks until the goroutine has fully exited. Safe to call when the job is not
// running (no-op in that case).
func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
