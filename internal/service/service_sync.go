package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/adapter"
	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/internal/utils"
	"github.com/MKhiriev/go-mail-sync/internal/workers"
	"github.com/MKhiriev/go-mail-sync/models"
)

// streamBuffer is the channel capacity of SyncStream.
const streamBuffer = 64

// mailSyncService drives sync runs: session, remote and local IDs, plan,
// fetch, optional pruning and bookkeeping. Each run reports through a
// listener and never returns an error to its caller.
type mailSyncService struct {
	transport adapter.MailTransport
	storage   store.MailStorage
	planner   SyncPlanner
	fetcher   BatchFetcher
	runIDs    *utils.RunIDGenerator
	cfg       config.ClientSync
	logger    *logger.Logger

	// now is replaced in tests.
	now func() time.Time
}

// NewMailSyncService constructs a MailSyncService. cfg.MaxBatch, when set,
// caps the batch size advertised by the server; cfg.PruneStale enables
// removal of local messages the server no longer has.
func NewMailSyncService(
	transport adapter.MailTransport,
	storage store.MailStorage,
	planner SyncPlanner,
	fetcher BatchFetcher,
	cfg config.ClientSync,
	logger *logger.Logger,
) MailSyncService {
	return &mailSyncService{
		transport: transport,
		storage:   storage,
		planner:   planner,
		fetcher:   fetcher,
		runIDs:    utils.NewRunIDGenerator(),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Sync implements MailSyncService.
//
// Started is always emitted first. Exactly one of Finished or Failed
// follows; events that would come after it are dropped. A cancelled run
// fails with the context error.
func (s *mailSyncService) Sync(ctx context.Context, folderID string, listener SyncListener) {
	runID := s.runIDs.NewRunID()
	log := s.logger.WithRun(runID, folderID)
	ctx = log.WithContext(utils.WithRunID(ctx, runID))

	em := newEmitter(listener)
	em.emit(models.StartedEvent(folderID))

	started := s.now()
	if err := s.run(ctx, folderID, em); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		log.Err(err).
			Str("func", "mailSyncService.Sync").
			Dur("elapsed", s.now().Sub(started)).
			Msg("sync failed")
		em.emit(models.FailedEvent(folderID, err))
		return
	}

	log.Info().
		Str("func", "mailSyncService.Sync").
		Dur("elapsed", s.now().Sub(started)).
		Msg("sync finished")
	em.emit(models.FinishedEvent(folderID))
}

func (s *mailSyncService) run(ctx context.Context, folderID string, em *emitter) error {
	if strings.TrimSpace(folderID) == "" {
		return ErrInvalidFolder
	}

	session, err := s.transport.FetchSession(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetchingSession, err)
	}

	folder, err := s.storage.Folder(ctx, folderID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpeningFolder, err)
	}

	remote, err := s.transport.QueryIDs(ctx, folderID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrQueryingIDs, err)
	}

	local, err := folder.MessageServerIDs(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadingLocalIDs, err)
	}

	plan, err := s.planner.BuildPlan(ctx, remote, local, s.batchSize(session))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingPlan, err)
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("func", "mailSyncService.run").
		Int("remote", len(remote)).
		Int("local", len(local)).
		Int("to_fetch", len(plan.ToFetch)).
		Int("stale", len(plan.Stale)).
		Int("batch_size", plan.BatchSize).
		Msg("sync plan built")

	if err = s.fetcher.FetchAll(ctx, folder, plan, em.emit); err != nil {
		return err
	}

	if s.cfg.PruneStale && len(plan.Stale) > 0 {
		if err = folder.DeleteMessages(ctx, plan.Stale...); err != nil {
			return fmt.Errorf("%w: %w", ErrPruningStale, err)
		}
		log.Info().
			Str("func", "mailSyncService.run").
			Int("pruned", len(plan.Stale)).
			Msg("stale messages removed")
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	if err = folder.MarkSynced(ctx, s.now()); err != nil {
		return fmt.Errorf("%w: %w", ErrMarkingSynced, err)
	}

	return nil
}

// batchSize is the server-advertised limit, or DefaultMaxBatch when none is
// advertised, capped by the configured maximum.
func (s *mailSyncService) batchSize(session models.Session) int {
	size := session.MaxBatch
	if size <= 0 {
		size = DefaultMaxBatch
	}
	if s.cfg.MaxBatch > 0 && s.cfg.MaxBatch < size {
		size = s.cfg.MaxBatch
	}
	return size
}

// SyncStream implements MailSyncService. Once ctx is done, non-terminal
// events are dropped instead of waiting for the reader, and the terminal
// event is queued without blocking, so an abandoned stream does not pin the
// run's goroutine.
func (s *mailSyncService) SyncStream(ctx context.Context, folderID string) <-chan models.SyncEvent {
	events := make(chan models.SyncEvent, streamBuffer)

	go func() {
		defer close(events)
		s.Sync(ctx, folderID, SyncListenerFunc(func(event models.SyncEvent) {
			select {
			case events <- event:
				return
			case <-ctx.Done():
			}
			if event.IsTerminal() {
				queueTerminal(events, event)
			}
		}))
	}()

	return events
}

// queueTerminal puts event into events without blocking, evicting the oldest
// buffered event while the buffer is full. Only the channel's sole sender
// may call it.
func queueTerminal(events chan models.SyncEvent, event models.SyncEvent) {
	for {
		select {
		case events <- event:
			return
		default:
		}
		select {
		case <-events:
		default:
		}
	}
}

// SyncAll implements MailSyncService. Folders are deduplicated, so a folder
// is synced at most once per call.
func (s *mailSyncService) SyncAll(ctx context.Context, folders []string, listener SyncListener) error {
	unique := dedupeFolders(folders)
	if len(unique) == 0 {
		return ErrNoFolders
	}

	ws := workers.NewWorkers(len(unique))
	for _, folderID := range unique {
		ws.Add(workers.WorkerFunc(func(ctx context.Context) error {
			var failure error
			s.Sync(ctx, folderID, MultiListener(listener, SyncListenerFunc(func(event models.SyncEvent) {
				if event.Kind == models.EventFailed {
					failure = event.Err
				}
			})))
			if failure != nil {
				return fmt.Errorf("%w: %s: %w", ErrFolderSyncFailed, folderID, failure)
			}
			return nil
		}))
	}

	return ws.Run(ctx)
}

func dedupeFolders(folders []string) []string {
	unique := make([]string, 0, len(folders))
	for _, f := range folders {
		f = strings.TrimSpace(f)
		if f == "" || slices.Contains(unique, f) {
			continue
		}
		unique = append(unique, f)
	}
	return unique
}

// emitter forwards events to a listener until the first terminal event.
type emitter struct {
	mu         sync.Mutex
	listener   SyncListener
	terminated bool
}

func newEmitter(listener SyncListener) *emitter {
	if listener == nil {
		listener = SyncListenerFunc(func(models.SyncEvent) {})
	}
	return &emitter{listener: listener}
}

func (e *emitter) emit(event models.SyncEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.terminated {
		return
	}
	e.terminated = event.IsTerminal()
	e.listener.OnEvent(event)
}
