package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/service"
	"github.com/MKhiriev/go-mail-sync/models"
)

// App runs one sync of the configured folders right away, then keeps them
// in sync periodically until its context is cancelled.
type App struct {
	syncService service.MailSyncService
	syncJob     service.SyncJob
	listener    service.SyncListener

	// closers are closed in reverse order on shutdown.
	closers []io.Closer

	folders   []string
	cfg       config.ClientWorkers
	buildInfo models.AppBuildInfo
	logger    *logger.Logger
}

// NewApp constructs an App. closers are the resources released when Run
// returns, typically the transport and the storages.
func NewApp(
	services *service.Services,
	cfg *config.ClientConfig,
	buildInfo models.AppBuildInfo,
	logger *logger.Logger,
	closers ...io.Closer,
) (*App, error) {
	if services == nil || services.SyncService == nil || services.SyncJob == nil {
		return nil, ErrNoServices
	}
	if cfg == nil {
		return nil, ErrNoConfig
	}
	if len(cfg.Sync.Folders) == 0 {
		return nil, ErrNoFolders
	}

	return &App{
		syncService: services.SyncService,
		syncJob:     services.SyncJob,
		listener:    service.NewLoggingListener(logger),
		closers:     closers,
		folders:     append([]string(nil), cfg.Sync.Folders...),
		cfg:         cfg.Workers,
		buildInfo:   buildInfo,
		logger:      logger,
	}, nil
}

// Run implements Client.
//
// A failed initial sync is logged and does not stop the app: the next
// periodic run retries it.
func (a *App) Run(ctx context.Context) (err error) {
	defer func() {
		err = errors.Join(err, a.close())
	}()

	a.logger.Info().
		Str("func", "App.Run").
		Str("version", a.buildInfo.BuildVersion()).
		Str("commit", a.buildInfo.BuildCommit()).
		Strs("folders", a.folders).
		Dur("interval", a.cfg.SyncInterval).
		Msg("mail sync started")

	if syncErr := a.syncService.SyncAll(ctx, a.folders, a.listener); syncErr != nil {
		a.logger.Err(syncErr).
			Str("func", "App.Run").
			Msg("initial sync finished with failures")
	}

	a.syncJob.Start(ctx, a.folders, a.cfg.SyncInterval)
	defer a.syncJob.Stop()

	<-ctx.Done()

	a.logger.Info().
		Str("func", "App.Run").
		Msg("shutting down")
	return nil
}

func (a *App) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrClosingResource, err))
		}
	}
	return errors.Join(errs...)
}
