package service

import (
	"github.com/MKhiriev/go-mail-sync/internal/adapter"
	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/store"
)

type Services struct {
	SyncService MailSyncService
	SyncJob     SyncJob
}

func NewServices(transport adapter.MailTransport, storages *store.Storages, cfg config.ClientSync, logger *logger.Logger) *Services {
	syncService := NewMailSyncService(
		transport,
		storages.MailStorage,
		NewSyncPlanner(),
		NewBatchFetcher(transport, cfg.DownloadConcurrency, logger),
		cfg,
		logger,
	)

	return &Services{
		SyncService: syncService,
		SyncJob:     NewSyncJob(syncService, NewLoggingListener(logger), logger),
	}
}
