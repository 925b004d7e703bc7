package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-mail-sync/internal/adapter"
	"github.com/MKhiriev/go-mail-sync/internal/client"
	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/service"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	fmt.Print(buildInfo)

	cfg, err := config.GetClientConfig()
	if err != nil {
		logger.NewLogger("mailsync").Fatal().Err(err).Msg("error getting configs")
	}

	log := logger.NewLogger("mailsync")
	if cfg.App.LogFile != "" {
		log = logger.NewFileLogger("mailsync", cfg.App.LogFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	transport, err := adapter.NewMailTransport(cfg.Adapter, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create mail transport")
	}

	storages, err := store.NewStorages(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}

	services := service.NewServices(transport, storages, cfg.Sync, log)

	app, err := client.NewApp(services, cfg, buildInfo, log, transport, storages)
	if err != nil {
		log.Fatal().Err(err).Msg("init mail sync app error")
	}

	if err = app.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("mail sync run error")
	}
}
