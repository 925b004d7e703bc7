package config

import (
	"fmt"
	"time"
)

// Transport protocols accepted in [Adapter.Protocol].
const (
	ProtocolJMAP = "jmap"
	ProtocolIMAP = "imap"
)

// Defaults applied by [GetClientConfig] to unset fields.
const (
	DefaultRequestTimeout      = 30 * time.Second
	DefaultSyncInterval        = 5 * time.Minute
	DefaultDownloadConcurrency = 4
	DefaultBodyDir             = "bodies"
)

// ClientApp holds application settings derived from the shared structured
// config.
type ClientApp struct {
	// Version is the application version reported in logs.
	Version string
	// LogFile is the log destination; empty means stdout.
	LogFile string
}

// ClientAdapter holds the remote mail server settings used by the transport.
type ClientAdapter struct {
	// Protocol is [ProtocolJMAP] or [ProtocolIMAP].
	Protocol string
	// SessionURL is the JMAP session resource URL.
	SessionURL string
	// IMAPAddress is the IMAP server "host:port".
	IMAPAddress string
	// TLS enables implicit TLS for IMAP.
	TLS bool
	// Username and Password are the account credentials.
	Username string
	Password string
	// Token is a JMAP bearer token.
	Token string
	// RequestTimeout is the default timeout for outbound requests.
	RequestTimeout time.Duration
}

// ClientDB contains local database connection settings.
type ClientDB struct {
	// DSN is the SQLite/PostgreSQL connection string.
	DSN string
}

// ClientFiles contains the body store location.
type ClientFiles struct {
	// BodyDir is the root directory of the message body store.
	BodyDir string
}

// ClientStorage groups storage backend settings.
type ClientStorage struct {
	// DB holds local database settings.
	DB ClientDB
	// Files holds body store settings.
	Files ClientFiles
}

// ClientSync contains the settings of each sync run.
type ClientSync struct {
	Folders             []string
	MaxBatch            int
	DownloadConcurrency int
	PruneStale          bool
}

// ClientWorkers contains background worker settings.
type ClientWorkers struct {
	// SyncInterval defines how often the sync job runs.
	SyncInterval time.Duration
}

// ClientConfig is the top-level runtime configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// App contains application-level settings.
	App ClientApp
	// Adapter contains transport addresses, credentials and timeouts.
	Adapter ClientAdapter
	// Storage contains local storage settings.
	Storage ClientStorage
	// Sync contains folder selection and batching settings.
	Sync ClientSync
	// Workers contains background job settings.
	Workers ClientWorkers
}

// GetClientConfig builds and validates the runtime config view from the
// merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps the fields relevant
// to the sync runtime, fills defaults and validates the resulting
// [ClientConfig].
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := newClientConfig(cfg)
	return clientCfg, clientCfg.validate()
}

func newClientConfig(cfg *StructuredConfig) *ClientConfig {
	clientCfg := &ClientConfig{
		App: ClientApp{
			Version: cfg.App.Version,
			LogFile: cfg.App.LogFile,
		},
		Adapter: ClientAdapter{
			Protocol:       cfg.Adapter.Protocol,
			SessionURL:     cfg.Adapter.SessionURL,
			IMAPAddress:    cfg.Adapter.IMAPAddress,
			TLS:            cfg.Adapter.TLS,
			Username:       cfg.Adapter.Username,
			Password:       cfg.Adapter.Password,
			Token:          cfg.Adapter.Token,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			DB:    ClientDB{DSN: cfg.Storage.DB.DSN},
			Files: ClientFiles{BodyDir: cfg.Storage.Files.BodyDir},
		},
		Sync: ClientSync{
			Folders:             append([]string(nil), cfg.Sync.Folders...),
			MaxBatch:            cfg.Sync.MaxBatch,
			DownloadConcurrency: cfg.Sync.DownloadConcurrency,
			PruneStale:          cfg.Sync.PruneStale,
		},
		Workers: ClientWorkers{SyncInterval: cfg.Workers.SyncInterval},
	}

	if clientCfg.Adapter.Protocol == "" {
		clientCfg.Adapter.Protocol = ProtocolJMAP
	}
	if clientCfg.Adapter.RequestTimeout == 0 {
		clientCfg.Adapter.RequestTimeout = DefaultRequestTimeout
	}
	if clientCfg.Storage.Files.BodyDir == "" {
		clientCfg.Storage.Files.BodyDir = DefaultBodyDir
	}
	if clientCfg.Sync.DownloadConcurrency == 0 {
		clientCfg.Sync.DownloadConcurrency = DefaultDownloadConcurrency
	}
	if clientCfg.Workers.SyncInterval == 0 {
		clientCfg.Workers.SyncInterval = DefaultSyncInterval
	}

	return clientCfg
}
