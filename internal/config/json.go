package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON tags and
// string-encoded durations.
type StructuredJSONConfig struct {
	App struct {
		Version string `json:"version"`
		LogFile string `json:"log_file"`
	} `json:"app,omitempty"`

	Adapter struct {
		Protocol       string   `json:"protocol"`
		SessionURL     string   `json:"session_url"`
		IMAPAddress    string   `json:"imap_address"`
		TLS            bool     `json:"tls"`
		Username       string   `json:"username"`
		Password       string   `json:"password"`
		Token          string   `json:"token"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`

		Files struct {
			BodyDir string `json:"body_dir"`
		} `json:"files,omitempty"`
	} `json:"storage,omitempty"`

	Sync struct {
		Folders             []string `json:"folders"`
		MaxBatch            int      `json:"max_batch"`
		DownloadConcurrency int      `json:"download_concurrency"`
		PruneStale          bool     `json:"prune_stale"`
	} `json:"sync,omitempty"`

	Workers struct {
		SyncInterval Duration `json:"sync_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			Version: jsonCfg.App.Version,
			LogFile: jsonCfg.App.LogFile,
		},
		Adapter: Adapter{
			Protocol:       jsonCfg.Adapter.Protocol,
			SessionURL:     jsonCfg.Adapter.SessionURL,
			IMAPAddress:    jsonCfg.Adapter.IMAPAddress,
			TLS:            jsonCfg.Adapter.TLS,
			Username:       jsonCfg.Adapter.Username,
			Password:       jsonCfg.Adapter.Password,
			Token:          jsonCfg.Adapter.Token,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			Files: Files{
				BodyDir: jsonCfg.Storage.Files.BodyDir,
			},
		},
		Sync: Sync{
			Folders:             jsonCfg.Sync.Folders,
			MaxBatch:            jsonCfg.Sync.MaxBatch,
			DownloadConcurrency: jsonCfg.Sync.DownloadConcurrency,
			PruneStale:          jsonCfg.Sync.PruneStale,
		},
		Workers: Workers{
			SyncInterval: time.Duration(jsonCfg.Workers.SyncInterval),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
