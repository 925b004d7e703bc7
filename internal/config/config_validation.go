// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// validate checks that the merged [StructuredConfig] is internally
// consistent. Completeness is checked on the [ClientConfig] view, where
// defaults have been applied.
func (cfg *StructuredConfig) validate() error {
	if cfg.Sync.MaxBatch < 0 || cfg.Sync.DownloadConcurrency < 0 {
		return ErrInvalidSyncConfigs
	}
	if cfg.Adapter.RequestTimeout < 0 {
		return ErrInvalidAdapterConfigs
	}
	if cfg.Workers.SyncInterval < 0 {
		return ErrInvalidWorkerConfigs
	}
	return nil
}

func (cfg *ClientConfig) validate() error {
	if err := cfg.Adapter.validate(); err != nil {
		return err
	}

	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}
	if cfg.Storage.Files.BodyDir == "" {
		return ErrInvalidStorageConfigs
	}

	if err := cfg.Sync.validate(); err != nil {
		return err
	}

	if cfg.Workers.SyncInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}

func (a ClientAdapter) validate() error {
	if a.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalidAdapterConfigs)
	}

	switch a.Protocol {
	case ProtocolJMAP:
		u, err := url.Parse(a.SessionURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: session url must include scheme and host", ErrInvalidAdapterConfigs)
		}
		if a.Token == "" && a.Username == "" {
			return fmt.Errorf("%w: token or username required", ErrInvalidAdapterConfigs)
		}
	case ProtocolIMAP:
		if _, _, err := net.SplitHostPort(a.IMAPAddress); err != nil {
			return fmt.Errorf("%w: imap address: %w", ErrInvalidAdapterConfigs, err)
		}
		if a.Username == "" || a.Password == "" {
			return fmt.Errorf("%w: username and password required", ErrInvalidAdapterConfigs)
		}
	default:
		return fmt.Errorf("%w: unknown protocol %q", ErrInvalidAdapterConfigs, a.Protocol)
	}

	return nil
}

func (s ClientSync) validate() error {
	if len(s.Folders) == 0 {
		return fmt.Errorf("%w: no folders", ErrInvalidSyncConfigs)
	}

	seen := make(map[string]struct{}, len(s.Folders))
	for _, folder := range s.Folders {
		if folder == "" {
			return fmt.Errorf("%w: empty folder id", ErrInvalidSyncConfigs)
		}
		if _, dup := seen[folder]; dup {
			return fmt.Errorf("%w: folder %q listed twice", ErrInvalidSyncConfigs, folder)
		}
		seen[folder] = struct{}{}
	}

	if s.MaxBatch < 0 || s.DownloadConcurrency <= 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}
