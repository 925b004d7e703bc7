// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is an optional namespace for every variable. MAILSYNC_SYNC_FOLDERS
// is read as SYNC_FOLDERS and wins over an unprefixed SYNC_FOLDERS.
const EnvPrefix = "MAILSYNC_"

// parseEnv populates cfg from the process environment using caarlos0/env.
// Struct fields are mapped via their `env` and `envPrefix` tags defined on
// [StructuredConfig] and its nested types.
func parseEnv(cfg any) error {
	return parseEnvFrom(cfg, os.Environ())
}

// parseEnvFrom is parseEnv over an explicit "KEY=value" list.
func parseEnvFrom(cfg any, environ []string) error {
	vars := make(map[string]string, len(environ))
	prefixed := make(map[string]string)
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if name, found := strings.CutPrefix(k, EnvPrefix); found {
			prefixed[name] = v
			continue
		}
		vars[k] = v
	}
	for k, v := range prefixed {
		vars[k] = v
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	return nil
}
