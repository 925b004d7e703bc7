package config

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func writeTempJSONConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

// ── newConfigBuilder ──────────────────────────────────────────────────────────

// TestNewConfigBuilder_InitialState verifies that a freshly created builder
// has no error and an empty configs slice.
func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// ── build ─────────────────────────────────────────────────────────────────────

// TestBuild_EmptyBuilder verifies that building with no configs returns a
// zero-value StructuredConfig.
func TestBuild_EmptyBuilder(t *testing.T) {
	cfg, err := newConfigBuilder().build()
	require.NoError(t, err)
	assert.Equal(t, &StructuredConfig{}, cfg)
}

// TestBuild_PropagatesBuilderError verifies that a pre-set b.err is wrapped
// and returned, with nil config.
func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// TestBuild_MergesMultipleConfigs verifies that fields from multiple configs
// are merged into a single result.
func TestBuild_MergesMultipleConfigs(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{App: App{Version: "1.0.0"}},
		&StructuredConfig{Adapter: Adapter{Protocol: ProtocolIMAP}},
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", cfg.App.Version)
	assert.Equal(t, ProtocolIMAP, cfg.Adapter.Protocol)
}

// TestBuild_LaterSourceOverrides verifies that non-zero fields of a later
// source win over earlier ones, while zero fields leave them untouched.
func TestBuild_LaterSourceOverrides(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{
			Storage: Storage{DB: DB{DSN: "env.db"}},
			Sync:    Sync{Folders: []string{"INBOX"}, MaxBatch: 10},
		},
		&StructuredConfig{
			Storage: Storage{DB: DB{DSN: "flag.db"}},
		},
		&StructuredConfig{
			Sync: Sync{Folders: []string{"Archive", "Sent"}},
		},
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "flag.db", cfg.Storage.DB.DSN)
	assert.Equal(t, []string{"Archive", "Sent"}, cfg.Sync.Folders)
	assert.Equal(t, 10, cfg.Sync.MaxBatch)
}

// TestBuild_ValidatesResult verifies that an inconsistent merge result is
// rejected.
func TestBuild_ValidatesResult(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{Sync: Sync{MaxBatch: -1}})

	_, err := b.build()
	assert.ErrorIs(t, err, ErrInvalidSyncConfigs)
}

// ── withFlagArgs ──────────────────────────────────────────────────────────────

func TestWithFlagArgs_AppendsConfig(t *testing.T) {
	b := newConfigBuilder().withFlagArgs([]string{"-d", "flags.db"})

	require.NoError(t, b.err)
	require.Len(t, b.configs, 1)
	assert.Equal(t, "flags.db", b.configs[0].Storage.DB.DSN)
}

func TestWithFlagArgs_UnknownFlag(t *testing.T) {
	b := newConfigBuilder().withFlagArgs([]string{"-no-such-flag"})

	assert.Error(t, b.err)
	assert.Empty(t, b.configs)
}

// ── withJSON ──────────────────────────────────────────────────────────────────

// TestWithJSON_NotSpecified verifies that no config is added when no source
// names a JSON file.
func TestWithJSON_NotSpecified(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{})

	b.withJSON()

	assert.NoError(t, b.err)
	assert.Len(t, b.configs, 1)
}

// TestWithJSON_LoadsFile verifies that the JSON file named by a previous
// source is parsed and merged last.
func TestWithJSON_LoadsFile(t *testing.T) {
	path := writeTempJSONConfig(t, map[string]any{
		"storage": map[string]any{"db": map[string]any{"dsn": "json.db"}},
		"workers": map[string]any{"sync_interval": "10m"},
	})

	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{
		Storage:      Storage{DB: DB{DSN: "flag.db"}},
		JSONFilePath: path,
	})

	cfg, err := b.withJSON().build()
	require.NoError(t, err)
	assert.Equal(t, "json.db", cfg.Storage.DB.DSN)
	assert.Equal(t, 10*time.Minute, cfg.Workers.SyncInterval)
}

// TestWithJSON_MissingFile verifies that an unreadable JSON file is recorded
// as a builder error.
func TestWithJSON_MissingFile(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: "/nonexistent/config.json"})

	b.withJSON()

	assert.Error(t, b.err)
	_, err := b.build()
	assert.Error(t, err)
}

// TestBuilder_FullChain verifies env → flags → json precedence end to end.
func TestBuilder_FullChain(t *testing.T) {
	path := writeTempJSONConfig(t, map[string]any{
		"sync": map[string]any{"max_batch": 25},
	})

	t.Setenv("STORAGE_DB_DATABASE_URI", "env.db")
	t.Setenv("SYNC_MAX_BATCH", "5")
	t.Setenv("ADAPTER_PROTOCOL", "jmap")

	cfg, err := newConfigBuilder().
		withEnv().
		withFlagArgs([]string{"-d", "flag.db", "-c", path}).
		withJSON().
		build()

	require.NoError(t, err)
	assert.Equal(t, "flag.db", cfg.Storage.DB.DSN)
	assert.Equal(t, 25, cfg.Sync.MaxBatch)
	assert.Equal(t, ProtocolJMAP, cfg.Adapter.Protocol)
}
