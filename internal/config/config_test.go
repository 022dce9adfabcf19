// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/averill/atomchat/internal/storage"
)

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	require.Equal(t, 0.7, cfg.Generation.Temperature)
	require.Equal(t, 0.5, cfg.Generation.ResponseLength)
	require.Equal(t, "auto", cfg.UI.Theme)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
url = "https://api.example.com/v1beta/models/orion-pro:generate"
model = "orion-mini"

[generation]
temperature = 1.1
response_length = 0.8

[ui]
theme = "dark"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com/v1beta/models/orion-pro:generate", cfg.API.URL)
	require.Equal(t, "orion-mini", cfg.API.Model)
	require.Equal(t, 1.1, cfg.Generation.Temperature)
	require.Equal(t, 0.8, cfg.Generation.ResponseLength)
	require.Equal(t, "dark", cfg.UI.Theme)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"temperature too high", func(c *Config) { c.Generation.Temperature = 2.5 }},
		{"negative response length", func(c *Config) { c.Generation.ResponseLength = -0.1 }},
		{"bad theme", func(c *Config) { c.UI.Theme = "solarized" }},
		{"relative api url", func(c *Config) { c.API.URL = "/just/a/path" }},
		{"too many search results", func(c *Config) { c.Search.MaxResults = 50 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ATOMCHAT_API_URL", "https://env.example.com/v1")
	t.Setenv("ATOMCHAT_TEMPERATURE", "0.3")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	require.Equal(t, "https://env.example.com/v1", cfg.API.URL)
	require.Equal(t, 0.3, cfg.Generation.Temperature)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.API.Model = "orion-pro"
	cfg.UI.Theme = "light"
	require.NoError(t, SaveToPath(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "orion-pro", loaded.API.Model)
	require.Equal(t, "light", loaded.UI.Theme)
}

// =============================================================================
// PREFS TESTS
// =============================================================================

func openPrefs(t *testing.T, cfg *Config) *Prefs {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewPrefs(store, cfg)
}

func TestSnapshotDefaults(t *testing.T) {
	cfg := Default()
	cfg.API.URL = "https://api.example.com/v1"
	p := openPrefs(t, cfg)

	snap := p.Snapshot()
	require.Equal(t, "", snap.APIKey)
	require.Equal(t, "https://api.example.com/v1", snap.APIURL)
	require.Equal(t, 0.7, snap.Temperature)
	require.Equal(t, 0.5, snap.ResponseLength)
}

func TestSnapshotStoredValuesWin(t *testing.T) {
	p := openPrefs(t, Default())

	require.NoError(t, p.SetAPIKey("sk-test"))
	require.NoError(t, p.SetModel("orion-mini"))
	require.NoError(t, p.SetTemperature(1.4))
	require.NoError(t, p.SetResponseLength(1.0))

	snap := p.Snapshot()
	require.Equal(t, "sk-test", snap.APIKey)
	require.Equal(t, "orion-mini", snap.Model)
	require.Equal(t, 1.4, snap.Temperature)
	require.Equal(t, 1.0, snap.ResponseLength)
}

func TestAPIKeySealedAtRest(t *testing.T) {
	cfg := Default()
	cfg.API.KeyPassphrase = "local-secret"
	store, err := storage.Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	p := NewPrefs(store, cfg)

	require.NoError(t, p.SetAPIKey("sk-live-secret"))

	// Raw stored value must not contain the plaintext key.
	raw, err := store.Get(storage.KeyAPIKey)
	require.NoError(t, err)
	require.NotContains(t, raw, "sk-live-secret")

	// But the typed read opens it.
	require.Equal(t, "sk-live-secret", p.APIKey())
}

func TestAtomToggles(t *testing.T) {
	p := openPrefs(t, Default())

	require.True(t, p.AtomEnabled("youtube"), "atoms default to enabled")
	require.NoError(t, p.SetAtomEnabled("youtube", false))
	require.False(t, p.AtomEnabled("youtube"))
}
