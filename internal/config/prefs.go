// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for atomchat.
package config

import (
	"sync"

	"github.com/averill/atomchat/internal/secret"
	"github.com/averill/atomchat/internal/storage"
)

// =============================================================================
// RUNTIME PREFERENCES
// =============================================================================

// Prefs exposes typed access to the runtime-mutable preferences in the
// key-value store. The orchestrator reads one Snapshot per send instead of
// scattering store reads, so a request sees a consistent view.
type Prefs struct {
	store *storage.Store

	mu sync.RWMutex

	// keyPassphrase, when non-empty, seals the API key at rest.
	keyPassphrase string

	// File defaults used when the store has no value yet.
	defaults *Config
}

// NewPrefs builds a Prefs over the store with file-config defaults.
func NewPrefs(store *storage.Store, cfg *Config) *Prefs {
	return &Prefs{
		store:         store,
		keyPassphrase: cfg.API.KeyPassphrase,
		defaults:      cfg,
	}
}

// Snapshot is one consistent read of everything sendMessage needs.
type Snapshot struct {
	APIKey         string
	APIURL         string
	Model          string
	SystemPrompt   string
	Temperature    float64
	ResponseLength float64
}

// Snapshot reads the current preferences, falling back to file-config
// defaults and then hardcoded defaults for anything missing or corrupt.
func (p *Prefs) Snapshot() Snapshot {
	p.mu.RLock()
	defaults := p.defaults
	p.mu.RUnlock()

	return Snapshot{
		APIKey:         p.APIKey(),
		APIURL:         p.store.GetString(storage.KeyAPIURL, defaults.API.URL),
		Model:          p.store.GetString(storage.KeyModel, defaults.API.Model),
		SystemPrompt:   p.store.GetString(storage.KeySystemPrompt, defaults.Generation.SystemPrompt),
		Temperature:    p.store.GetFloat(storage.KeyTemperature, defaults.Generation.Temperature),
		ResponseLength: p.store.GetFloat(storage.KeyResponseLength, defaults.Generation.ResponseLength),
	}
}

// SetDefaults swaps the file-config defaults, used when the config file
// changes on disk. Stored preference overrides keep winning; only the
// fallbacks move.
func (p *Prefs) SetDefaults(cfg *Config) {
	p.mu.Lock()
	p.keyPassphrase = cfg.API.KeyPassphrase
	p.defaults = cfg
	p.mu.Unlock()
}

// APIKey returns the stored API key, opened if it was sealed. A key that
// cannot be opened is treated as absent rather than surfaced: the
// orchestrator's no-credential path gives the user an actionable message.
func (p *Prefs) APIKey() string {
	raw := p.store.GetString(storage.KeyAPIKey, "")
	if raw == "" {
		return ""
	}
	p.mu.RLock()
	passphrase := p.keyPassphrase
	p.mu.RUnlock()
	opened, err := secret.Open(raw, passphrase)
	if err != nil {
		return ""
	}
	return opened
}

// SetAPIKey stores the API key, sealing it when a passphrase is
// configured.
func (p *Prefs) SetAPIKey(key string) error {
	if key == "" {
		return p.store.Delete(storage.KeyAPIKey)
	}
	p.mu.RLock()
	passphrase := p.keyPassphrase
	p.mu.RUnlock()
	if passphrase != "" {
		sealed, err := secret.Seal(key, passphrase)
		if err != nil {
			return err
		}
		return p.store.Put(storage.KeyAPIKey, sealed)
	}
	return p.store.Put(storage.KeyAPIKey, key)
}

// SetAPIURL stores the completion endpoint URL.
func (p *Prefs) SetAPIURL(url string) error {
	return p.store.Put(storage.KeyAPIURL, url)
}

// SetModel stores the model id.
func (p *Prefs) SetModel(model string) error {
	return p.store.Put(storage.KeyModel, model)
}

// SetSystemPrompt stores the system prompt.
func (p *Prefs) SetSystemPrompt(prompt string) error {
	return p.store.Put(storage.KeySystemPrompt, prompt)
}

// SetTemperature stores the sampling temperature.
func (p *Prefs) SetTemperature(t float64) error {
	return p.store.PutFloat(storage.KeyTemperature, t)
}

// SetResponseLength stores the response length preference (0..1).
func (p *Prefs) SetResponseLength(l float64) error {
	return p.store.PutFloat(storage.KeyResponseLength, l)
}

// AtomEnabled reports whether an atom feature toggle is on. Atoms default
// to enabled.
func (p *Prefs) AtomEnabled(atom string) bool {
	return p.store.GetBool(storage.KeyAtomEnabledPrefix+atom, true)
}

// SetAtomEnabled stores an atom feature toggle.
func (p *Prefs) SetAtomEnabled(atom string, enabled bool) error {
	return p.store.PutBool(storage.KeyAtomEnabledPrefix+atom, enabled)
}
