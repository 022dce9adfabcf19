// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local key-value persistence layer.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// PERSISTED KEYS
// =============================================================================

// Fixed key names. These must remain stable across releases: values written
// under them survive reloads and upgrades.
const (
	KeyAPIKey         = "api-key"
	KeyAPIURL         = "api-url"
	KeyModel          = "model"
	KeyConversations  = "conversations"
	KeyCurrentConv    = "current-conversation"
	KeyTemperature    = "app-temperature"
	KeyResponseLength = "app-response-length"
	KeySystemPrompt   = "app-system-prompt"
	KeyTheme          = "app-theme"
	KeyFontScale      = "app-font-scale"

	// Per-atom feature toggles are stored under this prefix plus the
	// atom type, e.g. "atom-enabled:youtube".
	KeyAtomEnabledPrefix = "atom-enabled:"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned when a key has no stored value.
// Use errors.Is(err, ErrNotFound) to check for it.
var ErrNotFound = &StoreError{Message: "key not found"}

// StoreError represents a persistence error.
type StoreError struct {
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// KV STORE
// =============================================================================

// Store is a SQLite-backed key-value store. Writes are synchronous
// (write-through): when Put returns, the value is durable.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if necessary) the store at the given path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenDefault opens the store at ~/.atomchat/atomchat.db.
func OpenDefault() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(homeDir, ".atomchat", "atomchat.db"))
}

// initSchema creates the kv table if it does not exist.
func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// RAW ACCESS
// =============================================================================

// Get returns the stored value for key, or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// =============================================================================
// BEST-EFFORT TYPED GETTERS
// =============================================================================
//
// Load is best-effort by contract: a missing or corrupt stored value falls
// back to the supplied default without raising to the caller.

// GetString returns the stored string or def.
func (s *Store) GetString(key, def string) string {
	value, err := s.Get(key)
	if err != nil {
		return def
	}
	return value
}

// GetFloat returns the stored float or def.
func (s *Store) GetFloat(key string, def float64) float64 {
	value, err := s.Get(key)
	if err != nil {
		return def
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return f
}

// GetBool returns the stored bool or def.
func (s *Store) GetBool(key string, def bool) bool {
	value, err := s.Get(key)
	if err != nil {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return b
}

// PutFloat stores a float value.
func (s *Store) PutFloat(key string, f float64) error {
	return s.Put(key, strconv.FormatFloat(f, 'f', -1, 64))
}

// PutBool stores a bool value.
func (s *Store) PutBool(key string, b bool) error {
	return s.Put(key, strconv.FormatBool(b))
}
