// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides write-through persistence for atomchat.
//
// All state lives in a single SQLite key-value table under fixed string
// keys (api-key, api-url, model, conversations, app-temperature, ...).
// Writes are synchronous; loads are best-effort and fall back to hardcoded
// defaults when a value is missing or corrupt, never raising to the
// caller.
package storage
