// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across atomchat: crash-safe
// file writing, rune-aware truncation, and markup stripping.
package util
