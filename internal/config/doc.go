// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration for atomchat.
//
// Two layers:
//   - Static: ~/.atomchat/config.toml (BurntSushi/toml), defaults plus
//     ATOMCHAT_* environment overrides, live-reloaded via fsnotify.
//   - Runtime: the Prefs capability over the key-value store, read as one
//     Snapshot per send so a request never sees a torn view.
package config
