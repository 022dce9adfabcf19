// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package state implements the conversation-state reducer for atomchat.
//
// The reducer is a pure function (state, action) -> state: no side
// effects, no I/O, copy-on-write mutation. All persistence, network calls,
// and notifications happen in the chat orchestrator after dispatch.
//
// Contracts:
//   - Unknown actions and missing IDs are identity transitions, never
//     errors.
//   - Message lists are append-only and never reordered.
//   - Deleting the current conversation leaves the current reference
//     empty; the orchestrator selects or creates a replacement.
package state
