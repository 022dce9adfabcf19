// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the core data structures for atomchat:
// messages, conversations, and atom tool descriptors.
//
// These are passive value types. All state transitions over them flow
// through the reducer in the state package; all I/O lives in the chat
// orchestrator. Messages within a conversation are append-only and keep
// insertion order, which is also chronological order.
package model
