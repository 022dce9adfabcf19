// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the action orchestrator: the only component
// that performs I/O around the conversation state.
//
// All state mutation flows through Dispatch, which runs the pure reducer
// and then applies write-through persistence for the slices the action
// touched. SendMessage is the main entrypoint: it routes slash commands,
// appends the user message and a loading placeholder, calls the
// completion client with a bounded context window, and resolves the
// placeholder with text or an error rendering. It never returns an error
// to its caller; failures become conversation content plus a side-channel
// notification.
//
// Each in-flight completion is registered in a cancellation registry
// keyed by its placeholder message id, so front-ends can stop a specific
// request without disturbing the rest.
package chat
