// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands implements slash command recognition for chat input.
//
// A Registry holds the built-in command set (atom activations such as
// /youtube plus conversation and navigation commands), and a Parser turns
// raw input lines into ParseResults with quote-aware argument splitting.
// The package only classifies input; the chat orchestrator and the
// front-ends decide what each recognized command does.
package commands
