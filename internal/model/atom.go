// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

// =============================================================================
// ATOM TYPES
// =============================================================================

// AtomType identifies an auxiliary tool overlay. Atoms produce a result
// string that is eventually injected into the conversation as an assistant
// message.
type AtomType string

const (
	AtomYouTube   AtomType = "youtube"
	AtomFlashcard AtomType = "flashcard"
	AtomWebSearch AtomType = "websearch"
)

// Valid reports whether the atom type is one of the declared constants.
func (a AtomType) Valid() bool {
	switch a {
	case AtomYouTube, AtomFlashcard, AtomWebSearch:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for the atom.
func (a AtomType) DisplayName() string {
	switch a {
	case AtomYouTube:
		return "YouTube Summarizer"
	case AtomFlashcard:
		return "Flashcard Maker"
	case AtomWebSearch:
		return "Web Search"
	default:
		return string(a)
	}
}

// ActiveAtom records which tool overlay is open and its seed input.
type ActiveAtom struct {
	Type   AtomType `json:"type"`
	Params string   `json:"params,omitempty"`
}
