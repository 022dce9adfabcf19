// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package state implements the pure conversation-state reducer.
package state

import (
	"github.com/averill/atomchat/internal/model"
)

// =============================================================================
// ACTION TYPES
// =============================================================================

// Action is the closed set of state transitions understood by Reduce.
// Types outside this package cannot implement it, so the reducer's identity
// fallback for unknown actions is a deliberate default, not an error path.
type Action interface {
	isAction()
}

// CreateConversation inserts a new conversation and makes it current.
// The conversation ID must be unique; a duplicate ID is a no-op.
type CreateConversation struct {
	Conversation model.Conversation
}

// SetCurrentConversation switches the active conversation.
// A missing ID is a silent no-op.
type SetCurrentConversation struct {
	ID string
}

// UpdateConversationTitle sets the title on the matching conversation.
// Callers are expected to pass a trimmed, non-empty string; the reducer
// does not enforce this. A missing ID is a silent no-op.
type UpdateConversationTitle struct {
	ID    string
	Title string
}

// ClearConversation empties the messages of the matching conversation,
// keeping its identity and title.
type ClearConversation struct {
	ID string
}

// DeleteConversation removes the conversation. If it was current, the
// current conversation reference becomes empty; the orchestrator is
// responsible for selecting or creating a replacement.
type DeleteConversation struct {
	ID string
}

// AddMessage appends a message to the current conversation and bumps its
// LastUpdatedAt. A no-op when no conversation is current.
type AddMessage struct {
	Message model.Message
}

// UpdateMessage replaces the content of the matching message in the
// current conversation. The loading flag is left untouched.
type UpdateMessage struct {
	ID      string
	Content string
}

// SetLoading sets the loading flag on a specific message in the current
// conversation.
type SetLoading struct {
	ID        string
	IsLoading bool
}

// SetProcessing sets the root in-flight flag.
type SetProcessing struct {
	IsProcessing bool
}

// ClearMessages empties the current conversation's messages.
type ClearMessages struct{}

// SetAPIKey sets the completion API key.
type SetAPIKey struct {
	APIKey string
}

// SetAPIURL sets the completion endpoint URL.
type SetAPIURL struct {
	APIURL string
}

// SetModel sets the completion model id.
type SetModel struct {
	Model string
}

// SetActiveAtom opens (or, with a nil Atom, closes) the active tool
// overlay.
type SetActiveAtom struct {
	Atom *model.ActiveAtom
}

func (CreateConversation) isAction()      {}
func (SetCurrentConversation) isAction()  {}
func (UpdateConversationTitle) isAction() {}
func (ClearConversation) isAction()       {}
func (DeleteConversation) isAction()      {}
func (AddMessage) isAction()              {}
func (UpdateMessage) isAction()           {}
func (SetLoading) isAction()              {}
func (SetProcessing) isAction()           {}
func (ClearMessages) isAction()           {}
func (SetAPIKey) isAction()               {}
func (SetAPIURL) isAction()               {}
func (SetModel) isAction()                {}
func (SetActiveAtom) isAction()           {}
