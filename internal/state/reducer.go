// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package state implements the pure conversation-state reducer.
package state

import (
	"time"

	"github.com/averill/atomchat/internal/model"
)

// =============================================================================
// REDUCER
// =============================================================================

// Reduce applies an action to the state and returns the new state. It
// performs no I/O, never panics on bad input, and returns the input state
// unchanged for unknown actions and missing IDs. Mutations are
// copy-on-write: the input state and its conversations are never modified
// in place.
func Reduce(s ChatState, action Action) ChatState {
	switch a := action.(type) {
	case CreateConversation:
		return reduceCreateConversation(s, a)
	case SetCurrentConversation:
		return reduceSetCurrentConversation(s, a)
	case UpdateConversationTitle:
		return reduceUpdateTitle(s, a)
	case ClearConversation:
		return reduceClearConversation(s, a)
	case DeleteConversation:
		return reduceDeleteConversation(s, a)
	case AddMessage:
		return reduceAddMessage(s, a)
	case UpdateMessage:
		return reduceUpdateMessage(s, a)
	case SetLoading:
		return reduceSetLoading(s, a)
	case SetProcessing:
		s.IsProcessing = a.IsProcessing
		return s
	case ClearMessages:
		return reduceClearConversation(s, ClearConversation{ID: s.CurrentConversationID})
	case SetAPIKey:
		s.APIKey = a.APIKey
		return s
	case SetAPIURL:
		s.APIURL = a.APIURL
		return s
	case SetModel:
		s.Model = a.Model
		return s
	case SetActiveAtom:
		s.ActiveAtom = a.Atom
		return s
	default:
		// Unknown actions are an identity transition.
		return s
	}
}

// =============================================================================
// CONVERSATION TRANSITIONS
// =============================================================================

func reduceCreateConversation(s ChatState, a CreateConversation) ChatState {
	if a.Conversation.ID == "" || s.ConversationIndex(a.Conversation.ID) >= 0 {
		return s
	}

	conv := a.Conversation.Clone()
	s.Conversations = append(cloneConversations(s.Conversations), conv)
	s.CurrentConversationID = conv.ID
	s.Messages = conv.Messages
	return s
}

func reduceSetCurrentConversation(s ChatState, a SetCurrentConversation) ChatState {
	idx := s.ConversationIndex(a.ID)
	if idx < 0 {
		return s
	}
	s.CurrentConversationID = a.ID
	s.Messages = s.Conversations[idx].Messages
	return s
}

func reduceUpdateTitle(s ChatState, a UpdateConversationTitle) ChatState {
	idx := s.ConversationIndex(a.ID)
	if idx < 0 {
		return s
	}

	convs := cloneConversations(s.Conversations)
	convs[idx].Title = a.Title
	s.Conversations = convs
	return s
}

func reduceClearConversation(s ChatState, a ClearConversation) ChatState {
	idx := s.ConversationIndex(a.ID)
	if idx < 0 {
		return s
	}

	convs := cloneConversations(s.Conversations)
	convs[idx].Messages = make([]model.Message, 0)
	convs[idx].LastUpdatedAt = time.Now()
	s.Conversations = convs
	if a.ID == s.CurrentConversationID {
		s.Messages = convs[idx].Messages
	}
	return s
}

func reduceDeleteConversation(s ChatState, a DeleteConversation) ChatState {
	idx := s.ConversationIndex(a.ID)
	if idx < 0 {
		return s
	}

	convs := make([]model.Conversation, 0, len(s.Conversations)-1)
	convs = append(convs, s.Conversations[:idx]...)
	convs = append(convs, s.Conversations[idx+1:]...)
	s.Conversations = convs

	if a.ID == s.CurrentConversationID {
		s.CurrentConversationID = ""
		s.Messages = nil
	}
	return s
}

// =============================================================================
// MESSAGE TRANSITIONS
// =============================================================================

func reduceAddMessage(s ChatState, a AddMessage) ChatState {
	idx := s.ConversationIndex(s.CurrentConversationID)
	if idx < 0 {
		return s
	}

	convs := cloneConversations(s.Conversations)
	conv := convs[idx].Clone()
	conv.Messages = append(conv.Messages, a.Message)
	conv.LastUpdatedAt = time.Now()
	convs[idx] = conv

	s.Conversations = convs
	s.Messages = conv.Messages
	return s
}

func reduceUpdateMessage(s ChatState, a UpdateMessage) ChatState {
	return mutateCurrentMessage(s, a.ID, func(m *model.Message) {
		m.Content = a.Content
	})
}

func reduceSetLoading(s ChatState, a SetLoading) ChatState {
	return mutateCurrentMessage(s, a.ID, func(m *model.Message) {
		m.IsLoading = a.IsLoading
	})
}

// mutateCurrentMessage applies fn to the matching message in the current
// conversation, copy-on-write. Missing conversation or message ID is an
// identity transition.
func mutateCurrentMessage(s ChatState, msgID string, fn func(*model.Message)) ChatState {
	idx := s.ConversationIndex(s.CurrentConversationID)
	if idx < 0 {
		return s
	}
	msgIdx := s.Conversations[idx].MessageIndex(msgID)
	if msgIdx < 0 {
		return s
	}

	convs := cloneConversations(s.Conversations)
	conv := convs[idx].Clone()
	fn(&conv.Messages[msgIdx])
	conv.LastUpdatedAt = time.Now()
	convs[idx] = conv

	s.Conversations = convs
	s.Messages = conv.Messages
	return s
}

// =============================================================================
// HELPERS
// =============================================================================

// cloneConversations copies the conversation slice headers. Individual
// conversations are deep-cloned only where mutated.
func cloneConversations(convs []model.Conversation) []model.Conversation {
	out := make([]model.Conversation, len(convs))
	copy(out, convs)
	return out
}
