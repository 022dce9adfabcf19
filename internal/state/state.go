// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package state implements the pure conversation-state reducer.
package state

import (
	"sort"
	"time"

	"github.com/averill/atomchat/internal/model"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// ChatState is the root application state. It is created once at startup
// from persisted data and mutated exclusively through Reduce. The zero
// value is a valid empty state.
type ChatState struct {
	// Conversations in insertion order. Grouping for display is
	// recomputed from LastUpdatedAt, so order here is irrelevant to
	// the UI.
	Conversations []model.Conversation

	// CurrentConversationID references the active conversation, or ""
	// if none exists.
	CurrentConversationID string

	// Messages is the message list of the current conversation,
	// denormalized for direct access. Reduce keeps it in sync.
	Messages []model.Message

	// Completion client configuration, owned here and persisted by the
	// orchestrator's effect boundary.
	APIKey string
	APIURL string
	Model  string

	// ActiveAtom is the open tool overlay, or nil.
	ActiveAtom *model.ActiveAtom

	// IsProcessing is true while a completion request is in flight.
	IsProcessing bool
}

// NewState builds the initial state from persisted conversations. If none
// exist, a fresh empty conversation is synthesized so the UI always has a
// current conversation to render.
func NewState(conversations []model.Conversation, currentID string) ChatState {
	if len(conversations) == 0 {
		conv := model.NewConversation()
		conversations = []model.Conversation{conv}
		currentID = conv.ID
	}
	if currentID == "" {
		currentID = conversations[0].ID
	}

	s := ChatState{
		Conversations:         conversations,
		CurrentConversationID: currentID,
	}
	s.Messages = s.currentMessages()
	return s
}

// ConversationIndex returns the index of the conversation with the given
// ID, or -1.
func (s ChatState) ConversationIndex(id string) int {
	for i := range s.Conversations {
		if s.Conversations[i].ID == id {
			return i
		}
	}
	return -1
}

// Current returns the active conversation and true, or false if none.
func (s ChatState) Current() (model.Conversation, bool) {
	idx := s.ConversationIndex(s.CurrentConversationID)
	if idx < 0 {
		return model.Conversation{}, false
	}
	return s.Conversations[idx], true
}

// currentMessages returns the message slice of the current conversation.
func (s ChatState) currentMessages() []model.Message {
	idx := s.ConversationIndex(s.CurrentConversationID)
	if idx < 0 {
		return nil
	}
	return s.Conversations[idx].Messages
}

// =============================================================================
// RECENCY GROUPING
// =============================================================================

// Group is a recency bucket with its conversations, most recent first.
type Group struct {
	Bucket        model.Bucket
	Conversations []model.Conversation
}

// GroupByRecency groups conversations into recency buckets for sidebar
// display. Buckets appear in recency order and empty buckets are omitted.
func GroupByRecency(conversations []model.Conversation, now time.Time) []Group {
	byBucket := make(map[model.Bucket][]model.Conversation)
	for _, conv := range conversations {
		b := conv.BucketAt(now)
		byBucket[b] = append(byBucket[b], conv)
	}

	order := []model.Bucket{
		model.BucketToday,
		model.BucketYesterday,
		model.BucketPastWeek,
		model.BucketPastMonth,
		model.BucketOlder,
	}

	var groups []Group
	for _, b := range order {
		convs := byBucket[b]
		if len(convs) == 0 {
			continue
		}
		sort.SliceStable(convs, func(i, j int) bool {
			return convs[i].LastUpdatedAt.After(convs[j].LastUpdatedAt)
		})
		groups = append(groups, Group{Bucket: b, Conversations: convs})
	}
	return groups
}
