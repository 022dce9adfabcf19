// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// SentinelTitle is the default conversation title. A conversation still
// bearing this title is eligible for auto-titling.
const SentinelTitle = "New chat"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a complete chat conversation with history and metadata.
//
// Messages is append-only and never reordered; deletion removes whole
// conversations, never individual siblings out of order.
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`

	// LastUpdatedAt is bumped on every message mutation and drives
	// recency-based grouping in the sidebar.
	LastUpdatedAt time.Time `json:"last_updated_at"`

	// Messages in insertion order (= chronological order).
	Messages []Message `json:"messages"`
}

// NewConversation creates a new conversation with a generated ID and the
// sentinel title.
func NewConversation() Conversation {
	now := time.Now()
	return Conversation{
		ID:            generateConversationID(),
		Title:         SentinelTitle,
		CreatedAt:     now,
		LastUpdatedAt: now,
		Messages:      make([]Message, 0),
	}
}

// =============================================================================
// MESSAGE ACCESS
// =============================================================================

// MessageIndex returns the index of the message with the given ID, or -1.
func (c *Conversation) MessageIndex(id string) int {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

// LastMessage returns the most recent message, or a zero Message and false.
func (c *Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// HasUserMessage reports whether the conversation contains at least one
// user message.
func (c *Conversation) HasUserMessage() bool {
	for i := range c.Messages {
		if c.Messages[i].Role == RoleUser {
			return true
		}
	}
	return false
}

// HasLoadingPlaceholder reports whether an assistant placeholder is still
// awaiting completion.
func (c *Conversation) HasLoadingPlaceholder() bool {
	for i := range c.Messages {
		if c.Messages[i].IsLoading {
			return true
		}
	}
	return false
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// HasSentinelTitle reports whether the conversation still bears the default
// title and is therefore eligible for auto-titling.
func (c *Conversation) HasSentinelTitle() bool {
	return c.Title == SentinelTitle || c.Title == ""
}

// Preview returns a short preview from the first user message.
func (c *Conversation) Preview() string {
	for i := range c.Messages {
		if c.Messages[i].Role == RoleUser && c.Messages[i].Content != "" {
			return c.Messages[i].Preview(80)
		}
	}
	return "Empty conversation"
}

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() Conversation {
	clone := *c
	clone.Messages = make([]Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	return clone
}

// =============================================================================
// RECENCY BUCKETS
// =============================================================================

// Bucket identifies the recency group a conversation belongs to.
type Bucket int

const (
	BucketToday Bucket = iota
	BucketYesterday
	BucketPastWeek
	BucketPastMonth
	BucketOlder
)

// Label returns the display label for the bucket.
func (b Bucket) Label() string {
	switch b {
	case BucketToday:
		return "Today"
	case BucketYesterday:
		return "Yesterday"
	case BucketPastWeek:
		return "Previous 7 days"
	case BucketPastMonth:
		return "Previous 30 days"
	default:
		return "Older"
	}
}

// BucketAt computes the recency bucket of the conversation relative to now.
// Grouping is recomputed from LastUpdatedAt, never stored.
func (c *Conversation) BucketAt(now time.Time) Bucket {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case !c.LastUpdatedAt.Before(startOfDay):
		return BucketToday
	case !c.LastUpdatedAt.Before(startOfDay.AddDate(0, 0, -1)):
		return BucketYesterday
	case !c.LastUpdatedAt.Before(startOfDay.AddDate(0, 0, -7)):
		return BucketPastWeek
	case !c.LastUpdatedAt.Before(startOfDay.AddDate(0, 0, -30)):
		return BucketPastMonth
	default:
		return BucketOlder
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateConversationID creates a unique conversation ID.
func generateConversationID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "conv_" + hex.EncodeToString(bytes)
}
