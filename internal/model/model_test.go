// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleUser, true},
		{RoleAssistant, true},
		{RoleError, true},
		{Role("system"), false},
		{Role(""), false},
	}

	for _, tc := range tests {
		if got := tc.role.Valid(); got != tc.want {
			t.Errorf("Role(%q).Valid() = %v, want %v", tc.role, got, tc.want)
		}
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessageGeneratesUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		msg := NewUserMessage("hello")
		if !strings.HasPrefix(msg.ID, "msg_") {
			t.Fatalf("message ID %q missing msg_ prefix", msg.ID)
		}
		if seen[msg.ID] {
			t.Fatalf("duplicate message ID %q", msg.ID)
		}
		seen[msg.ID] = true
	}
}

func TestNewPlaceholder(t *testing.T) {
	msg := NewPlaceholder()
	if msg.Role != RoleAssistant {
		t.Errorf("placeholder role = %q, want assistant", msg.Role)
	}
	if !msg.IsLoading {
		t.Error("placeholder should be loading")
	}
	if msg.Content != "" {
		t.Errorf("placeholder content = %q, want empty", msg.Content)
	}
}

func TestMessagePreview(t *testing.T) {
	tests := []struct {
		content string
		maxLen  int
		want    string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a longer message", 10, "this is..."},
		{"héllo wörld with unicode", 10, "héllo w..."},
	}

	for _, tc := range tests {
		msg := NewUserMessage(tc.content)
		if got := msg.Preview(tc.maxLen); got != tc.want {
			t.Errorf("Preview(%q, %d) = %q, want %q", tc.content, tc.maxLen, got, tc.want)
		}
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestNewConversation(t *testing.T) {
	conv := NewConversation()

	if !strings.HasPrefix(conv.ID, "conv_") {
		t.Errorf("conversation ID %q missing conv_ prefix", conv.ID)
	}
	if conv.Title != SentinelTitle {
		t.Errorf("title = %q, want sentinel %q", conv.Title, SentinelTitle)
	}
	if !conv.HasSentinelTitle() {
		t.Error("new conversation should have sentinel title")
	}
	if !conv.IsEmpty() {
		t.Error("new conversation should be empty")
	}
}

func TestConversationMessageIndex(t *testing.T) {
	conv := NewConversation()
	a := NewUserMessage("a")
	b := NewAssistantMessage("b")
	conv.Messages = append(conv.Messages, a, b)

	if idx := conv.MessageIndex(b.ID); idx != 1 {
		t.Errorf("MessageIndex(%q) = %d, want 1", b.ID, idx)
	}
	if idx := conv.MessageIndex("msg_missing"); idx != -1 {
		t.Errorf("MessageIndex(missing) = %d, want -1", idx)
	}
}

func TestConversationClone(t *testing.T) {
	conv := NewConversation()
	conv.Messages = append(conv.Messages, NewUserMessage("original"))

	clone := conv.Clone()
	clone.Messages[0].Content = "mutated"
	clone.Messages = append(clone.Messages, NewUserMessage("extra"))

	if conv.Messages[0].Content != "original" {
		t.Error("clone mutation leaked into original message")
	}
	if len(conv.Messages) != 1 {
		t.Errorf("original length = %d after clone append, want 1", len(conv.Messages))
	}
}

func TestHasLoadingPlaceholder(t *testing.T) {
	conv := NewConversation()
	if conv.HasLoadingPlaceholder() {
		t.Error("empty conversation should have no placeholder")
	}

	conv.Messages = append(conv.Messages, NewUserMessage("hi"), NewPlaceholder())
	if !conv.HasLoadingPlaceholder() {
		t.Error("expected loading placeholder")
	}

	conv.Messages[1].IsLoading = false
	if conv.HasLoadingPlaceholder() {
		t.Error("resolved placeholder should not count")
	}
}

// =============================================================================
// BUCKET TESTS
// =============================================================================

func TestBucketAt(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		updated time.Time
		want    Bucket
	}{
		{"this morning", time.Date(2025, 6, 15, 1, 0, 0, 0, time.UTC), BucketToday},
		{"yesterday evening", time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC), BucketYesterday},
		{"four days ago", time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC), BucketPastWeek},
		{"three weeks ago", time.Date(2025, 5, 25, 12, 0, 0, 0, time.UTC), BucketPastMonth},
		{"last year", time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC), BucketOlder},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conv := NewConversation()
			conv.LastUpdatedAt = tc.updated
			if got := conv.BucketAt(now); got != tc.want {
				t.Errorf("BucketAt = %v (%s), want %v (%s)", got, got.Label(), tc.want, tc.want.Label())
			}
		})
	}
}

func TestConversationAccessors(t *testing.T) {
	conv := NewConversation()
	if _, ok := conv.LastMessage(); ok {
		t.Error("LastMessage on an empty conversation should report false")
	}
	if got := conv.MessageCount(); got != 0 {
		t.Errorf("MessageCount = %d, want 0", got)
	}

	conv.Messages = append(conv.Messages, NewUserMessage("first"), NewAssistantMessage("second"))
	last, ok := conv.LastMessage()
	if !ok || last.Content != "second" {
		t.Errorf("LastMessage = (%q, %v), want (\"second\", true)", last.Content, ok)
	}
	if got := conv.MessageCount(); got != 2 {
		t.Errorf("MessageCount = %d, want 2", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 40), 10},
	}
	for _, tc := range tests {
		if got := (Message{Content: tc.content}).EstimateTokens(); got != tc.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tc.content, got, tc.want)
		}
	}
}
