// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local key-value persistence layer.
package storage

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/averill/atomchat/internal/model"
	"github.com/averill/atomchat/internal/util"
)

// =============================================================================
// CONVERSATION PERSISTENCE
// =============================================================================
//
// Conversations are serialized as one JSON document under the fixed
// "conversations" key. The orchestrator calls SaveConversations after
// every reducer-driven mutation (write-through); the reducer itself never
// touches storage.

// SaveConversations persists the full conversation set.
func (s *Store) SaveConversations(conversations []model.Conversation) error {
	data, err := json.Marshal(conversations)
	if err != nil {
		return &StoreError{Message: "failed to encode conversations: " + err.Error()}
	}
	return s.Put(KeyConversations, string(data))
}

// LoadConversations restores the persisted conversation set. Best-effort:
// a missing or corrupt value yields an empty set and no error.
func (s *Store) LoadConversations() []model.Conversation {
	raw, err := s.Get(KeyConversations)
	if err != nil {
		return nil
	}

	var conversations []model.Conversation
	if err := json.Unmarshal([]byte(raw), &conversations); err != nil {
		return nil
	}

	// Drop unresolved placeholders from a previous run. A crash mid-send
	// leaves a dangling loading message that would never resolve.
	for i := range conversations {
		msgs := conversations[i].Messages
		kept := msgs[:0]
		for _, m := range msgs {
			if m.IsLoading {
				continue
			}
			kept = append(kept, m)
		}
		conversations[i].Messages = kept
	}
	return conversations
}

// SaveCurrentConversationID persists the active conversation reference.
func (s *Store) SaveCurrentConversationID(id string) error {
	return s.Put(KeyCurrentConv, id)
}

// LoadCurrentConversationID restores the active conversation reference,
// or "" if none was saved.
func (s *Store) LoadCurrentConversationID() string {
	return s.GetString(KeyCurrentConv, "")
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders a conversation as a Markdown document.
func ExportMarkdown(conv model.Conversation) string {
	var sb strings.Builder
	sb.WriteString("# " + conv.Title + "\n\n")
	sb.WriteString("Created: " + conv.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range conv.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "** (" + msg.Timestamp.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// ExportMarkdownFile writes the Markdown export atomically to path.
func ExportMarkdownFile(conv model.Conversation, path string) error {
	return util.AtomicWriteFile(path, []byte(ExportMarkdown(conv)), 0644)
}

// ExportJSONFile writes the conversation as pretty-printed JSON to path.
func ExportJSONFile(conv model.Conversation, path string) error {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(path, data, 0644)
}
