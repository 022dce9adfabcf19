// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"path/filepath"
	"strings"

	"github.com/averill/atomchat/internal/model"
	"github.com/averill/atomchat/internal/state"
	"github.com/averill/atomchat/internal/storage"
)

// =============================================================================
// CONVERSATION LIFECYCLE
// =============================================================================

// NewConversation creates an empty conversation and makes it current.
func (o *Orchestrator) NewConversation() model.Conversation {
	conv := model.NewConversation()
	o.Dispatch(state.CreateConversation{Conversation: conv})
	return conv
}

// SelectConversation switches the active conversation. In-flight
// completions for other conversations keep running; their results land in
// the conversations that own them.
func (o *Orchestrator) SelectConversation(id string) {
	o.Dispatch(state.SetCurrentConversation{ID: id})
}

// DeleteConversation removes a conversation. When the current one is
// deleted the most recently updated survivor becomes current, or a fresh
// conversation is created if none remain, so the UI always has a current
// conversation to render.
func (o *Orchestrator) DeleteConversation(id string) {
	o.Dispatch(state.DeleteConversation{ID: id})

	st := o.State()
	if st.CurrentConversationID != "" {
		return
	}
	if len(st.Conversations) == 0 {
		o.NewConversation()
		return
	}

	replacement := st.Conversations[0]
	for _, conv := range st.Conversations[1:] {
		if conv.LastUpdatedAt.After(replacement.LastUpdatedAt) {
			replacement = conv
		}
	}
	o.Dispatch(state.SetCurrentConversation{ID: replacement.ID})
}

// RenameCurrent sets the current conversation's title. Empty input is a
// silent no-op.
func (o *Orchestrator) RenameCurrent(title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	st := o.State()
	if st.CurrentConversationID == "" {
		return
	}
	o.Dispatch(state.UpdateConversationTitle{ID: st.CurrentConversationID, Title: title})
}

// ClearCurrent empties the current conversation's messages.
func (o *Orchestrator) ClearCurrent() {
	o.Dispatch(state.ClearMessages{})
}

// exportCurrent writes the current conversation to a markdown file and
// reports the outcome through the notification channel.
func (o *Orchestrator) exportCurrent(path string) {
	conv, ok := o.State().Current()
	if !ok {
		return
	}

	path = strings.TrimSpace(path)
	if path == "" {
		path = sanitizeFilename(conv.Title) + ".md"
	}

	if err := storage.ExportMarkdownFile(conv, path); err != nil {
		o.notify(LevelError, "Export failed: "+err.Error())
		return
	}
	o.notify(LevelInfo, "Exported to "+filepath.Clean(path))
}

// sanitizeFilename makes a conversation title safe to use as a filename.
func sanitizeFilename(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "conversation"
	}
	var sb strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			sb.WriteRune('-')
		}
	}
	out := strings.Trim(sb.String(), "-")
	if out == "" {
		return "conversation"
	}
	return strings.ToLower(out)
}
