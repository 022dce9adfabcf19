// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/averill/atomchat/internal/model"
	"github.com/averill/atomchat/internal/state"
)

func TestWindowResizeInitializesPane(t *testing.T) {
	m := Model{input: textarea.New(), keys: DefaultKeyMap()}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	got := updated.(Model)

	require.True(t, got.ready)
	require.Equal(t, 100, got.pane.Width)
	require.Equal(t, 40-chromeHeight, got.pane.Height)

	// Toggling the sidebar narrows the pane on the next resize.
	got.showSidebar = true
	updated, _ = got.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	require.Equal(t, 100-sidebarWidth-1, updated.(Model).pane.Width)
}

func TestLoadingPlaceholderID(t *testing.T) {
	st := state.ChatState{
		Messages: []model.Message{
			model.NewUserMessage("hello"),
			model.NewAssistantMessage("hi"),
		},
	}
	_, ok := loadingPlaceholderID(st)
	require.False(t, ok)

	placeholder := model.NewPlaceholder()
	st.Messages = append(st.Messages, placeholder)
	id, ok := loadingPlaceholderID(st)
	require.True(t, ok)
	require.Equal(t, placeholder.ID, id)
}

func TestSidebarOrderMostRecentFirst(t *testing.T) {
	now := time.Now()
	older := model.NewConversation()
	older.ID = "conv_older"
	older.LastUpdatedAt = now.Add(-2 * time.Hour)
	newer := model.NewConversation()
	newer.ID = "conv_newer"
	newer.LastUpdatedAt = now.Add(-time.Minute)

	m := Model{st: state.ChatState{
		Conversations:         []model.Conversation{older, newer},
		CurrentConversationID: newer.ID,
	}}

	require.Equal(t, []string{"conv_newer", "conv_older"}, m.sidebarOrder())
}
