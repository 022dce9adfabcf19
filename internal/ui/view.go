// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/averill/atomchat/internal/chat"
	"github.com/averill/atomchat/internal/model"
	"github.com/averill/atomchat/internal/state"
	"github.com/averill/atomchat/internal/ui/components"
	"github.com/averill/atomchat/internal/ui/styles"
	"github.com/averill/atomchat/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple).
			Padding(0, 1)

	headerInfoStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(styles.Overlay)

	bucketLabelStyle = lipgloss.NewStyle().
				Foreground(styles.TextMuted).
				Bold(true).
				Padding(0, 1)

	convItemStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Padding(0, 1)

	convActiveStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true).
			Padding(0, 1)

	roleUserStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	roleAssistantStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(styles.Purple)

	roleErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Rose)

	bubbleUserStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.ThickBorder()).
			BorderLeft(true).
			BorderForeground(styles.UserBubbleBorder).
			PaddingLeft(1)

	bubbleAssistantStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.ThickBorder()).
				BorderLeft(true).
				BorderForeground(styles.AssistantBubbleBorder).
				PaddingLeft(1)

	bubbleErrorStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.ThickBorder()).
				BorderLeft(true).
				BorderForeground(styles.ErrorBubbleBorder).
				PaddingLeft(1)

	inputBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(styles.Overlay)

	inputLockedStyle = inputBoxStyle.
				BorderForeground(styles.OverlayDim)

	statusStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Padding(0, 1)

	toastInfoStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Padding(0, 1)

	toastErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Padding(0, 1)
)

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		m.pane.View(),
		m.viewInput(),
		m.viewStatus(),
	)

	if !m.showSidebar {
		return main
	}
	sidebar := sidebarStyle.Height(m.height).Render(m.viewSidebar())
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

func (m Model) viewHeader() string {
	title := model.SentinelTitle
	if conv, ok := m.st.Current(); ok {
		title = conv.Title
	}
	info := m.st.Model
	if info == "" {
		info = "model from endpoint"
	}
	if m.st.APIKey == "" {
		info = "no API key"
	}
	return headerStyle.Render(title) + headerInfoStyle.Render("  "+info)
}

func (m Model) viewSidebar() string {
	var b strings.Builder
	groups := state.GroupByRecency(m.st.Conversations, time.Now())
	for gi, group := range groups {
		if gi > 0 {
			b.WriteString("\n")
		}
		b.WriteString(bucketLabelStyle.Render(group.Bucket.Label()))
		b.WriteString("\n")
		for _, conv := range group.Conversations {
			title := runewidth.Truncate(conv.Title, sidebarWidth-4, "…")
			if conv.ID == m.st.CurrentConversationID {
				b.WriteString(convActiveStyle.Render("▌ " + title))
			} else {
				b.WriteString(convItemStyle.Render("  " + title))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) viewInput() string {
	if m.st.IsProcessing {
		waiting := m.spin.View() + " Generating... press esc to stop"
		return inputLockedStyle.Width(m.pane.Width - 2).
			Height(inputHeight).
			Render(statusStyle.Render(waiting))
	}
	return inputBoxStyle.Width(m.pane.Width - 2).Render(m.input.View())
}

func (m Model) viewStatus() string {
	if m.toast != "" {
		if m.toastLevel == chat.LevelError {
			return toastErrorStyle.Render(m.toast)
		}
		return toastInfoStyle.Render(m.toast)
	}
	if m.st.ActiveAtom != nil {
		return statusStyle.Render(m.spin.View() + " Running " + string(m.st.ActiveAtom.Type) + "...")
	}
	hints := []string{
		"enter send",
		"ctrl+n new",
		"ctrl+↑/↓ switch",
		"ctrl+b sidebar",
		"ctrl+q quit",
	}
	return statusStyle.Render(strings.Join(hints, " · "))
}

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// refreshPane re-renders the current conversation into the viewport.
func (m *Model) refreshPane() {
	if !m.ready {
		return
	}
	m.pane.SetContent(m.renderMessages())
}

func (m Model) renderMessages() string {
	if len(m.st.Messages) == 0 {
		return statusStyle.Render("\nStart the conversation below, or type /help for commands.")
	}

	width := m.pane.Width - 2
	var sections []string
	for _, msg := range m.st.Messages {
		sections = append(sections, m.renderMessage(msg, width))
	}
	return strings.Join(sections, "\n\n")
}

func (m Model) renderMessage(msg model.Message, width int) string {
	if msg.IsLoading {
		body := m.spin.View() + " Thinking..."
		return roleAssistantStyle.Render(msg.Role.DisplayName()) + "\n" +
			bubbleAssistantStyle.Width(width).Render(body)
	}

	// Error styling applies to error-role messages and to failures
	// embedded in assistant content as error markup.
	isError := msg.Role == model.RoleError ||
		strings.Contains(msg.Content, `class="error"`)

	content := util.StripTags(msg.Content)

	var label, body string
	switch {
	case isError:
		label = roleErrorStyle.Render("Error")
		body = content
	case msg.Role == model.RoleUser:
		label = roleUserStyle.Render(msg.Role.DisplayName())
		body = content
	default:
		label = roleAssistantStyle.Render(msg.Role.DisplayName())
		body = m.renderMarkdown(content)
	}

	bubble := bubbleAssistantStyle
	if isError {
		bubble = bubbleErrorStyle
	} else if msg.Role == model.RoleUser {
		bubble = bubbleUserStyle
	}
	return label + "\n" + bubble.Width(width).Render(strings.TrimRight(body, "\n"))
}

// renderMarkdown renders assistant markdown, falling back to inline code
// highlighting when the full renderer is unavailable.
func (m Model) renderMarkdown(content string) string {
	if m.renderer != nil {
		if out, err := m.renderer.Render(content); err == nil {
			return out
		}
	}
	return components.ParseCodeBlocks(content, m.pane.Width-4)
}

// =============================================================================
// HELPERS
// =============================================================================

// loadingPlaceholderID returns the ID of the in-flight placeholder in
// the current conversation.
func loadingPlaceholderID(st state.ChatState) (string, bool) {
	for i := len(st.Messages) - 1; i >= 0; i-- {
		if st.Messages[i].IsLoading {
			return st.Messages[i].ID, true
		}
	}
	return "", false
}

// sidebarOrder returns conversation IDs in the order the sidebar shows
// them.
func (m Model) sidebarOrder() []string {
	var ids []string
	for _, group := range state.GroupByRecency(m.st.Conversations, time.Now()) {
		for _, conv := range group.Conversations {
			ids = append(ids, conv.ID)
		}
	}
	return ids
}
