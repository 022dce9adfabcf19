// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the full-screen terminal interface: a sidebar of
// conversations grouped by recency, a scrolling message pane, and a
// multi-line input box. All state lives in the chat orchestrator; the UI
// renders snapshots and translates key presses into orchestrator calls.
package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/averill/atomchat/internal/atoms"
	"github.com/averill/atomchat/internal/chat"
	"github.com/averill/atomchat/internal/model"
	"github.com/averill/atomchat/internal/state"
	"github.com/averill/atomchat/internal/ui/styles"
)

// =============================================================================
// LAYOUT CONSTANTS
// =============================================================================

const (
	sidebarWidth = 28
	inputHeight  = 3

	// Chrome rows outside the message pane: header, input border top and
	// bottom, status bar.
	chromeHeight = 1 + inputHeight + 2 + 1
)

// =============================================================================
// MESSAGES
// =============================================================================

// stateChangedMsg carries a fresh state snapshot from the orchestrator's
// change callback into the update loop.
type stateChangedMsg struct {
	st state.ChatState
}

// notifyMsg carries an orchestrator notification for toast display.
type notifyMsg chat.Notification

// sendDoneMsg signals that a SendMessage call returned.
type sendDoneMsg struct{}

// atomDoneMsg carries the outcome of a tool run.
type atomDoneMsg struct {
	result string
	err    error
}

// toastExpireMsg clears the toast identified by seq, unless a newer toast
// replaced it.
type toastExpireMsg struct {
	seq int
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the bubbletea model for the chat interface.
type Model struct {
	orch  *chat.Orchestrator
	atoms *atoms.Service

	st state.ChatState

	input textarea.Model
	pane  viewport.Model
	spin  spinner.Model
	keys  KeyMap

	renderer *glamour.TermRenderer

	width       int
	height      int
	ready       bool
	showSidebar bool

	toast      string
	toastLevel chat.Level
	toastSeq   int

	quitting bool
}

// NewModel builds the initial UI model from the orchestrator's current
// state.
func NewModel(orch *chat.Orchestrator, svc *atoms.Service) Model {
	input := textarea.New()
	input.Placeholder = "Type a message, or / for commands"
	input.Prompt = "┃ "
	input.CharLimit = 0
	input.SetHeight(inputHeight)
	input.ShowLineNumbers = false
	input.FocusedStyle.CursorLine = lipgloss.NewStyle()
	input.Focus()

	spin := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Purple)),
	)

	return Model{
		orch:        orch,
		atoms:       svc,
		st:          orch.State(),
		input:       input,
		spin:        spin,
		keys:        DefaultKeyMap(),
		showSidebar: true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spin.Tick)
}

// =============================================================================
// COMMANDS
// =============================================================================

// sendCmd submits user input to the orchestrator off the UI goroutine.
// State updates arrive through the change callback while the request is
// in flight.
func (m Model) sendCmd(content string) tea.Cmd {
	orch := m.orch
	return func() tea.Msg {
		orch.SendMessage(context.Background(), content)
		return sendDoneMsg{}
	}
}

// runAtomCmd executes a tool overlay request.
func (m Model) runAtomCmd(atom model.ActiveAtom) tea.Cmd {
	svc := m.atoms
	return func() tea.Msg {
		if svc == nil {
			return atomDoneMsg{err: errors.New("tools are not available")}
		}
		result, err := svc.Run(context.Background(), atom)
		return atomDoneMsg{result: result, err: err}
	}
}

// =============================================================================
// PROGRAM ENTRY
// =============================================================================

// Run starts the full-screen interface and blocks until the user quits.
func Run(orch *chat.Orchestrator, svc *atoms.Service) error {
	m := NewModel(orch, svc)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// The orchestrator invokes these from whatever goroutine performed
	// the dispatch; p.Send is safe for that.
	orch.OnChange(func(st state.ChatState) {
		p.Send(stateChangedMsg{st: st})
	})
	orch.OnNotify(func(n chat.Notification) {
		p.Send(notifyMsg(n))
	})

	_, err := p.Run()
	return err
}
