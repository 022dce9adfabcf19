// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const toastDuration = 4 * time.Second

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshPane()
		m.pane.GotoBottom()
		return m, nil

	case stateChangedMsg:
		wasProcessing := m.st.IsProcessing
		atBottom := m.pane.AtBottom()
		m.st = msg.st
		m.refreshPane()
		if atBottom {
			m.pane.GotoBottom()
		}
		if !wasProcessing && m.st.IsProcessing {
			return m, m.spin.Tick
		}
		return m, nil

	case notifyMsg:
		m.toast = msg.Message
		m.toastLevel = msg.Level
		m.toastSeq++
		seq := m.toastSeq
		return m, tea.Tick(toastDuration, func(time.Time) tea.Msg {
			return toastExpireMsg{seq: seq}
		})

	case toastExpireMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case sendDoneMsg:
		// A command may have opened a tool overlay instead of starting
		// a completion; run it now.
		if st := m.orch.State(); st.ActiveAtom != nil {
			return m, m.runAtomCmd(*st.ActiveAtom)
		}
		return m, nil

	case atomDoneMsg:
		if msg.err != nil {
			m.orch.HandleAtomFailure(msg.err)
		} else {
			m.orch.HandleAtomResult(msg.result)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.st.IsProcessing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey routes key presses. Anything unmatched falls through to the
// input box or, for scrolling keys, the message pane.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.CancelRequest):
		if m.st.IsProcessing {
			if id, ok := loadingPlaceholderID(m.st); ok {
				m.orch.Cancel(id)
			} else {
				m.orch.CancelAll()
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		m.orch.NewConversation()
		return m, nil

	case key.Matches(msg, m.keys.NextChat):
		m.cycleConversation(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevChat):
		m.cycleConversation(-1)
		return m, nil

	case key.Matches(msg, m.keys.DeleteChat):
		m.orch.DeleteConversation(m.st.CurrentConversationID)
		return m, nil

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.showSidebar = !m.showSidebar
		m.resize(m.width, m.height)
		m.refreshPane()
		return m, nil

	case key.Matches(msg, m.keys.Send):
		// Input is locked while a completion is in flight.
		if m.st.IsProcessing {
			return m, nil
		}
		content := strings.TrimSpace(m.input.Value())
		if content == "" {
			return m, nil
		}
		m.input.Reset()
		return m, m.sendCmd(content)
	}

	if msg.String() == "ctrl+j" {
		m.input.InsertString("\n")
		return m, nil
	}

	switch msg.String() {
	case "pgup", "pgdown", "ctrl+u":
		var cmd tea.Cmd
		m.pane, cmd = m.pane.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// cycleConversation moves the current selection through the sidebar
// order, wrapping at either end.
func (m *Model) cycleConversation(delta int) {
	ids := m.sidebarOrder()
	if len(ids) < 2 {
		return
	}
	cur := 0
	for i, id := range ids {
		if id == m.st.CurrentConversationID {
			cur = i
			break
		}
	}
	next := (cur + delta + len(ids)) % len(ids)
	m.orch.SelectConversation(ids[next])
}

// resize recomputes the layout and rebuilds the markdown renderer for
// the new pane width.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	paneWidth := width
	if m.showSidebar {
		paneWidth -= sidebarWidth + 1
	}
	if paneWidth < 20 {
		paneWidth = 20
	}
	paneHeight := height - chromeHeight
	if paneHeight < 3 {
		paneHeight = 3
	}

	if !m.ready {
		m.pane = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.pane.Width = paneWidth
		m.pane.Height = paneHeight
	}
	m.input.SetWidth(paneWidth - 2)

	wrap := paneWidth - 4
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		m.renderer = renderer
	}
}
