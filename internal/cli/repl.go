// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the line-oriented chat REPL used when the full
// terminal UI is not wanted (plain terminals, piped output, --repl).
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/peterh/liner"

	"github.com/averill/atomchat/internal/atoms"
	"github.com/averill/atomchat/internal/chat"
	"github.com/averill/atomchat/internal/config"
	"github.com/averill/atomchat/internal/model"
	"github.com/averill/atomchat/internal/ui/styles"
	"github.com/averill/atomchat/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer renders assistant replies when stdout is a TTY.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(TerminalWidth()),
	)
	if err != nil {
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown for terminal display, falling back to
// the original content if rendering fails.
func renderMarkdown(content string) string {
	if !IsStdoutTTY() || markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// input wraps liner with persisted history.
type input struct {
	line        *liner.State
	historyFile string
}

func newInput() *input {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}
	in := &input{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}

	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

// read reads one line, recording non-empty lines in the history.
func (in *input) read(prompt string) (string, error) {
	line, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		in.line.AppendHistory(line)
	}
	return line, nil
}

func (in *input) close() {
	if f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		in.line.WriteHistory(f)
		f.Close()
	}
	in.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// REPL drives an interactive chat session over the orchestrator.
type REPL struct {
	orch  *chat.Orchestrator
	atoms *atoms.Service
	quiet bool
}

// NewREPL builds a REPL over the orchestrator and atom service.
func NewREPL(orch *chat.Orchestrator, atomSvc *atoms.Service, quiet bool) *REPL {
	return &REPL{orch: orch, atoms: atomSvc, quiet: quiet}
}

// Run executes the read-eval-print loop until /quit or EOF.
func (r *REPL) Run(ctx context.Context) error {
	if !ColorsEnabled() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	in := newInput()
	defer in.close()

	r.orch.OnNotify(func(n chat.Notification) {
		style := infoStyle
		if n.Level == chat.LevelError {
			style = errorStyle
		}
		fmt.Fprintln(os.Stderr, style.Render("["+n.Message+"]"))
	})
	defer r.orch.OnNotify(nil)

	// Ctrl+C during generation cancels the in-flight request instead of
	// killing the session.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			r.orch.CancelAll()
			fmt.Fprintln(os.Stderr, warningStyle.Render("[Cancelled]"))
		}
	}()

	if !r.quiet {
		r.printWelcome()
	}

	for {
		line, err := in.read(promptStyle.Render("atomchat> "))
		if err != nil {
			// Ctrl+C at the prompt or EOF ends the session.
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, os.ErrClosed) {
				fmt.Println()
			}
			r.printGoodbye()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isQuit(line) {
			r.printGoodbye()
			return nil
		}

		r.process(ctx, line)
	}
}

// isQuit matches the exit commands handled by the front-end.
func isQuit(line string) bool {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case "/quit", "/q", "/exit", "exit", "quit":
		return true
	}
	return false
}

// process runs one input line through the orchestrator and prints what
// the conversation gained.
func (r *REPL) process(ctx context.Context, line string) {
	before := len(r.orch.State().Messages)

	r.orch.SendMessage(ctx, line)
	r.runPendingAtom(ctx)

	r.printNewMessages(before)
}

// runPendingAtom executes an atom activation left behind by command
// routing. In the REPL atoms run inline; the TUI runs them as overlay
// commands.
func (r *REPL) runPendingAtom(ctx context.Context) {
	st := r.orch.State()
	if st.ActiveAtom == nil {
		return
	}
	if r.atoms == nil {
		r.orch.HandleAtomFailure(errors.New("tools are not available in this session"))
		return
	}

	atom := *st.ActiveAtom
	if !r.quiet {
		fmt.Fprintln(os.Stderr, infoStyle.Render("[Running "+atom.Type.DisplayName()+"]"))
	}

	result, err := r.atoms.Run(ctx, atom)
	if err != nil {
		r.orch.HandleAtomFailure(err)
		return
	}
	r.orch.HandleAtomResult(result)
}

// printNewMessages renders every message appended since the given count.
func (r *REPL) printNewMessages(since int) {
	messages := r.orch.State().Messages
	if since > len(messages) {
		// The conversation was cleared or replaced by a command.
		return
	}

	for _, msg := range messages[since:] {
		if msg.Role == model.RoleUser {
			continue
		}
		fmt.Println()
		fmt.Print(renderMarkdown(util.StripTags(msg.Content)))
		fmt.Println()
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

func (r *REPL) printWelcome() {
	st := r.orch.State()

	fmt.Println()
	fmt.Println(welcomeStyle.Render("atomchat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))

	endpoint := st.APIURL
	if endpoint == "" {
		endpoint = warningStyle.Render("not configured")
	} else {
		endpoint = commandStyle.Render(endpoint)
	}
	fmt.Printf("%s %s\n", infoStyle.Render("Endpoint:"), endpoint)

	if st.APIKey == "" {
		fmt.Printf("%s %s\n", infoStyle.Render("API key:"), warningStyle.Render("not set"))
	} else {
		fmt.Printf("%s %s\n", infoStyle.Render("API key:"), commandStyle.Render("configured"))
	}

	conv, ok := st.Current()
	if ok && !conv.IsEmpty() {
		fmt.Printf("%s %s (%d messages)\n",
			infoStyle.Render("Resuming:"),
			commandStyle.Render(conv.Title),
			conv.MessageCount())
		fmt.Printf("%s %s\n",
			infoStyle.Render("Topic:"),
			infoStyle.Render(util.StripTags(conv.Preview())))
		if last, ok := conv.LastMessage(); ok && !last.IsLoading {
			fmt.Printf("%s %s\n",
				infoStyle.Render("Last:"),
				infoStyle.Render(util.TruncateRunes(util.StripTags(last.Content), 60)))
		}
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

func (r *REPL) printGoodbye() {
	if r.quiet {
		return
	}
	conv, ok := r.orch.State().Current()
	if ok && !conv.IsEmpty() {
		fmt.Println(infoStyle.Render(fmt.Sprintf("Saved %q (%d messages). Goodbye!", conv.Title, conv.MessageCount())))
		return
	}
	fmt.Println(infoStyle.Render("Goodbye!"))
}
