// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/averill/atomchat/internal/commands"
	"github.com/averill/atomchat/internal/completion"
	"github.com/averill/atomchat/internal/model"
	"github.com/averill/atomchat/internal/state"
	"github.com/averill/atomchat/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// contextWindow is the number of trailing messages rendered into the
	// completion context. A fixed window, not a token budget.
	contextWindow = 6

	// maxOutputTokens = tokenBase + responseLength*tokenRange, with the
	// response length preference in [0, 1].
	tokenBase  = 500
	tokenRange = 1500

	noCredentialText = "No API key is configured. Open the settings (or edit " +
		"~/.atomchat/config.toml) and add your completion API key, then send " +
		"your message again."

	invalidCommandText = "Invalid command. Type /help to list available commands."

	cancelledText = "Generation stopped."
)

// =============================================================================
// SEND MESSAGE
// =============================================================================

// SendMessage runs the full send flow for one line of user input and
// returns when the conversation has reached its final state for this
// send. It never returns an error: failures become conversation content
// plus a notification. Front-ends that want fire-and-forget run it in a
// goroutine.
func (o *Orchestrator) SendMessage(ctx context.Context, content string) {
	content = util.NormalizeInput(strings.TrimSpace(content))
	if content == "" {
		return
	}

	// Slash commands are routed before the user message is appended, so a
	// recognized command never leaves a dangling chat message behind.
	if parsed := o.parser.Parse(content); parsed.IsCommand {
		o.routeCommand(parsed)
		return
	}

	prior := o.State().Messages

	o.Dispatch(state.AddMessage{Message: model.NewUserMessage(content)})
	placeholder := model.NewPlaceholder()
	o.Dispatch(state.AddMessage{Message: placeholder})
	o.Dispatch(state.SetProcessing{IsProcessing: true})

	o.completePlaceholder(ctx, placeholder.ID, content, prior)
	o.maybeAutoTitle(ctx)
}

// completePlaceholder resolves the placeholder with generated text or an
// error rendering. The loading and processing flags are cleared on every
// path.
func (o *Orchestrator) completePlaceholder(ctx context.Context, placeholderID, content string, prior []model.Message) {
	defer func() {
		o.Dispatch(state.SetLoading{ID: placeholderID, IsLoading: false})
		o.Dispatch(state.SetProcessing{IsProcessing: false})
	}()

	st := o.State()
	if st.APIKey == "" {
		// Terminal local failure: no network call is attempted.
		o.Dispatch(state.UpdateMessage{ID: placeholderID, Content: noCredentialText})
		return
	}

	// A model id embedded in the endpoint path wins over the stored
	// setting, and embedded-model endpoints carry no model in the body.
	modelID := st.Model
	if _, embedded := completion.ModelFromURL(st.APIURL); embedded {
		modelID = ""
	}

	snap := o.prefs.Snapshot()
	req := completion.Request{
		Model:           modelID,
		Prompt:          content,
		Context:         renderContext(prior),
		SystemPrompt:    snap.SystemPrompt,
		Temperature:     snap.Temperature,
		MaxOutputTokens: tokenBase + int(snap.ResponseLength*tokenRange),
	}
	log.Printf("generation request: ~%d prompt tokens, max output %d",
		promptTokens(content, prior), req.MaxOutputTokens)

	reqCtx, cancel := context.WithCancel(ctx)
	o.cancels.register(placeholderID, cancel)
	defer o.cancels.remove(placeholderID)

	text, err := o.newClient(st.APIURL, st.APIKey).Generate(reqCtx, req)
	switch {
	case err == nil:
		o.Dispatch(state.UpdateMessage{ID: placeholderID, Content: text})
	case errors.Is(err, context.Canceled):
		// User-initiated stop is not a failure: no error styling, no
		// notification.
		o.Dispatch(state.UpdateMessage{ID: placeholderID, Content: cancelledText})
	default:
		friendly := userFacingError(err)
		o.Dispatch(state.UpdateMessage{ID: placeholderID, Content: errorContent(friendly)})
		o.notify(LevelError, friendly)
		log.Printf("completion failed: %v", err)
	}
}

// =============================================================================
// COMMAND ROUTING
// =============================================================================

// routeCommand handles a parsed slash command. Commands never reach the
// completion client.
func (o *Orchestrator) routeCommand(parsed commands.ParseResult) {
	cmd := parsed.Command
	if cmd == nil {
		o.Dispatch(state.AddMessage{Message: model.NewAssistantMessage(invalidCommandText)})
		return
	}

	if cmd.Atom != "" {
		if !o.prefs.AtomEnabled(string(cmd.Atom)) {
			o.notify(LevelInfo, cmd.Atom.DisplayName()+" is disabled in settings")
			return
		}
		o.Dispatch(state.SetActiveAtom{Atom: &model.ActiveAtom{
			Type:   cmd.Atom,
			Params: parsed.RawArgs,
		}})
		return
	}

	switch cmd.Name {
	case "/new":
		o.NewConversation()
	case "/clear":
		o.Dispatch(state.ClearMessages{})
	case "/title":
		o.RenameCurrent(parsed.RawArgs)
	case "/export":
		o.exportCurrent(parsed.RawArgs)
	case "/help":
		o.Dispatch(state.AddMessage{Message: model.NewAssistantMessage(o.helpText())})
	case "/quit":
		// Process lifecycle belongs to the front-end; it intercepts /quit
		// before input reaches the orchestrator.
	}
}

// helpText renders the command registry into a help listing.
func (o *Orchestrator) helpText() string {
	var sb strings.Builder
	sb.WriteString("Available commands:\n")
	for category, cmds := range o.registry.ByCategory() {
		sb.WriteString("\n")
		sb.WriteString(category)
		sb.WriteString("\n")
		for _, cmd := range cmds {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			fmt.Fprintf(&sb, "  %-24s %s\n", usage, cmd.Description)
		}
	}
	return sb.String()
}

// =============================================================================
// ATOM RESULTS
// =============================================================================

// HandleAtomResult injects a finished atom tool result into the
// conversation. It is treated identically to a completed assistant
// message.
func (o *Orchestrator) HandleAtomResult(resultText string) {
	o.Dispatch(state.AddMessage{Message: model.NewAssistantMessage(resultText)})
	o.Dispatch(state.SetProcessing{IsProcessing: false})
	o.Dispatch(state.SetActiveAtom{Atom: nil})
	o.maybeAutoTitle(context.Background())
}

// HandleAtomFailure closes the overlay after a failed atom job. The
// failure travels on the notification side channel, not into the
// conversation.
func (o *Orchestrator) HandleAtomFailure(err error) {
	o.Dispatch(state.SetActiveAtom{Atom: nil})
	o.Dispatch(state.SetProcessing{IsProcessing: false})
	o.notify(LevelError, "Tool failed: "+err.Error())
}

// =============================================================================
// CONTEXT RENDERING
// =============================================================================

// renderContext renders the trailing message window as alternating
// "Human:" / "AI:" lines with markup stripped. All non-user roles render
// as the AI side.
func renderContext(messages []model.Message) string {
	if len(messages) > contextWindow {
		messages = messages[len(messages)-contextWindow:]
	}

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		speaker := "AI"
		if m.Role == model.RoleUser {
			speaker = "Human"
		}
		lines = append(lines, speaker+": "+util.StripTags(m.Content))
	}
	return strings.Join(lines, "\n")
}

// promptTokens estimates the prompt-side token load of a request, for the
// debug log only. The window bound matches renderContext.
func promptTokens(content string, prior []model.Message) int {
	if len(prior) > contextWindow {
		prior = prior[len(prior)-contextWindow:]
	}
	total := model.Message{Content: content}.EstimateTokens()
	for _, m := range prior {
		total += m.EstimateTokens()
	}
	return total
}

// =============================================================================
// ERROR RENDERING
// =============================================================================

// userFacingError maps a completion failure to actionable text.
func userFacingError(err error) string {
	switch {
	case errors.Is(err, completion.ErrNotConfigured):
		return noCredentialText
	case errors.Is(err, completion.ErrAuthFailed):
		return "Authentication failed. Check your API key in settings."
	case errors.Is(err, completion.ErrRateLimited):
		return "The completion endpoint is rate limiting requests. Try again shortly."
	case errors.Is(err, completion.ErrMalformedResponse):
		return "The completion endpoint returned an unreadable response."
	default:
		var apiErr *completion.APIError
		if errors.As(err, &apiErr) {
			return fmt.Sprintf("The completion endpoint returned an error (HTTP %d).", apiErr.Status)
		}
		return "The request failed. Check your connection and endpoint URL."
	}
}

// errorContent wraps error text in the markup the renderers style as an
// error block.
func errorContent(text string) string {
	return `<span class="error">` + html.EscapeString(text) + `</span>`
}
