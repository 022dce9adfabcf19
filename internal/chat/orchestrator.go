// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat glues the reducer, persistence, completion client and atom
// dispatch into the callable surface consumed by the front-ends.
package chat

import (
	"context"
	"log"
	"sync"

	"github.com/averill/atomchat/internal/commands"
	"github.com/averill/atomchat/internal/completion"
	"github.com/averill/atomchat/internal/config"
	"github.com/averill/atomchat/internal/state"
	"github.com/averill/atomchat/internal/storage"
)

// =============================================================================
// COLLABORATOR CONTRACTS
// =============================================================================

// Completer is the slice of the completion client the orchestrator uses.
// Tests substitute a mock through the client factory.
type Completer interface {
	Generate(ctx context.Context, req completion.Request) (string, error)
	GenerateShort(ctx context.Context, prompt string) (string, error)
}

// ClientFactory builds a completer for one request from the current
// endpoint and credentials.
type ClientFactory func(endpoint, apiKey string) Completer

func defaultClientFactory(endpoint, apiKey string) Completer {
	return completion.New(endpoint, apiKey)
}

// Level classifies a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notification is a side-channel user-visible message (toast, status
// line). Conversation content never travels through notifications.
type Notification struct {
	Level   Level
	Message string
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator owns the ChatState and is the only component that performs
// I/O around it. All mutation flows through Dispatch; persistence is a
// write-through effect applied after each reduction, never inside the
// reducer.
type Orchestrator struct {
	mu    sync.Mutex
	state state.ChatState

	store *storage.Store
	prefs *config.Prefs

	parser    *commands.Parser
	registry  *commands.Registry
	newClient ClientFactory
	cancels   *cancelRegistry

	// titling guards the auto-title trigger so one conversation is never
	// titled concurrently with itself.
	titlingMu sync.Mutex
	titling   map[string]bool

	onChange func(state.ChatState)
	onNotify func(Notification)
}

// New builds an orchestrator over the store and preferences, loading
// persisted conversations and config into the initial state.
func New(store *storage.Store, prefs *config.Prefs) *Orchestrator {
	snap := prefs.Snapshot()

	loadedID := store.LoadCurrentConversationID()
	st := state.NewState(store.LoadConversations(), loadedID)
	st.APIKey = snap.APIKey
	st.APIURL = snap.APIURL
	st.Model = snap.Model

	registry := commands.NewRegistry()
	o := &Orchestrator{
		state:     st,
		store:     store,
		prefs:     prefs,
		parser:    commands.NewParser(registry),
		registry:  registry,
		newClient: defaultClientFactory,
		cancels:   newCancelRegistry(),
		titling:   make(map[string]bool),
	}

	// NewState synthesizes a conversation on first start and repairs a
	// dangling current reference. Flush immediately so a restart resumes
	// the same conversation.
	if st.CurrentConversationID != loadedID {
		o.persistConversations(st)
		o.persistCurrentID(st)
	}
	return o
}

// WithClientFactory overrides how completion clients are built (tests).
func (o *Orchestrator) WithClientFactory(f ClientFactory) *Orchestrator {
	o.newClient = f
	return o
}

// OnChange registers a callback invoked with the new state after every
// dispatch. Called from the dispatching goroutine.
func (o *Orchestrator) OnChange(fn func(state.ChatState)) {
	o.onChange = fn
}

// OnNotify registers the side-channel notification sink.
func (o *Orchestrator) OnNotify(fn func(Notification)) {
	o.onNotify = fn
}

// State returns a snapshot of the current state.
func (o *Orchestrator) State() state.ChatState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Registry exposes the command registry for help rendering and input
// completion in the front-ends.
func (o *Orchestrator) Registry() *commands.Registry {
	return o.registry
}

// Dispatch reduces the action into the state, then applies write-through
// persistence for the slices the action touched.
func (o *Orchestrator) Dispatch(action state.Action) {
	o.mu.Lock()
	o.state = state.Reduce(o.state, action)
	snapshot := o.state
	o.mu.Unlock()

	o.persist(action, snapshot)

	if o.onChange != nil {
		o.onChange(snapshot)
	}
}

// notify sends a side-channel notification if a sink is registered.
func (o *Orchestrator) notify(level Level, message string) {
	if o.onNotify != nil {
		o.onNotify(Notification{Level: level, Message: message})
	}
}

// =============================================================================
// WRITE-THROUGH PERSISTENCE
// =============================================================================

// persist flushes the state slices affected by the action. Persistence is
// best-effort: a failed write is logged and surfaced as a notification,
// never allowed to poison the in-memory state.
func (o *Orchestrator) persist(action state.Action, snapshot state.ChatState) {
	switch a := action.(type) {
	case state.CreateConversation, state.DeleteConversation:
		o.persistConversations(snapshot)
		o.persistCurrentID(snapshot)
	case state.SetCurrentConversation:
		o.persistCurrentID(snapshot)
	case state.UpdateConversationTitle, state.ClearConversation,
		state.AddMessage, state.UpdateMessage, state.SetLoading, state.ClearMessages:
		o.persistConversations(snapshot)
	case state.SetAPIKey:
		if err := o.prefs.SetAPIKey(a.APIKey); err != nil {
			o.persistFailed("api key", err)
		}
	case state.SetAPIURL:
		if err := o.prefs.SetAPIURL(a.APIURL); err != nil {
			o.persistFailed("api url", err)
		}
	case state.SetModel:
		if err := o.prefs.SetModel(a.Model); err != nil {
			o.persistFailed("model", err)
		}
	}
}

func (o *Orchestrator) persistConversations(snapshot state.ChatState) {
	if err := o.store.SaveConversations(snapshot.Conversations); err != nil {
		o.persistFailed("conversations", err)
	}
}

func (o *Orchestrator) persistCurrentID(snapshot state.ChatState) {
	if err := o.store.SaveCurrentConversationID(snapshot.CurrentConversationID); err != nil {
		o.persistFailed("current conversation", err)
	}
}

func (o *Orchestrator) persistFailed(what string, err error) {
	log.Printf("failed to persist %s: %v", what, err)
	o.notify(LevelError, "Failed to save "+what)
}
