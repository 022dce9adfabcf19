// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
)

// =============================================================================
// CANCELLATION REGISTRY
// =============================================================================

// cancelRegistry maps an in-flight placeholder message id to its cancel
// function, so a specific request can be aborted independently of any
// other. Accessed from the dispatching goroutine and from front-end stop
// handlers, so every method takes the mutex.
type cancelRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{cancels: make(map[string]context.CancelFunc)}
}

// register stores the cancel function for a message id.
func (r *cancelRegistry) register(messageID string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[messageID] = cancel
}

// remove cancels and forgets the entry for a message id. Cancelling on
// removal prevents context leaks; it is a no-op once the request finished.
func (r *cancelRegistry) remove(messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.cancels[messageID]; ok {
		cancel()
		delete(r.cancels, messageID)
	}
}

// cancel aborts the in-flight request for a message id, if any.
func (r *cancelRegistry) cancel(messageID string) {
	r.remove(messageID)
}

// cancelAll aborts every in-flight request.
func (r *cancelRegistry) cancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cancel := range r.cancels {
		cancel()
		delete(r.cancels, id)
	}
}

// =============================================================================
// ORCHESTRATOR SURFACE
// =============================================================================

// Cancel aborts the in-flight completion for the given placeholder
// message, if one exists. The cancelled send resolves its placeholder
// without an error toast.
func (o *Orchestrator) Cancel(messageID string) {
	o.cancels.cancel(messageID)
}

// CancelAll aborts every in-flight completion. Used on conversation
// switch and shutdown.
func (o *Orchestrator) CancelAll() {
	o.cancels.cancelAll()
}
