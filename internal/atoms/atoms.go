// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package atoms runs the auxiliary tool jobs behind the chat overlay.
package atoms

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/averill/atomchat/internal/completion"
	"github.com/averill/atomchat/internal/config"
	"github.com/averill/atomchat/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// fetchTimeout bounds the metadata and search fetches an atom makes
	// before its summarization call.
	fetchTimeout = 15 * time.Second

	// fetchBodyLimit caps fetched response bodies.
	fetchBodyLimit = 5 * 1024 * 1024
)

// ErrUnknownAtom indicates an atom type the service cannot run.
var ErrUnknownAtom = errors.New("unknown atom type")

// ErrMissingParams indicates the atom was activated without its seed
// input.
var ErrMissingParams = errors.New("atom requires parameters")

// =============================================================================
// SERVICE
// =============================================================================

// Completer is the slice of the completion client the atoms use for
// their summarization and generation steps.
type Completer interface {
	Generate(ctx context.Context, req completion.Request) (string, error)
}

// Service runs atom jobs. One parameterized service covers every atom
// type; the per-type behavior lives in the run functions.
type Service struct {
	search     config.SearchConfig
	completer  Completer
	httpClient *http.Client
}

// NewService builds an atom service with the given search credentials
// and completion client.
func NewService(search config.SearchConfig, completer Completer) *Service {
	return &Service{
		search:    search,
		completer: completer,
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

// WithHTTPClient overrides the fetch client (tests).
func (s *Service) WithHTTPClient(hc *http.Client) *Service {
	s.httpClient = hc
	return s
}

// Job is one atom execution.
type Job struct {
	ID        string
	Atom      model.ActiveAtom
	StartedAt time.Time
}

// Run executes the atom and returns the result text to inject into the
// conversation as an assistant message.
func (s *Service) Run(ctx context.Context, atom model.ActiveAtom) (string, error) {
	job := Job{
		ID:        uuid.NewString(),
		Atom:      atom,
		StartedAt: time.Now(),
	}
	log.Printf("atom job %s: %s", job.ID, atom.Type)

	var result string
	var err error
	switch atom.Type {
	case model.AtomWebSearch:
		result, err = s.runWebSearch(ctx, atom.Params)
	case model.AtomYouTube:
		result, err = s.runYouTube(ctx, atom.Params)
	case model.AtomFlashcard:
		result, err = s.runFlashcard(ctx, atom.Params)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownAtom, atom.Type)
	}

	if err != nil {
		log.Printf("atom job %s failed after %v: %v", job.ID, time.Since(job.StartedAt), err)
		return "", err
	}
	log.Printf("atom job %s done in %v", job.ID, time.Since(job.StartedAt))
	return result, nil
}
