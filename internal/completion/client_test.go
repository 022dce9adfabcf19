// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// newTestClient builds a client against a test server with the rate
// limiter disabled so retries do not slow the suite down.
func newTestClient(endpoint, apiKey string) *Client {
	c := New(endpoint, apiKey)
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func candidateBody(text string) string {
	quoted, _ := json.Marshal(text)
	return `{"candidates":[{"content":{"parts":[{"text":` + string(quoted) + `}]}}]}`
}

// =============================================================================
// MODEL DERIVATION TESTS
// =============================================================================

func TestModelFromURL(t *testing.T) {
	tests := []struct {
		url      string
		want     string
		embedded bool
	}{
		{"https://api.example.com/v1beta/models/orion-pro:generateText", "orion-pro", true},
		{"https://api.example.com/v1beta/models/orion-1.5-flash:generate?alt=json", "orion-1.5-flash", true},
		{"https://api.example.com/v1/chat/completions", "", false},
		{"https://api.example.com/models/noop", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		got, embedded := ModelFromURL(tc.url)
		if got != tc.want || embedded != tc.embedded {
			t.Errorf("ModelFromURL(%q) = (%q, %v), want (%q, %v)", tc.url, got, embedded, tc.want, tc.embedded)
		}
	}
}

// =============================================================================
// TRANSPORT TESTS
// =============================================================================

func TestGenerateSuccess(t *testing.T) {
	var gotBody generateRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(candidateBody("hello back")))
	}))
	defer server.Close()

	c := newTestClient(server.URL, "sk-test")
	text, err := c.Generate(context.Background(), Request{
		Prompt:          "hi",
		Context:         "Human: previous\nAI: answer",
		SystemPrompt:    "be brief",
		Temperature:     0.7,
		MaxOutputTokens: 1250,
	})
	require.NoError(t, err)
	require.Equal(t, "hello back", text)

	require.Equal(t, "Bearer sk-test", gotAuth)
	require.Len(t, gotBody.Contents, 1)
	require.Len(t, gotBody.Contents[0].Parts, 2, "context part then prompt part")
	require.Equal(t, "Human: previous\nAI: answer", gotBody.Contents[0].Parts[0].Text)
	require.Equal(t, "hi", gotBody.Contents[0].Parts[1].Text)
	require.NotNil(t, gotBody.SystemInstruction)
	require.Equal(t, "be brief", gotBody.SystemInstruction.Parts[0].Text)
	require.Equal(t, 0.7, gotBody.GenerationConfig.Temperature)
	require.Equal(t, 1250, gotBody.GenerationConfig.MaxOutputTokens)
}

func TestGenerateQueryKeyForEmbeddedModel(t *testing.T) {
	var gotKey, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(candidateBody("ok")))
	}))
	defer server.Close()

	c := newTestClient(server.URL+"/v1beta/models/orion-pro:generate", "sk-query")
	_, err := c.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	require.Equal(t, "sk-query", gotKey, "embedded-model endpoints authenticate via query parameter")
	require.Empty(t, gotAuth)
}

func TestGenerateNotConfigured(t *testing.T) {
	c := newTestClient("https://api.example.com", "")
	_, err := c.Generate(context.Background(), Request{Prompt: "hi"})
	require.True(t, errors.Is(err, ErrNotConfigured))
}

// =============================================================================
// ERROR TAXONOMY TESTS
// =============================================================================

func TestAuthFailureNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":401,"message":"bad key"}}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, "sk-bad")
	_, err := c.Generate(context.Background(), Request{Prompt: "hi"})
	require.True(t, errors.Is(err, ErrAuthFailed))
	require.Equal(t, int32(1), attempts.Load(), "401 must not be retried")
}

func TestRateLimitRetriedThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(candidateBody("finally")))
	}))
	defer server.Close()

	c := newTestClient(server.URL, "sk-test")
	text, err := c.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	require.Equal(t, "finally", text)
	require.Equal(t, int32(2), attempts.Load())
}

func TestServerErrorExhaustsRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(server.URL, "sk-test")
	_, err := c.Generate(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	require.Equal(t, int32(1+DefaultMaxRetries), attempts.Load())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestMalformedResponseNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, "sk-test")
	_, err := c.Generate(context.Background(), Request{Prompt: "hi"})
	require.True(t, errors.Is(err, ErrMalformedResponse))
	require.Equal(t, int32(1), attempts.Load())
}

func TestCancellationDistinguishable(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The body must be consumed before blocking, or the server never
		// notices the client going away and Close hangs on this handler.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	c := newTestClient(server.URL, "sk-test")
	_, err := c.Generate(ctx, Request{Prompt: "hi"})
	require.True(t, errors.Is(err, context.Canceled), "cancellation must not look like a network failure: %v", err)
}

// =============================================================================
// SHORT GENERATION TESTS
// =============================================================================

func TestGenerateShort(t *testing.T) {
	var gotBody generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(candidateBody("A Short Title")))
	}))
	defer server.Close()

	c := newTestClient(server.URL, "sk-test")
	text, err := c.GenerateShort(context.Background(), "name this conversation")
	require.NoError(t, err)
	require.Equal(t, "A Short Title", text)

	require.Len(t, gotBody.Contents[0].Parts, 1, "short generation carries no conversation context")
	require.Equal(t, 64, gotBody.GenerationConfig.MaxOutputTokens)
}

func TestBackoffCapped(t *testing.T) {
	if d := backoff(1); d != retryBaseDelay {
		t.Errorf("backoff(1) = %v", d)
	}
	if d := backoff(10); d != retryMaxDelay {
		t.Errorf("backoff(10) = %v, want cap %v", d, retryMaxDelay)
	}
}
