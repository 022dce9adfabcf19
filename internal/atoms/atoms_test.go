// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package atoms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/averill/atomchat/internal/completion"
	"github.com/averill/atomchat/internal/config"
	"github.com/averill/atomchat/internal/model"
)

// stubCompleter returns a canned generation.
type stubCompleter struct {
	reply   string
	err     error
	lastReq completion.Request
	calls   int
}

func (s *stubCompleter) Generate(ctx context.Context, req completion.Request) (string, error) {
	s.calls++
	s.lastReq = req
	return s.reply, s.err
}

// rewriteTransport sends every request to the test server regardless of
// the original host.
type rewriteTransport struct {
	target *url.URL
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func testServiceAgainst(t *testing.T, server *httptest.Server, search config.SearchConfig, c Completer) *Service {
	t.Helper()
	target, err := url.Parse(server.URL)
	require.NoError(t, err)
	return NewService(search, c).WithHTTPClient(&http.Client{
		Transport: &rewriteTransport{target: target},
	})
}

// =============================================================================
// WEB SEARCH TESTS
// =============================================================================

func TestWebSearchNotConfigured(t *testing.T) {
	svc := NewService(config.SearchConfig{}, nil)
	_, err := svc.Run(context.Background(), model.ActiveAtom{Type: model.AtomWebSearch, Params: "anything"})
	require.ErrorIs(t, err, ErrSearchNotConfigured)
}

func TestWebSearchMissingQuery(t *testing.T) {
	svc := NewService(config.SearchConfig{APIKey: "k", EngineID: "cx"}, nil)
	_, err := svc.Run(context.Background(), model.ActiveAtom{Type: model.AtomWebSearch})
	require.ErrorIs(t, err, ErrMissingParams)
}

func TestWebSearchFormatsResults(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"items":[
			{"title":"Go Generics <b>Guide</b>","link":"https://example.com/a","snippet":"All about generics."},
			{"title":"Second Hit","link":"https://example.com/b","snippet":""}
		]}`))
	}))
	defer server.Close()

	svc := testServiceAgainst(t, server, config.SearchConfig{APIKey: "key1", EngineID: "cx1", MaxResults: 3}, nil)

	out, err := svc.Run(context.Background(), model.ActiveAtom{Type: model.AtomWebSearch, Params: "go generics"})
	require.NoError(t, err)

	require.Equal(t, "key1", gotQuery.Get("key"))
	require.Equal(t, "cx1", gotQuery.Get("cx"))
	require.Equal(t, "go generics", gotQuery.Get("q"))
	require.Equal(t, "3", gotQuery.Get("num"))

	require.Contains(t, out, "[1] **Go Generics Guide**", "markup must be stripped from titles")
	require.Contains(t, out, "https://example.com/a")
	require.Contains(t, out, "[2] **Second Hit**")
}

func TestWebSearchSummarizesWithCompleter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"title":"Hit","link":"https://example.com","snippet":"snippet"}]}`))
	}))
	defer server.Close()

	stub := &stubCompleter{reply: "Generics let you parameterize types [1]."}
	svc := testServiceAgainst(t, server, config.SearchConfig{APIKey: "k", EngineID: "cx"}, stub)

	out, err := svc.Run(context.Background(), model.ActiveAtom{Type: model.AtomWebSearch, Params: "go generics"})
	require.NoError(t, err)
	require.Equal(t, 1, stub.calls)
	require.Contains(t, stub.lastReq.Context, "[1] **Hit**")
	require.True(t, strings.HasPrefix(out, "Generics let you parameterize types [1]."))
	require.Contains(t, out, "https://example.com", "sources follow the synthesized answer")
}

func TestWebSearchFallsBackWhenSummaryFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"title":"Hit","link":"https://example.com","snippet":"s"}]}`))
	}))
	defer server.Close()

	stub := &stubCompleter{err: errors.New("endpoint down")}
	svc := testServiceAgainst(t, server, config.SearchConfig{APIKey: "k", EngineID: "cx"}, stub)

	out, err := svc.Run(context.Background(), model.ActiveAtom{Type: model.AtomWebSearch, Params: "q"})
	require.NoError(t, err, "raw results remain useful when summarization fails")
	require.Contains(t, out, "[1] **Hit**")
}

// =============================================================================
// YOUTUBE TESTS
// =============================================================================

func TestYouTubeRejectsNonYouTubeURL(t *testing.T) {
	svc := NewService(config.SearchConfig{}, nil)
	_, err := svc.Run(context.Background(), model.ActiveAtom{Type: model.AtomYouTube, Params: "https://example.com/watch"})
	require.ErrorIs(t, err, ErrInvalidVideoURL)
}

func TestYouTubeURLRecognition(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.youtube.com/watch?v=abc", true},
		{"https://youtu.be/abc", true},
		{"https://m.youtube.com/watch?v=abc", true},
		{"https://notyoutube.com/watch?v=abc", false},
		{"ftp://youtube.com/x", false},
		{"not a url", false},
	}
	for _, tc := range tests {
		if got := isYouTubeURL(tc.url); got != tc.want {
			t.Errorf("isYouTubeURL(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestYouTubeSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "https://youtu.be/abc123", r.URL.Query().Get("url"))
		w.Write([]byte(`{"title":"Understanding Context","author_name":"GopherCon"}`))
	}))
	defer server.Close()

	stub := &stubCompleter{reply: "The talk covers cancellation and deadlines."}
	svc := testServiceAgainst(t, server, config.SearchConfig{}, stub)

	out, err := svc.Run(context.Background(), model.ActiveAtom{Type: model.AtomYouTube, Params: "https://youtu.be/abc123"})
	require.NoError(t, err)
	require.Contains(t, out, "Understanding Context")
	require.Contains(t, out, "GopherCon")
	require.Contains(t, out, "cancellation and deadlines")
}

// =============================================================================
// FLASHCARD TESTS
// =============================================================================

func TestFlashcardRequiresCompleter(t *testing.T) {
	svc := NewService(config.SearchConfig{}, nil)
	_, err := svc.Run(context.Background(), model.ActiveAtom{Type: model.AtomFlashcard, Params: "go slices"})
	require.ErrorIs(t, err, ErrNoCompleter)
}

func TestFlashcardParsesCards(t *testing.T) {
	stub := &stubCompleter{reply: "Q: What is a slice?\nA: A view over an array.\n\n" +
		"2. Q: What is cap?\nA: The capacity of the\nbacking array.\n"}
	svc := NewService(config.SearchConfig{}, stub)

	out, err := svc.Run(context.Background(), model.ActiveAtom{Type: model.AtomFlashcard, Params: "go slices"})
	require.NoError(t, err)
	require.Contains(t, out, "1. **Q:** What is a slice?")
	require.Contains(t, out, "**A:** A view over an array.")
	require.Contains(t, out, "2. **Q:** What is cap?")
	require.Contains(t, out, "The capacity of the backing array.", "multi-line answers are joined")
}

func TestFlashcardKeepsRawOnFormatMiss(t *testing.T) {
	stub := &stubCompleter{reply: "Here are some facts about slices without any markers."}
	svc := NewService(config.SearchConfig{}, stub)

	out, err := svc.Run(context.Background(), model.ActiveAtom{Type: model.AtomFlashcard, Params: "go slices"})
	require.NoError(t, err)
	require.Contains(t, out, "facts about slices")
}

func TestParseCards(t *testing.T) {
	cards := parseCards("q: lower case?\na: works too")
	require.Len(t, cards, 1)
	require.Equal(t, "lower case?", cards[0].Question)
	require.Equal(t, "works too", cards[0].Answer)

	require.Empty(t, parseCards("no markers at all"))
	require.Empty(t, parseCards("Q: question without answer"))
}

// =============================================================================
// DISPATCH TESTS
// =============================================================================

func TestUnknownAtomType(t *testing.T) {
	svc := NewService(config.SearchConfig{}, nil)
	_, err := svc.Run(context.Background(), model.ActiveAtom{Type: "pdf"})
	require.ErrorIs(t, err, ErrUnknownAtom)
}
