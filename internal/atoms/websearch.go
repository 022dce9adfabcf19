// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package atoms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/averill/atomchat/internal/completion"
	"github.com/averill/atomchat/internal/util"
)

// =============================================================================
// WEB SEARCH ATOM
// =============================================================================

const searchEndpoint = "https://www.googleapis.com/customsearch/v1"

// ErrSearchNotConfigured indicates the Custom Search credentials are
// missing from the config file.
var ErrSearchNotConfigured = errors.New("web search is not configured")

// searchResult is one hit from the Custom Search JSON API.
type searchResult struct {
	Title   string
	URL     string
	Snippet string
}

// searchResponse is the wire format of the Custom Search JSON API.
type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// runWebSearch fetches search results and, when a completion client is
// available, synthesizes an answer from them. Without a completer the
// formatted result list is the answer.
func (s *Service) runWebSearch(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrMissingParams
	}
	if s.search.APIKey == "" || s.search.EngineID == "" {
		return "", ErrSearchNotConfigured
	}

	results, err := s.fetchResults(ctx, query)
	if err != nil {
		return "", err
	}
	formatted := formatSearchResults(query, results)

	if s.completer == nil || len(results) == 0 {
		return formatted, nil
	}

	summary, err := s.completer.Generate(ctx, completion.Request{
		Prompt: "Answer the question using only the search results below. " +
			"Cite sources by their [n] markers.\n\nQuestion: " + query,
		Context:         formatted,
		Temperature:     0.3,
		MaxOutputTokens: 800,
	})
	if err != nil {
		// The raw results are still useful on their own.
		return formatted, nil
	}
	return summary + "\n\n" + formatted, nil
}

// fetchResults calls the Custom Search JSON API.
func (s *Service) fetchResults(ctx context.Context, query string) ([]searchResult, error) {
	maxResults := s.search.MaxResults
	if maxResults < 1 {
		maxResults = 5
	}
	if maxResults > 10 {
		maxResults = 10
	}

	params := url.Values{}
	params.Set("key", s.search.APIKey)
	params.Set("cx", s.search.EngineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchBodyLimit))
	if err != nil {
		return nil, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := make([]searchResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		title := strings.TrimSpace(util.StripTags(item.Title))
		if title == "" || item.Link == "" {
			continue
		}
		results = append(results, searchResult{
			Title:   title,
			URL:     item.Link,
			Snippet: strings.TrimSpace(util.StripTags(item.Snippet)),
		})
	}
	return results, nil
}

// formatSearchResults renders results as a numbered source list.
func formatSearchResults(query string, results []searchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Web search:** %s\n\n", query)

	if len(results) == 0 {
		sb.WriteString("No results found.\n")
		return sb.String()
	}

	for i, r := range results {
		fmt.Fprintf(&sb, "[%d] **%s**\n%s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			sb.WriteString(util.TruncateRunes(r.Snippet, 300))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}
