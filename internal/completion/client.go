// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package completion implements the HTTP client for the text-generation
// endpoint.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the number of retry attempts after the first
	// try. Auth failures and cancellations are never retried.
	DefaultMaxRetries = 2

	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 8 * time.Second

	// MaxResponseSize caps the response body read.
	MaxResponseSize = 10 * 1024 * 1024
)

// sharedHTTPClient pools connections across all completion requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	Timeout: DefaultTimeout,
}

// sharedLimiter smooths bursts of requests client-side so a fast typist
// cannot trip the provider's rate limits immediately.
var sharedLimiter = rate.NewLimiter(rate.Every(500*time.Millisecond), 4)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("completion API key not configured")

	// ErrAuthFailed indicates the endpoint rejected the credentials
	// (HTTP 401/403). Never retried.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests (HTTP 429). Retryable.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedResponse indicates the response body could not be
	// parsed or carried no generated text.
	ErrMalformedResponse = errors.New("malformed completion response")
)

// APIError represents a non-OK response from the completion endpoint.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("completion endpoint error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

// Request is one completion call.
type Request struct {
	// Model is the model id, omitted when the endpoint URL embeds one.
	Model string
	// Prompt is the new user content.
	Prompt string
	// Context is the rendered conversation window, empty for
	// context-free calls such as title generation.
	Context string
	// SystemPrompt is prepended when non-empty.
	SystemPrompt string
	// Temperature in [0, 2].
	Temperature float64
	// MaxOutputTokens bounds the generated text.
	MaxOutputTokens int
}

// generateRequest is the wire format of the generation endpoint.
type generateRequest struct {
	Model             string            `json:"model,omitempty"`
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// generateResponse is the wire format of a successful generation.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// text extracts the generated text of the first candidate.
func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// apiErrorResponse is the wire format of an error response.
type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// MODEL DERIVATION
// =============================================================================

// modelPathPattern matches a model id embedded in the endpoint path, e.g.
// /v1beta/models/orion-pro:generateText.
var modelPathPattern = regexp.MustCompile(`/models/([^/:]+):`)

// ModelFromURL extracts a model id embedded in the endpoint URL path, if
// any. An embedded id takes precedence over the stored model setting.
func ModelFromURL(endpoint string) (string, bool) {
	m := modelPathPattern.FindStringSubmatch(endpoint)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// =============================================================================
// CLIENT
// =============================================================================

// Client issues completion requests against one endpoint. Construction is
// cheap: the HTTP transport is shared package-wide, so callers may build a
// fresh Client per send with the preferences snapshot in hand.
type Client struct {
	endpoint   string
	apiKey     string
	maxRetries int
	limiter    *rate.Limiter
	httpClient *http.Client
}

// New creates a client for the given endpoint and API key.
func New(endpoint, apiKey string) *Client {
	return &Client{
		endpoint:   strings.TrimSpace(endpoint),
		apiKey:     strings.TrimSpace(apiKey),
		maxRetries: DefaultMaxRetries,
		limiter:    sharedLimiter,
		httpClient: sharedHTTPClient,
	}
}

// WithMaxRetries overrides the retry budget.
func (c *Client) WithMaxRetries(n int) *Client {
	c.maxRetries = n
	return c
}

// WithHTTPClient overrides the HTTP client (tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// IsConfigured returns true if an API key is present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Generate performs one completion request and returns the generated
// text. Transient failures are retried up to the retry budget with
// exponential backoff; auth failures and context cancellation are
// returned immediately.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		text, err := c.doRequest(ctx, req)
		if err == nil {
			return text, nil
		}
		if !isRetryable(err) {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// GenerateShort is the short-generation entrypoint used for titles: same
// transport and retry policy, no conversation context, a tight token
// budget, and low temperature for stable output.
func (c *Client) GenerateShort(ctx context.Context, prompt string) (string, error) {
	return c.Generate(ctx, Request{
		Prompt:          prompt,
		Temperature:     0.2,
		MaxOutputTokens: 64,
	})
}

// =============================================================================
// TRANSPORT
// =============================================================================

// doRequest performs a single HTTP round trip.
func (c *Client) doRequest(ctx context.Context, req Request) (string, error) {
	body := generateRequest{
		Model: req.Model,
		Contents: []content{{
			Role:  "user",
			Parts: buildParts(req),
		}},
		GenerationConfig: &generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	requestURL, useQueryKey := c.authorizedURL()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if !useQueryKey {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logRequest(httpReq)
	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Unwrap context errors so cancellation stays distinguishable
		// from generic network failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	logResponse(resp, time.Since(start))

	raw, err := readBody(resp)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", errorFromResponse(resp.StatusCode, raw)
	}

	var genResp generateResponse
	if err := json.Unmarshal(raw, &genResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	text := genResp.text()
	if text == "" {
		return "", fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}
	return text, nil
}

// buildParts assembles the user content parts: the rendered conversation
// context (when present) followed by the new prompt.
func buildParts(req Request) []part {
	var parts []part
	if req.Context != "" {
		parts = append(parts, part{Text: req.Context})
	}
	parts = append(parts, part{Text: req.Prompt})
	return parts
}

// authorizedURL returns the request URL and whether the API key travels as
// a query parameter. Endpoints with an embedded model id use the key
// query parameter convention; everything else uses a bearer header.
func (c *Client) authorizedURL() (string, bool) {
	if _, embedded := ModelFromURL(c.endpoint); !embedded {
		return c.endpoint, false
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return c.endpoint, false
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), true
}

// readBody reads the response with a size cap.
func readBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(raw)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return raw, nil
}

// errorFromResponse maps an HTTP error status to the error taxonomy.
func errorFromResponse(status int, raw []byte) error {
	message := strings.TrimSpace(string(raw))
	var apiErr apiErrorResponse
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthFailed, message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, message)
	default:
		return &APIError{Status: status, Message: message}
	}
}

// isRetryable reports whether an error should consume a retry attempt.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrMalformedResponse) {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 && apiErr.Status < 600
	}
	// Generic network failures are retryable.
	return true
}

// backoff returns the delay before retry attempt n (1-based).
func backoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// =============================================================================
// LOGGING
// =============================================================================
//
// Requests are logged without headers or bodies: headers carry
// credentials and bodies carry conversation content.

func logRequest(req *http.Request) {
	log.Printf("completion request: %s %s", req.Method, req.URL.Path)
}

func logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("completion response: %d (%v)", resp.StatusCode, duration)
}
