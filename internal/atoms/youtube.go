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
	"strings"

	"github.com/averill/atomchat/internal/completion"
)

// =============================================================================
// YOUTUBE ATOM
// =============================================================================

const oembedEndpoint = "https://www.youtube.com/oembed"

// ErrInvalidVideoURL indicates the parameter is not a recognizable
// YouTube URL.
var ErrInvalidVideoURL = errors.New("not a YouTube URL")

// videoMeta is the oEmbed metadata for a video.
type videoMeta struct {
	Title  string `json:"title"`
	Author string `json:"author_name"`
}

// runYouTube fetches video metadata over oEmbed and asks the completion
// client what the video covers.
func (s *Service) runYouTube(ctx context.Context, videoURL string) (string, error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return "", ErrMissingParams
	}
	if !isYouTubeURL(videoURL) {
		return "", ErrInvalidVideoURL
	}

	meta, err := s.fetchVideoMeta(ctx, videoURL)
	if err != nil {
		return "", err
	}

	header := fmt.Sprintf("**YouTube:** %s\nby %s\n%s\n", meta.Title, meta.Author, videoURL)
	if s.completer == nil {
		return header, nil
	}

	summary, err := s.completer.Generate(ctx, completion.Request{
		Prompt: fmt.Sprintf("Based on its title and author, explain what the YouTube video %q by %s "+
			"most likely covers, and list the key topics a viewer should expect.", meta.Title, meta.Author),
		Temperature:     0.4,
		MaxOutputTokens: 600,
	})
	if err != nil {
		return header, nil
	}
	return header + "\n" + summary, nil
}

// fetchVideoMeta resolves title and author via the oEmbed endpoint,
// which needs no API key.
func (s *Service) fetchVideoMeta(ctx context.Context, videoURL string) (videoMeta, error) {
	params := url.Values{}
	params.Set("url", videoURL)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oembedEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return videoMeta{}, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return videoMeta{}, fmt.Errorf("video lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized {
		return videoMeta{}, fmt.Errorf("%w: video not found or not embeddable", ErrInvalidVideoURL)
	}
	if resp.StatusCode != http.StatusOK {
		return videoMeta{}, fmt.Errorf("video lookup returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchBodyLimit))
	if err != nil {
		return videoMeta{}, err
	}

	var meta videoMeta
	if err := json.Unmarshal(body, &meta); err != nil {
		return videoMeta{}, fmt.Errorf("failed to parse video metadata: %w", err)
	}
	if meta.Title == "" {
		return videoMeta{}, fmt.Errorf("%w: no title in metadata", ErrInvalidVideoURL)
	}
	return meta, nil
}

// isYouTubeURL accepts youtube.com and youtu.be hosts.
func isYouTubeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return host == "youtube.com" || host == "m.youtube.com" || host == "youtu.be"
}
