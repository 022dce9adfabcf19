// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/averill/atomchat/internal/model"
	"github.com/averill/atomchat/internal/state"
	"github.com/averill/atomchat/internal/util"
)

// =============================================================================
// TITLE GENERATION
// =============================================================================

const (
	// autoTitleThreshold is the message count at which a sentinel-titled
	// conversation gets auto-titled.
	autoTitleThreshold = 3

	// titleSourceLimit truncates each message fed to the title prompt.
	titleSourceLimit = 200

	titleInstruction = "Write a short title for this conversation. " +
		"Reply with the title only: plain text, no quotes, at most 40 characters.\n\n"
)

// ErrMissingCredential indicates title generation was requested without
// an API key configured.
var ErrMissingCredential = errors.New("no API key configured")

// GenerateTitle derives a short title from the conversation's messages
// and applies it. Returns the cleaned title, or "" with a nil error when
// there is nothing to title yet. Failures are propagated without mutating
// state; the caller owns user notification.
func (o *Orchestrator) GenerateTitle(ctx context.Context, conversationID string, messages []model.Message) (string, error) {
	st := o.State()
	if st.APIKey == "" {
		return "", ErrMissingCredential
	}

	source := titleSource(messages)
	if source == "" {
		return "", nil
	}

	raw, err := o.newClient(st.APIURL, st.APIKey).GenerateShort(ctx, titleInstruction+source)
	if err != nil {
		return "", err
	}

	title := cleanTitle(raw)
	if title == "" {
		return "", nil
	}

	o.Dispatch(state.UpdateConversationTitle{ID: conversationID, Title: title})
	return title, nil
}

// maybeAutoTitle fires title generation once a conversation crosses the
// message threshold while still bearing the sentinel title. The sentinel
// check keeps the trigger from refiring once a rename succeeded.
func (o *Orchestrator) maybeAutoTitle(ctx context.Context) {
	conv, ok := o.State().Current()
	if !ok {
		return
	}
	if len(conv.Messages) < autoTitleThreshold || !conv.HasSentinelTitle() || !conv.HasUserMessage() {
		return
	}

	if !o.beginTitling(conv.ID) {
		return
	}
	defer o.endTitling(conv.ID)

	if _, err := o.GenerateTitle(ctx, conv.ID, conv.Messages); err != nil {
		// Auto-titling is opportunistic: the conversation works fine
		// under the sentinel title, so failures are only logged.
		log.Printf("auto-title failed: %v", err)
	}
}

func (o *Orchestrator) beginTitling(conversationID string) bool {
	o.titlingMu.Lock()
	defer o.titlingMu.Unlock()
	if o.titling[conversationID] {
		return false
	}
	o.titling[conversationID] = true
	return true
}

func (o *Orchestrator) endTitling(conversationID string) {
	o.titlingMu.Lock()
	defer o.titlingMu.Unlock()
	delete(o.titling, conversationID)
}

// =============================================================================
// PROMPT ASSEMBLY
// =============================================================================

// titleSource renders the title prompt context: user and assistant
// messages only, markup stripped, each truncated, last six kept.
func titleSource(messages []model.Message) string {
	var kept []model.Message
	for _, m := range messages {
		if m.Role == model.RoleUser || m.Role == model.RoleAssistant {
			kept = append(kept, m)
		}
	}
	if len(kept) > contextWindow {
		kept = kept[len(kept)-contextWindow:]
	}

	lines := make([]string, 0, len(kept))
	for _, m := range kept {
		text := util.TruncateRunesNoEllipsis(util.StripTags(m.Content), titleSourceLimit)
		if text == "" {
			continue
		}
		speaker := "AI"
		if m.Role == model.RoleUser {
			speaker = "Human"
		}
		lines = append(lines, speaker+": "+text)
	}
	return strings.Join(lines, "\n")
}

// cleanTitle normalizes a raw model response into a display title.
func cleanTitle(raw string) string {
	title := strings.NewReplacer("\r", " ", "\n", " ").Replace(raw)
	title = strings.TrimSpace(title)
	title = strings.Trim(title, `"'`+"“”‘’")

	if len(title) >= len("title:") && strings.EqualFold(title[:len("title:")], "title:") {
		title = title[len("title:"):]
	}
	title = strings.TrimSpace(title)
	return util.CollapseSpaces(title)
}
