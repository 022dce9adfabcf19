// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package atoms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/averill/atomchat/internal/completion"
)

// =============================================================================
// FLASHCARD ATOM
// =============================================================================

const flashcardCount = 8

// ErrNoCompleter indicates the flashcard atom was run without a
// completion client; unlike the other atoms it has no degraded mode.
var ErrNoCompleter = errors.New("flashcards require a configured completion client")

// Card is one question/answer pair.
type Card struct {
	Question string
	Answer   string
}

// runFlashcard asks the completion client for Q/A pairs on the topic and
// renders them as a study list.
func (s *Service) runFlashcard(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", ErrMissingParams
	}
	if s.completer == nil {
		return "", ErrNoCompleter
	}

	prompt := fmt.Sprintf("Create %d flashcards about: %s\n\n"+
		"Format every card as exactly two lines:\n"+
		"Q: the question\n"+
		"A: the answer\n"+
		"Output only the cards, no introduction.", flashcardCount, topic)

	raw, err := s.completer.Generate(ctx, completion.Request{
		Prompt:          prompt,
		Temperature:     0.5,
		MaxOutputTokens: 1200,
	})
	if err != nil {
		return "", err
	}

	cards := parseCards(raw)
	if len(cards) == 0 {
		// Model ignored the format; the raw text is still study material.
		return fmt.Sprintf("**Flashcards:** %s\n\n%s", topic, strings.TrimSpace(raw)), nil
	}
	return renderCards(topic, cards), nil
}

// parseCards extracts Q:/A: pairs, tolerating blank lines and numbering
// in front of the markers.
func parseCards(raw string) []Card {
	var cards []Card
	var current Card

	flush := func() {
		if current.Question != "" && current.Answer != "" {
			cards = append(cards, current)
		}
		current = Card{}
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.) ")

		switch {
		case len(line) > 2 && strings.EqualFold(line[:2], "q:"):
			flush()
			current.Question = strings.TrimSpace(line[2:])
		case len(line) > 2 && strings.EqualFold(line[:2], "a:"):
			current.Answer = strings.TrimSpace(line[2:])
		case line != "" && current.Answer != "":
			// Continuation of a multi-line answer.
			current.Answer += " " + line
		}
	}
	flush()
	return cards
}

// renderCards formats cards as a markdown study list.
func renderCards(topic string, cards []Card) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Flashcards:** %s\n\n", topic)
	for i, c := range cards {
		fmt.Fprintf(&sb, "%d. **Q:** %s\n   **A:** %s\n", i+1, c.Question, c.Answer)
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}
