// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across atomchat.
package util

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// tagPattern matches HTML/XML style tags. Assistant and atom output embeds
// markup that must not leak into prompts or titles.
var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripTags removes embedded markup from a string and unescapes HTML
// entities, collapsing any whitespace runs the removal leaves behind.
func StripTags(s string) string {
	if !strings.ContainsRune(s, '<') && !strings.ContainsRune(s, '&') {
		return s
	}
	out := tagPattern.ReplaceAllString(s, " ")
	out = html.UnescapeString(out)
	return CollapseSpaces(out)
}

// NormalizeInput canonicalizes terminal input to NFC. Some terminals
// emit decomposed sequences for accented characters, which would make
// otherwise identical prompts compare and render differently.
func NormalizeInput(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

// CollapseSpaces trims the string and collapses internal whitespace runs
// (including newlines) to single spaces.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateRunes truncates a string to a maximum number of runes, appending
// "..." when truncated. Rune-based so multi-byte UTF-8 characters are
// never split.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TruncateRunesNoEllipsis truncates a string to a maximum number of runes
// without appending an ellipsis.
func TruncateRunesNoEllipsis(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}
