// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME SELECTION
// =============================================================================

// ApplyTheme forces light or dark rendering of the adaptive palette, or
// leaves terminal background detection in place for "auto". Unknown
// values fall back to auto.
func ApplyTheme(theme string) {
	switch strings.ToLower(strings.TrimSpace(theme)) {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	default:
		lipgloss.SetHasDarkBackground(termenv.HasDarkBackground())
	}
}

// ValidThemes lists the accepted theme names for config validation and
// settings display.
func ValidThemes() []string {
	return []string{"auto", "dark", "light"}
}
