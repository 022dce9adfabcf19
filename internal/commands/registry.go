// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system.
package commands

import (
	"sort"

	"github.com/averill/atomchat/internal/model"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be recognized in user input.
// Commands are routing metadata only; execution lives with the caller.
type Command struct {
	// Name is the primary command name (e.g., "/youtube")
	Name string

	// Aliases are alternative names (e.g., "/yt")
	Aliases []string

	// Description is shown in help
	Description string

	// Usage shows argument syntax (e.g., "/youtube <url>")
	Usage string

	// Category for grouping in help display
	Category string

	// Atom, when non-empty, marks this command as an atom activation:
	// its raw arguments become the atom's seed parameters.
	Atom model.AtomType

	// Hidden commands don't appear in help
	Hidden bool
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns visible commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Atom activation commands
	r.Register(&Command{
		Name:        "/youtube",
		Aliases:     []string{"/yt"},
		Description: "Summarize a YouTube video",
		Usage:       "/youtube <url>",
		Category:    "Atoms",
		Atom:        model.AtomYouTube,
	})

	r.Register(&Command{
		Name:        "/flashcard",
		Aliases:     []string{"/fc"},
		Description: "Generate flashcards from a topic or pasted text",
		Usage:       "/flashcard <topic>",
		Category:    "Atoms",
		Atom:        model.AtomFlashcard,
	})

	r.Register(&Command{
		Name:        "/web",
		Aliases:     []string{"/search"},
		Description: "Search the web and summarize the results",
		Usage:       "/web <query>",
		Category:    "Atoms",
		Atom:        model.AtomWebSearch,
	})

	// Conversation commands
	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n"},
		Description: "Start a new conversation",
		Category:    "Conversation",
	})

	r.Register(&Command{
		Name:        "/clear",
		Description: "Clear the current conversation's messages",
		Category:    "Conversation",
	})

	r.Register(&Command{
		Name:        "/title",
		Description: "Rename the current conversation",
		Usage:       "/title <text>",
		Category:    "Conversation",
	})

	r.Register(&Command{
		Name:        "/export",
		Description: "Export the current conversation to markdown",
		Usage:       "/export [path]",
		Category:    "Conversation",
	})

	// Navigation commands
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show help and available commands",
		Category:    "Navigation",
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit atomchat",
		Category:    "Navigation",
	})
}
