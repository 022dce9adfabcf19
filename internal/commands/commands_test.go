// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"testing"

	"github.com/averill/atomchat/internal/model"
)

func TestParseNonCommand(t *testing.T) {
	p := NewParser(NewRegistry())

	for _, input := range []string{"hello", "  hi there", "", "what is /help"} {
		result := p.Parse(input)
		if result.IsCommand {
			t.Errorf("Parse(%q).IsCommand = true, want false", input)
		}
	}
}

func TestParseAtomCommand(t *testing.T) {
	p := NewParser(NewRegistry())

	result := p.Parse("/youtube https://youtu.be/abc123")
	if !result.IsCommand {
		t.Fatal("expected IsCommand")
	}
	if result.Command == nil {
		t.Fatal("expected command match")
	}
	if result.Command.Atom != model.AtomYouTube {
		t.Errorf("Atom = %q, want %q", result.Command.Atom, model.AtomYouTube)
	}
	if result.RawArgs != "https://youtu.be/abc123" {
		t.Errorf("RawArgs = %q", result.RawArgs)
	}
}

func TestParseAlias(t *testing.T) {
	p := NewParser(NewRegistry())

	result := p.Parse("/yt https://x/y")
	if result.Command == nil || result.Command.Name != "/youtube" {
		t.Fatalf("alias /yt did not resolve to /youtube: %+v", result.Command)
	}
}

func TestParseUnknownCommand(t *testing.T) {
	p := NewParser(NewRegistry())

	result := p.Parse("/frobnicate now")
	if !result.IsCommand {
		t.Fatal("expected IsCommand")
	}
	if result.Command != nil {
		t.Errorf("unexpected match for unknown command: %s", result.Command.Name)
	}
	if result.CommandName != "/frobnicate" {
		t.Errorf("CommandName = %q", result.CommandName)
	}
}

func TestParseCaseInsensitiveName(t *testing.T) {
	p := NewParser(NewRegistry())

	result := p.Parse("/WEB golang generics")
	if result.Command == nil || result.Command.Atom != model.AtomWebSearch {
		t.Fatalf("uppercase command did not resolve: %+v", result.Command)
	}
	if result.RawArgs != "golang generics" {
		t.Errorf("RawArgs = %q", result.RawArgs)
	}
}

func TestSplitCommandLine(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"/title My New Title", []string{"/title", "My", "New", "Title"}},
		{`/title "My New Title"`, []string{"/title", "My New Title"}},
		{`/title 'quoted arg' plain`, []string{"/title", "quoted arg", "plain"}},
		{`/title "escaped \" quote"`, []string{"/title", `escaped " quote`}},
		{"   ", nil},
	}

	for _, tc := range tests {
		got := splitCommandLine(tc.input)
		if len(got) != len(tc.want) {
			t.Errorf("splitCommandLine(%q) = %v, want %v", tc.input, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitCommandLine(%q)[%d] = %q, want %q", tc.input, i, got[i], tc.want[i])
			}
		}
	}
}

func TestRegistryByCategory(t *testing.T) {
	r := NewRegistry()

	byCat := r.ByCategory()
	atoms := byCat["Atoms"]
	if len(atoms) != 3 {
		t.Fatalf("expected 3 atom commands, got %d", len(atoms))
	}
	for _, cmd := range atoms {
		if cmd.Atom == "" {
			t.Errorf("atom command %s has no atom type", cmd.Name)
		}
	}
}
