// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// STRING TESTS
// =============================================================================

func TestStripTags(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain text", "plain text"},
		{"<b>bold</b> text", "bold text"},
		{"<div class=\"error\">failed</div>", "failed"},
		{"a<br/>b", "a b"},
		{"tags &amp; entities", "tags & entities"},
		{"", ""},
		{"<p>multi</p>\n<p>line</p>", "multi line"},
	}

	for _, tc := range tests {
		if got := StripTags(tc.input); got != tc.want {
			t.Errorf("StripTags(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNormalizeInput(t *testing.T) {
	// "é" as a precomposed rune and as "e" plus a combining accent.
	composed := "café"
	decomposed := "café"

	if got := NormalizeInput(decomposed); got != composed {
		t.Errorf("NormalizeInput(%q) = %q, want %q", decomposed, got, composed)
	}
	if got := NormalizeInput(composed); got != composed {
		t.Errorf("NormalizeInput(%q) = %q, want %q", composed, got, composed)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"héllo wörld", 8, "héllo..."},
		{"abc", 0, ""},
		{"abcdef", 2, "ab"},
	}

	for _, tc := range tests {
		if got := TruncateRunes(tc.input, tc.max); got != tc.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tc.input, tc.max, got, tc.want)
		}
	}
}

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")

	if err := AtomicWriteFile(path, []byte(`{"ok":true}`), 0644); err != nil {
		t.Fatalf("AtomicWriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("content = %q", data)
	}

	// Overwrite must replace, not append.
	if err := AtomicWriteFile(path, []byte("v2"), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "v2" {
		t.Errorf("content after rewrite = %q", data)
	}

	// No temp files left behind.
	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if e.Name() != "out.json" {
			t.Errorf("leftover file %q", e.Name())
		}
	}
}
