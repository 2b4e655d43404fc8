// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// =============================================================================
// CLIP TESTS
// =============================================================================

func TestClip(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		want     string
	}{
		{"short", "Hello", 50, "Hello"},
		{"exact", strings.Repeat("a", 50), 50, strings.Repeat("a", 50)},
		{"one over", strings.Repeat("a", 51), 50, strings.Repeat("a", 50) + "..."},
		{"unicode", "héllo wörld", 5, "héllo..."},
		{"cjk", "你好世界你好世界", 4, "你好世界..."},
		{"zero", "Hello", 0, ""},
		{"empty", "", 10, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Clip(tc.input, tc.maxRunes)
			if got != tc.want {
				t.Errorf("Clip(%q, %d) = %q, want %q", tc.input, tc.maxRunes, got, tc.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Clip(%q, %d) produced invalid UTF-8", tc.input, tc.maxRunes)
			}
		})
	}
}

// =============================================================================
// TRUNCATION TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		input    string
		maxRunes int
		want     string
	}{
		{"Hello, world", 8, "Hello..."},
		{"Hello", 5, "Hello"},
		{"Hello", 3, "Hel"},
		{"Hello", 0, ""},
	}

	for _, tc := range tests {
		if got := TruncateRunes(tc.input, tc.maxRunes); got != tc.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tc.input, tc.maxRunes, got, tc.want)
		}
	}
}

func TestTruncateWidth(t *testing.T) {
	if got := TruncateWidth("short", 20); got != "short" {
		t.Errorf("TruncateWidth should not change short strings, got %q", got)
	}
	if got := TruncateWidth("你好世界", 5); got != "你好…" {
		t.Errorf("TruncateWidth(cjk) = %q, want %q", got, "你好…")
	}
	if got := TruncateWidth("anything", 0); got != "" {
		t.Errorf("TruncateWidth with zero width = %q, want empty", got)
	}
}

func TestSingleLine(t *testing.T) {
	got := SingleLine("first line\nsecond\r\n  third\tcol")
	want := "first line second third col"
	if got != want {
		t.Errorf("SingleLine() = %q, want %q", got, want)
	}
}
