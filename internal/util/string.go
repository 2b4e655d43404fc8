// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Ellipsis is appended to text shortened by Clip.
const Ellipsis = "..."

// UNICODE: Rune-aware truncation preserves multi-byte characters.
// These functions count characters, not bytes, so a truncated string
// is always valid UTF-8.

// Clip keeps the first maxRunes characters of s and appends Ellipsis when
// anything was cut. Unlike TruncateRunes the ellipsis does not count
// towards maxRunes.
func Clip(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + Ellipsis
}

// TruncateRunes truncates a string to a maximum number of runes.
// If the string is truncated, "..." is appended within the limit.
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
	return string(runes[:maxRunes-3]) + Ellipsis
}

// TruncateWidth truncates a string to a maximum display width.
// Double-width characters (CJK, emoji) take two columns.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

// SingleLine collapses line breaks and runs of whitespace into single
// spaces so multi-line text fits in a list row.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
