// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// TERMINAL WIDTH
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width used for layout
	MinTerminalWidth = 40
)

// GetTerminalWidth returns the current terminal width, or
// DefaultTerminalWidth when it cannot be determined.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

var (
	colorsMu       sync.Mutex
	colorsDecided  bool
	colorsEnabled  bool
	colorsDisabled bool // set from config
)

// DisableColors turns styling off regardless of terminal detection.
func DisableColors() {
	colorsMu.Lock()
	colorsDisabled = true
	colorsDecided = false
	colorsMu.Unlock()
	applyColorProfile()
}

// ColorsEnabled returns true if colored output should be used. NO_COLOR
// and the no_color config setting disable colors; FORCE_COLOR enables
// them for non-terminal output.
func ColorsEnabled() bool {
	colorsMu.Lock()
	defer colorsMu.Unlock()

	if !colorsDecided {
		colorsDecided = true
		switch {
		case colorsDisabled, os.Getenv("NO_COLOR") != "":
			colorsEnabled = false
		case os.Getenv("FORCE_COLOR") != "":
			colorsEnabled = true
		default:
			colorsEnabled = IsStdoutTTY()
		}
	}
	return colorsEnabled
}

// ForceColorsEnabled overrides color detection. Used by tests.
func ForceColorsEnabled(enabled bool) {
	colorsMu.Lock()
	colorsDecided = true
	colorsEnabled = enabled
	colorsMu.Unlock()
	applyColorProfile()
}

// GetColorProfile returns Ascii when colors are off, otherwise the
// profile termenv detects for this terminal.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}
