// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/oranges-tui/internal/logging"
)

// renderMarkdown renders markdown for terminal display, returning the
// original content if the renderer cannot be built or fails.
func renderMarkdown(content string, width int) string {
	style := "auto"
	if !ColorsEnabled() {
		style = "notty"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		logging.Logger.Debug("markdown renderer unavailable", "err", err)
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
