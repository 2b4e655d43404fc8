// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// ReplyMsg is sent once a pending reply has landed, or when waiting for it
// was abandoned (Err is then the context error).
type ReplyMsg struct {
	Snapshot Snapshot
	Err      error
}

// WaitForReplyCmd returns a command that waits for the pending reply and
// resolves to a ReplyMsg. When nothing is pending it resolves immediately.
func WaitForReplyCmd(ctx context.Context, e *Engine) tea.Cmd {
	return func() tea.Msg {
		err := e.WaitIdle(ctx)
		return ReplyMsg{Snapshot: e.Snapshot(), Err: err}
	}
}

// SubmitCmd submits text and, if it was accepted, waits for the reply.
// Blank or rejected input resolves to nil so the program ignores it.
func SubmitCmd(ctx context.Context, e *Engine, text string) tea.Cmd {
	if !e.Submit(text) {
		return nil
	}
	return WaitForReplyCmd(ctx, e)
}
