// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrConversationNotFound is returned by LoadConversation for an unknown ID.
	ErrConversationNotFound = &EngineError{Code: "conversation_not_found", Message: "conversation not found"}

	// ErrReplyPending is returned when an operation needs the engine to be
	// idle while a simulated reply is still outstanding.
	ErrReplyPending = &EngineError{Code: "reply_pending", Message: "a reply is still pending"}

	// ErrEmptyInput classifies blank submissions. Submit never returns it;
	// blank input is dropped silently.
	ErrEmptyInput = &EngineError{Code: "empty_input", Message: "input is empty"}

	// ErrClosed is returned by SelectModel and LoadConversation after Close.
	ErrClosed = &EngineError{Code: "closed", Message: "engine is closed"}
)

// EngineError is a conversation engine error.
// Use errors.Is(err, ErrConversationNotFound) and friends to check for one.
type EngineError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return e.Message
}

// Is implements errors.Is support by comparing codes.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
