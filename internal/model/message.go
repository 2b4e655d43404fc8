// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/oranges-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single turn half in a conversation.
// Messages are never modified after creation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Model produced an assistant message. Empty for user messages.
	Model Model `json:"model,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string, at time.Time) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: at,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string, at time.Time) *Message {
	return NewMessage(RoleUser, content, at)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string, at time.Time) *Message {
	return NewMessage(RoleAssistant, content, at)
}

// NewReply creates an assistant message produced by m.
func NewReply(m Model, content string, at time.Time) *Message {
	msg := NewMessage(RoleAssistant, content, at)
	msg.Model = m
	return msg
}

// ModelOr returns the model that produced the message, or fallback when
// none was recorded.
func (m *Message) ModelOr(fallback Model) Model {
	if m.Model != "" {
		return m.Model
	}
	return fallback
}

// Preview returns a truncated preview of the message content.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(util.SingleLine(m.Content), maxLen)
}
