// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/jeranaias/oranges-tui/internal/util"
)

// NameLength is the number of characters of the first user message kept in
// a conversation's display name.
const NameLength = 50

// ErrOutOfTurn is returned when appending a message would break the
// user/assistant alternation of a transcript.
var ErrOutOfTurn = errors.New("message out of turn")

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a named transcript tied to the model it was started with.
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Model is fixed at creation
	Model Model `json:"model"`

	// Messages in transcript order
	Messages []*Message `json:"messages"`
}

// NewConversation starts a conversation from its first user message.
func NewConversation(id string, m Model, first *Message) *Conversation {
	return &Conversation{
		ID:        id,
		Name:      DisplayName(first.Content),
		CreatedAt: first.Timestamp,
		UpdatedAt: first.Timestamp,
		Model:     m,
		Messages:  []*Message{first},
	}
}

// DisplayName derives a conversation name from the text that started it.
func DisplayName(text string) string {
	return util.Clip(text, NameLength)
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends msg, keeping the transcript alternating: a user
// message may only start the transcript or follow an assistant message,
// and an assistant message must follow a user message.
func (c *Conversation) AddMessage(msg *Message) error {
	last := c.LastMessage()
	switch msg.Role {
	case RoleUser:
		if last != nil && last.Role != RoleAssistant {
			return fmt.Errorf("%w: user message after %s", ErrOutOfTurn, last.Role)
		}
	case RoleAssistant:
		if last == nil || last.Role != RoleUser {
			return fmt.Errorf("%w: assistant message without a user message", ErrOutOfTurn)
		}
	default:
		return fmt.Errorf("%w: unknown role %q", ErrOutOfTurn, msg.Role)
	}

	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = msg.Timestamp
	return nil
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// FirstUserMessage returns the message that started the conversation.
func (c *Conversation) FirstUserMessage() *Message {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return msg
		}
	}
	return nil
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// TurnCount returns the number of completed user/assistant pairs.
func (c *Conversation) TurnCount() int {
	turns := 0
	for _, msg := range c.Messages {
		if msg.Role == RoleAssistant {
			turns++
		}
	}
	return turns
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// METADATA
// =============================================================================

// Preview returns the first user message shortened for list display.
func (c *Conversation) Preview() string {
	first := c.FirstUserMessage()
	if first == nil {
		return "Empty conversation"
	}
	return first.Preview(NameLength)
}

// GetMeta returns metadata about the conversation.
func (c *Conversation) GetMeta() ConversationMeta {
	return ConversationMeta{
		ID:           c.ID,
		Name:         c.Name,
		Model:        c.Model,
		MessageCount: len(c.Messages),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		Preview:      c.Preview(),
	}
}

// ConversationMeta holds lightweight metadata for listing.
type ConversationMeta struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Model        Model     `json:"model"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Preview      string    `json:"preview"`
}

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.Messages = make([]*Message, len(c.Messages))
	for i, msg := range c.Messages {
		msgCopy := *msg
		clone.Messages[i] = &msgCopy
	}
	return &clone
}
