// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"time"

	"github.com/jeranaias/oranges-tui/internal/model"
)

// State is the turn-taking state of the engine.
type State int

const (
	// StateIdle means no reply is outstanding and input is accepted.
	StateIdle State = iota
	// StateAwaitingReply means a user message is waiting for its reply.
	StateAwaitingReply
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitingReply:
		return "AwaitingReply"
	default:
		return "Unknown"
	}
}

// Snapshot is a deep copy of the engine state at one point in time.
// Mutating a snapshot never affects the engine.
type Snapshot struct {
	// Version increases by one with every state transition. Observers can
	// use it to drop snapshots that arrive out of order.
	Version uint64

	State         State
	SelectedModel model.Model

	// Active is the active conversation, or nil for a fresh session. It
	// points into Conversations.
	Active *model.Conversation

	// Conversations holds every conversation, most recently created first.
	Conversations []*model.Conversation

	// PendingModel and ReplyDueAt describe the outstanding reply while
	// State is StateAwaitingReply.
	PendingModel model.Model
	ReplyDueAt   time.Time
}

// IsIdle reports whether input would be accepted.
func (s Snapshot) IsIdle() bool {
	return s.State == StateIdle
}

// Messages returns the active transcript, or nil for a fresh session.
func (s Snapshot) Messages() []*model.Message {
	if s.Active == nil {
		return nil
	}
	return s.Active.Messages
}

// Find returns the conversation with the given ID.
func (s Snapshot) Find(id string) (*model.Conversation, bool) {
	for _, conv := range s.Conversations {
		if conv.ID == id {
			return conv, true
		}
	}
	return nil, false
}

// MostRecentlyUpdated returns the conversation with the latest update
// time. Ties go to the conversation listed first.
func (s Snapshot) MostRecentlyUpdated() *model.Conversation {
	var latest *model.Conversation
	for _, conv := range s.Conversations {
		if latest == nil || conv.UpdatedAt.After(latest.UpdatedAt) {
			latest = conv
		}
	}
	return latest
}

// Metas returns list metadata for every conversation in collection order.
func (s Snapshot) Metas() []model.ConversationMeta {
	metas := make([]model.ConversationMeta, len(s.Conversations))
	for i, conv := range s.Conversations {
		metas[i] = conv.GetMeta()
	}
	return metas
}
