// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the domain types shared by the engine, the exporters
// and the command line front end.
//
// # Key Types
//
//   - Model: one of the three simulated response profiles
//   - ModelInfo: catalog entry with display name, latency and canned reply
//   - Conversation: named transcript bound to the model it started with
//   - Message: single user or assistant message with timestamp
//
// # Usage
//
// Start a conversation from its first message:
//
//	first := model.NewUserMessage("Hello", time.Now())
//	conv := model.NewConversation("1718000000000", model.FastJuices, first)
//	_ = conv.AddMessage(model.NewAssistantMessage(model.FastJuices.Response(), time.Now()))
//
// Resolve a model from user input:
//
//	m, err := model.ParseModel("balanced") // model.PureJuice
package model
