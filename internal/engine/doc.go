// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine runs the simulated conversation protocol.
//
// The Engine keeps the conversation collection, the active conversation and
// the selected model, and simulates an assistant reply for every accepted
// user message after a fixed per-model delay.
//
// # States
//
//	Idle ──Submit──▶ AwaitingReply ──reply──▶ Idle
//
// Submit is ignored while a reply is pending, so at most one reply is ever
// outstanding. The reply's content and delay are fixed at submission time;
// SelectModel only affects later submissions.
//
// # Usage
//
//	e := engine.New(engine.DefaultConfig())
//	defer e.Close()
//
//	e.OnChange(func(s engine.Snapshot) { render(s) })
//
//	e.Submit("Hello")           // user message appended, reply scheduled
//	_ = e.WaitIdle(ctx)         // reply appended after 500ms
//
//	e.NewSession()              // next Submit starts a new conversation
//	err := e.LoadConversation(id)
//
// Tests pass a clockwork fake clock in Config.Clock and advance it instead
// of sleeping.
package engine
