// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the oranges command tree.
//
// Commands:
//
//	oranges [chat]            interactive chat (default)
//	oranges ask TEXT...       one question, one reply
//	oranges models            list models
//	oranges config show|init  inspect or create ~/.oranges/config.toml
//	oranges version           print version
//
// The chat REPL submits plain lines to the engine and blocks while the
// selected model "thinks". Slash commands manage models and conversations;
// see /help.
package cli
