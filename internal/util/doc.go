// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small string helpers shared across packages.
//
// All helpers are rune-aware:
//
//	util.Clip("Hello, world", 5)         // "Hello..."
//	util.TruncateRunes("Hello, world", 8) // "Hello..."
//	util.TruncateWidth("你好世界", 5)      // "你好…"
package util
