// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for oranges.
//
// Settings are resolved in this order, later sources winning:
//
//   - Built-in defaults
//   - ~/.oranges/config.toml (or the --config path)
//   - a .env file in the working directory
//   - ORANGES_* environment variables
//
// Example config.toml:
//
//	default_model = "balanced"
//
//	[log]
//	level = "debug"
//	file = "/tmp/oranges.log"
//
//	[ui]
//	show_timestamps = true
//	list_width = 40
//
// Environment overrides: ORANGES_DEFAULT_MODEL, ORANGES_LOG_LEVEL,
// ORANGES_LOG_FILE, ORANGES_NO_COLOR, ORANGES_SHOW_TIMESTAMPS,
// ORANGES_LIST_WIDTH, ORANGES_HISTORY_FILE.
package config
