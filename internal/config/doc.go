// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads chetna's settings file.
//
// Values are resolved from highest precedence down:
//
//  1. CHETNA_* environment variables, including ones set by .env files
//  2. ~/.chetna/config.toml, or config.json when there is no TOML file
//  3. Default()
//
// CHETNA_HOME moves ~/.chetna. Keys for `chetna config get/set` are the TOML
// names joined by dots, for example chat.guest_message_limit.
//
// A Watcher reloads the file on save; only some settings take effect
// without a restart.
package config
