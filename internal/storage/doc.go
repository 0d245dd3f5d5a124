// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides transcript persistence for the chat core.
//
// The transcript is kept as a single snapshot under a fixed key in a
// kv.Store. The snapshot is a JSON array of messages:
//
//	[{"text":"Hello","isUser":false,"timestamp":"2025-01-02T10:00:00.000Z"}]
//
// # Usage
//
//	store := storage.NewMessageStore(kvStore, logger)
//	tr, ok := store.Load()
//	if !ok {
//	    tr = model.NewWelcomeTranscript(welcome, time.Now())
//	}
//	store.Save(tr)
//
// Load never fails: a missing, malformed or empty snapshot reports false
// and the caller seeds a fresh welcome transcript. Save never fails either;
// write errors are logged and dropped.
package storage
