// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the chetna TUI.
//
// # Key Types
//
//   - Toast, ToastManager: Auto-dismissing notifications in the corner
//   - MessageRenderer: Chat bubbles with markdown replies and playback state
package components
