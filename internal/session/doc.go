// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the transcript auto-expiry schedule.
//
// A Manager fires its expiry callback once per fixed interval while it is
// started. The schedule is fixed-period: user activity never pushes the
// next expiry back.
//
// # Usage
//
//	mgr := session.NewManager(session.DefaultConfig(), clock.Real{})
//	mgr.SetExpiryCallback(func() { controller.Expire() })
//	mgr.Start()
//	defer mgr.Stop()
//
// # Defaults
//
// The default interval is 20 minutes.
package session
