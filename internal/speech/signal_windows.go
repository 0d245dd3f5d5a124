// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package speech

import "os"

func suspendProcess(p *os.Process) error {
	return ErrPauseUnsupported
}

func resumeProcess(p *os.Process) error {
	return nil
}

func interruptProcess(p *os.Process) error {
	if p == nil {
		return nil
	}
	return p.Kill()
}
