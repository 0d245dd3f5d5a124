// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows

package speech

import (
	"os"

	"golang.org/x/sys/unix"
)

func suspendProcess(p *os.Process) error {
	if p == nil {
		return nil
	}
	return unix.Kill(p.Pid, unix.SIGSTOP)
}

func resumeProcess(p *os.Process) error {
	if p == nil {
		return nil
	}
	return unix.Kill(p.Pid, unix.SIGCONT)
}

func interruptProcess(p *os.Process) error {
	if p == nil {
		return nil
	}
	return unix.Kill(p.Pid, unix.SIGINT)
}
