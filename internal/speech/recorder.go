// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// CommandRecorder records through an external program that writes WAV to
// stdout, such as arecord or sox.
type CommandRecorder struct {
	Command string
	Args    []string

	// MaxDuration stops recording automatically (default: 15s).
	MaxDuration time.Duration
}

// knownRecorders are tried in order by DetectRecorder.
var knownRecorders = []CommandRecorder{
	{Command: "arecord", Args: []string{"-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "wav", "-"}},
	{Command: "sox", Args: []string{"-q", "-d", "-r", "16000", "-c", "1", "-b", "16", "-t", "wav", "-"}},
	{Command: "rec", Args: []string{"-q", "-r", "16000", "-c", "1", "-b", "16", "-t", "wav", "-"}},
}

// DetectRecorder returns the configured recorder, or the first known one
// found on PATH. The result may be unavailable.
func DetectRecorder(command string, args []string, limit time.Duration) *CommandRecorder {
	if command != "" {
		return &CommandRecorder{Command: command, Args: args, MaxDuration: limit}
	}
	for _, r := range knownRecorders {
		if _, err := exec.LookPath(r.Command); err == nil {
			rec := r
			rec.MaxDuration = limit
			return &rec
		}
	}
	return &CommandRecorder{}
}

// Available reports whether the recorder program exists.
func (r *CommandRecorder) Available() bool {
	if r == nil || r.Command == "" {
		return false
	}
	_, err := exec.LookPath(r.Command)
	return err == nil
}

// Record captures WAV audio from the recorder's stdout.
func (r *CommandRecorder) Record(ctx context.Context, stop <-chan struct{}) ([]byte, error) {
	if !r.Available() {
		return nil, ErrUnsupported
	}
	limit := r.MaxDuration
	if limit <= 0 {
		limit = 15 * time.Second
	}

	var out, stderr bytes.Buffer
	cmd := exec.Command(r.Command, r.Args...)
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", r.Command, err)
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case err := <-waitErr:
		if err != nil && out.Len() == 0 {
			return nil, fmt.Errorf("%s: %w: %s", r.Command, err, bytes.TrimSpace(stderr.Bytes()))
		}
		return out.Bytes(), nil
	case <-stop:
	case <-timer.C:
	case <-ctx.Done():
		cmd.Process.Kill()
		<-waitErr
		return nil, ctx.Err()
	}

	// ask the recorder to finish the WAV stream cleanly
	interruptProcess(cmd.Process)
	select {
	case <-waitErr:
	case <-time.After(2 * time.Second):
		cmd.Process.Kill()
		<-waitErr
	}
	return out.Bytes(), nil
}
