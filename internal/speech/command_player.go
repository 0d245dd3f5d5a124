// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// =============================================================================
// COMMAND PLAYER
// =============================================================================

// CommandPlayer plays audio through an external program such as ffplay or
// mpv. Pause and resume suspend the program's process.
//
// A handle that starts muted launches the program with MuteArgs, so the
// audio runs on silently. Muting while audible cannot reach into a running
// program, so it suspends the process like Pause and the message stays
// Playing. Unmuting a silent run restarts it audibly from the beginning.
type CommandPlayer struct {
	// Command is the player executable.
	Command string

	// Args are passed before the audio file path.
	Args []string

	// MuteArgs silence the program for the whole run. Empty means the
	// program has no mute switch and muting always suspends it.
	MuteArgs []string

	// TempDir holds audio files while they play (default: os.TempDir()).
	TempDir string

	Logger zerolog.Logger
}

// knownPlayers are tried in order by DetectPlayer.
var knownPlayers = []struct {
	command string
	args    []string
	mute    []string
}{
	{"ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}, []string{"-volume", "0"}},
	{"mpv", []string{"--no-video", "--really-quiet"}, []string{"--mute=yes"}},
	{"afplay", nil, []string{"-v", "0"}},
}

// muteArgsFor returns the mute switch of a known player, matched by
// executable name.
func muteArgsFor(command string) []string {
	name := strings.TrimSuffix(filepath.Base(command), ".exe")
	for _, p := range knownPlayers {
		if p.command == name {
			return p.mute
		}
	}
	return nil
}

// DetectPlayer returns the configured player command, the first known player
// found on PATH, or NullPlayer.
func DetectPlayer(command string, args []string, logger zerolog.Logger) Player {
	if command != "" {
		if _, err := exec.LookPath(command); err == nil {
			return &CommandPlayer{Command: command, Args: args, MuteArgs: muteArgsFor(command), Logger: logger}
		}
		logger.Warn().Str("command", command).Msg("configured audio player not found")
	}
	for _, p := range knownPlayers {
		if _, err := exec.LookPath(p.command); err == nil {
			return &CommandPlayer{Command: p.command, Args: p.args, MuteArgs: p.mute, Logger: logger}
		}
	}
	logger.Info().Msg("no audio player found, speech output disabled")
	return NullPlayer{}
}

// Open writes audio to a temp file and returns a stopped handle.
func (p *CommandPlayer) Open(audio []byte) (Handle, error) {
	f, err := os.CreateTemp(p.TempDir, "chetna-tts-*.audio")
	if err != nil {
		return nil, fmt.Errorf("create audio file: %w", err)
	}
	if _, err := f.Write(audio); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close audio file: %w", err)
	}

	return &commandHandle{
		player: p,
		path:   f.Name(),
		done:   make(chan struct{}),
	}, nil
}

type commandHandle struct {
	player *CommandPlayer
	path   string

	mu       sync.Mutex
	cmd      *exec.Cmd
	paused   bool
	muted    bool
	silent   bool // the running process was started with MuteArgs
	released bool
	run      int // bumped on Rewind/Release so a killed run does not close done
	done     chan struct{}
}

func (h *commandHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrReleased
	}

	h.paused = false
	if h.cmd == nil {
		return h.startLocked()
	}
	switch {
	case h.silent && !h.muted:
		h.killLocked()
		return h.startLocked()
	case h.muted && !h.silent:
		// still suspended for mute
		return nil
	}
	return resumeProcess(h.cmd.Process)
}

// commandArgs builds the argument list for one run.
func (p *CommandPlayer) commandArgs(path string, silent bool) []string {
	args := append([]string{}, p.Args...)
	if silent {
		args = append(args, p.MuteArgs...)
	}
	return append(args, path)
}

func (h *commandHandle) startLocked() error {
	silent := h.muted && len(h.player.MuteArgs) > 0
	cmd := exec.Command(h.player.Command, h.player.commandArgs(h.path, silent)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", h.player.Command, err)
	}
	h.cmd = cmd
	h.silent = silent
	if h.muted && !silent {
		suspendProcess(cmd.Process)
	}

	run, done := h.run, h.done
	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.run != run {
			return
		}
		h.cmd = nil
		h.silent = false
		if err != nil {
			h.player.Logger.Debug().Err(err).Msg("audio player exited")
		}
		close(done)
	}()
	return nil
}

func (h *commandHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrReleased
	}
	h.paused = true
	if h.cmd == nil || (h.muted && !h.silent) {
		return nil
	}
	return suspendProcess(h.cmd.Process)
}

func (h *commandHandle) Rewind() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrReleased
	}
	h.killLocked()
	h.done = make(chan struct{})
	return nil
}

func (h *commandHandle) SetMuted(muted bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.muted == muted || h.released {
		h.muted = muted
		return
	}
	h.muted = muted
	if h.cmd == nil || h.paused {
		return
	}

	var err error
	switch {
	case h.silent && !muted:
		h.killLocked()
		err = h.startLocked()
	case h.silent:
	case muted:
		err = suspendProcess(h.cmd.Process)
	default:
		err = resumeProcess(h.cmd.Process)
	}
	if err != nil && !errors.Is(err, ErrPauseUnsupported) {
		h.player.Logger.Debug().Err(err).Bool("muted", muted).Msg("apply mute")
	}
}

func (h *commandHandle) Done() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

func (h *commandHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	h.killLocked()
	os.Remove(h.path)
}

func (h *commandHandle) killLocked() {
	h.run++
	if h.cmd != nil && h.cmd.Process != nil {
		// a suspended process must be resumed to act on the kill
		resumeProcess(h.cmd.Process)
		h.cmd.Process.Kill()
	}
	h.cmd = nil
	h.paused = false
	h.silent = false
}
