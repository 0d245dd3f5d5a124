// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/chetna-wellness/chetna/internal/metrics"
	"github.com/chetna-wellness/chetna/internal/settings"
)

// =============================================================================
// PLAYBACK STATE
// =============================================================================

// State is a message's playback state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// PlaybackSettings supplies speed, mute and auto-play. settings.Store
// satisfies it.
type PlaybackSettings interface {
	Get() settings.Playback
	Subscribe(fn func(settings.Playback)) func()
}

// =============================================================================
// SPEAKER
// =============================================================================

// entry is the playback record for one message.
type entry struct {
	state   State
	handle  Handle
	gen     uint64        // bumped whenever a pending load must be discarded
	unwatch chan struct{} // closed to stop the end-of-audio watcher
}

// Speaker is the text-to-speech playback controller.
type Speaker struct {
	mu       sync.Mutex
	synth    Synthesizer
	player   Player
	settings PlaybackSettings
	metrics  *metrics.Chat
	logger   zerolog.Logger

	entries    map[string]*entry
	active     string // message owning the live handle
	autoPlayed map[string]bool
	closed     bool

	subs        map[int]func(msgID string, st State)
	nextSub     int
	unsubscribe func()
}

// SpeakerDeps wires a Speaker.
type SpeakerDeps struct {
	Synth    Synthesizer
	Player   Player
	Settings PlaybackSettings
	Metrics  *metrics.Chat
	Logger   zerolog.Logger
}

// NewSpeaker creates a speaker. A nil Player uses NullPlayer.
func NewSpeaker(deps SpeakerDeps) *Speaker {
	if deps.Player == nil {
		deps.Player = NullPlayer{}
	}
	s := &Speaker{
		synth:      deps.Synth,
		player:     deps.Player,
		settings:   deps.Settings,
		metrics:    deps.Metrics,
		logger:     deps.Logger.With().Str("component", "speaker").Logger(),
		entries:    make(map[string]*entry),
		autoPlayed: make(map[string]bool),
		subs:       make(map[int]func(string, State)),
	}
	if deps.Settings != nil {
		s.unsubscribe = deps.Settings.Subscribe(s.applySettings)
	}
	return s
}

func (s *Speaker) playback() settings.Playback {
	if s.settings == nil {
		return settings.Defaults()
	}
	return s.settings.Get()
}

// applySettings pushes mute changes to the live handle.
func (s *Speaker) applySettings(p settings.Playback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[s.active]; ok && e.handle != nil {
		e.handle.SetMuted(p.Muted)
	}
}

// State returns the playback state of a message.
func (s *Speaker) State(msgID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[msgID]; ok {
		return e.state
	}
	return StateIdle
}

// Active returns the message owning the live handle, or "".
func (s *Speaker) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Subscribe registers fn for playback state changes.
func (s *Speaker) Subscribe(fn func(msgID string, st State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Play starts or resumes playback of a message. A paused message resumes
// without a network call. Otherwise audio is synthesized; Play blocks until
// the message is playing or the attempt failed, so callers run it off the
// UI loop. Failures are logged and the message returns to Idle; the error
// is returned for callers that want it.
func (s *Speaker) Play(ctx context.Context, msgID, text string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrReleased
	}
	e := s.entryLocked(msgID)

	switch e.state {
	case StatePaused:
		if e.handle != nil {
			if err := e.handle.Play(); err != nil {
				if s.active == msgID {
					s.releaseActiveLocked()
				}
				e.state = StateIdle
				s.mu.Unlock()
				s.logger.Warn().Err(err).Str("message_id", msgID).Msg("resume playback failed")
				s.emit(msgID, StateIdle)
				return err
			}
			e.state = StatePlaying
			s.mu.Unlock()
			s.emit(msgID, StatePlaying)
			return nil
		}
	case StateLoading, StatePlaying:
		s.mu.Unlock()
		return nil
	}

	e.gen++
	gen := e.gen
	e.state = StateLoading
	speed := s.playback().Speed
	s.mu.Unlock()
	s.emit(msgID, StateLoading)

	if s.synth == nil {
		return s.fail(msgID, e, gen, ErrNotConfigured)
	}
	audio, err := s.synth.Synthesize(ctx, text, speed)
	if err != nil {
		s.metrics.TTS("error")
		return s.fail(msgID, e, gen, err)
	}
	s.metrics.TTS("ok")

	h, err := s.player.Open(audio)
	if err != nil {
		return s.fail(msgID, e, gen, err)
	}

	s.mu.Lock()
	if s.closed || e.gen != gen || e.state != StateLoading {
		// stopped or superseded while loading
		s.mu.Unlock()
		h.Release()
		return nil
	}

	// Release the previous live handle before the new one becomes active.
	s.releaseActiveLocked()

	h.SetMuted(s.playback().Muted)
	if err := h.Play(); err != nil {
		s.mu.Unlock()
		h.Release()
		return s.fail(msgID, e, gen, err)
	}
	e.handle = h
	e.state = StatePlaying
	e.unwatch = make(chan struct{})
	s.active = msgID
	go s.watch(msgID, e, h, e.unwatch)
	s.mu.Unlock()

	s.emit(msgID, StatePlaying)
	return nil
}

// AutoPlay plays a message once if auto-play is on and output is not muted.
// Later calls for the same message do nothing. Reports whether playback
// was attempted.
func (s *Speaker) AutoPlay(ctx context.Context, msgID, text string) bool {
	p := s.playback()
	if !p.AutoPlay || p.Muted {
		return false
	}

	s.mu.Lock()
	if s.autoPlayed[msgID] || s.closed {
		s.mu.Unlock()
		return false
	}
	s.autoPlayed[msgID] = true
	s.mu.Unlock()

	s.Play(ctx, msgID, text)
	return true
}

// Pause suspends a playing message.
func (s *Speaker) Pause(msgID string) {
	s.mu.Lock()
	e, ok := s.entries[msgID]
	if !ok || e.state != StatePlaying || e.handle == nil {
		s.mu.Unlock()
		return
	}
	if err := e.handle.Pause(); err != nil {
		s.logger.Debug().Err(err).Msg("pause")
	}
	e.state = StatePaused
	s.mu.Unlock()
	s.emit(msgID, StatePaused)
}

// Stop halts a playing or paused message and rewinds it. A pending load
// is abandoned.
func (s *Speaker) Stop(msgID string) {
	s.mu.Lock()
	e, ok := s.entries[msgID]
	if !ok || e.state == StateIdle {
		s.mu.Unlock()
		return
	}
	switch e.state {
	case StateLoading:
		e.gen++
	case StatePlaying, StatePaused:
		if e.handle != nil {
			e.handle.Pause()
			e.handle.Rewind()
		}
	}
	e.state = StateIdle
	s.mu.Unlock()
	s.emit(msgID, StateIdle)
}

// Reset releases the live handle and forgets every message. It is used
// when the transcript is replaced.
func (s *Speaker) Reset() {
	s.mu.Lock()
	s.releaseActiveLocked()
	changed := make([]string, 0, len(s.entries))
	for id, e := range s.entries {
		if e.state != StateIdle {
			changed = append(changed, id)
		}
		// A load still in flight must not start playing once it returns.
		e.gen++
		e.state = StateIdle
		if e.handle != nil {
			e.handle.Release()
			e.handle = nil
		}
		if e.unwatch != nil {
			close(e.unwatch)
			e.unwatch = nil
		}
	}
	s.entries = make(map[string]*entry)
	s.mu.Unlock()

	for _, id := range changed {
		s.emit(id, StateIdle)
	}
}

// Close releases all audio and detaches from settings.
func (s *Speaker) Close() {
	s.Reset()
	s.mu.Lock()
	s.closed = true
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (s *Speaker) entryLocked(msgID string) *entry {
	e, ok := s.entries[msgID]
	if !ok {
		e = &entry{}
		s.entries[msgID] = e
	}
	return e
}

// releaseActiveLocked pauses and frees the live handle, if any.
func (s *Speaker) releaseActiveLocked() {
	if s.active == "" {
		return
	}
	prev, ok := s.entries[s.active]
	s.active = ""
	if !ok || prev.handle == nil {
		return
	}
	prev.handle.Pause()
	prev.handle.Release()
	prev.handle = nil
	if prev.unwatch != nil {
		close(prev.unwatch)
		prev.unwatch = nil
	}
	if prev.state == StatePlaying || prev.state == StatePaused {
		prev.state = StateIdle
	}
}

// watch returns a message to Idle when its audio ends naturally.
func (s *Speaker) watch(msgID string, e *entry, h Handle, unwatch <-chan struct{}) {
	select {
	case <-h.Done():
	case <-unwatch:
		return
	}

	s.mu.Lock()
	if e.handle != h {
		s.mu.Unlock()
		return
	}
	e.handle = nil
	if e.unwatch != nil {
		close(e.unwatch)
		e.unwatch = nil
	}
	if s.active == msgID {
		s.active = ""
	}
	wasActive := e.state != StateIdle
	e.state = StateIdle
	s.mu.Unlock()

	h.Release()
	if wasActive {
		s.emit(msgID, StateIdle)
	}
}

// fail logs a playback failure and returns the message to Idle.
func (s *Speaker) fail(msgID string, e *entry, gen uint64, err error) error {
	s.logger.Warn().Err(err).Str("message_id", msgID).Msg("speech playback failed")

	s.mu.Lock()
	if e.gen != gen || e.state != StateLoading {
		s.mu.Unlock()
		return err
	}
	e.state = StateIdle
	s.mu.Unlock()
	s.emit(msgID, StateIdle)
	return err
}

func (s *Speaker) emit(msgID string, st State) {
	s.mu.Lock()
	subs := make([]func(string, State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(msgID, st)
	}
}
