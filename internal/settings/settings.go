// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings holds the process-wide playback settings (auto-play,
// speed and mute). They are persisted under their own kv keys, separately
// from the transcript, and changes are pushed to subscribers.
package settings

import (
	"errors"
	"math"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/chetna-wellness/chetna/internal/kv"
)

// =============================================================================
// KEYS AND BOUNDS
// =============================================================================

const (
	AutoPlayKey = "chetna_autoplay"
	SpeedKey    = "chetna_playback_speed"
	MutedKey    = "chetna_muted"

	DefaultSpeed = 0.85
	MinSpeed     = 0.5
	MaxSpeed     = 1.5
	SpeedStep    = 0.05
)

// =============================================================================
// PLAYBACK
// =============================================================================

// Playback is a snapshot of the playback settings.
type Playback struct {
	AutoPlay bool
	Speed    float64
	Muted    bool
}

// Defaults returns the settings used when nothing has been persisted.
func Defaults() Playback {
	return Playback{AutoPlay: false, Speed: DefaultSpeed, Muted: false}
}

// NormalizeSpeed clamps s to [MinSpeed, MaxSpeed] and snaps it to SpeedStep.
// NaN and infinities map to DefaultSpeed.
func NormalizeSpeed(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return DefaultSpeed
	}
	if s < MinSpeed {
		s = MinSpeed
	}
	if s > MaxSpeed {
		s = MaxSpeed
	}
	steps := math.Round((s - MinSpeed) / SpeedStep)
	// Round to 2 decimals to drop float noise from the step multiply.
	return math.Round((MinSpeed+steps*SpeedStep)*100) / 100
}

// =============================================================================
// STORE
// =============================================================================

// Store loads, persists and broadcasts playback settings.
type Store struct {
	mu     sync.Mutex
	kv     kv.Store
	logger zerolog.Logger

	current Playback
	subs    map[int]func(Playback)
	nextSub int
}

// NewStore loads settings from kv, falling back to defaults per key.
func NewStore(store kv.Store, logger zerolog.Logger) *Store {
	s := &Store{
		kv:      store,
		logger:  logger.With().Str("component", "settings").Logger(),
		current: Defaults(),
		subs:    make(map[int]func(Playback)),
	}
	s.load()
	return s
}

func (s *Store) load() {
	if v, ok := s.read(AutoPlayKey); ok {
		s.current.AutoPlay = v == "true"
	}
	if v, ok := s.read(MutedKey); ok {
		s.current.Muted = v == "true"
	}
	if v, ok := s.read(SpeedKey); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.logger.Warn().Str("value", v).Msg("ignoring invalid playback speed")
		} else {
			s.current.Speed = NormalizeSpeed(f)
		}
	}
}

func (s *Store) read(key string) (string, bool) {
	v, err := s.kv.Get(key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.Warn().Err(err).Str("key", key).Msg("read setting")
		}
		return "", false
	}
	return v, true
}

// Get returns the current settings.
func (s *Store) Get() Playback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetAutoPlay enables or disables auto-play of new assistant messages.
func (s *Store) SetAutoPlay(on bool) {
	s.update(func(p *Playback) { p.AutoPlay = on })
}

// SetMuted mutes or unmutes playback output.
func (s *Store) SetMuted(on bool) {
	s.update(func(p *Playback) { p.Muted = on })
}

// ToggleMuted flips the mute flag and returns the new value.
func (s *Store) ToggleMuted() bool {
	var muted bool
	s.update(func(p *Playback) {
		p.Muted = !p.Muted
		muted = p.Muted
	})
	return muted
}

// SetSpeed sets the playback speed, normalized to the allowed range.
func (s *Store) SetSpeed(speed float64) float64 {
	speed = NormalizeSpeed(speed)
	s.update(func(p *Playback) { p.Speed = speed })
	return speed
}

// AdjustSpeed moves the speed by delta steps of SpeedStep.
func (s *Store) AdjustSpeed(steps int) float64 {
	var speed float64
	s.update(func(p *Playback) {
		p.Speed = NormalizeSpeed(p.Speed + float64(steps)*SpeedStep)
		speed = p.Speed
	})
	return speed
}

// Subscribe registers fn for every settings change and returns a cancel func.
func (s *Store) Subscribe(fn func(Playback)) func() {
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

func (s *Store) update(mutate func(*Playback)) {
	s.mu.Lock()
	before := s.current
	mutate(&s.current)
	after := s.current
	subs := make([]func(Playback), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if before == after {
		return
	}
	s.persist(before, after)

	// Notify outside lock
	for _, fn := range subs {
		fn(after)
	}
}

func (s *Store) persist(before, after Playback) {
	write := func(key, value string) {
		if err := s.kv.Set(key, value); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("persist setting")
		}
	}
	if before.AutoPlay != after.AutoPlay {
		write(AutoPlayKey, strconv.FormatBool(after.AutoPlay))
	}
	if before.Muted != after.Muted {
		write(MutedKey, strconv.FormatBool(after.Muted))
	}
	if before.Speed != after.Speed {
		write(SpeedKey, strconv.FormatFloat(after.Speed, 'f', -1, 64))
	}
}
