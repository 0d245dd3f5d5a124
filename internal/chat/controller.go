// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/chetna-wellness/chetna/internal/auth"
	"github.com/chetna-wellness/chetna/internal/clock"
	"github.com/chetna-wellness/chetna/internal/kv"
	"github.com/chetna-wellness/chetna/internal/metrics"
	"github.com/chetna-wellness/chetna/internal/model"
	"github.com/chetna-wellness/chetna/internal/notify"
	"github.com/chetna-wellness/chetna/internal/personalize"
	"github.com/chetna-wellness/chetna/internal/records"
	"github.com/chetna-wellness/chetna/internal/responder"
	"github.com/chetna-wellness/chetna/internal/session"
	"github.com/chetna-wellness/chetna/internal/speech"
	"github.com/chetna-wellness/chetna/internal/storage"
	"github.com/chetna-wellness/chetna/internal/suggest"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBlankInput is returned when the input is empty after trimming.
	ErrBlankInput = errors.New("chat: message is blank")

	// ErrRateLimited is returned when a guest has used every free message.
	ErrRateLimited = errors.New("chat: guest message limit reached")

	// ErrAwaitingResponse is returned for a submit while a reply is pending.
	ErrAwaitingResponse = errors.New("chat: awaiting response")

	// ErrNotMounted is returned by operations on an unmounted controller.
	ErrNotMounted = errors.New("chat: controller not mounted")

	// ErrUnknownMessage is returned for playback of a message that is not
	// an assistant message in the transcript.
	ErrUnknownMessage = errors.New("chat: unknown message")

	errEmptyReply = errors.New("chat: responder returned an empty reply")
)

// Localizer is the localization surface the controller needs.
// *i18n.Localizer satisfies it.
type Localizer interface {
	T(key string, params map[string]string) string
	Code() string
	Subscribe(fn func(language.Tag)) func()
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Deps are the collaborators of a Controller. Only Localizer is required;
// every other nil field gets a harmless default.
type Deps struct {
	Store     *storage.MessageStore
	Responder responder.Responder
	Records   records.Store
	Auth      auth.Provider
	Localizer Localizer
	Speaker   *speech.Speaker
	Listener  *speech.Listener
	Expiry    *session.Manager
	Notifier  notify.Notifier
	Metrics   *metrics.Chat
	Clock     clock.Clock
	Logger    zerolog.Logger
}

// Controller orchestrates one conversation.
//
// All operations are safe for concurrent use. Responder calls, record
// inserts and audio run on their own goroutines; timers come from the
// injected clock so tests can drive them.
type Controller struct {
	cfg       Config
	store     *storage.MessageStore
	responder responder.Responder
	records   records.Store
	auth      auth.Provider
	loc       Localizer
	speaker   *speech.Speaker
	listener  *speech.Listener
	expiry    *session.Manager
	notifier  notify.Notifier
	metrics   *metrics.Chat
	clock     clock.Clock
	logger    zerolog.Logger

	voiceInput bool // listener present and supported, checked once

	mu          sync.Mutex
	ctx         context.Context
	mounted     bool
	epoch       uint64 // bumped on mount and unmount; stale async work compares it
	transcript  model.Transcript
	input       string
	status      Status
	suggestions []string
	guestCount  int
	limitHit    bool
	listening   bool
	results     []model.TestResult
	pending     clock.Timer // pacing or fallback delay
	autoSubmit  clock.Timer
	unsubs      []func()

	subs    map[int]func(View)
	nextSub int
}

// New creates a controller. Call Mount before using it.
func New(cfg Config, deps Deps) *Controller {
	cfg = cfg.withDefaults()
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Store == nil {
		deps.Store = storage.NewMessageStore(kv.NewMemoryStore(), deps.Logger)
	}
	if deps.Responder == nil {
		deps.Responder = responder.Static{}
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Discard
	}
	if deps.Expiry == nil {
		deps.Expiry = session.NewManager(session.Config{Interval: cfg.ExpiryInterval}, deps.Clock)
	}

	return &Controller{
		cfg:       cfg,
		store:     deps.Store,
		responder: deps.Responder,
		records:   deps.Records,
		auth:      deps.Auth,
		loc:       deps.Localizer,
		speaker:   deps.Speaker,
		listener:  deps.Listener,
		expiry:    deps.Expiry,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		clock:     deps.Clock,
		logger:    deps.Logger.With().Str("component", "chat").Logger(),
		ctx:       context.Background(),
		subs:      make(map[int]func(View)),

		voiceInput: deps.Listener != nil && deps.Listener.Supported(),
	}
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Mount loads the transcript, subscribes to identity, language and playback
// changes, and arms the auto-clear schedule. Mounting twice is a no-op.
//
// ctx supplies values for background work; its cancellation does not abort
// replies already requested.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return nil
	}
	c.ctx = context.WithoutCancel(ctx)
	c.mounted = true
	c.epoch++
	epoch := c.epoch

	welcome := personalize.DefaultWelcome(c.loc)
	now := c.clock.Now()
	tr, ok := c.store.Load()
	switch {
	case !ok:
		tr = model.NewWelcomeTranscript(welcome, now)
		c.store.Save(tr)
	case c.staleLocked(tr):
		c.logger.Info().Int("messages", tr.Len()).Msg("stored transcript expired, starting fresh")
		tr = c.store.Clear(welcome, now)
	case tr.Len() == 1 && tr.Messages[0].Text == welcome:
		// an untouched welcome survives a restart as a default transcript
		tr.Origin = model.OriginDefault
	}
	c.transcript = tr
	c.input = ""
	c.status = StatusIdle
	c.suggestions = nil
	c.guestCount = 0
	c.limitHit = false

	c.unsubs = append(c.unsubs, c.loc.Subscribe(c.onLanguage))
	if c.auth != nil {
		c.unsubs = append(c.unsubs, c.auth.Subscribe(c.onAuth))
	}
	if c.speaker != nil {
		c.unsubs = append(c.unsubs, c.speaker.Subscribe(func(string, speech.State) { c.emit() }))
	}
	c.mu.Unlock()

	c.expiry.SetExpiryCallback(c.onExpiry)
	c.expiry.Start()

	user := c.currentUser()
	results := c.fetchResults(ctx, userID(user))

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return nil
	}
	c.results = results
	if user != nil && len(results) > 0 && c.transcript.IsDefaultWelcome() {
		c.transcript = model.NewPersonalizedTranscript(
			personalize.WelcomeMessage(c.loc, user.DisplayName(), results), now)
		c.store.Save(c.transcript)
	}
	last, hasLast := c.transcript.LastAssistant()
	origin := c.transcript.Origin
	c.mu.Unlock()

	c.logger.Debug().
		Str("origin", origin.String()).
		Int("results", len(results)).
		Msg("chat mounted")

	if hasLast {
		c.autoPlay(last)
	}
	c.emit()
	return nil
}

// Unmount disarms the auto-clear schedule, stops voice capture, releases
// audio and abandons pending replies. The controller may be mounted again.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = false
	c.epoch++
	c.stopTimersLocked()
	unsubs := c.unsubs
	c.unsubs = nil
	wasListening := c.listening
	c.listening = false
	c.status = StatusIdle
	c.mu.Unlock()

	c.expiry.Stop()
	for _, fn := range unsubs {
		fn()
	}
	if wasListening && c.listener != nil {
		c.listener.Stop()
	}
	if c.speaker != nil {
		c.speaker.Reset()
	}
	c.logger.Debug().Msg("chat unmounted")
}

// staleLocked reports whether a restored transcript outlived the auto-clear
// period while nothing was mounted.
func (c *Controller) staleLocked(tr model.Transcript) bool {
	last, ok := tr.Last()
	if !ok {
		return true
	}
	return c.clock.Now().Sub(last.Timestamp) >= c.cfg.ExpiryInterval
}

func (c *Controller) stopTimersLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	if c.autoSubmit != nil {
		c.autoSubmit.Stop()
		c.autoSubmit = nil
	}
}

// =============================================================================
// INPUT AND SUBMISSION
// =============================================================================

// SetInput replaces the input field.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
	c.emit()
}

// Submit sends the input field as a user message.
//
// Blank input, a pending reply and an exhausted guest allowance are
// rejected before anything changes. Otherwise the message is appended,
// the input and suggestions are cleared, and the reply is requested in
// the background.
func (c *Controller) Submit() error {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return ErrNotMounted
	}
	text := strings.TrimSpace(c.input)
	if text == "" {
		c.mu.Unlock()
		return ErrBlankInput
	}
	if c.status == StatusAwaitingResponse {
		c.mu.Unlock()
		return ErrAwaitingResponse
	}

	user := c.currentUser()
	if user == nil && c.guestCount >= c.cfg.GuestMessageLimit {
		c.limitHit = true
		c.mu.Unlock()

		c.metrics.GuestLimited()
		c.logger.Info().Int("limit", c.cfg.GuestMessageLimit).Msg("guest message limit reached")
		c.notify(notify.Notification{
			Level:    notify.LevelWarning,
			Title:    c.loc.T("chat.limit.title", nil),
			Message:  c.loc.T("chat.limit.message", map[string]string{"limit": strconv.Itoa(c.cfg.GuestMessageLimit)}),
			Blocking: true,
		})
		c.emit()
		return ErrRateLimited
	}

	if c.autoSubmit != nil {
		c.autoSubmit.Stop()
		c.autoSubmit = nil
	}
	msg := model.NewUserMessage(text, c.clock.Now())
	history := c.transcript.Clone().Messages
	c.transcript = c.transcript.Append(msg)
	c.input = ""
	c.suggestions = nil
	c.status = StatusAwaitingResponse
	if user == nil {
		c.guestCount++
	}
	c.store.Save(c.transcript)
	ctx, epoch := c.ctx, c.epoch
	c.mu.Unlock()

	c.metrics.MessageAppended(true)
	c.logger.Debug().Str("preview", msg.Preview(50)).Bool("guest", user == nil).Msg("user message")
	c.emit()

	uid := userID(user)
	go c.recordMessage(ctx, uid, text, false)
	go c.respond(ctx, epoch, uid, text, history)
	return nil
}

// SelectSuggestion fills the input with a suggestion and submits it after
// the auto-submit delay. Suggestions are cleared immediately.
func (c *Controller) SelectSuggestion(text string) error {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return ErrNotMounted
	}
	c.input = text
	c.suggestions = nil
	c.scheduleAutoSubmitLocked()
	c.mu.Unlock()
	c.emit()
	return nil
}

// Clear replaces the transcript with a single welcome message and resets
// the guest allowance.
func (c *Controller) Clear() error {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return ErrNotMounted
	}
	c.resetLocked(personalize.DefaultWelcome(c.loc))
	c.mu.Unlock()

	c.afterReset()
	c.notify(notify.Notification{
		Level:   notify.LevelInfo,
		Title:   c.loc.T("chat.cleared.title", nil),
		Message: c.loc.T("chat.cleared.message", nil),
	})
	c.emit()
	return nil
}

func (c *Controller) scheduleAutoSubmitLocked() {
	if c.autoSubmit != nil {
		c.autoSubmit.Stop()
	}
	epoch := c.epoch
	c.autoSubmit = c.clock.AfterFunc(c.cfg.AutoSubmitDelay, func() {
		c.mu.Lock()
		if c.epoch != epoch {
			c.mu.Unlock()
			return
		}
		c.autoSubmit = nil
		c.mu.Unlock()

		if err := c.Submit(); err != nil {
			c.logger.Debug().Err(err).Msg("auto-submit skipped")
		}
	})
}

// resetLocked replaces the transcript with a fresh welcome and resets the
// guest allowance. A reply already in flight is still delivered.
func (c *Controller) resetLocked(welcome string) {
	c.transcript = c.store.Clear(welcome, c.clock.Now())
	c.suggestions = nil
	c.guestCount = 0
	c.limitHit = false
}

// afterReset releases audio of the discarded messages. It must run
// without c.mu held.
func (c *Controller) afterReset() {
	if c.speaker != nil {
		c.speaker.Reset()
	}
}

// =============================================================================
// REPLIES
// =============================================================================

// respond asks the responder for a reply and schedules its delivery.
func (c *Controller) respond(ctx context.Context, epoch uint64, uid, text string, history []model.Message) {
	results := c.fetchResults(ctx, uid)

	c.mu.Lock()
	if c.epoch == epoch {
		c.results = results
	}
	c.mu.Unlock()

	req := responder.Request{
		Text:     text,
		Fallback: responder.Fallback,
		Results:  results,
		History:  history,
		Language: c.loc.Code(),
		UserID:   uid,
	}

	reply, err := c.callResponder(ctx, req)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errEmptyReply
	}

	delay := c.cfg.FallbackDelay
	fallback := err != nil
	if fallback {
		c.logger.Warn().Err(err).Msg("responder failed, answering in basic mode")
		reply = req.FallbackReply()
	} else {
		delay = c.cfg.PacingDelay(reply)
		c.metrics.ObservePacing(delay)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted || c.epoch != epoch {
		return
	}
	c.pending = c.clock.AfterFunc(delay, func() { c.deliver(epoch, reply, fallback) })
}

// callResponder shields the conversation from a panicking responder.
func (c *Controller) callResponder(ctx context.Context, req responder.Request) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("responder panic: %v", r)
		}
	}()
	return c.responder.Respond(ctx, req)
}

// deliver appends the assistant reply once its delay has elapsed.
func (c *Controller) deliver(epoch uint64, reply string, fallback bool) {
	c.mu.Lock()
	if !c.mounted || c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	msg := model.NewAssistantMessage(reply, c.clock.Now())
	c.transcript = c.transcript.Append(msg)
	c.status = StatusIdle
	c.suggestions = suggest.Generate(reply, "")
	c.store.Save(c.transcript)
	ctx := c.ctx
	c.mu.Unlock()

	c.metrics.MessageAppended(false)
	if fallback {
		c.metrics.FallbackUsed()
		c.notify(notify.Notification{
			Level:   notify.LevelWarning,
			Title:   c.loc.T("chat.basic_mode.title", nil),
			Message: c.loc.T("chat.basic_mode.message", nil),
		})
	}

	go c.recordMessage(ctx, userID(c.currentUser()), reply, true)
	c.autoPlay(msg)
	c.emit()
}

// recordMessage stores a message in the record store. Failures are logged.
func (c *Controller) recordMessage(ctx context.Context, uid, text string, isBot bool) {
	if c.records == nil || uid == "" {
		return
	}
	err := c.records.InsertConversation(ctx, records.ConversationRecord{
		UserID:    uid,
		Message:   text,
		IsBot:     isBot,
		CreatedAt: c.clock.Now(),
	})
	if err != nil {
		c.logger.Warn().Err(err).Bool("is_bot", isBot).Msg("store conversation record")
	}
}

// fetchResults returns the user's recent self-assessments, or nil.
func (c *Controller) fetchResults(ctx context.Context, uid string) []model.TestResult {
	if c.records == nil || uid == "" {
		return nil
	}
	results, err := c.records.RecentTestResults(ctx, uid, c.cfg.RecentResultsLimit)
	if err != nil {
		c.logger.Warn().Err(err).Msg("fetch recent test results")
		return nil
	}
	return results
}

// =============================================================================
// REACTIONS
// =============================================================================

// onExpiry clears the transcript on the fixed auto-clear schedule.
func (c *Controller) onExpiry() {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	c.resetLocked(personalize.DefaultWelcome(c.loc))
	c.mu.Unlock()

	c.metrics.Expired()
	c.logger.Info().Msg("transcript auto-cleared")
	c.afterReset()
	c.notify(notify.Notification{
		Level:   notify.LevelInfo,
		Title:   c.loc.T("chat.expired.title", nil),
		Message: c.loc.T("chat.expired.message", nil),
	})
	c.emit()
}

// onLanguage resets the conversation when the first message no longer
// matches the localized welcome.
func (c *Controller) onLanguage(tag language.Tag) {
	welcome := personalize.DefaultWelcome(c.loc)

	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	if first, ok := c.transcript.First(); ok && first.Text == welcome {
		c.mu.Unlock()
		return
	}
	c.resetLocked(welcome)
	c.mu.Unlock()

	c.logger.Info().Str("language", tag.String()).Msg("language changed, conversation reset")
	c.afterReset()
	c.emit()
}

// onAuth resets the guest allowance and refreshes personalization.
func (c *Controller) onAuth(user *auth.User) {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	c.guestCount = 0
	c.limitHit = false
	ctx, epoch := c.ctx, c.epoch
	c.mu.Unlock()

	results := c.fetchResults(ctx, userID(user))

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	c.results = results
	now := c.clock.Now()
	switch {
	case user != nil && len(results) > 0 && c.transcript.IsDefaultWelcome():
		c.transcript = model.NewPersonalizedTranscript(
			personalize.WelcomeMessage(c.loc, user.DisplayName(), results), now)
		c.store.Save(c.transcript)
	case user == nil && c.transcript.Origin == model.OriginPersonalized && c.transcript.Len() == 1:
		c.transcript = model.NewWelcomeTranscript(personalize.DefaultWelcome(c.loc), now)
		c.store.Save(c.transcript)
	}
	c.mu.Unlock()

	c.emit()
}

// =============================================================================
// VOICE INPUT
// =============================================================================

// StartListening begins a voice capture session. A recognized utterance
// fills the input and is submitted after the auto-submit delay.
func (c *Controller) StartListening() error {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return ErrNotMounted
	}
	if c.listening {
		c.mu.Unlock()
		return speech.ErrAlreadyListening
	}
	if !c.voiceInput {
		c.mu.Unlock()
		c.speechError(c.loc.T("chat.speech.unsupported", nil))
		return speech.ErrUnsupported
	}
	c.listening = true
	ctx, epoch := c.ctx, c.epoch
	c.mu.Unlock()

	events, err := c.listener.Start(ctx)
	if err != nil {
		c.mu.Lock()
		c.listening = false
		c.mu.Unlock()
		c.speechError(err.Error())
		c.emit()
		return err
	}

	c.emit()
	go c.consumeSpeech(epoch, events)
	return nil
}

// StopListening ends the capture session early.
func (c *Controller) StopListening() {
	if c.listener != nil {
		c.listener.Stop()
	}
}

func (c *Controller) consumeSpeech(epoch uint64, events <-chan speech.Event) {
	for ev := range events {
		switch ev.Type {
		case speech.EventResult:
			c.mu.Lock()
			if c.epoch != epoch {
				c.mu.Unlock()
				continue
			}
			c.input = ev.Text
			c.scheduleAutoSubmitLocked()
			c.mu.Unlock()
			c.emit()

		case speech.EventError:
			msg := ev.Err.Error()
			if errors.Is(ev.Err, speech.ErrNoSpeech) {
				msg = c.loc.T("chat.speech.no_speech", nil)
			}
			c.speechError(msg)

		case speech.EventEnd:
			c.mu.Lock()
			if c.epoch == epoch {
				c.listening = false
			}
			c.mu.Unlock()
			c.emit()
		}
	}
}

func (c *Controller) speechError(msg string) {
	c.notify(notify.Notification{
		Level:   notify.LevelError,
		Title:   c.loc.T("chat.speech.error.title", nil),
		Message: msg,
	})
}

// =============================================================================
// SPOKEN OUTPUT
// =============================================================================

// PlayMessage plays or resumes an assistant message in the background.
func (c *Controller) PlayMessage(msgID string) error {
	msg, ctx, err := c.assistantMessage(msgID)
	if err != nil {
		return err
	}
	if c.speaker == nil {
		return speech.ErrNotConfigured
	}
	go func() {
		if err := c.speaker.Play(ctx, msg.ID, msg.Text); err != nil {
			c.logger.Debug().Err(err).Str("message_id", msg.ID).Msg("playback ended with error")
		}
	}()
	return nil
}

// PauseMessage pauses a playing message.
func (c *Controller) PauseMessage(msgID string) {
	if c.speaker != nil {
		c.speaker.Pause(msgID)
	}
}

// StopMessage stops a playing or paused message and rewinds it.
func (c *Controller) StopMessage(msgID string) {
	if c.speaker != nil {
		c.speaker.Stop(msgID)
	}
}

func (c *Controller) assistantMessage(msgID string) (model.Message, context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return model.Message{}, nil, ErrNotMounted
	}
	msg, ok := c.transcript.Find(msgID)
	if !ok || msg.IsUser {
		return model.Message{}, nil, ErrUnknownMessage
	}
	return msg, c.ctx, nil
}

// autoPlay hands the newest assistant message to the speaker's auto-play
// policy. Playback runs in the background.
func (c *Controller) autoPlay(msg model.Message) {
	if c.speaker == nil {
		return
	}
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()
	go c.speaker.AutoPlay(ctx, msg.ID, msg.Text)
}

// =============================================================================
// VIEW AND SUBSCRIPTIONS
// =============================================================================

// View returns a snapshot of the conversation.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Subscribe registers fn to receive a fresh View after every change and
// returns a cancel func. fn runs on the goroutine that made the change.
func (c *Controller) Subscribe(fn func(View)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Controller) viewLocked() View {
	user := c.currentUser()
	v := View{
		Messages:        append([]model.Message(nil), c.transcript.Messages...),
		Origin:          c.transcript.Origin,
		Input:           c.input,
		Status:          c.status,
		Suggestions:     append([]string(nil), c.suggestions...),
		SignedIn:        user != nil,
		UserName:        user.DisplayName(),
		GuestCount:      c.guestCount,
		GuestRemaining:  -1,
		LimitReached:    c.limitHit,
		Listening:       c.listening,
		SpeechSupported: c.voiceInput,
		Language:        c.loc.Code(),
	}
	if user == nil {
		v.GuestRemaining = c.cfg.GuestMessageLimit - c.guestCount
		if v.GuestRemaining < 0 {
			v.GuestRemaining = 0
		}
	}
	v.InputDisabled = c.status == StatusAwaitingResponse || (user == nil && c.limitHit)

	if c.speaker != nil {
		v.Playback = make(map[string]speech.State)
		for _, m := range c.transcript.Messages {
			if m.IsUser {
				continue
			}
			if st := c.speaker.State(m.ID); st != speech.StateIdle {
				v.Playback[m.ID] = st
			}
		}
		v.ActivePlayback = c.speaker.Active()
	}
	return v
}

// emit publishes the current view to subscribers.
func (c *Controller) emit() {
	c.mu.Lock()
	v := c.viewLocked()
	subs := make([]func(View), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

func (c *Controller) notify(n notify.Notification) {
	n.At = c.clock.Now()
	c.notifier.Notify(n)
}

func (c *Controller) currentUser() *auth.User {
	if c.auth == nil {
		return nil
	}
	return c.auth.CurrentUser()
}

func userID(u *auth.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
