// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/chetna-wellness/chetna/internal/auth"
	"github.com/chetna-wellness/chetna/internal/clock"
	"github.com/chetna-wellness/chetna/internal/i18n"
	"github.com/chetna-wellness/chetna/internal/kv"
	"github.com/chetna-wellness/chetna/internal/metrics"
	"github.com/chetna-wellness/chetna/internal/model"
	"github.com/chetna-wellness/chetna/internal/notify"
	"github.com/chetna-wellness/chetna/internal/records"
	"github.com/chetna-wellness/chetna/internal/responder"
	"github.com/chetna-wellness/chetna/internal/settings"
	"github.com/chetna-wellness/chetna/internal/speech"
	"github.com/chetna-wellness/chetna/internal/storage"
	"github.com/chetna-wellness/chetna/internal/suggest"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

const calmReply = "Let's slow down together. Try breathing in for four counts and out for six."

type fakeResponder struct {
	mu       sync.Mutex
	reply    string
	err      error
	panics   bool
	requests []responder.Request
}

func (f *fakeResponder) Respond(_ context.Context, req responder.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.panics {
		panic("model crashed")
	}
	return f.reply, f.err
}

func (f *fakeResponder) set(reply string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply, f.err = reply, err
}

func (f *fakeResponder) last() responder.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakeRecords struct {
	mu            sync.Mutex
	results       map[string][]model.TestResult
	conversations []records.ConversationRecord
	insertErr     error
}

func (f *fakeRecords) InsertConversation(_ context.Context, rec records.ConversationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.conversations = append(f.conversations, rec)
	return nil
}

func (f *fakeRecords) RecentTestResults(_ context.Context, userID string, limit int) ([]model.TestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := f.results[userID]
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (f *fakeRecords) inserted() []records.ConversationRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]records.ConversationRecord(nil), f.conversations...)
}

type harness struct {
	t       *testing.T
	ctrl    *Controller
	clk     *clock.Fake
	kv      *kv.MemoryStore
	store   *storage.MessageStore
	loc     *i18n.Localizer
	auth    *auth.Session
	notes   *notify.Queue
	resp    *fakeResponder
	records *fakeRecords
	metrics *metrics.Chat
}

func newHarness(t *testing.T, opts ...func(*harness, *Deps)) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		clk:     clock.NewFake(t0),
		kv:      kv.NewMemoryStore(),
		loc:     i18n.New("en"),
		notes:   notify.NewQueue(64),
		resp:    &fakeResponder{reply: calmReply},
		records: &fakeRecords{results: map[string][]model.TestResult{}},
		metrics: metrics.NewChat(),
	}
	h.store = storage.NewMessageStore(h.kv, zerolog.Nop())
	h.auth = auth.NewSession(nil, zerolog.Nop())

	deps := Deps{
		Store:     h.store,
		Responder: h.resp,
		Records:   h.records,
		Auth:      h.auth,
		Localizer: h.loc,
		Notifier:  h.notes,
		Metrics:   h.metrics,
		Clock:     h.clk,
		Logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h, &deps)
	}
	h.ctrl = New(DefaultConfig(), deps)
	return h
}

func (h *harness) mount() {
	h.t.Helper()
	require.NoError(h.t, h.ctrl.Mount(context.Background()))
	h.t.Cleanup(h.ctrl.Unmount)
}

// waitTimers blocks until n timers are scheduled on the fake clock.
func (h *harness) waitTimers(n int) {
	h.t.Helper()
	require.True(h.t, h.clk.BlockUntil(n, 2*time.Second), "expected %d pending timers, have %d", n, h.clk.Pending())
}

// send submits text and delivers the reply.
func (h *harness) send(text string) {
	h.t.Helper()
	h.ctrl.SetInput(text)
	require.NoError(h.t, h.ctrl.Submit())
	h.waitTimers(2) // expiry + reply delay
	h.clk.Advance(DefaultConfig().PacingMax)
	require.Equal(h.t, StatusIdle, h.ctrl.View().Status)
}

func (h *harness) welcome() string {
	return h.loc.T("chat.welcome", nil)
}

func titles(ns []notify.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Title)
	}
	return out
}

// =============================================================================
// MOUNT AND PERSISTENCE
// =============================================================================

func TestController_MountSeedsWelcome(t *testing.T) {
	h := newHarness(t)
	h.mount()

	v := h.ctrl.View()
	require.Len(t, v.Messages, 1)
	assert.Equal(t, h.welcome(), v.Messages[0].Text)
	assert.False(t, v.Messages[0].IsUser)
	assert.Equal(t, model.OriginDefault, v.Origin)
	assert.Equal(t, StatusIdle, v.Status)
	assert.Equal(t, 5, v.GuestRemaining)
	assert.False(t, v.InputDisabled)

	stored, ok := h.store.Load()
	require.True(t, ok)
	assert.Equal(t, h.welcome(), stored.Messages[0].Text)
}

func TestController_RestoresTranscript(t *testing.T) {
	h := newHarness(t)
	h.mount()
	h.send("I have been stressed at work")
	before := h.ctrl.View().Messages
	h.ctrl.Unmount()

	h2 := newHarness(t, func(h2 *harness, d *Deps) {
		h2.kv = h.kv
		h2.clk = h.clk
		d.Store = storage.NewMessageStore(h.kv, zerolog.Nop())
		d.Clock = h.clk
	})
	h2.mount()

	after := h2.ctrl.View()
	assert.Equal(t, model.OriginRestored, after.Origin)
	require.Len(t, after.Messages, len(before))
	for i := range before {
		assert.True(t, before[i].Equal(after.Messages[i]), "message %d differs", i)
	}
}

func TestController_MalformedSnapshotFallsBackToWelcome(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.kv.Set(storage.MessagesKey, "{not json"))
	h.mount()

	v := h.ctrl.View()
	require.Len(t, v.Messages, 1)
	assert.Equal(t, h.welcome(), v.Messages[0].Text)
}

func TestController_StaleSnapshotIsDiscarded(t *testing.T) {
	h := newHarness(t)
	old := model.NewWelcomeTranscript("Hello", t0.Add(-time.Hour))
	old = old.Append(model.NewUserMessage("old secret", t0.Add(-time.Hour)))
	h.store.Save(old)

	h.mount()
	v := h.ctrl.View()
	require.Len(t, v.Messages, 1)
	assert.Equal(t, h.welcome(), v.Messages[0].Text)
}

func TestController_NotMounted(t *testing.T) {
	h := newHarness(t)

	h.ctrl.SetInput("hi")
	assert.ErrorIs(t, h.ctrl.Submit(), ErrNotMounted)
	assert.ErrorIs(t, h.ctrl.Clear(), ErrNotMounted)
	assert.ErrorIs(t, h.ctrl.SelectSuggestion("x"), ErrNotMounted)
	assert.ErrorIs(t, h.ctrl.StartListening(), ErrNotMounted)
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestController_SubmitBlankInput(t *testing.T) {
	h := newHarness(t)
	h.mount()

	h.ctrl.SetInput("   \n\t ")
	assert.ErrorIs(t, h.ctrl.Submit(), ErrBlankInput)

	v := h.ctrl.View()
	assert.Len(t, v.Messages, 1)
	assert.Equal(t, StatusIdle, v.Status)
	assert.Equal(t, 0, v.GuestCount)
}

func TestController_SubmitPacesReply(t *testing.T) {
	h := newHarness(t)
	h.mount()

	h.ctrl.SetInput("  I feel anxious before exams  ")
	require.NoError(t, h.ctrl.Submit())

	v := h.ctrl.View()
	require.Len(t, v.Messages, 2)
	assert.Equal(t, "I feel anxious before exams", v.Messages[1].Text)
	assert.True(t, v.Messages[1].IsUser)
	assert.Equal(t, "", v.Input)
	assert.Nil(t, v.Suggestions)
	assert.Equal(t, StatusAwaitingResponse, v.Status)
	assert.True(t, v.InputDisabled)
	assert.True(t, v.Typing())

	h.waitTimers(2)
	delay := DefaultConfig().PacingDelay(calmReply)

	h.clk.Advance(delay - time.Millisecond)
	assert.Len(t, h.ctrl.View().Messages, 2, "reply must not appear before the pacing delay")

	h.clk.Advance(time.Millisecond)
	v = h.ctrl.View()
	require.Len(t, v.Messages, 3)
	assert.Equal(t, calmReply, v.Messages[2].Text)
	assert.False(t, v.Messages[2].IsUser)
	assert.Equal(t, StatusIdle, v.Status)
	assert.False(t, v.InputDisabled)
	assert.Equal(t, suggest.Generate(calmReply, ""), v.Suggestions)

	stored, ok := h.store.Load()
	require.True(t, ok)
	assert.Equal(t, 3, stored.Len())

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Messages.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Messages.WithLabelValues("assistant")))
}

func TestController_RejectsSubmitWhileAwaiting(t *testing.T) {
	h := newHarness(t)
	h.mount()

	h.ctrl.SetInput("first")
	require.NoError(t, h.ctrl.Submit())

	h.ctrl.SetInput("second")
	assert.ErrorIs(t, h.ctrl.Submit(), ErrAwaitingResponse)
	assert.Equal(t, "second", h.ctrl.View().Input, "rejected input is kept")

	h.waitTimers(2)
	h.clk.Advance(2 * time.Second)
	require.NoError(t, h.ctrl.Submit())

	msgs := h.ctrl.View().Messages
	assert.Equal(t, "second", msgs[len(msgs)-1].Text)
}

func TestController_RequestCarriesContext(t *testing.T) {
	results := []model.TestResult{{ID: "r1", UserID: "u1", TestName: "GAD-7", Score: 16, MaxScore: 21, Severity: "severe", CreatedAt: t0}}
	h := newHarness(t)
	h.records.results["u1"] = results
	_, err := h.auth.SignIn(auth.User{ID: "u1", Name: "Asha Rao"})
	require.NoError(t, err)
	h.mount()

	h.send("I can't stop worrying")

	req := h.resp.last()
	assert.Equal(t, "I can't stop worrying", req.Text)
	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, "en", req.Language)
	assert.Equal(t, results, req.Results)
	require.NotNil(t, req.Fallback)
	assert.Equal(t, responder.Fallback("I can't stop worrying"), req.Fallback("I can't stop worrying"))
	require.Len(t, req.History, 1, "history holds the messages before the new one")

	assert.Eventually(t, func() bool { return len(h.records.inserted()) == 2 }, time.Second, 5*time.Millisecond)
	recs := h.records.inserted()
	assert.ElementsMatch(t, []bool{false, true}, []bool{recs[0].IsBot, recs[1].IsBot})
}

func TestController_GuestResultsEmpty(t *testing.T) {
	h := newHarness(t)
	h.mount()
	h.send("hello")

	assert.Empty(t, h.resp.last().Results)
	assert.Equal(t, "", h.resp.last().UserID)
	assert.Empty(t, h.records.inserted(), "guest messages are not stored remotely")
}

func TestController_RecordFailureIsSilent(t *testing.T) {
	h := newHarness(t)
	h.records.insertErr = errors.New("database is locked")
	_, err := h.auth.SignIn(auth.User{ID: "u1", Name: "Asha"})
	require.NoError(t, err)
	h.mount()

	h.send("hello")
	assert.Len(t, h.ctrl.View().Messages, 3)
	assert.Empty(t, h.notes.Drain())
}

// =============================================================================
// GUEST RATE LIMIT
// =============================================================================

func TestController_GuestLimit(t *testing.T) {
	h := newHarness(t)
	h.mount()

	for i := 1; i <= 5; i++ {
		h.send("message")
		assert.Equal(t, i, h.ctrl.View().GuestCount)
	}
	assert.False(t, h.ctrl.View().LimitReached)
	assert.Equal(t, 0, h.ctrl.View().GuestRemaining)
	h.notes.Drain()

	h.ctrl.SetInput("sixth")
	assert.ErrorIs(t, h.ctrl.Submit(), ErrRateLimited)

	v := h.ctrl.View()
	assert.True(t, v.LimitReached)
	assert.True(t, v.InputDisabled)
	assert.Len(t, v.Messages, 11, "rejected message is not appended")

	notes := h.notes.Drain()
	require.Len(t, notes, 1)
	assert.True(t, notes[0].Blocking)
	assert.Equal(t, h.loc.T("chat.limit.title", nil), notes[0].Title)
	assert.Contains(t, notes[0].Message, "5")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RateLimited))

	// signing in lifts the limit
	_, err := h.auth.SignIn(auth.User{ID: "u1", Name: "Ravi"})
	require.NoError(t, err)

	v = h.ctrl.View()
	assert.False(t, v.LimitReached)
	assert.False(t, v.InputDisabled)
	assert.Equal(t, 0, v.GuestCount)
	assert.Equal(t, -1, v.GuestRemaining)
	require.NoError(t, h.ctrl.Submit())
}

func TestController_SignOutStartsFreshAllowance(t *testing.T) {
	h := newHarness(t)
	_, err := h.auth.SignIn(auth.User{ID: "u1", Name: "Ravi"})
	require.NoError(t, err)
	h.mount()

	for i := 0; i < 7; i++ {
		h.send("signed-in users are not limited")
	}
	h.auth.SignOut()
	assert.Equal(t, 5, h.ctrl.View().GuestRemaining)
}

// =============================================================================
// FALLBACK
// =============================================================================

func TestController_FallbackOnResponderFailure(t *testing.T) {
	h := newHarness(t)
	h.resp.set("", errors.New("connection refused"))
	h.mount()
	h.notes.Drain()

	text := "I can't sleep at night"
	h.ctrl.SetInput(text)
	require.NoError(t, h.ctrl.Submit())
	h.waitTimers(2)

	h.clk.Advance(999 * time.Millisecond)
	assert.Len(t, h.ctrl.View().Messages, 2)

	h.clk.Advance(time.Millisecond)
	v := h.ctrl.View()
	require.Len(t, v.Messages, 3)
	assert.Equal(t, responder.Fallback(text), v.Messages[2].Text)
	assert.Equal(t, StatusIdle, v.Status)

	notes := h.notes.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, h.loc.T("chat.basic_mode.title", nil), notes[0].Title)
	assert.False(t, notes[0].Blocking)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Fallbacks))

	// later time passing adds nothing
	h.clk.Advance(5 * time.Second)
	assert.Len(t, h.ctrl.View().Messages, 3)
	assert.Empty(t, h.notes.Drain())
}

func TestController_FallbackOnEmptyReply(t *testing.T) {
	h := newHarness(t)
	h.resp.set("   ", nil)
	h.mount()

	h.ctrl.SetInput("hello")
	require.NoError(t, h.ctrl.Submit())
	h.waitTimers(2)
	h.clk.Advance(time.Second)

	msgs := h.ctrl.View().Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, responder.Fallback("hello"), msgs[2].Text)
}

func TestController_FallbackOnResponderPanic(t *testing.T) {
	h := newHarness(t)
	h.resp.panics = true
	h.mount()

	h.ctrl.SetInput("hello")
	require.NoError(t, h.ctrl.Submit())
	h.waitTimers(2)
	h.clk.Advance(time.Second)

	assert.Len(t, h.ctrl.View().Messages, 3)
}

// =============================================================================
// CLEAR, EXPIRY AND LANGUAGE
// =============================================================================

func TestController_Clear(t *testing.T) {
	h := newHarness(t)
	h.mount()
	h.send("one")
	h.send("two")
	h.notes.Drain()

	require.NoError(t, h.ctrl.Clear())

	v := h.ctrl.View()
	require.Len(t, v.Messages, 1)
	assert.Equal(t, h.welcome(), v.Messages[0].Text)
	assert.Equal(t, 0, v.GuestCount)
	assert.Nil(t, v.Suggestions)
	assert.Equal(t, []string{h.loc.T("chat.cleared.title", nil)}, titles(h.notes.Drain()))

	stored, ok := h.store.Load()
	require.True(t, ok)
	assert.Equal(t, 1, stored.Len())
}

func TestController_ClearWhileAwaitingStillDeliversReply(t *testing.T) {
	h := newHarness(t)
	h.mount()

	h.ctrl.SetInput("hello")
	require.NoError(t, h.ctrl.Submit())
	require.NoError(t, h.ctrl.Clear())
	assert.Len(t, h.ctrl.View().Messages, 1)

	h.waitTimers(2)
	h.clk.Advance(2 * time.Second)

	v := h.ctrl.View()
	require.Len(t, v.Messages, 2)
	assert.Equal(t, calmReply, v.Messages[1].Text)
	assert.Equal(t, StatusIdle, v.Status)
}

func TestController_AutoExpiry(t *testing.T) {
	h := newHarness(t)
	h.mount()
	h.send("I feel low")
	h.send("Nothing helps")
	h.notes.Drain()

	elapsed := h.clk.Now().Sub(t0)
	h.clk.Advance(20*time.Minute - elapsed - time.Millisecond)
	assert.Len(t, h.ctrl.View().Messages, 5, "not cleared before the period ends")

	h.clk.Advance(time.Millisecond)
	v := h.ctrl.View()
	require.Len(t, v.Messages, 1)
	assert.Equal(t, h.welcome(), v.Messages[0].Text)
	assert.Equal(t, []string{h.loc.T("chat.expired.title", nil)}, titles(h.notes.Drain()))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ExpiryClears))

	// fixed period: activity does not postpone the next clear
	h.send("again")
	h.clk.Advance(20*time.Minute - (h.clk.Now().Sub(t0) - 20*time.Minute))
	assert.Len(t, h.ctrl.View().Messages, 1)
}

func TestController_UnmountStopsExpiry(t *testing.T) {
	h := newHarness(t)
	h.mount()
	h.send("hello")
	h.ctrl.Unmount()

	assert.Equal(t, 0, h.clk.Pending())
	h.clk.Advance(time.Hour)

	stored, ok := h.store.Load()
	require.True(t, ok)
	assert.Equal(t, 3, stored.Len(), "no clear while unmounted")
}

func TestController_UnmountAbandonsPendingReply(t *testing.T) {
	h := newHarness(t)
	h.mount()

	h.ctrl.SetInput("hello")
	require.NoError(t, h.ctrl.Submit())
	h.waitTimers(2)
	h.ctrl.Unmount()
	h.clk.Advance(time.Minute)

	stored, ok := h.store.Load()
	require.True(t, ok)
	assert.Equal(t, 2, stored.Len())
}

func TestController_LanguageSwitchResets(t *testing.T) {
	h := newHarness(t)
	h.mount()
	h.send("one")
	h.send("two")
	require.Equal(t, 2, h.ctrl.View().GuestCount)

	h.loc.SetLanguage("hi")

	v := h.ctrl.View()
	require.Len(t, v.Messages, 1)
	assert.Equal(t, i18n.Hindi["chat.welcome"], v.Messages[0].Text)
	assert.Equal(t, 0, v.GuestCount)
	assert.False(t, v.LimitReached)
	assert.Equal(t, "hi", v.Language)
}

func TestController_LanguageSwitchResetsLimit(t *testing.T) {
	h := newHarness(t)
	h.mount()
	for i := 0; i < 5; i++ {
		h.send("message")
	}
	h.ctrl.SetInput("sixth")
	require.ErrorIs(t, h.ctrl.Submit(), ErrRateLimited)

	h.loc.SetLanguage("hi")

	v := h.ctrl.View()
	assert.False(t, v.LimitReached)
	assert.False(t, v.InputDisabled)
	assert.Equal(t, 0, v.GuestCount)
}

func TestController_LanguageSwitchKeepsMatchingWelcome(t *testing.T) {
	// both catalogs share the welcome text, so switching keeps the conversation
	loc := i18n.NewWithCatalogs(language.English, map[language.Tag]i18n.Catalog{
		language.English: {"chat.welcome": "Namaste!"},
		language.Hindi:   {"chat.welcome": "Namaste!"},
	})
	h := newHarness(t, func(h *harness, d *Deps) {
		h.loc = loc
		d.Localizer = loc
	})
	h.mount()
	h.send("hello")

	h.loc.SetLanguage("hi")

	v := h.ctrl.View()
	assert.Len(t, v.Messages, 3)
	assert.Equal(t, 1, v.GuestCount)
	assert.Equal(t, "hi", v.Language)
}

func TestController_TranscriptNeverEmpty(t *testing.T) {
	h := newHarness(t)
	h.mount()

	ops := []func(){
		func() { require.NoError(t, h.ctrl.Clear()) },
		func() { h.loc.SetLanguage("hi") },
		func() { h.send("hello") },
		func() { h.loc.SetLanguage("en") },
		func() { h.kv.Set(storage.MessagesKey, "[]"); h.ctrl.Unmount(); h.mount() },
		func() { h.clk.Advance(20 * time.Minute) },
		func() { h.kv.Set(storage.MessagesKey, "garbage"); h.ctrl.Unmount(); h.mount() },
	}
	for i, op := range ops {
		op()
		assert.GreaterOrEqual(t, len(h.ctrl.View().Messages), 1, "after op %d", i)
	}
}

// =============================================================================
// PERSONALIZATION
// =============================================================================

func TestController_PersonalizedWelcomeOnMount(t *testing.T) {
	h := newHarness(t)
	h.records.results["u1"] = []model.TestResult{
		{ID: "a", TestName: "PHQ-9", Severity: "moderate", CreatedAt: t0.Add(-48 * time.Hour)},
		{ID: "b", TestName: "GAD-7", Severity: "mild", CreatedAt: t0.Add(-24 * time.Hour)},
	}
	_, err := h.auth.SignIn(auth.User{ID: "u1", Name: "Asha Rao"})
	require.NoError(t, err)
	h.mount()

	v := h.ctrl.View()
	require.Len(t, v.Messages, 1)
	assert.Equal(t, model.OriginPersonalized, v.Origin)
	assert.Contains(t, v.Messages[0].Text, "Asha")
	assert.Contains(t, v.Messages[0].Text, "GAD-7")
	assert.Contains(t, v.Messages[0].Text, "mild")
}

func TestController_NoPersonalizationWithoutResults(t *testing.T) {
	h := newHarness(t)
	_, err := h.auth.SignIn(auth.User{ID: "u1", Name: "Asha"})
	require.NoError(t, err)
	h.mount()

	v := h.ctrl.View()
	assert.Equal(t, model.OriginDefault, v.Origin)
	assert.Equal(t, h.welcome(), v.Messages[0].Text)
}

func TestController_NoPersonalizationOfActiveConversation(t *testing.T) {
	h := newHarness(t)
	h.records.results["u1"] = []model.TestResult{{ID: "a", TestName: "PHQ-9", Severity: "severe", CreatedAt: t0}}
	h.mount()
	h.send("hello")

	_, err := h.auth.SignIn(auth.User{ID: "u1", Name: "Asha"})
	require.NoError(t, err)

	v := h.ctrl.View()
	assert.Len(t, v.Messages, 3)
	assert.Equal(t, h.welcome(), v.Messages[0].Text)
}

func TestController_SignInPersonalizesUntouchedWelcome(t *testing.T) {
	h := newHarness(t)
	h.records.results["u1"] = []model.TestResult{{ID: "a", TestName: "PHQ-9", Severity: "severe", CreatedAt: t0}}
	h.mount()

	_, err := h.auth.SignIn(auth.User{ID: "u1", Name: "Asha"})
	require.NoError(t, err)
	assert.Equal(t, model.OriginPersonalized, h.ctrl.View().Origin)

	h.auth.SignOut()
	v := h.ctrl.View()
	assert.Equal(t, model.OriginDefault, v.Origin)
	assert.Equal(t, h.welcome(), v.Messages[0].Text)
}

// =============================================================================
// SUGGESTIONS AND VOICE INPUT
// =============================================================================

func TestController_SelectSuggestionAutoSubmits(t *testing.T) {
	h := newHarness(t)
	h.mount()
	h.send("I feel anxious")
	chips := h.ctrl.View().Suggestions
	require.NotEmpty(t, chips)

	require.NoError(t, h.ctrl.SelectSuggestion(chips[0]))
	v := h.ctrl.View()
	assert.Equal(t, chips[0], v.Input)
	assert.Nil(t, v.Suggestions)
	assert.Len(t, v.Messages, 3)

	h.clk.Advance(499 * time.Millisecond)
	assert.Len(t, h.ctrl.View().Messages, 3)

	h.clk.Advance(time.Millisecond)
	v = h.ctrl.View()
	require.Len(t, v.Messages, 4)
	assert.Equal(t, chips[0], v.Messages[3].Text)
	assert.Equal(t, StatusAwaitingResponse, v.Status)
}

type scriptedRecognizer struct {
	text string
	err  error
}

func (r scriptedRecognizer) Supported() bool { return true }

func (r scriptedRecognizer) Recognize(context.Context, <-chan struct{}) (string, error) {
	return r.text, r.err
}

func TestController_VoiceResultAutoSubmits(t *testing.T) {
	h := newHarness(t, func(_ *harness, d *Deps) {
		d.Listener = speech.NewListener(scriptedRecognizer{text: "I can't sleep"}, zerolog.Nop())
	})
	h.mount()
	require.True(t, h.ctrl.View().SpeechSupported)

	require.NoError(t, h.ctrl.StartListening())

	assert.Eventually(t, func() bool {
		v := h.ctrl.View()
		return v.Input == "I can't sleep" && !v.Listening
	}, time.Second, 5*time.Millisecond)

	h.waitTimers(2) // expiry + auto-submit
	h.clk.Advance(500 * time.Millisecond)

	msgs := h.ctrl.View().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "I can't sleep", msgs[1].Text)
}

func TestController_VoiceErrorNotifies(t *testing.T) {
	h := newHarness(t, func(_ *harness, d *Deps) {
		d.Listener = speech.NewListener(scriptedRecognizer{err: speech.ErrNoSpeech}, zerolog.Nop())
	})
	h.mount()
	h.notes.Drain()

	require.NoError(t, h.ctrl.StartListening())
	assert.Eventually(t, func() bool { return !h.ctrl.View().Listening }, time.Second, 5*time.Millisecond)

	notes := h.notes.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.LevelError, notes[0].Level)
	assert.Equal(t, h.loc.T("chat.speech.no_speech", nil), notes[0].Message)
	assert.Equal(t, "", h.ctrl.View().Input)
}

func TestController_VoiceUnsupported(t *testing.T) {
	h := newHarness(t)
	h.mount()
	h.notes.Drain()

	assert.False(t, h.ctrl.View().SpeechSupported)
	assert.ErrorIs(t, h.ctrl.StartListening(), speech.ErrUnsupported)
	assert.Equal(t, []string{h.loc.T("chat.speech.error.title", nil)}, titles(h.notes.Drain()))
}

// =============================================================================
// SPOKEN OUTPUT
// =============================================================================

type holdPlayer struct{}

func (holdPlayer) Open([]byte) (speech.Handle, error) {
	return &holdHandle{done: make(chan struct{})}, nil
}

// holdHandle plays until released.
type holdHandle struct{ done chan struct{} }

func (h *holdHandle) Play() error           { return nil }
func (h *holdHandle) Pause() error          { return nil }
func (h *holdHandle) Rewind() error         { return nil }
func (h *holdHandle) SetMuted(bool)         {}
func (h *holdHandle) Done() <-chan struct{} { return h.done }
func (h *holdHandle) Release()              {}

func withSpeaker(st *settings.Store, calls *atomic.Int32) func(*harness, *Deps) {
	return func(_ *harness, d *Deps) {
		synth := speech.SynthesizerFunc(func(_ context.Context, text string, _ float64) ([]byte, error) {
			calls.Add(1)
			return []byte(text), nil
		})
		d.Speaker = speech.NewSpeaker(speech.SpeakerDeps{
			Synth:    synth,
			Player:   holdPlayer{},
			Settings: st,
			Logger:   zerolog.Nop(),
		})
	}
}

func TestController_PlayPauseStop(t *testing.T) {
	var calls atomic.Int32
	st := settings.NewStore(kv.NewMemoryStore(), zerolog.Nop())
	h := newHarness(t, withSpeaker(st, &calls))
	h.mount()

	welcome := h.ctrl.View().Messages[0]
	require.NoError(t, h.ctrl.PlayMessage(welcome.ID))
	assert.Eventually(t, func() bool {
		return h.ctrl.View().PlaybackState(welcome.ID) == speech.StatePlaying
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, welcome.ID, h.ctrl.View().ActivePlayback)

	h.ctrl.PauseMessage(welcome.ID)
	assert.Equal(t, speech.StatePaused, h.ctrl.View().PlaybackState(welcome.ID))

	h.ctrl.StopMessage(welcome.ID)
	assert.Equal(t, speech.StateIdle, h.ctrl.View().PlaybackState(welcome.ID))
	assert.Equal(t, int32(1), calls.Load())
}

func TestController_PlayRejectsUnknownOrUserMessages(t *testing.T) {
	var calls atomic.Int32
	st := settings.NewStore(kv.NewMemoryStore(), zerolog.Nop())
	h := newHarness(t, withSpeaker(st, &calls))
	h.mount()
	h.send("hello")

	assert.ErrorIs(t, h.ctrl.PlayMessage("nope"), ErrUnknownMessage)
	assert.ErrorIs(t, h.ctrl.PlayMessage(h.ctrl.View().Messages[1].ID), ErrUnknownMessage)
}

func TestController_AutoPlaysNewReplyOnce(t *testing.T) {
	var calls atomic.Int32
	st := settings.NewStore(kv.NewMemoryStore(), zerolog.Nop())
	h := newHarness(t, withSpeaker(st, &calls))
	h.mount()
	st.SetAutoPlay(true)

	h.send("hello")
	reply := h.ctrl.View().Messages[2]

	assert.Eventually(t, func() bool {
		return h.ctrl.View().PlaybackState(reply.ID) == speech.StatePlaying
	}, time.Second, 5*time.Millisecond)

	// re-renders do not replay it
	h.ctrl.SetInput("typing")
	h.ctrl.SetInput("")
	h.ctrl.StopMessage(reply.ID)
	h.ctrl.SetInput("more typing")
	assert.Equal(t, int32(1), calls.Load())
}

func TestController_MutedDoesNotAutoPlay(t *testing.T) {
	var calls atomic.Int32
	st := settings.NewStore(kv.NewMemoryStore(), zerolog.Nop())
	st.SetAutoPlay(true)
	st.SetMuted(true)
	h := newHarness(t, withSpeaker(st, &calls))
	h.mount()

	h.send("hello")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestController_ClearReleasesAudio(t *testing.T) {
	var calls atomic.Int32
	st := settings.NewStore(kv.NewMemoryStore(), zerolog.Nop())
	h := newHarness(t, withSpeaker(st, &calls))
	h.mount()

	welcome := h.ctrl.View().Messages[0]
	require.NoError(t, h.ctrl.PlayMessage(welcome.ID))
	assert.Eventually(t, func() bool { return h.ctrl.View().ActivePlayback == welcome.ID }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.ctrl.Clear())
	assert.Equal(t, "", h.ctrl.View().ActivePlayback)
}

// livePlayer counts handles that were started and not yet released.
type livePlayer struct {
	opened, live atomic.Int32
}

func (p *livePlayer) Open([]byte) (speech.Handle, error) {
	p.opened.Add(1)
	return &liveHandle{p: p, done: make(chan struct{})}, nil
}

type liveHandle struct {
	p       *livePlayer
	started bool
	done    chan struct{}
}

func (h *liveHandle) Play() error {
	if !h.started {
		h.started = true
		h.p.live.Add(1)
	}
	return nil
}
func (h *liveHandle) Pause() error          { return nil }
func (h *liveHandle) Rewind() error         { return nil }
func (h *liveHandle) SetMuted(bool)         {}
func (h *liveHandle) Done() <-chan struct{} { return h.done }
func (h *liveHandle) Release() {
	if h.started {
		h.started = false
		h.p.live.Add(-1)
	}
}

func TestController_UnmountDuringSpeechFetchPlaysNothing(t *testing.T) {
	player := &livePlayer{}
	entered := make(chan struct{})
	release := make(chan struct{})
	var sp *speech.Speaker
	h := newHarness(t, func(_ *harness, d *Deps) {
		synth := speech.SynthesizerFunc(func(_ context.Context, text string, _ float64) ([]byte, error) {
			close(entered)
			<-release
			return []byte(text), nil
		})
		sp = speech.NewSpeaker(speech.SpeakerDeps{Synth: synth, Player: player, Logger: zerolog.Nop()})
		d.Speaker = sp
	})
	h.mount()

	welcome := h.ctrl.View().Messages[0]
	require.NoError(t, h.ctrl.PlayMessage(welcome.ID))
	<-entered
	require.Equal(t, speech.StateLoading, sp.State(welcome.ID))

	h.ctrl.Unmount()
	close(release)

	assert.Eventually(t, func() bool { return player.opened.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return player.live.Load() != 0 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, "", sp.Active())
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

func TestController_Subscribe(t *testing.T) {
	h := newHarness(t)

	var mu sync.Mutex
	var views []View
	cancel := h.ctrl.Subscribe(func(v View) {
		mu.Lock()
		views = append(views, v)
		mu.Unlock()
	})
	h.mount()
	h.ctrl.SetInput("hi")

	mu.Lock()
	n := len(views)
	last := views[n-1]
	mu.Unlock()
	assert.GreaterOrEqual(t, n, 2)
	assert.Equal(t, "hi", last.Input)

	cancel()
	h.ctrl.SetInput("bye")
	mu.Lock()
	assert.Len(t, views, n)
	mu.Unlock()
}
