// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/chetna-wellness/chetna/internal/auth"
	"github.com/chetna-wellness/chetna/internal/chat"
	"github.com/chetna-wellness/chetna/internal/i18n"
	"github.com/chetna-wellness/chetna/internal/records"
	"github.com/chetna-wellness/chetna/internal/session"
	"github.com/chetna-wellness/chetna/internal/settings"
)

// =============================================================================
// HANDLER ENVIRONMENT
// =============================================================================

// Chat is the part of the conversation controller commands drive.
type Chat interface {
	View() chat.View
	Clear() error
	SelectSuggestion(text string) error
	StartListening() error
	StopListening()
	PlayMessage(msgID string) error
	PauseMessage(msgID string)
	StopMessage(msgID string)
}

// History lists recorded messages of a user, newest first.
type History interface {
	Conversations(ctx context.Context, userID string, limit int) ([]records.ConversationRecord, error)
}

// Env provides access to application state for command handlers.
// Nil members disable the commands that need them.
type Env struct {
	Ctx       context.Context
	Chat      Chat
	Settings  *settings.Store
	Localizer *i18n.Localizer
	Auth      *auth.Session
	History   History
	Expiry    *session.Manager

	// Clipboard copies text. Nil reports that no clipboard is available.
	Clipboard func(text string) error

	registry *Registry
}

var (
	errNoChat     = errors.New("no active conversation")
	errNoSettings = errors.New("playback settings unavailable")
	errSignedOut  = errors.New("sign in to see your history")
)

func (e *Env) ctx() context.Context {
	if e.Ctx != nil {
		return e.Ctx
	}
	return context.Background()
}

func (e *Env) t(key string, params map[string]string) string {
	if e.Localizer == nil {
		return key
	}
	return e.Localizer.T(key, params)
}

// userNamespace derives stable user IDs from names and emails so a user's
// records survive restarts.
var userNamespace = uuid.MustParse("8f2b7c1e-3d4a-5b6c-9e8f-0a1b2c3d4e5f")

// UserID returns the stable ID for an identity key (email or name).
func UserID(key string) string {
	return uuid.NewSHA1(userNamespace, []byte(strings.ToLower(strings.TrimSpace(key)))).String()
}

// =============================================================================
// NAVIGATION
// =============================================================================

func handleHelp(env *Env, _ []string) (Result, error) {
	var b strings.Builder
	groups := env.registry.ByCategory()
	cats := make([]string, 0, len(groups))
	for c := range groups {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	for i, cat := range cats {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(cat + "\n")
		for _, cmd := range groups[cat] {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			fmt.Fprintf(&b, "  %-22s %s\n", usage, cmd.Description)
		}
	}
	return Result{Output: strings.TrimRight(b.String(), "\n")}, nil
}

func handleQuit(_ *Env, _ []string) (Result, error) {
	return Result{Quit: true}, nil
}

func handleStatus(env *Env, _ []string) (Result, error) {
	var lines []string

	if env.Chat != nil {
		v := env.Chat.View()
		if v.SignedIn {
			lines = append(lines, "Signed in as "+v.UserName)
		} else {
			lines = append(lines, fmt.Sprintf("Guest: %s", env.t("chat.guest_remaining", map[string]string{
				"remaining": strconv.Itoa(v.GuestRemaining),
			})))
		}
		lines = append(lines, fmt.Sprintf("Messages: %d", len(v.Messages)))
	}
	if env.Localizer != nil {
		lines = append(lines, "Language: "+languageName(env.Localizer.Language()))
	}
	if env.Settings != nil {
		p := env.Settings.Get()
		lines = append(lines, fmt.Sprintf("Playback: speed %.2fx, muted %s, auto-play %s",
			p.Speed, onOff(p.Muted), onOff(p.AutoPlay)))
	}
	if env.Expiry != nil && env.Expiry.IsRunning() {
		lines = append(lines, "Auto-clear: "+humanize.Time(env.Expiry.NextExpiry()))
	}
	return Result{Output: strings.Join(lines, "\n")}, nil
}

// =============================================================================
// CONVERSATION
// =============================================================================

func handleClear(env *Env, _ []string) (Result, error) {
	if env.Chat == nil {
		return Result{}, errNoChat
	}
	return Result{}, env.Chat.Clear()
}

func handleSuggest(env *Env, args []string) (Result, error) {
	if env.Chat == nil {
		return Result{}, errNoChat
	}
	suggestions := env.Chat.View().Suggestions
	if len(args) == 0 {
		if len(suggestions) == 0 {
			return Result{Output: "No suggestions right now."}, nil
		}
		var b strings.Builder
		b.WriteString(env.t("chat.suggestions", nil) + ":")
		for i, s := range suggestions {
			fmt.Fprintf(&b, "\n  %d. %s", i+1, s)
		}
		return Result{Output: b.String()}, nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(suggestions) {
		return Result{}, fmt.Errorf("no suggestion %s", args[0])
	}
	return Result{}, env.Chat.SelectSuggestion(suggestions[n-1])
}

func handleCopy(env *Env, _ []string) (Result, error) {
	if env.Chat == nil {
		return Result{}, errNoChat
	}
	if env.Clipboard == nil {
		return Result{}, errors.New("clipboard unavailable")
	}
	msg, ok := env.Chat.View().LastAssistant()
	if !ok {
		return Result{}, errors.New("nothing to copy")
	}
	if err := env.Clipboard(msg.Text); err != nil {
		return Result{}, fmt.Errorf("copy failed: %w", err)
	}
	return Result{Output: env.t("chat.copied", nil)}, nil
}

func handleHistory(env *Env, args []string) (Result, error) {
	if env.History == nil {
		return Result{}, errors.New("history is not recorded")
	}
	var user *auth.User
	if env.Auth != nil {
		user = env.Auth.CurrentUser()
	}
	if user == nil {
		return Result{}, errSignedOut
	}

	limit := 20
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}

	recs, err := env.History.Conversations(env.ctx(), user.ID, limit)
	if err != nil {
		return Result{}, err
	}
	if len(recs) == 0 {
		return Result{Output: "No recorded messages yet."}, nil
	}

	var b strings.Builder
	// Oldest first reads naturally.
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		who := env.t("chat.you", nil)
		if r.IsBot {
			who = env.t("chat.assistant", nil)
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", humanize.Time(r.CreatedAt), who, r.Message)
	}
	return Result{Output: strings.TrimRight(b.String(), "\n")}, nil
}

// =============================================================================
// VOICE
// =============================================================================

func handleListen(env *Env, _ []string) (Result, error) {
	if env.Chat == nil {
		return Result{}, errNoChat
	}
	if env.Chat.View().Listening {
		env.Chat.StopListening()
		return Result{}, nil
	}
	if err := env.Chat.StartListening(); err != nil {
		return Result{}, err
	}
	return Result{Output: env.t("chat.listening", nil)}, nil
}

func handlePlay(env *Env, args []string) (Result, error) {
	if env.Chat == nil {
		return Result{}, errNoChat
	}
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return Result{}, fmt.Errorf("invalid reply number %s", args[0])
		}
		n = v
	}

	msgs := env.Chat.View().Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsUser {
			continue
		}
		n--
		if n == 0 {
			return Result{}, env.Chat.PlayMessage(msgs[i].ID)
		}
	}
	return Result{}, errors.New("no such reply")
}

func handlePause(env *Env, _ []string) (Result, error) {
	if env.Chat == nil {
		return Result{}, errNoChat
	}
	if id := env.Chat.View().ActivePlayback; id != "" {
		env.Chat.PauseMessage(id)
	}
	return Result{}, nil
}

func handleStop(env *Env, _ []string) (Result, error) {
	if env.Chat == nil {
		return Result{}, errNoChat
	}
	if id := env.Chat.View().ActivePlayback; id != "" {
		env.Chat.StopMessage(id)
	}
	return Result{}, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

func handleMute(env *Env, _ []string) (Result, error) {
	if env.Settings == nil {
		return Result{}, errNoSettings
	}
	if env.Settings.ToggleMuted() {
		return Result{Output: env.t("playback.muted", nil)}, nil
	}
	return Result{Output: env.t("playback.unmuted", nil)}, nil
}

func handleSpeed(env *Env, args []string) (Result, error) {
	if env.Settings == nil {
		return Result{}, errNoSettings
	}
	var speed float64
	switch {
	case len(args) == 0:
		speed = env.Settings.Get().Speed
	case args[0] == "+":
		speed = env.Settings.AdjustSpeed(1)
	case args[0] == "-":
		speed = env.Settings.AdjustSpeed(-1)
	default:
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return Result{}, fmt.Errorf("invalid speed %s", args[0])
		}
		speed = env.Settings.SetSpeed(v)
	}
	return Result{Output: env.t("playback.speed", map[string]string{
		"speed": strconv.FormatFloat(speed, 'f', 2, 64),
	})}, nil
}

func handleAutoPlay(env *Env, args []string) (Result, error) {
	if env.Settings == nil {
		return Result{}, errNoSettings
	}
	on := !env.Settings.Get().AutoPlay
	if len(args) > 0 {
		on = strings.EqualFold(args[0], "on")
	}
	env.Settings.SetAutoPlay(on)
	return Result{Output: env.t("playback.autoplay", map[string]string{"state": onOff(on)})}, nil
}

func handleLanguage(env *Env, args []string) (Result, error) {
	if env.Localizer == nil {
		return Result{}, errors.New("language switching unavailable")
	}
	tag := env.Localizer.SetLanguage(args[0])
	return Result{Output: env.t("chat.language_changed", map[string]string{
		"language": languageName(tag),
	})}, nil
}

// =============================================================================
// ACCOUNT
// =============================================================================

func handleLogin(env *Env, args []string) (Result, error) {
	if env.Auth == nil {
		return Result{}, errors.New("sign-in unavailable")
	}
	u := auth.User{Name: args[0]}
	key := u.Name
	if len(args) > 1 {
		u.Email = args[1]
		key = u.Email
	}
	u.ID = UserID(key)

	signed, err := env.Auth.SignIn(u)
	if err != nil {
		return Result{}, err
	}
	return Result{Output: env.t("chat.signed_in", map[string]string{"name": signed.DisplayName()})}, nil
}

func handleLogout(env *Env, _ []string) (Result, error) {
	if env.Auth == nil {
		return Result{}, errors.New("sign-in unavailable")
	}
	env.Auth.SignOut()
	return Result{Output: env.t("chat.signed_out", nil)}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// languageName returns the language's own name, e.g. "हिन्दी" for hi.
func languageName(tag language.Tag) string {
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return tag.String()
}
