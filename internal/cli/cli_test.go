// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chetna-wellness/chetna/internal/config"
)

func init() {
	ForceColorsEnabled(false)
}

// isolate points the config directory at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CHETNA_HOME", dir)
	for _, k := range []string{"CHETNA_LANGUAGE", "CHETNA_STORAGE", "CHETNA_AI_PROVIDER", "CHETNA_USER_NAME", "CHETNA_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	return dir
}

// run executes the command line with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	nop := zerolog.Nop()
	root := NewRootCommand(&rootOptions{logger: &nop})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// testConfig is a fast, offline chat configuration.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.Backend = "memory"
	cfg.Records.Enabled = false
	cfg.AI.Provider = "static"
	cfg.Chat.PacingPerCharMs = 1
	cfg.Chat.PacingMinMs = 1
	cfg.Chat.PacingMaxMs = 5
	return cfg
}

func buildApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	nop := zerolog.Nop()
	app, err := Build(cfg, Options{Logger: &nop})
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	require.NoError(t, app.Start(context.Background()))
	return app
}

// =============================================================================
// COMMAND TESTS
// =============================================================================

func TestVersionCommand(t *testing.T) {
	isolate(t)
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "chetna "+Version)
}

func TestSuggestCommand(t *testing.T) {
	out, err := run(t, "suggest", "Try", "a", "breathing", "exercise")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d suggestions, want 3:\n%s", len(lines), out)
	}
	for i, l := range lines {
		if !strings.HasPrefix(l, string(rune('1'+i))+". ") {
			t.Errorf("line %d = %q, want numbered", i, l)
		}
	}
}

func TestSuggestCommand_RequiresText(t *testing.T) {
	_, err := run(t, "suggest")
	assert.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestSettingsCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "Playback settings")
	assert.Contains(t, out, "0.85")

	_, err = run(t, "settings", "speed", "1.23")
	require.NoError(t, err)

	// Persisted, and snapped to the 0.05 grid.
	out, err = run(t, "settings", "speed")
	require.NoError(t, err)
	assert.Equal(t, "1.25\n", out)

	out, err = run(t, "settings", "autoplay", "on")
	require.NoError(t, err)
	assert.Equal(t, "autoplay = on\n", out)
}

func TestSettingsCommand_Errors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown key", []string{"settings", "volume"}},
		{"unknown key with value", []string{"settings", "volume", "3"}},
		{"bad speed", []string{"settings", "speed", "fast"}},
		{"bad switch", []string{"settings", "muted", "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			var usage *UsageError
			if !errors.As(err, &usage) {
				t.Fatalf("err = %v, want UsageError", err)
			}
			if GetExitCode(err) != ExitUsageError {
				t.Errorf("exit code = %d, want %d", GetExitCode(err), ExitUsageError)
			}
		})
	}
}

func TestConfigCommands(t *testing.T) {
	dir := isolate(t)

	out, err := run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml")+"\n", out)

	_, err = run(t, "config", "set", "chat.guest_message_limit", "7")
	require.NoError(t, err)

	out, err = run(t, "config", "get", "chat.guest_message_limit")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)

	out, err = run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "guest_message_limit")
}

func TestConfigCommands_Errors(t *testing.T) {
	isolate(t)

	_, err := run(t, "config", "get", "chat.nope")
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	_, err = run(t, "config", "set", "chat.guest_message_limit", "0")
	assert.Equal(t, ExitConfigError, GetExitCode(err), "invalid values are not saved")

	out, err := run(t, "config", "get", "chat.guest_message_limit")
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)
}

func TestConfigFlagOverrides(t *testing.T) {
	isolate(t)

	_, err := run(t, "--storage", "floppy", "settings")
	assert.Equal(t, ExitConfigError, GetExitCode(err))
}

func TestClearCommand(t *testing.T) {
	isolate(t)
	out, err := run(t, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Conversation cleared.")
}

func TestExportCommand(t *testing.T) {
	isolate(t)
	out := t.TempDir()

	_, err := run(t, "export", "-o", out)
	assert.Equal(t, ExitNotFoundError, GetExitCode(err), "nothing saved yet")

	cfg := testConfig()
	cfg.Storage.Backend = "file"
	app := buildApp(t, cfg)
	require.NoError(t, app.Close())

	stdout, err := run(t, "export", "--format", "json", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "[OK]")

	matches, _ := filepath.Glob(filepath.Join(out, "chetna_conversation_*.json"))
	assert.Len(t, matches, 1)

	_, err = run(t, "export", "--format", "pdf", "-o", out)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHistoryCommand(t *testing.T) {
	isolate(t)

	_, err := run(t, "history")
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr, "guests have no history")

	_, err = run(t, "config", "set", "user.name", "Asha Rao")
	require.NoError(t, err)

	out, err := run(t, "history")
	require.NoError(t, err)
	assert.Equal(t, "No recorded messages.\n", out)
}

// =============================================================================
// APP TESTS
// =============================================================================

func TestBuild_MountsWelcome(t *testing.T) {
	isolate(t)
	app := buildApp(t, testConfig())

	v := app.Chat.View()
	require.Len(t, v.Messages, 1)
	assert.False(t, v.Messages[0].IsUser)
	assert.Equal(t, app.Localizer.T("chat.welcome", nil), v.Messages[0].Text)
	assert.False(t, v.SpeechSupported, "no STT endpoint configured")
	assert.Nil(t, app.Env.History, "records disabled")
}

func TestBuild_SignsInConfiguredUser(t *testing.T) {
	isolate(t)
	cfg := testConfig()
	cfg.User.Name = "Asha Rao"
	cfg.User.Email = "asha@example.com"
	app := buildApp(t, cfg)

	u := app.Auth.CurrentUser()
	require.NotNil(t, u)
	assert.NotEmpty(t, u.ID)
	assert.True(t, app.Chat.View().SignedIn)
}

func TestBuild_RecordsEnabled(t *testing.T) {
	dir := isolate(t)
	cfg := testConfig()
	cfg.Records.Enabled = true
	cfg.Records.Path = filepath.Join(dir, "records.db")
	app := buildApp(t, cfg)

	assert.NotNil(t, app.Records)
	assert.NotNil(t, app.Env.History)
}

func TestApp_CloseIsIdempotent(t *testing.T) {
	isolate(t)
	app := buildApp(t, testConfig())
	assert.NoError(t, app.Close())
	assert.NoError(t, app.Close())
}

func TestApp_ApplyConfigChangesLanguage(t *testing.T) {
	isolate(t)
	app := buildApp(t, testConfig())

	reloaded := testConfig()
	reloaded.Chat.Language = "hi"
	app.applyConfig(reloaded, nil)

	assert.Equal(t, "hi", app.Localizer.Code())
	v := app.Chat.View()
	require.Len(t, v.Messages, 1)
	assert.Equal(t, app.Localizer.T("chat.welcome", nil), v.Messages[0].Text, "language switch resets the chat")

	app.applyConfig(nil, errors.New("parse error"))
	assert.Equal(t, "hi", app.Localizer.Code(), "failed reloads change nothing")
}

// =============================================================================
// LINE MODE TESTS
// =============================================================================

// scriptPrompter replays fixed input lines, then reports EOF.
type scriptPrompter struct {
	lines   []string
	prompts []string
	closed  bool
}

func (p *scriptPrompter) Prompt(prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *scriptPrompter) Close() error {
	p.closed = true
	return nil
}

func runLineScript(t *testing.T, app *App, lines ...string) (string, *scriptPrompter) {
	t.Helper()
	p := &scriptPrompter{lines: lines}
	var out bytes.Buffer
	ui := NewLineUI(LineDeps{
		Chat:     app.Chat,
		Commands: app.Commands,
		Env:      app.Env,
		Notes:    app.Notes.C(),
		Prompter: p,
		Out:      &out,
	})
	require.NoError(t, ui.Run(context.Background()))
	return out.String(), p
}

func TestLineUI_Conversation(t *testing.T) {
	isolate(t)
	app := buildApp(t, testConfig())

	out, p := runLineScript(t, app, "I feel anxious before exams", "/speed 1.1", "/quit")

	assert.Contains(t, out, "How are you feeling today?", "welcome is printed")
	assert.Contains(t, out, "breathe in slowly", "reply is printed")
	assert.NotContains(t, out, "You: I feel anxious", "typed input is not echoed")
	assert.Contains(t, out, "You could ask:")
	assert.Contains(t, out, "Speed 1.10x")

	assert.Equal(t, []string{"[5] > ", "[4] > ", "[4] > "}, p.prompts)
	assert.True(t, p.closed)
	assert.InDelta(t, 1.1, app.Settings.Get().Speed, 1e-9)
}

func TestLineUI_GuestLimit(t *testing.T) {
	isolate(t)
	cfg := testConfig()
	cfg.Chat.GuestMessageLimit = 1
	app := buildApp(t, cfg)

	out, _ := runLineScript(t, app, "hello", "are you there?")

	assert.Contains(t, out, "[Message limit reached]")
	assert.True(t, app.Chat.View().LimitReached)
}

func TestLineUI_CommandErrors(t *testing.T) {
	isolate(t)
	app := buildApp(t, testConfig())

	out, _ := runLineScript(t, app, "/frobnicate", "/listen")
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "[Voice input error]", "no recognizer configured")
}

func TestLineUI_ClearReprintsWelcome(t *testing.T) {
	isolate(t)
	app := buildApp(t, testConfig())

	out, _ := runLineScript(t, app, "/clear")
	welcome := app.Localizer.T("chat.welcome", nil)
	assert.Equal(t, 2, strings.Count(out, welcome))
	assert.Contains(t, out, "[Chat cleared]")
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", &UsageError{Arg: "x", Reason: "bad"}, ExitUsageError},
		{"not found", &NotFoundError{Resource: "record store"}, ExitNotFoundError},
		{"config", config.ValidateErrors{{Field: "chat.language", Message: "bad"}}, ExitConfigError},
		{"wrapped usage", &CommandError{Command: "settings", Err: &UsageError{Arg: "x"}}, ExitUsageError},
		{"unknown command", errors.New(`unknown command "foo" for "chetna"`), ExitUsageError},
		{"network", errors.New("dial tcp 127.0.0.1:11434: connection refused"), ExitNetworkError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestCommandError(t *testing.T) {
	inner := errors.New("disk full")
	err := &CommandError{Command: "clear", Action: "remove", Reason: "could not delete", Err: inner}
	assert.Equal(t, "clear remove failed: could not delete: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
}
