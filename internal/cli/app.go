// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/chetna-wellness/chetna/internal/auth"
	"github.com/chetna-wellness/chetna/internal/chat"
	"github.com/chetna-wellness/chetna/internal/clock"
	"github.com/chetna-wellness/chetna/internal/commands"
	"github.com/chetna-wellness/chetna/internal/config"
	"github.com/chetna-wellness/chetna/internal/i18n"
	"github.com/chetna-wellness/chetna/internal/kv"
	"github.com/chetna-wellness/chetna/internal/logging"
	"github.com/chetna-wellness/chetna/internal/metrics"
	"github.com/chetna-wellness/chetna/internal/notify"
	"github.com/chetna-wellness/chetna/internal/ollama"
	"github.com/chetna-wellness/chetna/internal/records"
	"github.com/chetna-wellness/chetna/internal/responder"
	"github.com/chetna-wellness/chetna/internal/session"
	"github.com/chetna-wellness/chetna/internal/settings"
	"github.com/chetna-wellness/chetna/internal/speech"
	"github.com/chetna-wellness/chetna/internal/storage"
)

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// Options tune how an App is assembled.
type Options struct {
	// Quiet sends logs to a file; the full-screen UI owns the terminal.
	Quiet bool

	// Stderr receives logs when not quiet. Defaults to os.Stderr.
	Stderr io.Writer

	// ConfigPath is watched for changes when Watch is set.
	ConfigPath string
	Watch      bool

	// Clock drives the controller timers. Defaults to the real clock.
	Clock clock.Clock

	// Logger replaces logging.Setup. Tests pass zerolog.Nop().
	Logger *zerolog.Logger
}

// App holds every component of a running chat.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	KV        kv.Store
	Settings  *settings.Store
	Auth      *auth.Session
	Localizer *i18n.Localizer
	Records   *records.SQLiteStore // nil when disabled
	Metrics   *metrics.Chat
	Notes     *notify.Queue
	Speaker   *speech.Speaker
	Listener  *speech.Listener
	Expiry    *session.Manager
	Chat      *chat.Controller
	Commands  *commands.Registry
	Env       *commands.Env

	ai          *ollama.Client // nil for the static provider
	transcriber *speech.HTTPTranscriber
	watcher     *config.Watcher
	logCloser   io.Closer
	unsubs      []func()

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	closed  bool
}

// Build assembles an App from cfg. Nothing runs until Start.
func Build(cfg *config.Config, opts Options) (app *App, err error) {
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if opts.Logger != nil {
		a.Logger = *opts.Logger
	} else {
		logger, closer, err := logging.Setup(cfg.Logging, logging.Options{Quiet: opts.Quiet, Stderr: opts.Stderr})
		if err != nil {
			return nil, fmt.Errorf("failed to set up logging: %w", err)
		}
		a.Logger, a.logCloser = logger, closer
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	a.KV, err = kv.Open(cfg.Storage.Backend, dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	a.Settings = settings.NewStore(a.KV, a.Logger)
	a.Auth = auth.NewSession(a.KV, a.Logger)
	a.Localizer = i18n.New(cfg.Chat.Language)
	a.Metrics = metrics.NewChat()
	a.Notes = notify.NewQueue(notify.DefaultQueueSize)

	if cfg.User.Name != "" && a.Auth.CurrentUser() == nil {
		u := auth.User{ID: cfg.User.ID, Name: cfg.User.Name, Email: cfg.User.Email}
		if u.ID == "" {
			key := u.Email
			if key == "" {
				key = u.Name
			}
			u.ID = commands.UserID(key)
		}
		if _, err := a.Auth.SignIn(u); err != nil {
			return nil, fmt.Errorf("failed to sign in configured user: %w", err)
		}
	}

	var recs records.Store
	if cfg.Records.Enabled {
		path, err := cfg.RecordsPath()
		if err != nil {
			return nil, err
		}
		a.Records, err = records.Open(path)
		if err != nil {
			// Records are a side channel; chatting works without them.
			a.Logger.Warn().Err(err).Str("path", path).Msg("record store unavailable")
		} else {
			recs = a.Records
		}
	}

	a.Speaker = speech.NewSpeaker(speech.SpeakerDeps{
		Synth:    a.synthesizer(),
		Player:   speech.DetectPlayer(cfg.Speech.PlayerCommand, cfg.Speech.PlayerArgs, a.Logger),
		Settings: a.Settings,
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	})
	a.Listener = speech.NewListener(a.recognizer(), a.Logger)

	chatCfg := chatConfig(cfg.Chat)
	a.Expiry = session.NewManager(session.Config{Interval: chatCfg.ExpiryInterval}, clk)

	a.Chat = chat.New(chatCfg, chat.Deps{
		Store:     storage.NewMessageStore(a.KV, a.Logger),
		Responder: a.responder(),
		Records:   recs,
		Auth:      a.Auth,
		Localizer: a.Localizer,
		Speaker:   a.Speaker,
		Listener:  a.Listener,
		Expiry:    a.Expiry,
		Notifier:  a.Notes,
		Metrics:   a.Metrics,
		Clock:     clk,
		Logger:    a.Logger,
	})

	a.Commands = commands.NewRegistry()
	a.Env = &commands.Env{
		Chat:      a.Chat,
		Settings:  a.Settings,
		Localizer: a.Localizer,
		Auth:      a.Auth,
		Expiry:    a.Expiry,
	}
	if a.Records != nil {
		a.Env.History = a.Records
	}

	if a.transcriber != nil {
		a.unsubs = append(a.unsubs, a.Localizer.Subscribe(func(tag language.Tag) {
			a.transcriber.SetLanguage(tag.String())
		}))
	}

	if opts.Watch && opts.ConfigPath != "" {
		a.watcher, err = config.Watch(context.Background(), opts.ConfigPath, config.DefaultWatchDebounce, a.applyConfig)
		if err != nil {
			a.Logger.Warn().Err(err).Str("path", opts.ConfigPath).Msg("config watch unavailable")
			a.watcher = nil
		}
	}
	return a, nil
}

// chatConfig converts the [chat] table into controller settings.
func chatConfig(c config.ChatConfig) chat.Config {
	return chat.Config{
		GuestMessageLimit:  c.GuestMessageLimit,
		ExpiryInterval:     c.ExpiryInterval(),
		PacingPerChar:      c.PacingPerChar(),
		PacingMin:          c.PacingMin(),
		PacingMax:          c.PacingMax(),
		FallbackDelay:      c.FallbackDelay(),
		AutoSubmitDelay:    c.AutoSubmitDelay(),
		RecentResultsLimit: c.RecentResultsLimit,
	}
}

// responder picks the AI backend. "static" answers with the canned
// keyword replies only.
func (a *App) responder() responder.Responder {
	ai := a.Config.AI
	if ai.Provider == "static" {
		return responder.Static{}
	}
	timeout := time.Duration(ai.TimeoutSecs) * time.Second
	a.ai = ollama.New(ollama.Config{
		BaseURL:   ai.OllamaURL,
		Model:     ai.Model,
		Timeout:   timeout,
		KeepAlive: ai.KeepAlive,
	})
	return responder.NewOllama(a.ai, responder.OllamaConfig{
		Model:             ai.Model,
		Temperature:       ai.Temperature,
		HistoryMessages:   ai.HistoryMessages,
		RequestsPerMinute: float64(ai.RequestsPerMinute),
		Burst:             ai.Burst,
		Timeout:           timeout,
	}, a.Logger)
}

func (a *App) synthesizer() speech.Synthesizer {
	sp := a.Config.Speech
	if sp.TTSURL == "" {
		return nil
	}
	return speech.NewHTTPSynthesizer(speech.SynthConfig{
		URL:    sp.TTSURL,
		APIKey: sp.TTSAPIKey,
		Voice:  sp.Voice,
		Format: sp.Format,
	}, a.Logger)
}

func (a *App) recognizer() speech.Recognizer {
	sp := a.Config.Speech
	if sp.STTURL == "" {
		return nil
	}
	a.transcriber = speech.NewHTTPTranscriber(speech.TranscriberConfig{
		URL:      sp.STTURL,
		APIKey:   sp.STTAPIKey,
		Model:    sp.STTModel,
		Language: a.Config.Chat.Language,
	}, a.Logger)
	return &speech.TranscribingRecognizer{
		Recorder:    speech.DetectRecorder(sp.RecorderCommand, sp.RecorderArgs, time.Duration(sp.MaxRecordSecs)*time.Second),
		Transcriber: a.transcriber,
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start mounts the conversation and starts the metrics listener.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.started = true
	a.mu.Unlock()

	a.Env.Ctx = ctx
	if err := a.Chat.Mount(ctx); err != nil {
		return err
	}

	if a.ai != nil {
		go a.checkAI(ctx)
	}
	if addr := a.Config.Metrics.Addr; addr != "" {
		go func() {
			if err := a.Metrics.Serve(ctx, addr, a.Logger); err != nil {
				a.Logger.Warn().Err(err).Str("addr", addr).Msg("metrics listener stopped")
			}
		}()
	}
	a.Logger.Info().
		Str("storage", a.Config.Storage.Backend).
		Str("ai", a.Config.AI.Provider).
		Bool("voice_input", a.Listener.Supported()).
		Msg("chat started")
	return nil
}

// aiCheckTimeout bounds the startup reachability check.
const aiCheckTimeout = 3 * time.Second

// checkAI warns early when the model endpoint is down. Replies still work;
// they fall back to the canned text until it comes back.
func (a *App) checkAI(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, aiCheckTimeout)
	defer cancel()
	if err := a.ai.Ping(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		a.Logger.Warn().Err(err).Str("url", a.ai.BaseURL()).Msg("AI endpoint not reachable")
		return
	}
	a.Logger.Debug().Str("url", a.ai.BaseURL()).Str("model", a.ai.Model()).Msg("AI endpoint reachable")
}

// Close unmounts the conversation and releases every resource. It is safe
// to call more than once.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	cancel := a.cancel
	a.mu.Unlock()

	if a.watcher != nil {
		a.watcher.Close()
	}
	for _, unsub := range a.unsubs {
		unsub()
	}
	if a.Chat != nil {
		a.Chat.Unmount()
	}
	if a.Speaker != nil {
		a.Speaker.Close()
	}
	if cancel != nil {
		cancel()
	}

	var errs []error
	if a.Records != nil {
		errs = append(errs, a.Records.Close())
	}
	if a.KV != nil {
		errs = append(errs, a.KV.Close())
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	return errors.Join(errs...)
}

// applyConfig takes a reloaded config file. Only the language is applied
// live; the rest waits for a restart.
func (a *App) applyConfig(cfg *config.Config, err error) {
	if err != nil {
		a.Logger.Warn().Err(err).Msg("config reload failed")
		return
	}
	if err := cfg.Validate(); err != nil {
		a.Logger.Warn().Err(err).Msg("reloaded config is invalid")
		return
	}
	if cfg.Chat.Language != a.Config.Chat.Language {
		tag := a.Localizer.SetLanguage(cfg.Chat.Language)
		a.Logger.Info().Str("language", tag.String()).Msg("language changed by config reload")
	}
	a.Config.Chat.Language = cfg.Chat.Language
}
