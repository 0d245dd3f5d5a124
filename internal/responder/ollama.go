// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package responder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/time/rate"

	"github.com/chetna-wellness/chetna/internal/ollama"
	"github.com/chetna-wellness/chetna/internal/personalize"
)

// =============================================================================
// PROMPT
// =============================================================================

// Persona is the base system prompt.
const Persona = "You are Chetna, a warm and compassionate mental wellness companion. " +
	"Listen actively, validate feelings and offer practical, evidence-based coping ideas " +
	"such as breathing exercises, grounding and journaling. Keep replies short " +
	"(under 150 words), use simple markdown when it helps, and ask one gentle follow-up question. " +
	"You are not a therapist and must never diagnose. If the user mentions self-harm or suicide, " +
	"respond with care and urge them to contact a crisis helpline such as Tele-MANAS (14416) " +
	"or their local emergency number."

// SystemPrompt assembles the persona, personalization context and language
// instruction for one request.
func SystemPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString(Persona)

	if ctx := personalize.PromptContext(req.Results); ctx != "" {
		sb.WriteString("\n\n")
		sb.WriteString(ctx)
	}

	if name := languageName(req.Language); name != "" && name != "English" {
		sb.WriteString("\n\nAlways reply in ")
		sb.WriteString(name)
		sb.WriteString(".")
	}
	return sb.String()
}

func languageName(tag string) string {
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil {
		return ""
	}
	return display.English.Languages().Name(t)
}

// =============================================================================
// OLLAMA RESPONDER
// =============================================================================

// Chatter is the subset of ollama.Client used here.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message, opts *ollama.Options) (*ollama.ChatResponse, error)
}

// OllamaConfig configures an OllamaResponder.
type OllamaConfig struct {
	// Model overrides the client's default model.
	Model string

	// Temperature for sampling (default: 0.7)
	Temperature float64

	// HistoryMessages is how many prior transcript messages are sent (default: 6).
	HistoryMessages int

	// RequestsPerMinute caps AI calls per user (default: 20).
	RequestsPerMinute float64

	// Burst is the limiter burst size (default: 5).
	Burst int

	// Timeout bounds a single reply (default: 45s).
	Timeout time.Duration
}

// DefaultOllamaConfig returns the default responder configuration.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Temperature:       0.7,
		HistoryMessages:   6,
		RequestsPerMinute: 20,
		Burst:             5,
		Timeout:           45 * time.Second,
	}
}

// OllamaResponder answers with an Ollama-compatible chat model.
type OllamaResponder struct {
	client Chatter
	cfg    OllamaConfig
	logger zerolog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewOllama creates a responder over client.
func NewOllama(client Chatter, cfg OllamaConfig, logger zerolog.Logger) *OllamaResponder {
	def := DefaultOllamaConfig()
	if cfg.Temperature <= 0 {
		cfg.Temperature = def.Temperature
	}
	if cfg.HistoryMessages < 0 {
		cfg.HistoryMessages = 0
	} else if cfg.HistoryMessages == 0 {
		cfg.HistoryMessages = def.HistoryMessages
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &OllamaResponder{
		client:   client,
		cfg:      cfg,
		logger:   logger.With().Str("component", "responder").Logger(),
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiter returns the per-user limiter; guests share one.
func (r *OllamaResponder) limiter(userID string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.limiters[userID]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(r.cfg.RequestsPerMinute/60), r.cfg.Burst)
	r.limiters[userID] = l
	return l
}

// Respond asks the model for a reply. An empty model reply yields the
// request's fallback text instead of an error.
func (r *OllamaResponder) Respond(ctx context.Context, req Request) (string, error) {
	if !r.limiter(req.UserID).Allow() {
		return "", ErrThrottled
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	messages := r.buildMessages(req)
	start := time.Now()
	resp, err := r.client.Chat(ctx, r.cfg.Model, messages, &ollama.Options{Temperature: r.cfg.Temperature})
	if err != nil {
		if errors.Is(err, ollama.ErrEmptyResponse) {
			r.logger.Warn().Msg("model returned empty reply, using fallback")
			return req.FallbackReply(), nil
		}
		return "", err
	}

	r.logger.Debug().
		Str("model", resp.Model).
		Int("eval_tokens", resp.EvalCount).
		Dur("elapsed", time.Since(start)).
		Msg("reply generated")

	return strings.TrimSpace(resp.Message.Content), nil
}

func (r *OllamaResponder) buildMessages(req Request) []ollama.Message {
	history := req.History
	if n := r.cfg.HistoryMessages; len(history) > n {
		history = history[len(history)-n:]
	}

	msgs := make([]ollama.Message, 0, len(history)+2)
	msgs = append(msgs, ollama.NewSystemMessage(SystemPrompt(req)))
	for _, m := range history {
		if m.IsUser {
			msgs = append(msgs, ollama.NewUserMessage(m.Text))
		} else {
			msgs = append(msgs, ollama.NewAssistantMessage(m.Text))
		}
	}
	msgs = append(msgs, ollama.NewUserMessage(req.Text))
	return msgs
}
