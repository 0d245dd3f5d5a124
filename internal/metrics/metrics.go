// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics defines the chat core's Prometheus instruments.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Chat holds the chat counters. A nil *Chat is valid and records nothing.
type Chat struct {
	Messages     *prometheus.CounterVec
	Fallbacks    prometheus.Counter
	RateLimited  prometheus.Counter
	ExpiryClears prometheus.Counter
	TTSRequests  *prometheus.CounterVec
	Pacing       prometheus.Histogram

	registry *prometheus.Registry
}

// NewChat creates the instruments and registers them on a fresh registry.
func NewChat() *Chat {
	c := &Chat{
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chetna_chat_messages_total",
			Help: "Chat messages appended to the transcript.",
		}, []string{"sender"}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chetna_chat_fallbacks_total",
			Help: "Replies produced by the keyword fallback after an AI failure.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chetna_chat_rate_limited_total",
			Help: "Guest submissions rejected by the message limit.",
		}),
		ExpiryClears: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chetna_chat_expiry_clears_total",
			Help: "Transcript resets performed by the auto-expiry timer.",
		}),
		TTSRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chetna_tts_requests_total",
			Help: "Text-to-speech synthesis requests by result.",
		}, []string{"result"}),
		Pacing: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chetna_chat_pacing_seconds",
			Help:    "Artificial delay applied before showing assistant replies.",
			Buckets: []float64{0.8, 1.0, 1.25, 1.5, 1.75, 2.0},
		}),
		registry: prometheus.NewRegistry(),
	}
	c.registry.MustRegister(c.Messages, c.Fallbacks, c.RateLimited, c.ExpiryClears, c.TTSRequests, c.Pacing)
	return c
}

// Registry returns the registry holding the chat instruments.
func (c *Chat) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// MessageAppended counts one transcript message.
func (c *Chat) MessageAppended(isUser bool) {
	if c == nil {
		return
	}
	sender := "assistant"
	if isUser {
		sender = "user"
	}
	c.Messages.WithLabelValues(sender).Inc()
}

// FallbackUsed counts one fallback reply.
func (c *Chat) FallbackUsed() {
	if c != nil {
		c.Fallbacks.Inc()
	}
}

// GuestLimited counts one rejected guest submission.
func (c *Chat) GuestLimited() {
	if c != nil {
		c.RateLimited.Inc()
	}
}

// Expired counts one auto-expiry reset.
func (c *Chat) Expired() {
	if c != nil {
		c.ExpiryClears.Inc()
	}
}

// TTS counts one synthesis request ("ok" or "error").
func (c *Chat) TTS(result string) {
	if c != nil {
		c.TTSRequests.WithLabelValues(result).Inc()
	}
}

// ObservePacing records one pacing delay.
func (c *Chat) ObservePacing(d time.Duration) {
	if c != nil {
		c.Pacing.Observe(d.Seconds())
	}
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Chat) Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("metrics listener started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
