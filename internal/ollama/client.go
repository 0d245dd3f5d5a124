// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// ERRORS
// =============================================================================

// Kind groups endpoint failures by how the chat reacts to them.
type Kind int

const (
	KindOther Kind = iota
	KindUnreachable
	KindTimeout
	KindModelMissing
	KindBadReply
	KindEmptyReply
)

// Error is returned by every Client call that fails.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Msg + ": " + e.Cause.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is compares by Kind, so errors.Is(err, ErrTimeout) holds for any timeout.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind != KindOther && t.Kind == e.Kind
}

var (
	ErrNotRunning    = &Error{Kind: KindUnreachable, Msg: "AI endpoint is not reachable"}
	ErrTimeout       = &Error{Kind: KindTimeout, Msg: "request timed out"}
	ErrModelNotFound = &Error{Kind: KindModelMissing, Msg: "model not found"}
	ErrEmptyResponse = &Error{Kind: KindEmptyReply, Msg: "model returned an empty reply"}
)

// =============================================================================
// CLIENT
// =============================================================================

// Defaults applied by New for zero Config fields.
const (
	DefaultBaseURL = "http://127.0.0.1:11434"
	DefaultModel   = "llama3.2:3b"
	DefaultTimeout = 60 * time.Second
)

// Config points a Client at an endpoint.
type Config struct {
	// BaseURL uses the IPv4 loopback so Windows does not try ::1 first.
	BaseURL   string
	Model     string
	Timeout   time.Duration
	KeepAlive string
}

// Client talks to one /api/chat endpoint. Safe for concurrent use.
type Client struct {
	base      string
	model     string
	keepAlive string
	http      *http.Client
}

// New creates a client, filling zero fields of cfg with the defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		model:     cfg.Model,
		keepAlive: cfg.KeepAlive,
		http:      &http.Client{Timeout: cfg.Timeout},
	}
}

// Model is the model used when Chat is called with an empty name.
func (c *Client) Model() string { return c.model }

// BaseURL is the endpoint root, without a trailing slash.
func (c *Client) BaseURL() string { return c.base }

// Ping checks that the endpoint answers at its root.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/", nil)
	if err != nil {
		return &Error{Kind: KindOther, Msg: "bad endpoint URL", Cause: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &Error{Kind: KindUnreachable, Msg: "AI endpoint answered " + resp.Status}
	}
	return nil
}

// Chat sends one non-streaming completion request. opts may be nil and an
// empty model means Model().
func (c *Client) Chat(ctx context.Context, model string, messages []Message, opts *Options) (*ChatResponse, error) {
	if model == "" {
		model = c.model
	}
	body, err := json.Marshal(ChatRequest{
		Model:     model,
		Messages:  messages,
		Options:   opts,
		KeepAlive: c.keepAlive,
	})
	if err != nil {
		return nil, &Error{Kind: KindOther, Msg: "encode chat request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindOther, Msg: "bad endpoint URL", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, model)
	case resp.StatusCode != http.StatusOK:
		return nil, statusError(resp)
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &Error{Kind: KindBadReply, Msg: "decode chat reply", Cause: err}
	}
	if strings.TrimSpace(out.Message.Content) == "" {
		return nil, ErrEmptyResponse
	}
	return &out, nil
}

// statusError prefers the endpoint's own {"error": ...} text.
func statusError(resp *http.Response) error {
	var body errorBody
	if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body) == nil && body.Error != "" {
		return &Error{Kind: KindBadReply, Msg: body.Error}
	}
	return &Error{Kind: KindBadReply, Msg: "chat request failed: " + resp.Status}
}

func transportError(err error) error {
	var netErr interface{ Timeout() bool }
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &Error{Kind: KindTimeout, Msg: "request timed out", Cause: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindOther, Msg: "request cancelled", Cause: err}
	}
	return &Error{Kind: KindUnreachable, Msg: "AI endpoint is not reachable", Cause: err}
}
