// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		msg  Message
		role string
	}{
		{NewUserMessage("Hello"), "user"},
		{NewAssistantMessage("Response"), "assistant"},
		{NewSystemMessage("Be kind"), "system"},
	}
	for _, tt := range tests {
		if tt.msg.Role != tt.role {
			t.Errorf("Role = %q, want %q", tt.msg.Role, tt.role)
		}
	}
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestNew_FillsDefaults(t *testing.T) {
	c := New(Config{BaseURL: "http://example.test/"})

	if c.BaseURL() != "http://example.test" {
		t.Errorf("BaseURL = %q, trailing slash should be trimmed", c.BaseURL())
	}
	if c.http.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.http.Timeout, DefaultTimeout)
	}
	if c.Model() != DefaultModel {
		t.Errorf("Model = %q", c.Model())
	}
	if New(Config{}).BaseURL() != DefaultBaseURL {
		t.Errorf("empty config should use %s", DefaultBaseURL)
	}
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestClient_Chat(t *testing.T) {
	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ChatResponse{
			Model:   got.Model,
			Message: NewAssistantMessage("Take a slow breath with me."),
			Done:    true,
		})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Model: "test-model"})
	resp, err := c.Chat(context.Background(), "", []Message{
		NewSystemMessage("persona"),
		NewUserMessage("I feel anxious"),
	}, &Options{Temperature: 0.7})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if resp.Message.Content != "Take a slow breath with me." {
		t.Errorf("Content = %q", resp.Message.Content)
	}
	if got.Model != "test-model" || got.Stream {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[1].Content != "I feel anxious" {
		t.Errorf("Messages = %+v", got.Messages)
	}
	if got.Options == nil || got.Options.Temperature != 0.7 {
		t.Errorf("Options = %+v", got.Options)
	}
}

func TestClient_ChatErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(error) bool
	}{
		{
			name: "model not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			check: func(err error) bool { return errors.Is(err, ErrModelNotFound) },
		},
		{
			name: "server error with body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"out of memory"}`))
			},
			check: func(err error) bool { return err.Error() == "out of memory" },
		},
		{
			name: "empty reply",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"message":{"role":"assistant","content":"  "},"done":true}`))
			},
			check: func(err error) bool { return errors.Is(err, ErrEmptyResponse) },
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json`))
			},
			check: func(err error) bool {
				var e *Error
				return errors.As(err, &e) && e.Kind == KindBadReply
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := New(Config{BaseURL: srv.URL})
			_, err := c.Chat(context.Background(), "m", []Message{NewUserMessage("hi")}, nil)
			if err == nil {
				t.Fatal("Chat() should fail")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestClient_ChatNotRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url})
	_, err := c.Chat(context.Background(), "m", nil, nil)
	if !errors.Is(err, ErrNotRunning) {
		t.Errorf("errors.Is(%v, ErrNotRunning) = false", err)
	}
}

func TestClient_ChatTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Chat(ctx, "m", nil, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("errors.Is(%v, ErrTimeout) = false", err)
	}
}

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("Ollama is running"))
	}))
	defer srv.Close()

	if err := New(Config{BaseURL: srv.URL}).Ping(context.Background()); err != nil {
		t.Errorf("Ping() = %v", err)
	}
	if err := New(Config{BaseURL: srv.URL + "/nope"}).Ping(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Ping() on a bad path = %v, want ErrNotRunning", err)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := &Error{Kind: KindTimeout, Msg: "request timed out", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if !errors.Is(err, ErrTimeout) {
		t.Error("errors.Is should match the sentinel by kind")
	}
	if errors.Is(&Error{Kind: KindOther, Msg: "x"}, &Error{Kind: KindOther}) {
		t.Error("KindOther must not match by kind")
	}
	if err.Error() != "request timed out: context deadline exceeded" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestClient_ChatModelNotFoundNamesModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL, Model: "tiny"}).Chat(context.Background(), "", nil, nil)
	if err == nil || err.Error() != "model not found: tiny" {
		t.Errorf("err = %v", err)
	}
}
