// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRequestMagicLink(t *testing.T) {
	var gotAuth, gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"message": "Check your email for a sign-in link"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, Anonymous())
	resp, err := client.RequestMagicLink(context.Background(), "trader@example.com")
	if err != nil {
		t.Fatalf("RequestMagicLink() error = %v", err)
	}
	if resp.Message == "" {
		t.Error("expected acknowledgement message")
	}
	if gotMethod != http.MethodPost || gotPath != "/auth/magic-link" {
		t.Errorf("request = %s %s, want POST /auth/magic-link", gotMethod, gotPath)
	}
	// Anonymous requests must not carry an Authorization header.
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}

func TestClient_BearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"id": "u1", "email": "trader@example.com"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, Credentials{Token: "tok-123"})
	if _, err := client.GetProfile(context.Background()); err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
}

func TestClient_ErrorEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error": "session expired"}`, ErrUnauthorized},
		{"not found", http.StatusNotFound, `{"error": "conversation not found"}`, ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, `{"error": "slow down"}`, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, Credentials{Token: "tok"})
			_, err := client.GetProfile(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": "profile version conflict"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, Credentials{Token: "tok"})
	_, err := client.GetProfile(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Errorf("Status = %d, want 409", apiErr.Status)
	}
	if apiErr.Message != "profile version conflict" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestClient_UnparseableErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>upstream timeout</html>`))
	}))
	defer server.Close()

	client := NewClient(server.URL, Credentials{Token: "tok"})
	_, err := client.GetProfile(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Message != http.StatusText(http.StatusBadGateway) {
		t.Errorf("Message = %q, want status text fallback", apiErr.Message)
	}
}

func TestClient_Unavailable(t *testing.T) {
	// Closed server makes the transport fail.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, Anonymous())
	_, err := client.RequestMagicLink(context.Background(), "trader@example.com")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

// TestSendMessage_SingleAttempt verifies that a failed send is never retried.
func TestSendMessage_SingleAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "model backend down"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, Credentials{Token: "tok"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.SendMessage(ctx, "conv-1", SendMessageRequest{Content: "hello"})
	if err == nil {
		t.Fatal("expected error from 500 response")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("backend called %d times, want exactly 1", got)
	}
}

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/conversations/conv-1/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"id": "m2", "conversation_id": "conv-1", "role": "assistant", "content": "hi"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, Credentials{Token: "tok"})
	msg, err := client.SendMessage(context.Background(), "conv-1", SendMessageRequest{Content: "hello"})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if msg.Role.String() != "assistant" {
		t.Errorf("Role = %q, want assistant", msg.Role)
	}
	if msg.Content != "hi" {
		t.Errorf("Content = %q", msg.Content)
	}
}

func TestCredentials_Fingerprint(t *testing.T) {
	if got := Anonymous().Fingerprint(); got != "none" {
		t.Errorf("empty fingerprint = %q, want none", got)
	}
	a := Credentials{Token: "tok-a"}.Fingerprint()
	b := Credentials{Token: "tok-b"}.Fingerprint()
	if a == b {
		t.Error("distinct tokens must have distinct fingerprints")
	}
	if len(a) != 8 {
		t.Errorf("fingerprint length = %d, want 8 hex chars", len(a))
	}
}
