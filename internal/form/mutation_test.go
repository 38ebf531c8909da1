// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package form

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMutation_Success(t *testing.T) {
	m := NewMutation(func(ctx context.Context) (string, error) {
		return "payload", nil
	})

	got, err := m.Do(context.Background())
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != "payload" {
		t.Errorf("Do() = %q", got)
	}
	if m.Loading() {
		t.Error("loading must be false after settlement")
	}
	if m.Err() != nil {
		t.Errorf("Err() = %v, want nil", m.Err())
	}
}

func TestMutation_ErrorSettles(t *testing.T) {
	wantErr := errors.New("backend said no")
	m := NewMutation(func(ctx context.Context) (string, error) {
		return "", wantErr
	})

	_, err := m.Do(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("Do() error = %v", err)
	}
	if m.Loading() {
		t.Error("loading must be false after a failed call")
	}
	if !errors.Is(m.Err(), wantErr) {
		t.Errorf("Err() = %v, want %v", m.Err(), wantErr)
	}
}

// TestMutation_LoadingDuringCall verifies loading is true while the
// call is in flight and false immediately after, on every path.
func TestMutation_LoadingDuringCall(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	m := NewMutation(func(ctx context.Context) (int, error) {
		close(entered)
		<-release
		return 42, nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Do(context.Background())
	}()

	<-entered
	if !m.Loading() {
		t.Error("loading must be true while the call is in flight")
	}
	close(release)
	<-done
	if m.Loading() {
		t.Error("loading must be false after the call settles")
	}
}

// TestMutation_StaleInvocationCannotWrite verifies the newest
// invocation owns the shared state: a slow first call settling after a
// fast second call must not overwrite the second call's outcome.
func TestMutation_StaleInvocationCannotWrite(t *testing.T) {
	firstEntered := make(chan struct{})
	firstRelease := make(chan struct{})
	secondErr := errors.New("second call failed")
	call := 0

	m := NewMutation(func(ctx context.Context) (string, error) {
		call++
		if call == 1 {
			close(firstEntered)
			<-firstRelease
			return "first", nil
		}
		return "", secondErr
	})

	firstDone := make(chan error, 1)
	go func() {
		_, err := m.Do(context.Background())
		firstDone <- err
	}()
	<-firstEntered

	// Second invocation supersedes the first and settles with its error.
	if _, err := m.Do(context.Background()); !errors.Is(err, secondErr) {
		t.Fatalf("second Do() error = %v", err)
	}
	if !errors.Is(m.Err(), secondErr) {
		t.Fatalf("Err() = %v, want second call's error", m.Err())
	}

	// Let the stale first call settle. It must keep its own return
	// value but leave the shared state alone.
	close(firstRelease)
	if err := <-firstDone; err != nil {
		t.Fatalf("first Do() error = %v", err)
	}
	if !errors.Is(m.Err(), secondErr) {
		t.Error("stale invocation overwrote the newest state")
	}
	if m.Loading() {
		t.Error("loading must stay false after the stale call settles")
	}
}

// TestMutation_SupersededCallIsCanceled verifies a new invocation
// cancels the previous call's context.
func TestMutation_SupersededCallIsCanceled(t *testing.T) {
	firstEntered := make(chan struct{})
	canceled := make(chan struct{})
	call := 0

	m := NewMutation(func(ctx context.Context) (string, error) {
		call++
		if call == 1 {
			close(firstEntered)
			select {
			case <-ctx.Done():
				close(canceled)
				return "", ctx.Err()
			case <-time.After(5 * time.Second):
				return "", errors.New("never canceled")
			}
		}
		return "second", nil
	})

	go m.Do(context.Background())
	<-firstEntered

	if _, err := m.Do(context.Background()); err != nil {
		t.Fatalf("second Do() error = %v", err)
	}

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("first invocation was not canceled by the second")
	}
}

func TestMutation_Reset(t *testing.T) {
	m := NewMutation(func(ctx context.Context) (string, error) {
		return "", errors.New("boom")
	})
	m.Do(context.Background())
	m.Reset()

	if m.Loading() || m.Err() != nil {
		t.Errorf("after Reset: loading=%v err=%v, want cleared", m.Loading(), m.Err())
	}
}
