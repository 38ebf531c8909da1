// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package form

import (
	"context"
	"sync"
)

// Mutation wraps one network call with loading and error state.
//
// Do sets loading=true and clears the error, runs the call, then
// settles: loading=false plus the call's error, if any. Settlement is
// deferred so no path, panic included, leaves loading stuck true.
//
// Invocations are not deduplicated. Starting a new Do cancels the
// previous call's context, and a generation counter ensures that only
// the newest invocation settles the shared state. Every caller still
// receives its own call's result.
type Mutation[T any] struct {
	fn func(ctx context.Context) (T, error)

	mu         sync.Mutex
	loading    bool
	err        error
	generation uint64
	cancel     context.CancelFunc
}

// NewMutation creates a Mutation around the given call.
func NewMutation[T any](fn func(ctx context.Context) (T, error)) *Mutation[T] {
	return &Mutation[T]{fn: fn}
}

// Do runs the wrapped call once.
//
// The returned error is the call's own error regardless of whether this
// invocation was superseded; only the shared Loading/Err state is
// guarded against stale writes.
func (m *Mutation[T]) Do(ctx context.Context) (T, error) {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	callCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.generation++
	gen := m.generation
	m.loading = true
	m.err = nil
	m.mu.Unlock()

	var result T
	var err error

	defer func() {
		cancel()
		m.settle(gen, err)
	}()

	result, err = m.fn(callCtx)
	return result, err
}

// settle records the outcome if this invocation is still the newest.
func (m *Mutation[T]) settle(gen uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}
	m.loading = false
	m.err = err
}

// Loading reports whether the newest invocation is still in flight.
func (m *Mutation[T]) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Err returns the error from the newest settled invocation, or nil.
func (m *Mutation[T]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Reset clears the mutation state and cancels any in-flight call.
func (m *Mutation[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.generation++
	m.loading = false
	m.err = nil
}
