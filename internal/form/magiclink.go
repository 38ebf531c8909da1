// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package form

import (
	"context"
	"sync"

	"github.com/tradeline/tradeline-tui/internal/api"
	"github.com/tradeline/tradeline-tui/internal/model"
)

// genericSendFailure is shown when the link request fails for any
// reason other than validation. The real cause only goes to the log.
const genericSendFailure = "Could not send the sign-in link. Please try again."

// MagicLinkState is the submission state of the magic-link form.
type MagicLinkState int

const (
	// StateIdle means nothing has been submitted yet.
	StateIdle MagicLinkState = iota

	// StateValidating means local validation is running.
	StateValidating

	// StateRejected means validation failed; Result carries field errors.
	StateRejected

	// StateSubmitting means the network call is in flight.
	StateSubmitting

	// StateSuccess means the backend acknowledged the link request.
	StateSuccess

	// StateFailed means the network call failed; Result carries a
	// generic message.
	StateFailed
)

// String returns the state name for logging.
func (s MagicLinkState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateRejected:
		return "rejected"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// linkSender is the slice of the backend client the form needs.
type linkSender interface {
	RequestMagicLink(ctx context.Context, email string) (*api.MagicLinkResponse, error)
}

// MagicLinkForm drives the validated magic-link submission flow:
//
//	idle -> validating -> rejected
//	                   -> submitting -> success
//	                                 -> failed
//
// Validation failures never reach the network. A rejected or failed
// submission returns the form to a submittable state; Submit may be
// called again with a corrected address.
type MagicLinkForm struct {
	sender linkSender

	mu     sync.Mutex
	state  MagicLinkState
	result model.FormResult
}

// NewMagicLinkForm creates a form submitting through the given client.
func NewMagicLinkForm(sender linkSender) *MagicLinkForm {
	return &MagicLinkForm{sender: sender, state: StateIdle}
}

// Submit validates the address and, if valid, requests a sign-in link.
// The returned FormResult is also retained as the form's current result
// until the next submission.
func (f *MagicLinkForm) Submit(ctx context.Context, email string) model.FormResult {
	f.setState(StateValidating, model.FormResult{})

	if msg := ValidateEmail(email); msg != "" {
		result := model.Rejected(map[string]string{"email": msg})
		f.setState(StateRejected, result)
		return result
	}

	f.setState(StateSubmitting, model.FormResult{})

	resp, err := f.sender.RequestMagicLink(ctx, email)
	if err != nil {
		result := model.Failed(genericSendFailure)
		f.setState(StateFailed, result)
		return result
	}

	result := model.Succeeded(resp.Message)
	f.setState(StateSuccess, result)
	return result
}

// State returns the current submission state.
func (f *MagicLinkForm) State() MagicLinkState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Result returns the outcome of the most recent submission.
func (f *MagicLinkForm) Result() model.FormResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// Reset returns the form to idle, discarding the previous result.
func (f *MagicLinkForm) Reset() {
	f.setState(StateIdle, model.FormResult{})
}

func (f *MagicLinkForm) setState(state MagicLinkState, result model.FormResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.result = result
}
