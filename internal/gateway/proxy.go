// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/tradeline/tradeline-tui/internal/model"
)

// forwardedHeaders is the allowlist of request headers that cross the
// gateway boundary. Everything else, cookies included, stays on this
// side.
var forwardedHeaders = []string{
	"Authorization",
	"Content-Type",
}

// relayTo builds a handler that relays the incoming request to the
// upstream path computed by pathFn.
//
// Relay contract:
//   - Exactly one upstream attempt per request. Side-effecting routes
//     such as sending a chat message must never fire twice.
//   - Only allowlisted headers are forwarded. A missing Authorization
//     header is forwarded as the empty string, not omitted, so the
//     upstream applies its own missing-credential handling uniformly.
//   - Upstream 2xx bodies are relayed verbatim with their status.
//   - Upstream non-2xx responses are relayed with their status and a
//     flat {"error": "..."} body, re-synthesized from the upstream
//     error when parseable.
//   - Any failure inside the gateway produces exactly
//     500 {"error": "Internal Server Error"}.
func (s *Server) relayTo(pathFn func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		outcome := s.relay(w, r, pathFn(r))
		s.stats.RecordRelay(outcome)

		if outcome != relayOK {
			log.Printf("RELAY_FAILED | method=%s path=%s outcome=%d latency=%dms",
				r.Method, r.URL.Path, outcome, time.Since(start).Milliseconds())
		}
	}
}

// relay performs the single upstream attempt and writes the response.
func (s *Server) relay(w http.ResponseWriter, r *http.Request, upstreamPath string) relayOutcome {
	// Limit request body size to prevent DoS.
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return relayGatewayError
		}
		return s.internalError(w, "read request body", err)
	}

	s.mu.RLock()
	upstream := s.upstream
	client := s.httpClient
	s.mu.RUnlock()

	req, err := http.NewRequestWithContext(r.Context(), r.Method, upstream+upstreamPath, bytes.NewReader(body))
	if err != nil {
		return s.internalError(w, "build upstream request", err)
	}

	for _, h := range forwardedHeaders {
		// Set, not copy: an absent Authorization header still crosses
		// as the empty string.
		req.Header.Set(h, r.Header.Get(h))
	}

	resp, err := client.Do(req)
	if err != nil {
		return s.internalError(w, "upstream request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxRequestBodySize*10))
	if err != nil {
		return s.internalError(w, "read upstream response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.writeError(w, resp.StatusCode, upstreamErrorMessage(resp.StatusCode, respBody))
		return relayUpstreamError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	w.Write(respBody)
	return relayOK
}

// internalError logs the real cause and writes the fixed gateway error
// response. Details never reach the client.
func (s *Server) internalError(w http.ResponseWriter, stage string, err error) relayOutcome {
	log.Printf("GATEWAY_ERROR | stage=%s error=%v", stage, err)
	s.writeError(w, http.StatusInternalServerError, "Internal Server Error")
	return relayGatewayError
}

// upstreamErrorMessage extracts the error message from an upstream
// error body, falling back to the HTTP status text.
func upstreamErrorMessage(statusCode int, body []byte) string {
	var env model.ErrorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return env.Error
	}
	return http.StatusText(statusCode)
}
