// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tradeline/tradeline-tui/internal/config"
	"github.com/tradeline/tradeline-tui/internal/model"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the gateway.
	DefaultPort = 8787

	// DefaultUpstreamTimeout bounds a single relay to the backend.
	DefaultUpstreamTimeout = 30 * time.Second

	// MaxRequestBodySize is the maximum size for request body to prevent DoS (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// Version is the gateway version.
	Version = "0.1.0"
)

// ============================================================================
// GATEWAY STATS
// ============================================================================

// Stats tracks gateway usage statistics.
type Stats struct {
	TotalRequests  int64     `json:"total_requests"`
	RelayedOK      int64     `json:"relayed_ok"`
	UpstreamErrors int64     `json:"upstream_errors"`
	GatewayErrors  int64     `json:"gateway_errors"`
	StartTime      time.Time `json:"start_time"`
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// RecordRelay records the outcome of one relayed request.
func (s *Stats) RecordRelay(outcome relayOutcome) {
	atomic.AddInt64(&s.TotalRequests, 1)
	switch outcome {
	case relayOK:
		atomic.AddInt64(&s.RelayedOK, 1)
	case relayUpstreamError:
		atomic.AddInt64(&s.UpstreamErrors, 1)
	case relayGatewayError:
		atomic.AddInt64(&s.GatewayErrors, 1)
	}
}

// Snapshot returns a copy of the current stats.
func (s *Stats) Snapshot() Stats {
	return Stats{
		TotalRequests:  atomic.LoadInt64(&s.TotalRequests),
		RelayedOK:      atomic.LoadInt64(&s.RelayedOK),
		UpstreamErrors: atomic.LoadInt64(&s.UpstreamErrors),
		GatewayErrors:  atomic.LoadInt64(&s.GatewayErrors),
		StartTime:      s.StartTime,
	}
}

// Uptime returns the gateway uptime duration.
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// relayOutcome classifies how a relayed request ended.
type relayOutcome int

const (
	relayOK relayOutcome = iota
	relayUpstreamError
	relayGatewayError
)

// ============================================================================
// SERVER
// ============================================================================

// Server is the local HTTP gateway in front of the tradeline backend.
type Server struct {
	port     int
	upstream string
	router   *http.ServeMux
	server   *http.Server

	httpClient *http.Client
	stats      *Stats
	cors       *CORSConfig
	limiter    *RateLimiter

	mu sync.RWMutex
}

// NewServer creates a gateway for the given port and upstream base URL.
// If port is 0, the default port (8787) is used. The upstream URL should
// include the API prefix, e.g. "http://localhost:8080/api/v1".
func NewServer(port int, upstream string) *Server {
	if port == 0 {
		port = DefaultPort
	}

	s := &Server{
		port:     port,
		upstream: trimTrailingSlash(upstream),
		router:   http.NewServeMux(),
		httpClient: &http.Client{
			Timeout: DefaultUpstreamTimeout,
		},
		stats:   NewStats(),
		cors:    DefaultCORSConfig(),
		limiter: DefaultRateLimiter(),
	}

	s.setupRoutes()
	return s
}

// FromConfig creates a gateway from the application configuration.
func FromConfig(cfg *config.Config) *Server {
	s := NewServer(cfg.Gateway.Port, cfg.API.BaseURL)
	if len(cfg.Gateway.AllowedOrigins) > 0 {
		s.cors.AllowedOrigins = cfg.Gateway.AllowedOrigins
	}
	if cfg.Gateway.RateLimitPerMin > 0 {
		s.limiter = NewRateLimiter(cfg.Gateway.RateLimitPerMin, time.Minute)
	}
	return s
}

// WithHTTPClient sets a custom upstream HTTP client, mainly for tests.
func (s *Server) WithHTTPClient(hc *http.Client) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.httpClient = hc
	return s
}

// Port returns the gateway port.
func (s *Server) Port() int {
	return s.port
}

// Upstream returns the upstream backend base URL.
func (s *Server) Upstream() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upstream
}

// ApplyConfig applies a freshly loaded configuration to a running gateway.
// The upstream origin and rate limit take effect on the next request; the
// listen port and CORS origins are fixed for the process lifetime.
func (s *Server) ApplyConfig(cfg *config.Config) {
	s.mu.Lock()
	s.upstream = trimTrailingSlash(cfg.API.BaseURL)
	upstream := s.upstream
	s.mu.Unlock()

	if cfg.Gateway.RateLimitPerMin > 0 {
		s.limiter.SetLimit(cfg.Gateway.RateLimitPerMin, time.Minute)
	}

	log.Printf("GATEWAY_CONFIG_APPLIED | upstream=%s rate_limit_per_min=%d",
		upstream, cfg.Gateway.RateLimitPerMin)
}

// Handler returns the gateway's handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(log.Default()),
		CORSMiddleware(s.cors),
		RateLimitMiddleware(s.limiter),
	)(s.router)
}

// ============================================================================
// ROUTES
// ============================================================================

// setupRoutes configures all HTTP routes. Each /api route relays to the
// same path on the upstream backend.
func (s *Server) setupRoutes() {
	// Auth
	s.router.HandleFunc("POST /api/auth/magic-link", s.relayTo(staticPath("/auth/magic-link")))

	// Settings
	s.router.HandleFunc("GET /api/settings/profile", s.relayTo(staticPath("/settings/profile")))
	s.router.HandleFunc("PUT /api/settings/profile", s.relayTo(staticPath("/settings/profile")))
	s.router.HandleFunc("GET /api/settings/providers", s.relayTo(staticPath("/settings/providers")))
	s.router.HandleFunc("PUT /api/settings/providers", s.relayTo(staticPath("/settings/providers")))
	s.router.HandleFunc("GET /api/providers", s.relayTo(staticPath("/providers")))

	// Chat
	s.router.HandleFunc("GET /api/chat/conversations", s.relayTo(staticPath("/chat/conversations")))
	s.router.HandleFunc("GET /api/chat/conversations/{id}", s.relayTo(conversationPath("")))
	s.router.HandleFunc("GET /api/chat/conversations/{id}/messages", s.relayTo(conversationPath("/messages")))
	s.router.HandleFunc("POST /api/chat/conversations/{id}/messages", s.relayTo(conversationPath("/messages")))

	// Local endpoints, never relayed
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /stats", s.handleStats)
}

// staticPath maps a route to a fixed upstream path.
func staticPath(path string) func(*http.Request) string {
	return func(*http.Request) string { return path }
}

// conversationPath maps a conversation route to its upstream path,
// carrying the {id} path value across.
func conversationPath(suffix string) func(*http.Request) string {
	return func(r *http.Request) string {
		return "/chat/conversations/" + r.PathValue("id") + suffix
	}
}

// ============================================================================
// HEALTH HANDLER
// ============================================================================

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	UpstreamStatus string `json:"upstream_status"`
}

// handleHealth handles GET /health. It probes the upstream with a short
// timeout so a dead backend shows up as degraded rather than ok.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:  "ok",
		Version: Version,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.upstream+"/providers", nil)
	if err == nil {
		s.mu.RLock()
		client := s.httpClient
		s.mu.RUnlock()

		resp, probeErr := client.Do(req)
		if probeErr == nil {
			resp.Body.Close()
			health.UpstreamStatus = "ok"
		} else {
			health.UpstreamStatus = "unavailable"
			health.Status = "degraded"
		}
	}

	s.writeJSON(w, http.StatusOK, health)
}

// ============================================================================
// STATS HANDLER
// ============================================================================

// StatsResponse represents the usage statistics response.
type StatsResponse struct {
	TotalRequests  int64   `json:"total_requests"`
	RelayedOK      int64   `json:"relayed_ok"`
	UpstreamErrors int64   `json:"upstream_errors"`
	GatewayErrors  int64   `json:"gateway_errors"`
	UptimeSeconds  int64   `json:"uptime_seconds"`
	SuccessRate    float64 `json:"success_rate_percent"`
}

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.stats.Snapshot()

	var successRate float64
	if stats.TotalRequests > 0 {
		successRate = float64(stats.RelayedOK) / float64(stats.TotalRequests) * 100
	}

	s.writeJSON(w, http.StatusOK, StatsResponse{
		TotalRequests:  stats.TotalRequests,
		RelayedOK:      stats.RelayedOK,
		UpstreamErrors: stats.UpstreamErrors,
		GatewayErrors:  stats.GatewayErrors,
		UptimeSeconds:  int64(s.stats.Uptime().Seconds()),
		SuccessRate:    successRate,
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start starts the gateway. Blocks until the server exits.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("GATEWAY_START | addr=%s upstream=%s version=%s", addr, s.upstream, Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the gateway.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Printf("GATEWAY_SHUTDOWN | requests=%d", atomic.LoadInt64(&s.stats.TotalRequests))
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a flat JSON error envelope: {"error": "message"}.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, model.ErrorEnvelope{Error: message})
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
