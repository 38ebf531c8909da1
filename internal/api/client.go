// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tradeline/tradeline-tui/internal/model"
)

// Configuration constants for the backend API.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared HTTP client with connection pooling for all backend requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// Error variables for common backend errors.
var (
	// ErrNotConfigured indicates the base URL is not set.
	ErrNotConfigured = errors.New("backend URL not configured")

	// ErrUnauthorized indicates the session token is missing, invalid, or expired.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates the backend could not be reached.
	ErrUnavailable = errors.New("backend unavailable")
)

// APIError represents an error response from the backend.
type APIError struct {
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// CREDENTIALS
// =============================================================================

// Credentials holds the bearer token for a backend session.
//
// The token is opaque to the client. It is attached to requests verbatim
// and never validated or decoded locally.
type Credentials struct {
	Token string
}

// Anonymous returns empty credentials for unauthenticated requests.
func Anonymous() Credentials {
	return Credentials{}
}

// IsSet returns true if a token is present.
func (c Credentials) IsSet() bool {
	return c.Token != ""
}

// Fingerprint returns a secure identifier of the token for logging.
// SECURITY: Uses SHA-256 hash so the token itself is never logged.
func (c Credentials) Fingerprint() string {
	if c.Token == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.Token))
	return hex.EncodeToString(h[:4])
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a client for the tradeline backend API.
//
// All methods perform a single request attempt. Methods are safe for
// concurrent use as long as SetCredentials is not called concurrently
// with requests.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a backend client for the given base URL.
//
// The base URL should include the API prefix, e.g.
// "http://localhost:8080/api/v1". Credentials may be empty for
// unauthenticated endpoints such as requesting a magic link.
func NewClient(baseURL string, creds Credentials) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		creds:      creds,
		httpClient: sharedHTTPClient,
		userAgent:  "tradeline/0.1.0",
	}
}

// WithTimeout sets a custom request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	// A custom timeout needs a dedicated client; the shared one is pooled.
	c.httpClient = &http.Client{
		Transport: sharedHTTPClient.Transport,
		Timeout:   timeout,
	}
	return c
}

// WithHTTPClient sets a custom HTTP client, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// SetCredentials replaces the session credentials.
func (c *Client) SetCredentials(creds Credentials) {
	c.creds = creds
}

// Credentials returns the current session credentials.
func (c *Client) Credentials() Credentials {
	return c.creds
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// setHeaders sets the required headers for backend requests.
func (c *Client) setHeaders(req *http.Request) {
	if c.creds.IsSet() {
		req.Header.Set("Authorization", "Bearer "+c.creds.Token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
}

// logRequest logs an API request without exposing sensitive data.
// SECURITY: Does not log headers (contain auth) or body.
func (c *Client) logRequest(req *http.Request) {
	log.Printf("API_REQUEST | method=%s path=%s", req.Method, req.URL.Path)
}

// logResponse logs an API response with duration.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API_RESPONSE | status=%d duration=%v", resp.StatusCode, duration)
}

// readResponse reads the response body with a size limit.
//
// SECURITY: Response size limit prevents memory exhaustion attacks.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// do performs a single JSON request and decodes the response into out.
//
// There is no retry loop. A transport failure wraps ErrUnavailable and
// a non-2xx status is converted via handleErrorResponse. Passing a nil
// out discards the response body.
//
// SECURITY: Clears Authorization header after the request to prevent logging.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	c.logRequest(req)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		// Double-wrap so callers can match both the sentinel and the
		// underlying cause (e.g. context.Canceled).
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(startTime))

	respBody, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return handleErrorResponse(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// handleErrorResponse converts HTTP error responses to Go errors.
//
// The backend uses a flat error envelope: {"error": "message"}.
func handleErrorResponse(statusCode int, body []byte) error {
	var env model.ErrorEnvelope
	message := ""
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		message = env.Error
	}

	switch statusCode {
	case http.StatusUnauthorized:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, message)
		}
		return ErrUnauthorized
	case http.StatusNotFound:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, message)
		}
		return ErrNotFound
	case http.StatusTooManyRequests:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrRateLimited, message)
		}
		return ErrRateLimited
	default:
		if message == "" {
			message = http.StatusText(statusCode)
		}
		return &APIError{Message: message, Status: statusCode}
	}
}

// =============================================================================
// AUTH
// =============================================================================

// MagicLinkRequest is the payload for requesting a sign-in link.
type MagicLinkRequest struct {
	Email string `json:"email"`
}

// MagicLinkResponse is the backend's acknowledgement of a link request.
type MagicLinkResponse struct {
	Message string `json:"message"`
}

// RequestMagicLink asks the backend to email a sign-in link.
//
// The backend replies with the same acknowledgement whether or not the
// address has an account, so the response never reveals registration
// state. The acknowledgement is wrapped in a data envelope:
// {"data": {"message": "sent"}}.
func (c *Client) RequestMagicLink(ctx context.Context, email string) (*MagicLinkResponse, error) {
	var env model.Envelope
	if err := c.do(ctx, http.MethodPost, "/auth/magic-link", MagicLinkRequest{Email: email}, &env); err != nil {
		return nil, err
	}
	var resp MagicLinkResponse
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return &resp, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

// GetProfile fetches the signed-in user's profile.
func (c *Client) GetProfile(ctx context.Context) (*model.Profile, error) {
	var p model.Profile
	if err := c.do(ctx, http.MethodGet, "/settings/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile submits profile changes and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.Profile, error) {
	var p model.Profile
	if err := c.do(ctx, http.MethodPut, "/settings/profile", update, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProviderSettings fetches the user's model provider configuration.
func (c *Client) GetProviderSettings(ctx context.Context) (*model.ProviderSettings, error) {
	var s model.ProviderSettings
	if err := c.do(ctx, http.MethodGet, "/settings/providers", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateProviderSettings submits provider configuration changes.
func (c *Client) UpdateProviderSettings(ctx context.Context, settings model.ProviderSettings) (*model.ProviderSettings, error) {
	var s model.ProviderSettings
	if err := c.do(ctx, http.MethodPut, "/settings/providers", settings, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListProviders fetches the catalog of available model providers.
func (c *Client) ListProviders(ctx context.Context) ([]model.Provider, error) {
	var providers []model.Provider
	if err := c.do(ctx, http.MethodGet, "/providers", nil, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// =============================================================================
// CHAT
// =============================================================================

// SendMessageRequest is the payload for posting a chat message.
type SendMessageRequest struct {
	Content string `json:"content"`
	ModelID string `json:"model_id,omitempty"`
}

// GetConversation fetches a conversation by ID, without its messages.
func (c *Client) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	if err := c.do(ctx, http.MethodGet, "/chat/conversations/"+id, nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations fetches the user's conversations, newest first.
func (c *Client) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	var convs []model.Conversation
	if err := c.do(ctx, http.MethodGet, "/chat/conversations", nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// ListMessages fetches the messages of a conversation in order.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	var msgs []model.Message
	if err := c.do(ctx, http.MethodGet, "/chat/conversations/"+conversationID+"/messages", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage posts a user message to a conversation and returns the
// assistant's reply. The call is made exactly once; a timeout or
// transport error is surfaced rather than retried so the message can
// never be delivered twice.
func (c *Client) SendMessage(ctx context.Context, conversationID string, req SendMessageRequest) (*model.Message, error) {
	var msg model.Message
	path := "/chat/conversations/" + conversationID + "/messages"
	if err := c.do(ctx, http.MethodPost, path, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
