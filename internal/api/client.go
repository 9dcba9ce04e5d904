// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBase is used when neither the store nor the config names a base.
	DefaultBase = "http://localhost:5000/api"

	// MaxResponseSize caps how much of a non-streaming body is read.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	// DefaultUserAgent identifies the client.
	DefaultUserAgent = "chatdesk"
)

// sharedHTTPClient has no timeout; every call is bounded by its context.
// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// Credentials is where the client reads and clears session state.
// *store.Store satisfies it.
type Credentials interface {
	Token() string
	SetToken(token string) error
	ClearToken() error
	APIBase() string
}

// =============================================================================
// BASE URL
// =============================================================================

var apiSuffix = regexp.MustCompile(`(?i)/api(/|$)`)

// NormalizeBase trims whitespace and trailing slashes from raw and appends
// "/api" unless the path already contains an /api segment. An empty raw
// value yields DefaultBase.
func NormalizeBase(raw string) string {
	return normalizeBase(raw, DefaultBase)
}

func normalizeBase(raw, fallback string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return strings.TrimRight(strings.TrimSpace(fallback), "/")
	}
	if apiSuffix.MatchString(base) {
		return base
	}
	return base + "/api"
}

// JoinURL joins a normalized base and an endpoint path.
func JoinURL(base, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the remote chat API.
type Client struct {
	creds       Credentials
	httpClient  *http.Client
	configBase  string
	defaultBase string
	userAgent   string
	onLogout    func()
	logger      *zap.Logger
}

// NewClient creates a client that reads its token and base override from
// creds.
func NewClient(creds Credentials) *Client {
	return &Client{
		creds:       creds,
		httpClient:  sharedHTTPClient,
		defaultBase: DefaultBase,
		userAgent:   DefaultUserAgent,
		logger:      zap.NewNop(),
	}
}

// WithHTTPClient replaces the HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithConfigBase sets the configured base, used when no override is stored.
func (c *Client) WithConfigBase(base string) *Client {
	c.configBase = base
	return c
}

// WithDefaultBase replaces DefaultBase as the last-resort base.
func (c *Client) WithDefaultBase(base string) *Client {
	if strings.TrimSpace(base) != "" {
		c.defaultBase = base
	}
	return c
}

// WithUserAgent sets the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// WithLogoutHook sets a function run after a 401 clears the token.
func (c *Client) WithLogoutHook(fn func()) *Client {
	c.onLogout = fn
	return c
}

// WithLogger sets the logger.
func (c *Client) WithLogger(l *zap.Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

// Base returns the normalized API base: the stored override, then the
// configured base, then the default.
func (c *Client) Base() string {
	raw := ""
	if c.creds != nil {
		raw = c.creds.APIBase()
	}
	if strings.TrimSpace(raw) == "" {
		raw = c.configBase
	}
	return normalizeBase(raw, c.defaultBase)
}

// URL resolves path against Base.
func (c *Client) URL(path string) string {
	return JoinURL(c.Base(), path)
}

// LoggedIn reports whether a token is stored.
func (c *Client) LoggedIn() bool {
	return c.creds != nil && c.creds.Token() != ""
}

// =============================================================================
// REQUEST EXECUTION
// =============================================================================

// newRequest builds a request with JSON body and auth headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body any, auth bool) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if auth && c.creds != nil {
		if tok := c.creds.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

// Do performs an authenticated request and classifies the response.
func (c *Client) Do(ctx context.Context, method, path string, body any) Result {
	return c.do(ctx, method, path, body, true)
}

func (c *Client) do(ctx context.Context, method, path string, body any, auth bool) Result {
	op := method + " " + path
	req, err := c.newRequest(ctx, method, path, body, auth)
	if err != nil {
		return Result{Outcome: OutcomeTransportError, Payload: map[string]any{}, Message: err.Error(), Cause: err, op: op}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("op", op), zap.Error(err))
		return Result{Outcome: OutcomeTransportError, Payload: map[string]any{}, Message: err.Error(), Cause: err, op: op}
	}
	defer resp.Body.Close()

	if auth && resp.StatusCode == http.StatusUnauthorized {
		c.expireSession(op)
		return Result{Outcome: OutcomeUnauthorized, Status: resp.StatusCode, Payload: map[string]any{}, Message: "unauthorized", op: op}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return Result{Outcome: OutcomeTransportError, Status: resp.StatusCode, Payload: map[string]any{}, Message: err.Error(), Cause: err, op: op}
	}

	c.logger.Debug("request complete",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	res := Result{
		Status:  resp.StatusCode,
		Body:    data,
		Payload: decodePayload(data),
		op:      op,
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		res.Outcome = OutcomeSuccess
	} else {
		res.Outcome = OutcomeHTTPError
		res.Message = errorMessage(res.Payload, resp.StatusCode)
	}
	return res
}

// expireSession clears the token and runs the logout hook.
func (c *Client) expireSession(op string) {
	c.logger.Info("session rejected by server", zap.String("op", op))
	if c.creds != nil {
		if err := c.creds.ClearToken(); err != nil {
			c.logger.Warn("failed to clear token", zap.Error(err))
		}
	}
	if c.onLogout != nil {
		c.onLogout()
	}
}

// OpenStream posts body to path and returns the live response body on 2xx.
// The caller must close it. Errors are ErrUnauthorized, *HTTPError or
// *TransportError; a cancelled ctx surfaces as a *TransportError wrapping
// the context error.
func (c *Client) OpenStream(ctx context.Context, path string, body any) (io.ReadCloser, error) {
	op := http.MethodPost + " " + path
	req, err := c.newRequest(ctx, http.MethodPost, path, body, true)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.expireSession(op)
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		msg := errorMessage(decodePayload(data), resp.StatusCode)
		c.logger.Debug("stream rejected", zap.String("op", op), zap.Int("status", resp.StatusCode))
		return nil, &HTTPError{Status: resp.StatusCode, Message: msg}
	}

	return resp.Body, nil
}

// IsUnauthorized reports whether err means the session ended.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
