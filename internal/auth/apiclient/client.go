// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

// Package apiclient is the HTTP transport for the EcoTrack authentication API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/OpenshelfTeam/EcoTrack-sub003/internal/auth"
	"github.com/OpenshelfTeam/EcoTrack-sub003/pkg/errutil"
)

// API paths relative to the base URL.
const (
	LoginPath          = "/auth/login"
	RegisterPath       = "/auth/register"
	MePath             = "/auth/me"
	UpdatePasswordPath = "/auth/updatepassword"
)

// Error codes returned by Client.
const (
	CodeConfigInvalid    = "API_CONFIG_INVALID"
	CodeEncodeFailed     = "API_ENCODE_FAILED"
	CodeRequestInvalid   = "API_REQUEST_INVALID"
	CodeTokenUnavailable = "API_TOKEN_UNAVAILABLE"
	CodeRequestFailed    = "API_REQUEST_FAILED"
	CodeStatus           = "API_STATUS"
	CodeDecodeFailed     = "API_DECODE_FAILED"
)

// Defaults applied by New.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultUserAgent   = "ecotrack-client"
	DefaultRetryBase   = 200 * time.Millisecond
	maxErrorBodyBytes  = 64 << 10
	maxResultBodyBytes = 1 << 20
)

// Config holds the client settings.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.ecotrack.dev/api".
	BaseURL string
	// Timeout bounds each HTTP attempt.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts for GET /auth/me.
	MaxRetries int
	// RetryBase is the first backoff interval; it doubles per attempt.
	RetryBase time.Duration
	// UserAgent is sent with every request.
	UserAgent string
}

// TokenSource yields the token attached to authenticated requests.
// session.Store satisfies it.
type TokenSource interface {
	Token(ctx context.Context) (string, bool, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// Client implements auth.API over HTTP.
type Client struct {
	base       *url.URL
	cfg        Config
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

var _ auth.API = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Timeout is left as given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client. tokens may be nil, in which case no Authorization
// header is ever sent.
func New(cfg Config, tokens TokenSource, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, oops.Code(CodeConfigInvalid).Errorf("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, oops.Code(CodeConfigInvalid).With("base_url", cfg.BaseURL).Wrap(err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, oops.Code(CodeConfigInvalid).
			With("base_url", cfg.BaseURL).
			Errorf("base URL must be http or https")
	}
	if cfg.MaxRetries < 0 {
		return nil, oops.Code(CodeConfigInvalid).Errorf("max retries must be non-negative, got %d", cfg.MaxRetries)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	c := &Client{
		base:       base,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "apiclient")
	return c, nil
}

// Login implements auth.API.
func (c *Client) Login(ctx context.Context, creds auth.Credentials) (*auth.AuthResult, error) {
	var result auth.AuthResult
	if err := c.doJSON(ctx, http.MethodPost, LoginPath, creds, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register implements auth.API.
func (c *Client) Register(ctx context.Context, data auth.RegistrationData) (*auth.AuthResult, error) {
	var result auth.AuthResult
	if err := c.doJSON(ctx, http.MethodPost, RegisterPath, data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Me implements auth.API. Transport failures and 5xx responses are retried
// up to MaxRetries times.
func (c *Client) Me(ctx context.Context) (*auth.UserResult, error) {
	var result auth.UserResult
	backoff := retry.WithMaxRetries(uint64(c.cfg.MaxRetries), retry.NewExponential(c.cfg.RetryBase))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := c.doJSON(ctx, http.MethodGet, MePath, nil, &result)
		if err == nil || !retryable(err) {
			return err
		}
		c.logger.DebugContext(ctx, "retrying request", "path", MePath, "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		//nolint:wrapcheck // already an oops error from doJSON
		return nil, err
	}
	return &result, nil
}

// UpdatePassword implements auth.API.
func (c *Client) UpdatePassword(ctx context.Context, currentPassword, newPassword string) (json.RawMessage, error) {
	body := struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}{currentPassword, newPassword}

	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPut, UpdatePasswordPath, body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// retryable reports whether err is a transport failure or a 5xx response.
// Encode, decode, and token errors repeat identically on every attempt.
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}
	return errutil.Code(err) == CodeRequestFailed
}

func (c *Client) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, oops.Code(CodeEncodeFailed).With("path", path).Wrap(err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return nil, oops.Code(CodeRequestInvalid).With("path", path).Wrap(err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, ok, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, oops.Code(CodeTokenUnavailable).With("path", path).Wrap(err)
		}
		if ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return oops.Code(CodeRequestFailed).
			With("method", method).
			With("path", path).
			Wrap(err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "api response",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes)) //nolint:errcheck // best effort
		return oops.Code(CodeStatus).
			With("method", method).
			With("path", path).
			With("status", resp.StatusCode).
			Wrap(&StatusError{
				Method:     method,
				Path:       path,
				StatusCode: resp.StatusCode,
				Body:       errBody,
			})
	}

	err = json.NewDecoder(io.LimitReader(resp.Body, maxResultBodyBytes)).Decode(out)
	if errors.Is(err, io.EOF) {
		// Empty body: out keeps its zero value.
		return nil
	}
	if err != nil {
		return oops.Code(CodeDecodeFailed).
			With("method", method).
			With("path", path).
			Wrap(err)
	}
	return nil
}
