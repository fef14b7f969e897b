// Package gateway is the authenticated HTTP client for the remote marketplace API.
//
// Every call carries the stored bearer credential and decodes the
// {success, message, data, errors} envelope. A rejected credential clears the
// stored session and notifies the unauthorized handler before the error is
// returned to the caller.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
	"github.com/agriconnect/marketplace-client/internal/pkg/metrics"
)

// Keys of the persisted session.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

const maxBodyBytes = 4 << 20

// APIError is returned when the remote answers with a non-2xx status or success=false.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("remote api %d: %s", e.Status, msg)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("remote api %d: %s (%s)", e.Status, msg, strings.Join(parts, "; "))
}

// Unwrap maps the failure onto the domain taxonomy.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return domain.ErrUnauthorized
	}
	return domain.ErrRemoteRejected
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

// Client talks to the remote marketplace API.
type Client struct {
	baseURL        string
	store          ports.KeyValueStore
	httpClient     *http.Client
	timeout        time.Duration
	log            zerolog.Logger
	onUnauthorized func(ctx context.Context)
}

// Option configures the client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout. A client passed with
// WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithUnauthorizedHandler registers fn to run after a rejected credential has been cleared.
func WithUnauthorizedHandler(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a Client for baseURL, e.g. http://localhost:8000/api/v1.
// store holds the persisted credential and user profile.
func New(baseURL string, store ports.KeyValueStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		store:      store,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.timeout > 0 && c.httpClient.Timeout != c.timeout {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// SetUnauthorizedHandler replaces the handler after construction. The
// navigator that consumes it is usually built after the client.
func (c *Client) SetUnauthorizedHandler(fn func(ctx context.Context)) {
	c.onUnauthorized = fn
}

type request struct {
	method string
	path   string
	body   any
	out    any
	// public requests never trigger the unauthorized handler; a failed
	// login must surface as a form error, not a forced logout.
	public bool
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.send(ctx, request{method: method, path: path, body: body, out: out})
}

func (c *Client) send(ctx context.Context, r request) error {
	var reader io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", r.method, r.path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.GatewayRequestDuration.WithLabelValues(r.method, "transport_error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()
	metrics.GatewayRequestDuration.WithLabelValues(r.method, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", r.method, r.path, err)
	}

	c.log.Debug().
		Str("request_id", requestID).
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("remote call")

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if decodeErr != nil && resp.StatusCode < 300 {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, decodeErr)
	}

	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message, Fields: flattenErrors(env.Errors)}
		// The remote reports a bad or expired token as success=false with an
		// "auth" error, sometimes with a 200 status.
		if _, ok := apiErr.Fields["auth"]; ok {
			apiErr.Status = http.StatusUnauthorized
		}
		if apiErr.Status == http.StatusUnauthorized && !r.public {
			c.unauthorized(ctx, requestID)
		}
		return apiErr
	}

	if r.out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, r.out); err != nil {
		return fmt.Errorf("decode %s %s data: %w", r.method, r.path, err)
	}
	return nil
}

func (c *Client) token(ctx context.Context) string {
	token, err := c.store.Get(ctx, KeyAccessToken)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			c.log.Warn().Err(err).Msg("could not read stored credential")
		}
		return ""
	}
	return token
}

func (c *Client) unauthorized(ctx context.Context, requestID string) {
	c.log.Warn().Str("request_id", requestID).Msg("remote rejected credential, clearing session")
	if err := c.ClearCredentials(ctx); err != nil {
		c.log.Error().Err(err).Msg("failed to clear stored credentials")
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
}

// ClearCredentials removes the stored tokens and user profile.
func (c *Client) ClearCredentials(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUser} {
		if err := c.store.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Ping reports whether the remote API answers at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remote api unreachable: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}

// flattenErrors turns the envelope's errors value (object, list, string or
// null) into field messages.
func flattenErrors(raw json.RawMessage) map[string]string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err == nil {
		out := make(map[string]string, len(fields))
		for k, v := range fields {
			out[k] = fmt.Sprint(v)
		}
		return out
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil && msg != "" {
		return map[string]string{"error": msg}
	}
	return map[string]string{"error": string(raw)}
}
