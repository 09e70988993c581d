// Package tokenclient implements the HTTP client for the external token
// issuing service. All responses are validated at this boundary into typed
// grants or sentinel errors; no raw payloads or transport errors escape it.
package tokenclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aeroprep/go-session-client/session"
)

const (
	loginPath   = "/login"
	refreshPath = "/refresh"
	logoutPath  = "/logout"
	mePath      = "/me"

	requestIDHeader = "X-Request-ID"

	defaultTimeout = 10 * time.Second

	// maxBodyBytes caps response reads; token payloads are small.
	maxBodyBytes = 1 << 20
)

var _ session.Issuer = (*Client)(nil)

// Client talks to the token issuing service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	nowTime    func() time.Time
	log        zerolog.Logger
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// New creates a token service client for the given base URL.
func New(baseURL string, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[tokenclient.New] base URL is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		nowTime:    time.Now,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, username, password string) (*session.Grant, error) {
	body := map[string]string{"username": username, "password": password}

	status, raw, err := c.post(ctx, loginPath, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, ErrInvalidCredentials
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: login returned status %d", ErrUnavailable, status)
	}

	var resp envelope
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !resp.Success || resp.Data == nil {
		c.log.Debug().Str("message", resp.Message).Msg("login rejected by token service")
		return nil, ErrInvalidCredentials
	}

	return resp.Data.grant(c.nowTime())
}

// Refresh exchanges a refresh token for a new pair. The response carries the
// token payload directly, without the login envelope.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*session.Grant, error) {
	body := map[string]string{"refresh_token": refreshToken}

	status, raw, err := c.post(ctx, refreshPath, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if status >= 400 && status < 500 {
		return nil, ErrRefreshRejected
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: refresh returned status %d", ErrUnavailable, status)
	}

	var data tokenData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return data.grant(c.nowTime())
}

// Logout revokes the refresh token. Callers treat this as best effort; the
// local session is cleared whatever the outcome here.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}

	status, _, err := c.post(ctx, logoutPath, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("%w: logout returned status %d", ErrUnavailable, status)
	}
	return nil
}

// Me fetches the profile of the access token's bearer.
func (c *Client) Me(ctx context.Context, accessToken string) (*session.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+mePath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	status, raw, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, ErrInvalidCredentials
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: me returned status %d", ErrUnavailable, status)
	}

	var resp userEnvelope
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Data == nil {
		return nil, ErrMalformedResponse
	}
	return resp.Data, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)

	started := c.nowTime()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("request_id", requestID).Str("path", req.URL.Path).Msg("token service request failed")
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, err
	}

	c.log.Debug().
		Str("request_id", requestID).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", c.nowTime().Sub(started)).
		Msg("token service request")

	return resp.StatusCode, raw, nil
}
