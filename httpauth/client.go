// Package httpauth provides the single call path for requests against the
// portal backend: ensure the session is valid (refreshing it if needed),
// attach the bearer token, and hand the business response back untouched.
package httpauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aeroprep/go-session-client/session"
)

// TokenSource supplies valid sessions. Implemented by *session.Manager.
type TokenSource interface {
	EnsureValid(ctx context.Context) (*session.Session, error)
	ForceRefresh(ctx context.Context) (*session.Session, error)
}

// Client issues authenticated requests.
type Client struct {
	httpClient *http.Client
	sessions   TokenSource
	retryOn401 bool
	log        zerolog.Logger
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithoutRetryOnUnauthorized disables the single refresh-and-retry performed
// when the backend answers 401 despite a token the skew check considered
// valid (e.g. clock skew, early server-side revocation).
func WithoutRetryOnUnauthorized() ClientOption {
	return func(c *Client) {
		c.retryOn401 = false
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates an authenticated HTTP client on top of a token source.
func NewClient(sessions TokenSource, options ...ClientOption) (*Client, error) {
	if sessions == nil {
		return nil, errors.New("[httpauth.NewClient] token source is required")
	}

	c := &Client{
		httpClient: http.DefaultClient,
		sessions:   sessions,
		retryOn401: true,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Do ensures a valid session, attaches the bearer token, and issues the
// request. Returns session.ErrNotAuthenticated when no valid session can be
// produced; any other response, success or failure, is the caller's to
// interpret.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	sess, err := c.sessions.EnsureValid(req.Context())
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || !c.retryOn401 {
		return resp, nil
	}

	// The proactive skew makes this rare, not impossible. One bounded retry:
	// refresh once, replay once, and return whatever comes back.
	retry, err := rewind(req)
	if err != nil {
		return resp, nil
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.log.Debug().Str("url", req.URL.String()).Msg("request returned 401, refreshing and retrying once")

	sess, err = c.sessions.ForceRefresh(req.Context())
	if err != nil {
		return nil, err
	}

	retry.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	return c.httpClient.Do(retry)
}

// Get issues an authenticated GET.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// PostJSON issues an authenticated POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, url string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("[PostJSON] failed to encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.Do(req)
}

// rewind clones the request for a replay. Requests whose body cannot be
// reproduced are not retried.
func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.GetBody == nil {
		if req.Body != nil {
			return nil, errors.New("request body is not rewindable")
		}
		return req.Clone(req.Context()), nil
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}

	retry := req.Clone(req.Context())
	retry.Body = body
	return retry, nil
}
