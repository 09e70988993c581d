package store

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aeroprep/go-session-client/session"
)

// DefaultCookieName is the mirror cookie written for route guards.
const DefaultCookieName = "aeroprep_session"

var _ Mirror = (*CookieMirror)(nil)

// CookieMirror mirrors the session into an http.Cookie holding the
// URL-encoded session JSON. It keeps the latest cookie in memory; handlers
// apply it to responses via WriteTo.
type CookieMirror struct {
	name   string
	secure bool

	mu      sync.Mutex
	pending *http.Cookie
}

// CookieMirrorOption configures a CookieMirror.
type CookieMirrorOption func(*CookieMirror)

// WithCookieName overrides the cookie name.
func WithCookieName(name string) CookieMirrorOption {
	return func(c *CookieMirror) {
		c.name = name
	}
}

// WithSecure marks the mirror cookie Secure (HTTPS only).
func WithSecure(secure bool) CookieMirrorOption {
	return func(c *CookieMirror) {
		c.secure = secure
	}
}

// NewCookieMirror creates a cookie-backed mirror.
func NewCookieMirror(options ...CookieMirrorOption) *CookieMirror {
	c := &CookieMirror{name: DefaultCookieName}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Set replaces the pending mirror cookie.
func (c *CookieMirror) Set(sess *session.Session, maxAge time.Duration) error {
	cookie, err := EncodeSessionCookie(c.name, sess, maxAge, c.secure)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.pending = cookie
	c.mu.Unlock()
	return nil
}

// Clear replaces the pending cookie with an expired one so the next response
// removes the mirror from the client.
func (c *CookieMirror) Clear() error {
	c.mu.Lock()
	c.pending = &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
	c.mu.Unlock()
	return nil
}

// Cookie returns the latest mirror cookie, or nil when nothing has been
// mirrored yet.
func (c *CookieMirror) Cookie() *http.Cookie {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// WriteTo applies the latest mirror cookie to a response.
func (c *CookieMirror) WriteTo(w http.ResponseWriter) {
	if cookie := c.Cookie(); cookie != nil {
		http.SetCookie(w, cookie)
	}
}

// EncodeSessionCookie serializes a session (without the profile snapshot,
// which lives in its own store entry) into a mirror cookie.
func EncodeSessionCookie(name string, sess *session.Session, maxAge time.Duration, secure bool) (*http.Cookie, error) {
	mirrored := *sess
	mirrored.User = nil

	payload, err := json.Marshal(&mirrored)
	if err != nil {
		return nil, err
	}

	return &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(string(payload)),
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// DecodeSessionCookie parses a mirror cookie back into a session. Malformed
// cookies decode to nil, matching the store contract that corrupt state is
// treated as absent.
func DecodeSessionCookie(cookie *http.Cookie) *session.Session {
	if cookie == nil || cookie.Value == "" {
		return nil
	}

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}

	var sess session.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil
	}
	if sess.AccessToken == "" {
		return nil
	}
	return &sess
}
