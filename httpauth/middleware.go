package httpauth

import (
	"context"
	"net/http"
	"time"

	"github.com/aeroprep/go-session-client/session"
	"github.com/aeroprep/go-session-client/store"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// ContextKeySession stores the session decoded from the mirror cookie.
	ContextKeySession ContextKey = "session"
)

// Guard is route-guard middleware that reads the mirror cookie written by
// store.CookieMirror. It only ever reads the mirror; the authoritative store
// stays private to the session manager.
type Guard struct {
	cookieName    string
	loginRedirect string
	nowTime       func() time.Time
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithCookieName overrides the mirror cookie name.
func WithCookieName(name string) GuardOption {
	return func(g *Guard) {
		g.cookieName = name
	}
}

// WithLoginRedirect redirects unauthenticated requests to the given path
// instead of answering 401.
func WithLoginRedirect(path string) GuardOption {
	return func(g *Guard) {
		g.loginRedirect = path
	}
}

// WithGuardNowTime sets the now time function (primarily for testing).
func WithGuardNowTime(nowFunc func() time.Time) GuardOption {
	return func(g *Guard) {
		g.nowTime = nowFunc
	}
}

// NewGuard creates a route guard.
func NewGuard(options ...GuardOption) *Guard {
	g := &Guard{
		cookieName: store.DefaultCookieName,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// RequireSession rejects requests without a usable mirror cookie and puts the
// decoded session on the request context otherwise.
func (g *Guard) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := g.sessionFromRequest(r)
		if sess == nil {
			g.reject(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeySession, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalSession decodes the mirror cookie when present but lets anonymous
// requests through.
func (g *Guard) OptionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess := g.sessionFromRequest(r); sess != nil {
			r = r.WithContext(context.WithValue(r.Context(), ContextKeySession, sess))
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Guard) sessionFromRequest(r *http.Request) *session.Session {
	cookie, err := r.Cookie(g.cookieName)
	if err != nil {
		return nil
	}

	sess := store.DecodeSessionCookie(cookie)
	if sess.Expired(g.nowTime()) {
		return nil
	}
	return sess
}

func (g *Guard) reject(w http.ResponseWriter, r *http.Request) {
	if g.loginRedirect != "" {
		http.Redirect(w, r, g.loginRedirect, http.StatusSeeOther)
		return
	}
	http.Error(w, "Unauthorized: no valid session", http.StatusUnauthorized)
}

// SessionFrom retrieves the session from the request context. Returns nil if
// the request is not authenticated.
func SessionFrom(ctx context.Context) *session.Session {
	sess, ok := ctx.Value(ContextKeySession).(*session.Session)
	if !ok {
		return nil
	}
	return sess
}

// AccessTokenFrom retrieves the access token from the request context.
// Returns the empty string for anonymous requests.
func AccessTokenFrom(ctx context.Context) string {
	sess := SessionFrom(ctx)
	if sess == nil {
		return ""
	}
	return sess.AccessToken
}

// IsAuthenticated reports whether the request carries a valid session.
func IsAuthenticated(ctx context.Context) bool {
	return SessionFrom(ctx) != nil
}
