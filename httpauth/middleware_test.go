package httpauth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aeroprep/go-session-client/httpauth"
	"github.com/aeroprep/go-session-client/store"
)

func guardedHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, httpauth.IsAuthenticated(r.Context()))
		w.Write([]byte(httpauth.AccessTokenFrom(r.Context())))
	})
}

func mirrorCookie(t *testing.T, token string) *http.Cookie {
	t.Helper()

	cookie, err := store.EncodeSessionCookie(store.DefaultCookieName, sessionWithToken(token), time.Hour, false)
	require.NoError(t, err)
	return cookie
}

func TestRequireSessionPassesValidCookie(t *testing.T) {
	guard := httpauth.NewGuard(httpauth.WithGuardNowTime(func() time.Time { return mintedAt }))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(mirrorCookie(t, "access-token-1"))

	rec := httptest.NewRecorder()
	guard.RequireSession(guardedHandler(t)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "access-token-1", rec.Body.String())
}

func TestRequireSessionRejectsMissingCookie(t *testing.T) {
	guard := httpauth.NewGuard()

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	guard.RequireSession(guardedHandler(t)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSessionRejectsExpiredSession(t *testing.T) {
	// The session in the cookie expires an hour after mint; check well after.
	guard := httpauth.NewGuard(httpauth.WithGuardNowTime(func() time.Time { return mintedAt.Add(2 * time.Hour) }))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(mirrorCookie(t, "access-token-1"))

	rec := httptest.NewRecorder()
	guard.RequireSession(guardedHandler(t)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSessionRejectsMalformedCookie(t *testing.T) {
	guard := httpauth.NewGuard()

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: store.DefaultCookieName, Value: "%7Bnot-json"})

	rec := httptest.NewRecorder()
	guard.RequireSession(guardedHandler(t)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSessionRedirectsWhenConfigured(t *testing.T) {
	guard := httpauth.NewGuard(httpauth.WithLoginRedirect("/login"))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	guard.RequireSession(guardedHandler(t)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestOptionalSessionLetsAnonymousThrough(t *testing.T) {
	guard := httpauth.NewGuard()

	var authenticated bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authenticated = httpauth.IsAuthenticated(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/news", nil)
	rec := httptest.NewRecorder()
	guard.OptionalSession(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, authenticated)
}

func TestOptionalSessionDecodesWhenPresent(t *testing.T) {
	guard := httpauth.NewGuard(httpauth.WithGuardNowTime(func() time.Time { return mintedAt }))

	var token string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = httpauth.AccessTokenFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/news", nil)
	req.AddCookie(mirrorCookie(t, "access-token-1"))

	rec := httptest.NewRecorder()
	guard.OptionalSession(handler).ServeHTTP(rec, req)

	require.Equal(t, "access-token-1", token)
}
