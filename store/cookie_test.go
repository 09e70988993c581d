package store_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aeroprep/go-session-client/session"
	"github.com/aeroprep/go-session-client/store"
)

func TestEncodeDecodeSessionCookie(t *testing.T) {
	sess := testSession()
	sess.User = &session.User{ID: "user-1", Username: "pilot"}

	cookie, err := store.EncodeSessionCookie("portal_session", sess, time.Hour, true)
	require.NoError(t, err)
	require.Equal(t, "portal_session", cookie.Name)
	require.Equal(t, 3600, cookie.MaxAge)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)

	decoded := store.DecodeSessionCookie(cookie)
	require.NotNil(t, decoded)
	require.Equal(t, sess.AccessToken, decoded.AccessToken)
	require.Equal(t, sess.RefreshToken, decoded.RefreshToken)
	require.Equal(t, sess.ExpiresAt, decoded.ExpiresAt)

	// The profile snapshot lives in its own store entry, never in the mirror.
	require.Nil(t, decoded.User)
}

func TestDecodeSessionCookieMalformed(t *testing.T) {
	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"nil cookie", nil},
		{"empty value", &http.Cookie{Name: "s", Value: ""}},
		{"not json", &http.Cookie{Name: "s", Value: "%7Bnot-json"}},
		{"bad escaping", &http.Cookie{Name: "s", Value: "%zz"}},
		{"missing access token", &http.Cookie{Name: "s", Value: "%7B%22expires_at%22%3A1%7D"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Nil(t, store.DecodeSessionCookie(tc.cookie))
		})
	}
}

func TestCookieMirrorLifecycle(t *testing.T) {
	mirror := store.NewCookieMirror(store.WithCookieName("portal_session"))
	require.Nil(t, mirror.Cookie())

	sess := testSession()
	require.NoError(t, mirror.Set(sess, time.Duration(sess.ExpiresIn)*time.Second))

	cookie := mirror.Cookie()
	require.NotNil(t, cookie)
	require.Equal(t, 3600, cookie.MaxAge)

	decoded := store.DecodeSessionCookie(cookie)
	require.NotNil(t, decoded)
	require.Equal(t, sess.AccessToken, decoded.AccessToken)

	rec := httptest.NewRecorder()
	mirror.WriteTo(rec)
	require.NotEmpty(t, rec.Result().Cookies())

	require.NoError(t, mirror.Clear())
	cookie = mirror.Cookie()
	require.NotNil(t, cookie)
	require.Equal(t, -1, cookie.MaxAge)
	require.Empty(t, cookie.Value)
}
