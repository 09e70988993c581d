package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aeroprep/go-session-client/session"
)

var mintedAt = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

func testGrant() *session.Grant {
	return &session.Grant{
		AccessToken:      "access-token-1",
		RefreshToken:     "refresh-token-1",
		ExpiresIn:        3600,
		RefreshExpiresIn: 86400,
		User:             &session.User{ID: "user-1", Username: "pilot"},
	}
}

func TestNewDerivesExpiry(t *testing.T) {
	sess := session.New(mintedAt, testGrant())

	require.Equal(t, mintedAt.Add(3600*time.Second).UnixMilli(), sess.ExpiresAt)
	require.Equal(t, mintedAt.Add(time.Hour), sess.ExpiryTime())
	require.Equal(t, "access-token-1", sess.AccessToken)
	require.Equal(t, "refresh-token-1", sess.RefreshToken)
	require.NotNil(t, sess.User)
}

func TestCheckBoundaries(t *testing.T) {
	const skew = 5 * time.Minute
	sess := session.New(mintedAt, testGrant())

	tests := []struct {
		name string
		at   time.Time
		want session.Validity
	}{
		{"immediately after mint", mintedAt, session.Valid},
		{"one second before the skew window", mintedAt.Add(3600*time.Second - skew - time.Second), session.Valid},
		{"exactly at the skew boundary", mintedAt.Add(3600*time.Second - skew), session.NeedsRefresh},
		{"one second into the skew window", mintedAt.Add(3600*time.Second - skew + time.Second), session.NeedsRefresh},
		{"past the hard expiry", mintedAt.Add(2 * time.Hour), session.NeedsRefresh},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, sess.Check(tc.at, skew))
		})
	}
}

func TestCheckNilSession(t *testing.T) {
	var sess *session.Session
	require.Equal(t, session.Invalid, sess.Check(mintedAt, session.DefaultRefreshSkew))
}

func TestCheckNoAccessToken(t *testing.T) {
	sess := &session.Session{RefreshToken: "refresh-token-1"}
	require.Equal(t, session.Invalid, sess.Check(mintedAt, session.DefaultRefreshSkew))
}

func TestRefreshable(t *testing.T) {
	var nilSess *session.Session
	require.False(t, nilSess.Refreshable())

	grant := testGrant()
	grant.RefreshToken = ""
	require.False(t, session.New(mintedAt, grant).Refreshable())

	require.True(t, session.New(mintedAt, testGrant()).Refreshable())
}

func TestExpired(t *testing.T) {
	sess := session.New(mintedAt, testGrant())

	require.False(t, sess.Expired(mintedAt.Add(59*time.Minute)))
	require.True(t, sess.Expired(mintedAt.Add(time.Hour)))

	var nilSess *session.Session
	require.True(t, nilSess.Expired(mintedAt))
}

func TestValidityString(t *testing.T) {
	require.Equal(t, "invalid", session.Invalid.String())
	require.Equal(t, "needs-refresh", session.NeedsRefresh.String())
	require.Equal(t, "valid", session.Valid.String())
}
