package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aeroprep/go-session-client/session"
	"github.com/aeroprep/go-session-client/store/memstore"
)

func testSession() *session.Session {
	return session.New(time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC), &session.Grant{
		AccessToken:      "access-token-1",
		RefreshToken:     "refresh-token-1",
		ExpiresIn:        3600,
		RefreshExpiresIn: 86400,
		User:             &session.User{ID: "user-1"},
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := memstore.New()

	sess := testSession()
	require.NoError(t, s.Save(context.Background(), sess))

	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, sess.AccessToken, loaded.AccessToken)
	require.Equal(t, sess.ExpiresAt, loaded.ExpiresAt)
	require.NotNil(t, loaded.User)
}

func TestLoadReturnsCopy(t *testing.T) {
	s := memstore.New()
	require.NoError(t, s.Save(context.Background(), testSession()))

	first, err := s.Load(context.Background())
	require.NoError(t, err)
	first.AccessToken = "tampered"
	first.User.ID = "tampered"

	second, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "access-token-1", second.AccessToken)
	require.Equal(t, "user-1", second.User.ID)
}

func TestLoadAbsent(t *testing.T) {
	loaded, err := memstore.New().Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestClearIsIdempotent(t *testing.T) {
	s := memstore.New()
	require.NoError(t, s.Save(context.Background(), testSession()))

	require.NoError(t, s.Clear(context.Background()))
	require.NoError(t, s.Clear(context.Background()))

	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, loaded)
}
