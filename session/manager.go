package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// refreshKey is the singleflight key. One session per client context means
// one coalescing domain; all concurrent refresh attempts share it.
const refreshKey = "refresh"

// Manager owns the session lifecycle: it is the only component that mutates
// the stored session, and every mutation is a whole-session replace or clear.
// Consumers read derived validity through EnsureValid.
type Manager struct {
	store   Store
	issuer  Issuer
	skew    time.Duration
	group   singleflight.Group
	nowTime func() time.Time
	log     zerolog.Logger
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithSkew overrides the proactive refresh window. It must stay below the
// access-token lifetime handed out by the issuing service.
func WithSkew(skew time.Duration) ManagerOption {
	return func(m *Manager) {
		m.skew = skew
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager initializes a new Manager with required dependencies.
func NewManager(store Store, issuer Issuer, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[NewManager] store is required")
	}
	if issuer == nil {
		return nil, errors.New("[NewManager] issuer is required")
	}

	m := &Manager{
		store:   store,
		issuer:  issuer,
		skew:    DefaultRefreshSkew,
		nowTime: time.Now,
		log:     zerolog.Nop(),
	}

	for _, opt := range options {
		opt(m)
	}

	return m, nil
}

// Login exchanges credentials for a token pair and stores the minted session,
// replacing any previous one.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	grant, err := m.issuer.Login(ctx, username, password)
	if err != nil {
		m.log.Warn().Err(err).Str("username", username).Msg("login rejected")
		return nil, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	sess := New(m.nowTime(), grant)
	if time.Duration(sess.ExpiresIn)*time.Second <= m.skew {
		m.log.Warn().
			Int("expires_in", sess.ExpiresIn).
			Dur("skew", m.skew).
			Msg("access token lifetime does not exceed the refresh skew; every check will refresh")
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("[Login] failed to store session: %w", err)
	}

	m.log.Info().Time("expires_at", sess.ExpiryTime()).Msg("session established")
	return sess, nil
}

// Logout revokes the refresh token on the issuing side (best effort) and
// clears the local session unconditionally.
func (m *Manager) Logout(ctx context.Context) error {
	sess, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("[Logout] failed to load session: %w", err)
	}

	if sess.Refreshable() {
		if err := m.issuer.Logout(ctx, sess.RefreshToken); err != nil {
			m.log.Warn().Err(err).Msg("issuer logout failed, clearing local session anyway")
		}
	}

	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("[Logout] failed to clear session: %w", err)
	}

	m.log.Info().Msg("session cleared")
	return nil
}

// EnsureValid returns a session whose access token can be used right now,
// refreshing it first when it is inside the skew window. At most one refresh
// round trip is in flight at any time; concurrent callers share its outcome.
// ErrNotAuthenticated means the caller must go through a full login.
func (m *Manager) EnsureValid(ctx context.Context) (*Session, error) {
	sess, err := m.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("[EnsureValid] failed to load session: %w", err)
	}

	switch sess.Check(m.nowTime(), m.skew) {
	case Valid:
		return sess, nil

	case NeedsRefresh:
		if sess.Refreshable() {
			return m.refresh(ctx, sess.AccessToken)
		}
		if !sess.Expired(m.nowTime()) {
			// No refresh token: usable until the hard expiry, then terminal.
			m.log.Warn().Time("expires_at", sess.ExpiryTime()).Msg("session has no refresh token and will expire")
			return sess, nil
		}
		if err := m.store.Clear(ctx); err != nil {
			m.log.Warn().Err(err).Msg("failed to clear expired session")
		}
		return nil, ErrNotAuthenticated

	default:
		// A stored pair with no usable access token can still be exchanged.
		if sess.Refreshable() {
			return m.refresh(ctx, sess.AccessToken)
		}
		return nil, ErrNotAuthenticated
	}
}

// ForceRefresh performs a coalesced refresh regardless of remaining lifetime.
// Used after a reactive 401, when the access token was invalidated before its
// advertised expiry.
func (m *Manager) ForceRefresh(ctx context.Context) (*Session, error) {
	sess, err := m.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("[ForceRefresh] failed to load session: %w", err)
	}
	if !sess.Refreshable() {
		return nil, ErrNotAuthenticated
	}
	return m.refresh(ctx, sess.AccessToken)
}

// Validity reports the current state without triggering any network call.
func (m *Manager) Validity(ctx context.Context) (Validity, error) {
	sess, err := m.store.Load(ctx)
	if err != nil {
		return Invalid, fmt.Errorf("[Validity] failed to load session: %w", err)
	}
	return sess.Check(m.nowTime(), m.skew), nil
}

// Profile fetches the user profile with the current access token, refreshing
// first if needed.
func (m *Manager) Profile(ctx context.Context) (*User, error) {
	sess, err := m.EnsureValid(ctx)
	if err != nil {
		return nil, err
	}

	user, err := m.issuer.Me(ctx, sess.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("[Profile] failed to fetch profile: %w", err)
	}
	return user, nil
}

// refresh exchanges the stored refresh token for a new session. All callers
// that arrive while an exchange is outstanding await the same outcome: the
// issuing service rotates refresh tokens on use, so a second concurrent call
// with the same token would be rejected. staleAccess is the access token the
// caller observed when it decided to refresh.
func (m *Manager) refresh(ctx context.Context, staleAccess string) (*Session, error) {
	// The in-flight exchange is shared state, not owned by any single caller,
	// so it must not die with the first caller's context.
	flightCtx := context.WithoutCancel(ctx)

	v, err, _ := m.group.Do(refreshKey, func() (interface{}, error) {
		// Re-load under the flight: a caller that lost the race to a refresh
		// which already completed must not spend the rotated token again.
		sess, err := m.store.Load(flightCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		if sess == nil {
			return nil, ErrNotAuthenticated
		}
		if sess.AccessToken != staleAccess {
			// Already replaced by an earlier flight.
			return sess, nil
		}
		if !sess.Refreshable() {
			return nil, ErrNotAuthenticated
		}

		grant, err := m.issuer.Refresh(flightCtx, sess.RefreshToken)
		if err != nil {
			// Fail fast: a rejected refresh token will not become valid by
			// retrying. Clear and require a fresh login.
			m.log.Warn().Err(err).Msg("token refresh failed, clearing session")
			if cerr := m.store.Clear(flightCtx); cerr != nil {
				m.log.Error().Err(cerr).Msg("failed to clear session after refresh failure")
			}
			return nil, ErrNotAuthenticated
		}

		fresh := New(m.nowTime(), grant)
		if err := m.store.Save(flightCtx, fresh); err != nil {
			return nil, fmt.Errorf("failed to store refreshed session: %w", err)
		}

		m.log.Debug().Time("expires_at", fresh.ExpiryTime()).Msg("session refreshed")
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}
