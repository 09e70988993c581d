package session

import (
	"time"
)

// DefaultRefreshSkew is the lookahead window before the hard access-token
// expiry at which a refresh is triggered. Refreshing proactively keeps the
// round trip invisible to callers; waiting for a 401 does not.
const DefaultRefreshSkew = 5 * time.Minute

// Validity is the answer to "can this session be used right now".
type Validity int

const (
	// Invalid means no usable session exists.
	Invalid Validity = iota
	// NeedsRefresh means the access token is inside the skew window (or past
	// expiry) and should be exchanged before use.
	NeedsRefresh
	// Valid means the access token can be used as-is, no network call needed.
	Valid
)

func (v Validity) String() string {
	switch v {
	case NeedsRefresh:
		return "needs-refresh"
	case Valid:
		return "valid"
	default:
		return "invalid"
	}
}

// User is a denormalized profile snapshot captured at login/refresh time.
// Display only; the issuing service remains authoritative.
type User struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Session holds the token pair issued by the token service plus the expiry
// derived at mint time. ExpiresAt is unix milliseconds, computed once per
// (re)mint and never adjusted independently of one.
type Session struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	ExpiresAt        int64  `json:"expires_at"`
	User             *User  `json:"user,omitempty"`
}

// Grant is the validated outcome of a successful login or refresh call
// against the token issuing service.
type Grant struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int // access token lifetime, seconds
	RefreshExpiresIn int // refresh token lifetime, seconds
	User             *User
}

// New mints a Session from a grant, deriving the expiry from the given mint
// time and the access-token lifetime.
func New(mintedAt time.Time, grant *Grant) *Session {
	return &Session{
		AccessToken:      grant.AccessToken,
		RefreshToken:     grant.RefreshToken,
		ExpiresIn:        grant.ExpiresIn,
		RefreshExpiresIn: grant.RefreshExpiresIn,
		ExpiresAt:        mintedAt.Add(time.Duration(grant.ExpiresIn) * time.Second).UnixMilli(),
		User:             grant.User,
	}
}

// ExpiryTime returns the derived access-token expiry.
func (s *Session) ExpiryTime() time.Time {
	return time.UnixMilli(s.ExpiresAt)
}

// Refreshable reports whether the session carries a refresh token. A session
// without one is terminal once its access token expires.
func (s *Session) Refreshable() bool {
	return s != nil && s.RefreshToken != ""
}

// Expired reports whether the access token is past its hard expiry.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiryTime())
}

// Check classifies the session at the given time. The skew window must be
// smaller than the access-token lifetime or every check reports NeedsRefresh.
func (s *Session) Check(now time.Time, skew time.Duration) Validity {
	if s == nil || s.AccessToken == "" {
		return Invalid
	}
	if !now.Before(s.ExpiryTime().Add(-skew)) {
		return NeedsRefresh
	}
	return Valid
}
