package session

import "context"

// Store is the interface for durable storage of the current session.
// One session exists per client context at a time; Save replaces it wholesale.
// Implementations live under store/.
type Store interface {
	// Save overwrites any previously stored session.
	Save(ctx context.Context, sess *Session) error

	// Load returns the stored session, or (nil, nil) when no session is
	// stored or the stored data is malformed. Corrupt state is treated as
	// absent, never as an error.
	Load(ctx context.Context) (*Session, error)

	// Clear removes the stored session. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}

// Issuer is the interface to the external token issuing service.
// Implemented by tokenclient.Client.
type Issuer interface {
	// Login exchanges credentials for a fresh token pair.
	Login(ctx context.Context, username, password string) (*Grant, error)

	// Refresh exchanges a refresh token for a new token pair. Most issuers
	// rotate (invalidate) the presented refresh token on use.
	Refresh(ctx context.Context, refreshToken string) (*Grant, error)

	// Logout revokes the refresh token on the issuing side. Best effort.
	Logout(ctx context.Context, refreshToken string) error

	// Me fetches the profile for the bearer of the access token.
	Me(ctx context.Context, accessToken string) (*User, error)
}
