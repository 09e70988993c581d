package session

import "errors"

var (
	// ErrNotAuthenticated is the single signal surfaced when no valid session
	// can be produced: nothing stored, the refresh token was rejected, or the
	// issuing service could not be reached. The remedy is always a new login.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrLoginFailed is returned when the issuing service rejects credentials.
	ErrLoginFailed = errors.New("login failed")
)
