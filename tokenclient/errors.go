package tokenclient

import "errors"

var (
	// ErrInvalidCredentials is returned when /login rejects the username or
	// password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRefreshRejected is returned when /refresh refuses the refresh token
	// (expired, revoked, or already rotated).
	ErrRefreshRejected = errors.New("refresh token rejected")

	// ErrUnavailable is returned on transport failures and server errors.
	ErrUnavailable = errors.New("token service unavailable")

	// ErrMalformedResponse is returned when a 2xx response cannot be
	// validated into a usable grant.
	ErrMalformedResponse = errors.New("malformed token service response")
)
