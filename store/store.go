// Package store provides session storage backends and the best-effort mirror
// used by server-readable route guards. The primary store is authoritative;
// the mirror is a convenience copy and is never consulted by the session
// manager itself.
package store

import (
	"time"

	"github.com/aeroprep/go-session-client/session"
)

// Mirror is a secondary, best-effort copy of the session readable by
// non-script contexts (route guards, middleware). A mirror write failure
// never fails the authoritative save.
type Mirror interface {
	// Set replaces the mirrored copy. maxAge matches the access-token
	// lifetime, not the refresh lifetime: the mirror must not outlive what
	// the access token alone makes valid without a refresh check.
	Set(sess *session.Session, maxAge time.Duration) error

	// Clear removes the mirrored copy. Idempotent.
	Clear() error
}
