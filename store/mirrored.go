package store

import (
	"context"
	"errors"
	"time"

	"github.com/aeroprep/go-session-client/session"
	"github.com/rs/zerolog"
)

var _ session.Store = (*Mirrored)(nil)

// Mirrored composes a primary store with a best-effort mirror. Saves and
// clears fan out to both; loads only ever read the primary.
type Mirrored struct {
	primary session.Store
	mirror  Mirror
	log     zerolog.Logger
}

// MirroredOption configures a Mirrored store.
type MirroredOption func(*Mirrored)

// WithLogger sets the logger used for reporting swallowed mirror failures.
func WithLogger(log zerolog.Logger) MirroredOption {
	return func(m *Mirrored) {
		m.log = log
	}
}

// NewMirrored wraps a primary store with a mirror.
func NewMirrored(primary session.Store, mirror Mirror, options ...MirroredOption) (*Mirrored, error) {
	if primary == nil {
		return nil, errors.New("[NewMirrored] primary store is required")
	}
	if mirror == nil {
		return nil, errors.New("[NewMirrored] mirror is required")
	}

	m := &Mirrored{
		primary: primary,
		mirror:  mirror,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Save writes the primary copy, then mirrors it with a max-age equal to the
// access-token lifetime. The primary write is authoritative; a mirror failure
// is logged and swallowed.
func (m *Mirrored) Save(ctx context.Context, sess *session.Session) error {
	if err := m.primary.Save(ctx, sess); err != nil {
		return err
	}

	maxAge := time.Duration(sess.ExpiresIn) * time.Second
	if err := m.mirror.Set(sess, maxAge); err != nil {
		m.log.Warn().Err(err).Msg("mirror write failed, primary store remains authoritative")
	}
	return nil
}

// Load reads from the primary store only.
func (m *Mirrored) Load(ctx context.Context) (*session.Session, error) {
	return m.primary.Load(ctx)
}

// Clear removes both copies. Idempotent; a mirror failure is logged only.
func (m *Mirrored) Clear(ctx context.Context) error {
	err := m.primary.Clear(ctx)
	if merr := m.mirror.Clear(); merr != nil {
		m.log.Warn().Err(merr).Msg("mirror clear failed")
	}
	return err
}
