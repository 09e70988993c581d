// Package memstore holds the session in process memory. Suitable for tests
// and single-process tools; nothing survives a restart.
package memstore

import (
	"context"
	"sync"

	"github.com/aeroprep/go-session-client/session"
)

var _ session.Store = (*Store)(nil)

type Store struct {
	mu   sync.RWMutex
	sess *session.Session
}

func New() *Store {
	return &Store{}
}

func (s *Store) Save(_ context.Context, sess *session.Session) error {
	copied := *sess
	if sess.User != nil {
		user := *sess.User
		copied.User = &user
	}

	s.mu.Lock()
	s.sess = &copied
	s.mu.Unlock()
	return nil
}

func (s *Store) Load(_ context.Context) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sess == nil {
		return nil, nil
	}
	copied := *s.sess
	if s.sess.User != nil {
		user := *s.sess.User
		copied.User = &user
	}
	return &copied, nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	s.sess = nil
	s.mu.Unlock()
	return nil
}
