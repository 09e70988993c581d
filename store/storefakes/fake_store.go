// Package storefakes provides in-memory fakes with error injection for
// exercising store-failure paths in tests.
package storefakes

import (
	"context"
	"sync"
	"time"

	"github.com/aeroprep/go-session-client/session"
	"github.com/aeroprep/go-session-client/store"
)

var _ session.Store = (*FakeStore)(nil)

// FakeStore is an in-memory session.Store that counts calls and can be made
// to fail on demand.
type FakeStore struct {
	SaveErr  error
	LoadErr  error
	ClearErr error

	mu         sync.Mutex
	sess       *session.Session
	saveCalls  int
	loadCalls  int
	clearCalls int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (f *FakeStore) Save(_ context.Context, sess *session.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saveCalls++
	if f.SaveErr != nil {
		return f.SaveErr
	}
	copied := *sess
	f.sess = &copied
	return nil
}

func (f *FakeStore) Load(_ context.Context) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.loadCalls++
	if f.LoadErr != nil {
		return nil, f.LoadErr
	}
	if f.sess == nil {
		return nil, nil
	}
	copied := *f.sess
	return &copied, nil
}

func (f *FakeStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clearCalls++
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.sess = nil
	return nil
}

func (f *FakeStore) SaveCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveCalls
}

func (f *FakeStore) ClearCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clearCalls
}

var _ store.Mirror = (*FakeMirror)(nil)

// FakeMirror records mirror writes so tests can assert on the mirrored copy
// and its max-age.
type FakeMirror struct {
	SetErr   error
	ClearErr error

	mu         sync.Mutex
	sess       *session.Session
	lastMaxAge time.Duration
	setCalls   int
	clearCalls int
}

func NewFakeMirror() *FakeMirror {
	return &FakeMirror{}
}

func (f *FakeMirror) Set(sess *session.Session, maxAge time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.setCalls++
	if f.SetErr != nil {
		return f.SetErr
	}
	copied := *sess
	f.sess = &copied
	f.lastMaxAge = maxAge
	return nil
}

func (f *FakeMirror) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clearCalls++
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.sess = nil
	f.lastMaxAge = 0
	return nil
}

func (f *FakeMirror) Mirrored() *session.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sess
}

func (f *FakeMirror) LastMaxAge() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastMaxAge
}

func (f *FakeMirror) ClearCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clearCalls
}
