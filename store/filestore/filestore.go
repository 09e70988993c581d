// Package filestore persists the session as JSON on disk so it survives
// process restarts. The token record and the denormalized profile snapshot
// live in separate files under one directory.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aeroprep/go-session-client/session"
)

const (
	sessionFile = "session.json"
	userFile    = "user.json"

	fileMode = 0o600
	dirMode  = 0o700
)

var _ session.Store = (*Store)(nil)

type Store struct {
	dir string
}

// New creates a file-backed store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("[filestore.New] dir is required")
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("[filestore.New] failed to create %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Save(_ context.Context, sess *session.Session) error {
	record := *sess
	record.User = nil

	if err := s.writeJSON(sessionFile, &record); err != nil {
		return fmt.Errorf("[filestore.Save] %w", err)
	}

	if sess.User == nil {
		return removeIfExists(filepath.Join(s.dir, userFile))
	}
	if err := s.writeJSON(userFile, sess.User); err != nil {
		return fmt.Errorf("[filestore.Save] %w", err)
	}
	return nil
}

func (s *Store) Load(_ context.Context) (*session.Session, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, sessionFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[filestore.Load] %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal(raw, &sess); err != nil || sess.AccessToken == "" {
		// Corrupt state reads as absent.
		return nil, nil
	}

	if rawUser, err := os.ReadFile(filepath.Join(s.dir, userFile)); err == nil {
		var user session.User
		if err := json.Unmarshal(rawUser, &user); err == nil {
			sess.User = &user
		}
	}

	return &sess, nil
}

func (s *Store) Clear(_ context.Context) error {
	if err := removeIfExists(filepath.Join(s.dir, sessionFile)); err != nil {
		return fmt.Errorf("[filestore.Clear] %w", err)
	}
	if err := removeIfExists(filepath.Join(s.dir, userFile)); err != nil {
		return fmt.Errorf("[filestore.Clear] %w", err)
	}
	return nil
}

// writeJSON replaces the target file through a rename so a crash mid-write
// never leaves a truncated record behind.
func (s *Store) writeJSON(name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, payload, fileMode); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(s.dir, name))
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
