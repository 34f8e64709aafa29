// Package tokenstore holds the single bearer token that represents the
// current session. The token is opaque: it is written on login, attached to
// outbound requests, and removed on logout or when the server rejects it.
package tokenstore

import (
	"os"
	"path/filepath"
	"strings"
)

// Store is the durable key-value surface for the session token. At most one
// token is stored; Set overwrites any prior value.
type Store interface {
	// Get returns the stored token, or ok=false when none is stored.
	Get() (token string, ok bool)
	// Set persists the token, replacing any existing one.
	Set(token string) error
	// Clear removes the stored token. Clearing an empty store is not an error.
	Clear() error
}

// FileStore persists the token to a file, surviving restarts the way
// browser storage survives reloads. The file is private to the user.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get() (string, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", false
	}
	return token, true
}

func (s *FileStore) Set(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0o600)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemStore keeps the token in memory. Used under test and anywhere
// persistence across runs is unwanted.
type MemStore struct {
	token string
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Get() (string, bool) {
	if s.token == "" {
		return "", false
	}
	return s.token, true
}

func (s *MemStore) Set(token string) error {
	s.token = token
	return nil
}

func (s *MemStore) Clear() error {
	s.token = ""
	return nil
}
