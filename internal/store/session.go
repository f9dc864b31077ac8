package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tailorshop-be/internal/user"
)

// Persisted is what survives between console runs. Role picks the
// collections the next run hydrates.
type Persisted struct {
	UserID string    `json:"userId"`
	Token  string    `json:"token"`
	Role   user.Role `json:"role,omitempty"`
}

// SessionFile keeps the current-user id and token on disk.
type SessionFile struct {
	path string
}

func NewSessionFile(path string) *SessionFile {
	return &SessionFile{path: path}
}

// DefaultSessionPath is ~/.tailorshop/session.json, or a file in the
// working directory when there is no home.
func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tailorshop-session.json"
	}
	return filepath.Join(home, ".tailorshop", "session.json")
}

// Load returns the zero value when nothing has been saved yet.
func (f *SessionFile) Load() (Persisted, error) {
	var p Persisted
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Persisted{}, fmt.Errorf("session file %s: %w", f.path, err)
	}
	return p, nil
}

func (f *SessionFile) Save(p Persisted) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, raw, 0o600)
}

func (f *SessionFile) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
