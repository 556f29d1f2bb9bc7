package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Session persists the bearer token in a single named slot on disk.
// An empty token means unauthenticated.
type Session struct {
	path string
}

// NewSession creates a session backed by the default token file under the
// user configuration directory
func NewSession() (*Session, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate config directory: %w", err)
	}
	return NewSessionAt(filepath.Join(dir, "pcmontage", "token")), nil
}

// NewSessionAt creates a session backed by the given token file
func NewSessionAt(path string) *Session {
	return &Session{path: path}
}

// Token returns the stored token, or "" when none is stored
func (s *Session) Token() string {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(content))
}

// SetToken stores the token; an empty token clears the slot
func (s *Session) SetToken(token string) error {
	if token == "" {
		return s.Clear()
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("failed to write session token: %w", err)
	}
	return nil
}

// Clear removes the stored token
func (s *Session) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	return nil
}
