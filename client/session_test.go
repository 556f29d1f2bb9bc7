package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcmontage", "token")
	session := NewSessionAt(path)

	assert.Empty(t, session.Token(), "fresh session has no token")

	assert.NoError(t, session.SetToken("abc123"))
	assert.Equal(t, "abc123", session.Token())

	// The slot survives a new Session over the same file
	assert.Equal(t, "abc123", NewSessionAt(path).Token())

	info, err := os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.NoError(t, session.Clear())
	assert.Empty(t, session.Token())
}

func TestSessionSetEmptyTokenClears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	session := NewSessionAt(path)

	assert.NoError(t, session.SetToken("abc123"))
	assert.NoError(t, session.SetToken(""))
	assert.Empty(t, session.Token())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty token must remove the file")
}

func TestSessionClearIsIdempotent(t *testing.T) {
	session := NewSessionAt(filepath.Join(t.TempDir(), "token"))
	assert.NoError(t, session.Clear())
	assert.NoError(t, session.Clear())
}
