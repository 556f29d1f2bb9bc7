package services

import (
	"context"
	"sync"
)

// MockArchive is an in-memory ArchiveInterface implementation for testing
type MockArchive struct {
	stored map[string][]byte
	mu     sync.RWMutex
}

// NewMockArchive creates a new mock archive
func NewMockArchive() *MockArchive {
	return &MockArchive{stored: make(map[string][]byte)}
}

// Store records the content under the given key
func (m *MockArchive) Store(ctx context.Context, key string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(content))
	copy(buf, content)
	m.stored[key] = buf
	return nil
}

// Stored returns the content stored under the given key, if any
func (m *MockArchive) Stored(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.stored[key]
	return content, ok
}
