// Package kvstore provides the obfuscated key/value store behind the notes
// engine. Values are wrapped in a timestamped envelope, XOR-scrambled
// against a per-install secret, and written to a pluggable Medium. Callers
// never see storage failures: writes are logged and swallowed, reads fall
// back to a caller-supplied default.
package kvstore

import "sync"

// Medium is the raw persistence layer under the store. Implementations
// store opaque text under string keys.
type Medium interface {
	// Get returns the raw entry and whether it exists.
	Get(key string) (string, bool, error)
	// Set writes the raw entry, replacing any previous value.
	Set(key, value string) error
	// Delete removes the entry. Deleting an absent key is not an error.
	Delete(key string) error
	// Close releases any resources held by the medium.
	Close() error
}

// MemMedium is a process-local in-memory Medium. It backs the store when
// no persistent medium is available, so callers never need to branch on
// availability. Contents do not survive the process.
type MemMedium struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemMedium creates an empty in-memory medium.
func NewMemMedium() *MemMedium {
	return &MemMedium{entries: make(map[string]string)}
}

func (m *MemMedium) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *MemMedium) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *MemMedium) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Close is a no-op for MemMedium.
func (m *MemMedium) Close() error { return nil }

var _ Medium = (*MemMedium)(nil)
