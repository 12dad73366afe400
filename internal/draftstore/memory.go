package draftstore

import (
	"sync"

	"github.com/kingrea/profile-wizard/internal/profile"
)

// MemoryStore holds the encoded draft in process memory. It goes through the
// same codec as the durable backends.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte

	saves int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (profile.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return profile.Draft{}, ErrNotFound
	}
	return decode(m.data, nopLogger, BackendMemory)
}

func (m *MemoryStore) Save(d profile.Draft) error {
	encoded, err := encode(d)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = encoded
	m.saves++
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

// SetRaw replaces the stored bytes verbatim.
func (m *MemoryStore) SetRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
}

// Saves returns how many times Save succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
