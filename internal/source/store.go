package source

import "sync"

// MemoryStore is a Store holding text in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	value string
}

// NewMemoryStore creates a store with the given initial text.
func NewMemoryStore(text string) *MemoryStore {
	return &MemoryStore{value: text}
}

// Value returns the stored text.
func (s *MemoryStore) Value() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// SetValue replaces the stored text.
func (s *MemoryStore) SetValue(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
}
