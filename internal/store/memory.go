package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps namespaces in process memory. Used for tests and
// ephemeral development runs; contents are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailSaves forces Save to report ErrUnavailable. Lets tests
	// exercise the all-or-nothing paths in registry and ledger.
	FailSaves bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Load decodes a namespace from memory.
func (s *MemoryStore) Load(ctx context.Context, namespace string, dest any) (bool, error) {
	s.mu.RLock()
	data, ok := s.data[namespace]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", namespace, err)
	}
	return true, nil
}

// Save encodes and replaces a namespace.
func (s *MemoryStore) Save(ctx context.Context, namespace string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", namespace, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return fmt.Errorf("%w: save disabled", ErrUnavailable)
	}
	s.data[namespace] = data
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
