package store

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/yourusername/txpolicies/core"
)

// MemoryStore keeps persisted policies in process memory.
// It's thread-safe and mostly useful for tests and single-shot tools.
type MemoryStore struct {
	entries sync.Map // map[core.HardwareAddress]core.Policy
	def     atomic.Pointer[core.Policy]
}

// Ensure MemoryStore implements Store interface
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns copies of everything saved so far
func (s *MemoryStore) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Entries: make(map[core.HardwareAddress]core.Policy)}

	if def := s.def.Load(); def != nil {
		c := def.Clone()
		snap.Default = &c
	}

	s.entries.Range(func(key, value interface{}) bool {
		snap.Entries[key.(core.HardwareAddress)] = value.(core.Policy).Clone()
		return true
	})

	return snap, nil
}

// Put saves the record for a station
func (s *MemoryStore) Put(ctx context.Context, addr core.HardwareAddress, policy core.Policy) error {
	s.entries.Store(addr, policy.Clone())
	return nil
}

// Delete removes the record for a station
func (s *MemoryStore) Delete(ctx context.Context, addr core.HardwareAddress) error {
	s.entries.Delete(addr)
	return nil
}

// PutDefault saves the default policy
func (s *MemoryStore) PutDefault(ctx context.Context, policy core.Policy) error {
	c := policy.Clone()
	s.def.Store(&c)
	return nil
}

// Clear removes all saved state
func (s *MemoryStore) Clear() {
	s.entries.Range(func(key, value interface{}) bool {
		s.entries.Delete(key)
		return true
	})
	s.def.Store(nil)
}
