package store

import (
	"context"

	"github.com/yourusername/txpolicies/core"
)

// Store defines the interface for persisting the policy table.
// Records handed to a Store are already validated and intersected;
// backends save and return them verbatim.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Put(ctx context.Context, addr core.HardwareAddress, policy core.Policy) error
	Delete(ctx context.Context, addr core.HardwareAddress) error
	PutDefault(ctx context.Context, policy core.Policy) error
}

// Snapshot is the persisted state of a policy table
type Snapshot struct {
	Default *core.Policy                          // nil when no default was ever saved
	Entries map[core.HardwareAddress]core.Policy // per-station records
}
