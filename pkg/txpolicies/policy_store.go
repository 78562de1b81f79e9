package txpolicies

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourusername/txpolicies/core"
	"github.com/yourusername/txpolicies/logging"
	"github.com/yourusername/txpolicies/store"
)

// Mutation names passed to Recorder.RecordMutation
const (
	OpInsert     = "insert"
	OpRemove     = "remove"
	OpSetDefault = "set_default"
)

// Recorder receives lookup and mutation events, typically *metrics.Metrics.
// Implementations are called on the packet path and must not block.
type Recorder interface {
	RecordLookup(addr core.HardwareAddress, src core.Source)
	RecordMutation(op string, ok bool)
}

// Entry is one per-station record of the table
type Entry struct {
	Address core.HardwareAddress `json:"address"`
	Policy  core.Policy          `json:"policy"`
}

// snapshot is an immutable view of the table. A published snapshot is never
// modified; writers build a new one and swap it in.
type snapshot struct {
	table map[core.HardwareAddress]core.Policy
	def   core.Policy
}

func (s *snapshot) withEntry(addr core.HardwareAddress, p core.Policy) *snapshot {
	next := &snapshot{
		table: make(map[core.HardwareAddress]core.Policy, len(s.table)+1),
		def:   s.def,
	}
	for k, v := range s.table {
		next.table[k] = v
	}
	next.table[addr] = p
	return next
}

func (s *snapshot) without(addr core.HardwareAddress) *snapshot {
	next := &snapshot{
		table: make(map[core.HardwareAddress]core.Policy, len(s.table)),
		def:   s.def,
	}
	for k, v := range s.table {
		if k != addr {
			next.table[k] = v
		}
	}
	return next
}

func (s *snapshot) withDefault(p core.Policy) *snapshot {
	return &snapshot{table: s.table, def: p}
}

// PolicyStore maps station addresses to transmission policies with a single
// default used as fallback and as the universe inserted rates are
// intersected against.
//
// Reads are lock-free and see either the whole state before or the whole
// state after any mutation. Mutations are serialized among themselves.
type PolicyStore struct {
	current atomic.Pointer[snapshot]
	mu      sync.Mutex // serializes writers

	name           string
	logger         *slog.Logger
	recorder       Recorder
	persist        store.Store
	persistTimeout time.Duration
	seed           *Seed
}

// NewPolicyStore creates a PolicyStore with the given options.
// Without options the store starts with an empty default and no entries.
//
// Example:
//
//	ps, err := NewPolicyStore(
//	    WithConfigFile("policies.yaml"),
//	    WithPersistence(store.NewRedisStore(store.RedisConfig{Addr: "localhost:6379"})),
//	)
func NewPolicyStore(opts ...Option) (*PolicyStore, error) {
	ps := &PolicyStore{
		name:           "txpolicies",
		logger:         slog.Default(),
		persistTimeout: 2 * time.Second,
	}

	for _, opt := range opts {
		if err := opt(ps); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	initial := &snapshot{
		table: make(map[core.HardwareAddress]core.Policy),
		def:   core.NewPolicy(),
	}
	if ps.seed != nil {
		if ps.seed.Default != nil {
			initial.def = ps.seed.Default.Clone()
		}
		for addr, p := range ps.seed.Entries {
			initial.table[addr] = p.Clone()
		}
	}
	ps.current.Store(initial)

	return ps, nil
}

// Restore overlays the state saved in the persistence backend onto the
// current table. A saved default replaces the current one; saved entries
// replace seeded entries for the same station.
func (ps *PolicyStore) Restore(ctx context.Context) error {
	if ps.persist == nil {
		return nil
	}

	saved, err := ps.persist.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: load: %v", ErrPersistFailed, err)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	cur := ps.current.Load()
	next := &snapshot{
		table: make(map[core.HardwareAddress]core.Policy, len(cur.table)+len(saved.Entries)),
		def:   cur.def,
	}
	for k, v := range cur.table {
		next.table[k] = v
	}
	for addr, p := range saved.Entries {
		if addr.IsZero() {
			ps.logger.Warn("skipping saved policy with zero address",
				logging.FieldEventID, "RESTORE_INVALID_ADDR",
				logging.FieldStore, ps.name,
			)
			continue
		}
		next.table[addr] = p.Clone()
	}
	if saved.Default != nil {
		next.def = saved.Default.Clone()
	}

	ps.current.Store(next)
	ps.logger.Info("policy table restored",
		logging.FieldStore, ps.name,
		"entries", len(next.table),
		"restored", len(saved.Entries),
	)
	return nil
}

// Lookup returns the policy to transmit to addr with. It never fails: the
// zero address yields an empty record, a known station its own record, an
// unknown station the default when the default has rates, and an empty
// record otherwise. The result is a copy owned by the caller.
func (ps *PolicyStore) Lookup(addr core.HardwareAddress) core.Policy {
	p, _ := ps.Resolve(addr)
	return p
}

// Resolve is Lookup that also reports where the policy came from
func (ps *PolicyStore) Resolve(addr core.HardwareAddress) (core.Policy, core.Source) {
	p, src := ps.resolve(addr, true)
	if ps.recorder != nil {
		ps.recorder.RecordLookup(addr, src)
	}
	return p, src
}

// Supported returns the station's explicit record, or an empty record when it
// has none. It never falls back to the default.
func (ps *PolicyStore) Supported(addr core.HardwareAddress) core.Policy {
	p, _ := ps.resolve(addr, false)
	return p
}

func (ps *PolicyStore) resolve(addr core.HardwareAddress, fallback bool) (core.Policy, core.Source) {
	if addr.IsZero() {
		ps.logger.Warn("lookup called with zero address",
			logging.FieldEventID, "LOOKUP_INVALID_ADDR",
			logging.FieldStore, ps.name,
		)
		return core.NewPolicy(), core.SourceInvalid
	}

	snap := ps.current.Load()

	if p, ok := snap.table[addr]; ok {
		return p.Clone(), core.SourceStation
	}
	if fallback && !snap.def.IsEmpty() {
		return snap.def.Clone(), core.SourceDefault
	}
	return core.NewPolicy(), core.SourceEmpty
}

// InsertOption overrides one of the flags Insert would otherwise default
type InsertOption func(*core.Policy)

// WithNoAck sets whether acknowledgments are suppressed for the station
func WithNoAck(noAck bool) InsertOption {
	return func(p *core.Policy) { p.NoAck = noAck }
}

// WithRateSelection sets the station's rate selection strategy
func WithRateSelection(sel core.RateSelection) InsertOption {
	return func(p *core.Policy) { p.RateSelection = sel }
}

// WithRTSCTSThreshold sets the station's RTS/CTS threshold in bytes
func WithRTSCTSThreshold(threshold int) InsertOption {
	return func(p *core.Policy) { p.RTSCTSThreshold = threshold }
}

// Insert creates or replaces the entry for addr. Flags not given by opts take
// their defaults (ack on, broadcast selection, 2436 byte RTS/CTS threshold).
// When the default policy has rates, only requested rates that also appear in
// the default are kept, in requested order.
func (ps *PolicyStore) Insert(addr core.HardwareAddress, rates []int, opts ...InsertOption) error {
	_, err := ps.Upsert(addr, rates, opts...)
	return err
}

// Upsert is Insert that also returns a copy of the record it stored.
func (ps *PolicyStore) Upsert(addr core.HardwareAddress, rates []int, opts ...InsertOption) (core.Policy, error) {
	if addr.IsZero() {
		ps.logger.Warn("insert called with zero address",
			logging.FieldEventID, "INSERT_INVALID_ADDR",
			logging.FieldStore, ps.name,
		)
		ps.recordMutation(OpInsert, false)
		return core.Policy{}, fmt.Errorf("%w: cannot insert %s", ErrInvalidAddress, addr)
	}

	rec := core.NewPolicy()
	for _, opt := range opts {
		opt(&rec)
	}
	if err := rec.Validate(); err != nil {
		ps.recordMutation(OpInsert, false)
		return core.Policy{}, fmt.Errorf("%w: %s: %w", ErrInvalidPolicy, addr, err)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	cur := ps.current.Load()
	rec.Rates = core.IntersectRates(rates, cur.def.Rates)

	if err := ps.persistPut(addr, rec); err != nil {
		ps.recordMutation(OpInsert, false)
		return core.Policy{}, err
	}

	ps.current.Store(cur.withEntry(addr, rec))
	ps.recordMutation(OpInsert, true)

	ps.logger.Debug("station policy inserted",
		logging.FieldStore, ps.name,
		logging.FieldAddress, addr.String(),
		"policy", rec.String(),
	)
	return rec.Clone(), nil
}

// Remove deletes the entry for addr. It fails for the zero address and for
// stations with no entry. The default policy is never affected.
func (ps *PolicyStore) Remove(addr core.HardwareAddress) error {
	if addr.IsZero() {
		ps.logger.Warn("remove called with zero address",
			logging.FieldEventID, "REMOVE_INVALID_ADDR",
			logging.FieldStore, ps.name,
		)
		ps.recordMutation(OpRemove, false)
		return fmt.Errorf("%w: cannot remove %s", ErrInvalidAddress, addr)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	cur := ps.current.Load()
	if _, ok := cur.table[addr]; !ok {
		ps.recordMutation(OpRemove, false)
		return fmt.Errorf("%w: %s", ErrNotFound, addr)
	}

	if ps.persist != nil {
		ctx, cancel := context.WithTimeout(context.Background(), ps.persistTimeout)
		defer cancel()
		if err := ps.persist.Delete(ctx, addr); err != nil {
			ps.logPersistError(OpRemove, addr, err)
			ps.recordMutation(OpRemove, false)
			return fmt.Errorf("%w: remove %s: %v", ErrPersistFailed, addr, err)
		}
	}

	ps.current.Store(cur.without(addr))
	ps.recordMutation(OpRemove, true)

	ps.logger.Debug("station policy removed",
		logging.FieldStore, ps.name,
		logging.FieldAddress, addr.String(),
	)
	return nil
}

// SetDefault replaces the default policy. Existing station entries keep the
// rates they were stored with; they are not intersected again.
func (ps *PolicyStore) SetDefault(p core.Policy) error {
	if err := p.Validate(); err != nil {
		ps.recordMutation(OpSetDefault, false)
		return fmt.Errorf("%w: default: %w", ErrInvalidPolicy, err)
	}
	p = p.Clone()

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.persist != nil {
		ctx, cancel := context.WithTimeout(context.Background(), ps.persistTimeout)
		defer cancel()
		if err := ps.persist.PutDefault(ctx, p); err != nil {
			ps.logPersistError(OpSetDefault, core.ZeroAddress, err)
			ps.recordMutation(OpSetDefault, false)
			return fmt.Errorf("%w: default: %v", ErrPersistFailed, err)
		}
	}

	ps.current.Store(ps.current.Load().withDefault(p))
	ps.recordMutation(OpSetDefault, true)

	ps.logger.Info("default policy replaced",
		logging.FieldStore, ps.name,
		"policy", p.String(),
	)
	return nil
}

// Default returns a copy of the default policy
func (ps *PolicyStore) Default() core.Policy {
	return ps.current.Load().def.Clone()
}

// Entries returns copies of all station entries ordered by address
func (ps *PolicyStore) Entries() []Entry {
	return ps.current.Load().entries()
}

func (s *snapshot) entries() []Entry {
	out := make([]Entry, 0, len(s.table))
	for addr, p := range s.table {
		out = append(out, Entry{Address: addr, Policy: p.Clone()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.Less(out[j].Address)
	})
	return out
}

// Len returns the number of station entries
func (ps *PolicyStore) Len() int {
	return len(ps.current.Load().table)
}

// Name returns the name used in diagnostics
func (ps *PolicyStore) Name() string {
	return ps.name
}

func (ps *PolicyStore) persistPut(addr core.HardwareAddress, p core.Policy) error {
	if ps.persist == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), ps.persistTimeout)
	defer cancel()

	if err := ps.persist.Put(ctx, addr, p); err != nil {
		ps.logPersistError(OpInsert, addr, err)
		return fmt.Errorf("%w: insert %s: %v", ErrPersistFailed, addr, err)
	}
	return nil
}

func (ps *PolicyStore) logPersistError(op string, addr core.HardwareAddress, err error) {
	ps.logger.Error("persisting policy change failed",
		logging.FieldEventID, "PERSIST_ERR",
		logging.FieldStore, ps.name,
		"op", op,
		logging.FieldAddress, addr.String(),
		logging.FieldError, err,
	)
}

func (ps *PolicyStore) recordMutation(op string, ok bool) {
	if ps.recorder != nil {
		ps.recorder.RecordMutation(op, ok)
	}
}
