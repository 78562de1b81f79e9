package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourusername/txpolicies/core"
	"github.com/yourusername/txpolicies/pkg/txpolicies"
)

// Metrics tracks policy lookup and mutation statistics.
// Recording never takes a lock shared with other stations, so it is safe on
// the packet path.
type Metrics struct {
	totalLookups   atomic.Int64
	stationHits    atomic.Int64
	defaultHits    atomic.Int64
	emptyHits      atomic.Int64
	invalidLookups atomic.Int64

	inserts         atomic.Int64
	removes         atomic.Int64
	defaultUpdates  atomic.Int64
	failedMutations atomic.Int64

	// Per-station stats
	stations  sync.Map // map[core.HardwareAddress]*stationCounter
	startTime time.Time
}

// Ensure Metrics implements txpolicies.Recorder
var _ txpolicies.Recorder = (*Metrics)(nil)

type stationCounter struct {
	lookups      atomic.Int64
	firstLookup  time.Time
	lastLookupNs atomic.Int64
}

// StationStats tracks lookups that hit a station's own entry
type StationStats struct {
	Address       string    `json:"address"`
	Lookups       int64     `json:"lookups"`
	FirstLookupAt time.Time `json:"first_lookup_at"`
	LastLookupAt  time.Time `json:"last_lookup_at"`
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// RecordLookup records one resolved lookup
func (m *Metrics) RecordLookup(addr core.HardwareAddress, src core.Source) {
	m.totalLookups.Add(1)

	switch src {
	case core.SourceStation:
		m.stationHits.Add(1)
	case core.SourceDefault:
		m.defaultHits.Add(1)
		return
	case core.SourceEmpty:
		m.emptyHits.Add(1)
		return
	case core.SourceInvalid:
		m.invalidLookups.Add(1)
		return
	}

	// Only stations with an entry get per-station stats. Unknown source
	// addresses are unbounded and feed the aggregate counters only.
	now := time.Now()
	v, ok := m.stations.Load(addr)
	if !ok {
		v, _ = m.stations.LoadOrStore(addr, &stationCounter{firstLookup: now})
	}
	c := v.(*stationCounter)
	c.lookups.Add(1)
	c.lastLookupNs.Store(now.UnixNano())
}

// RecordMutation records an insert, remove or default update
func (m *Metrics) RecordMutation(op string, ok bool) {
	if !ok {
		m.failedMutations.Add(1)
		return
	}

	switch op {
	case txpolicies.OpInsert:
		m.inserts.Add(1)
	case txpolicies.OpRemove:
		m.removes.Add(1)
	case txpolicies.OpSetDefault:
		m.defaultUpdates.Add(1)
	}
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() *Snapshot {
	top := make([]*StationStats, 0)
	m.stations.Range(func(key, value interface{}) bool {
		c := value.(*stationCounter)
		top = append(top, &StationStats{
			Address:       key.(core.HardwareAddress).String(),
			Lookups:       c.lookups.Load(),
			FirstLookupAt: c.firstLookup,
			LastLookupAt:  time.Unix(0, c.lastLookupNs.Load()),
		})
		return true
	})

	// Sort by lookups (top 10)
	sort.Slice(top, func(i, j int) bool {
		if top[i].Lookups != top[j].Lookups {
			return top[i].Lookups > top[j].Lookups
		}
		return top[i].Address < top[j].Address
	})
	uniqueStations := int64(len(top))
	if len(top) > 10 {
		top = top[:10]
	}

	uptime := time.Since(m.startTime)

	return &Snapshot{
		TotalLookups:    m.totalLookups.Load(),
		StationHits:     m.stationHits.Load(),
		DefaultHits:     m.defaultHits.Load(),
		EmptyHits:       m.emptyHits.Load(),
		InvalidLookups:  m.invalidLookups.Load(),
		Inserts:         m.inserts.Load(),
		Removes:         m.removes.Load(),
		DefaultUpdates:  m.defaultUpdates.Load(),
		FailedMutations: m.failedMutations.Load(),
		UniqueStations:  uniqueStations,
		TopStations:     top,
		UptimeSeconds:   int64(uptime.Seconds()),
		StartTime:       m.startTime,
	}
}

// Snapshot represents a point-in-time view of metrics
type Snapshot struct {
	TotalLookups    int64           `json:"total_lookups"`
	StationHits     int64           `json:"station_hits"`
	DefaultHits     int64           `json:"default_hits"`
	EmptyHits       int64           `json:"empty_hits"`
	InvalidLookups  int64           `json:"invalid_lookups"`
	Inserts         int64           `json:"inserts"`
	Removes         int64           `json:"removes"`
	DefaultUpdates  int64           `json:"default_updates"`
	FailedMutations int64           `json:"failed_mutations"`
	UniqueStations  int64           `json:"unique_stations"`
	TopStations     []*StationStats `json:"top_stations"`
	UptimeSeconds   int64           `json:"uptime_seconds"`
	StartTime       time.Time       `json:"start_time"`
}
