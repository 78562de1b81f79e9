package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/yourusername/txpolicies/core"
)

// ErrBackendUnavailable is returned while the Redis circuit breaker is open
var ErrBackendUnavailable = errors.New("policy backend unavailable")

// RedisStore persists the policy table in Redis.
// Station records live in one hash keyed by address; the default is a plain key.
type RedisStore struct {
	client     *redis.Client
	cb         *gobreaker.CircuitBreaker
	tableKey   string
	defaultKey string
}

// Ensure RedisStore implements Store interface
var _ Store = (*RedisStore)(nil)

// RedisConfig for creating a Redis store
type RedisConfig struct {
	Addr      string // Redis address (e.g., "localhost:6379")
	Password  string // Redis password (empty for no auth)
	DB        int    // Redis database number
	KeyPrefix string // Key namespace (default: "txpolicies")

	// Breaker settings; zero values pick the defaults below
	FailureThreshold uint32        // consecutive failures before opening (default: 5)
	OpenTimeout      time.Duration // how long the breaker stays open (default: 30s)
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(config RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "txpolicies"
	}
	threshold := config.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := config.OpenTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    prefix + "-redis",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change",
				"event_id", "CB_STATE",
				"cb_name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &RedisStore{
		client:     client,
		cb:         cb,
		tableKey:   prefix + ":table",
		defaultKey: prefix + ":default",
	}
}

// execute runs fn through the breaker and maps open-state errors
func (s *RedisStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	res, err := s.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrBackendUnavailable
	}
	return res, err
}

// Load reads the default and every station record
func (s *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	res, err := s.execute(func() (interface{}, error) {
		snap := &Snapshot{Entries: make(map[core.HardwareAddress]core.Policy)}

		raw, err := s.client.Get(ctx, s.defaultKey).Result()
		switch {
		case errors.Is(err, redis.Nil):
			// no default saved yet
		case err != nil:
			return nil, fmt.Errorf("get %s: %w", s.defaultKey, err)
		default:
			var def core.Policy
			if err := json.Unmarshal([]byte(raw), &def); err != nil {
				return nil, fmt.Errorf("decode default policy: %w", err)
			}
			snap.Default = &def
		}

		fields, err := s.client.HGetAll(ctx, s.tableKey).Result()
		if err != nil {
			return nil, fmt.Errorf("hgetall %s: %w", s.tableKey, err)
		}
		for field, value := range fields {
			addr, err := core.ParseHardwareAddress(field)
			if err != nil {
				return nil, fmt.Errorf("field %q in %s: %w", field, s.tableKey, err)
			}
			var p core.Policy
			if err := json.Unmarshal([]byte(value), &p); err != nil {
				return nil, fmt.Errorf("decode policy for %s: %w", addr, err)
			}
			snap.Entries[addr] = p
		}

		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*Snapshot), nil
}

// Put saves the record for a station
func (s *RedisStore) Put(ctx context.Context, addr core.HardwareAddress, policy core.Policy) error {
	data, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("encode policy for %s: %w", addr, err)
	}

	_, err = s.execute(func() (interface{}, error) {
		return nil, s.client.HSet(ctx, s.tableKey, addr.String(), data).Err()
	})
	return err
}

// Delete removes the record for a station
func (s *RedisStore) Delete(ctx context.Context, addr core.HardwareAddress) error {
	_, err := s.execute(func() (interface{}, error) {
		return nil, s.client.HDel(ctx, s.tableKey, addr.String()).Err()
	})
	return err
}

// PutDefault saves the default policy
func (s *RedisStore) PutDefault(ctx context.Context, policy core.Policy) error {
	data, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("encode default policy: %w", err)
	}

	_, err = s.execute(func() (interface{}, error) {
		return nil, s.client.Set(ctx, s.defaultKey, data, 0).Err()
	})
	return err
}

// Clear removes the table and default keys
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.tableKey, s.defaultKey).Err()
}

// Ping checks if Redis connection is alive
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
