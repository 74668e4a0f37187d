package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// advanceScript atomically advances a per-vehicle sequence number. It
// returns 1 only when seq is strictly greater than the stored value, so a
// redelivered reading can never win the race against a newer one.
var advanceScript = redis.NewScript(`
local last = tonumber(redis.call('GET', KEYS[1]) or '-1')
local seq = tonumber(ARGV[1])
if seq > last then
	redis.call('SET', KEYS[1], ARGV[1])
	return 1
end
return 0
`)

// SequenceStore 车辆序列号守卫
type SequenceStore struct {
	client *redis.Client
}

// NewSequenceStore creates the redis-backed sequence guard.
func NewSequenceStore(client *redis.Client) *SequenceStore {
	return &SequenceStore{client: client}
}

// Advance returns whether seq supersedes the last applied sequence for
// the vehicle, updating it atomically when it does.
func (s *SequenceStore) Advance(ctx context.Context, vehicleID string, seq int64) (bool, error) {
	key := fmt.Sprintf("fleet:seq:%s", vehicleID)
	applied, err := advanceScript.Run(ctx, s.client, []string{key}, seq).Int()
	if err != nil {
		return false, fmt.Errorf("sequence advance failed: %w", err)
	}
	return applied == 1, nil
}

// StateStore 车辆最新状态快照
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStateStore creates the redis-backed latest-state snapshot store.
func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	return &StateStore{client: client, ttl: ttl}
}

// UpdateVehicleState merges fields into the vehicle's state hash and
// refreshes its TTL in one pipeline round trip.
func (s *StateStore) UpdateVehicleState(ctx context.Context, vehicleID string, fields map[string]interface{}) error {
	key := fmt.Sprintf("fleet:state:%s", vehicleID)

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("state update failed: %w", err)
	}
	return nil
}
