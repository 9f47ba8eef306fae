package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/userposts/pkg/model"
)

// ErrSnapshotNotFound indicates no snapshot is stored under the key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// DefaultKeyPrefix namespaces every key written by the Redis sink.
const DefaultKeyPrefix = "userposts"

// SnapshotKey identifies a stored snapshot.
type SnapshotKey struct {
	// Prefix namespaces the key (e.g. "userposts")
	Prefix string

	// RunID selects one run; empty means the latest snapshot
	RunID string
}

// String builds the Redis key.
// Format: prefix:snapshot:latest or prefix:snapshot:run:<run_id>
func (k SnapshotKey) String() string {
	prefix := strings.Trim(k.Prefix, ":")
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if k.RunID == "" {
		return prefix + ":snapshot:latest"
	}
	return prefix + ":snapshot:run:" + k.RunID
}

// Redis publishes snapshots as JSON strings with a TTL, once under the run
// key and once under the latest key, in a single transaction.
type Redis struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis sink. A ttl <= 0 stores keys without expiry.
func NewRedis(redisClient *redis.Client, prefix string, ttl time.Duration) *Redis {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{
		redis:  redisClient,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Write implements Sink.
func (r *Redis) Write(ctx context.Context, runID string, users []model.EnrichedUser) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	data, err := encode(users, false)
	if err != nil {
		SinkErrors.WithLabelValues("redis").Inc()
		return err
	}

	runKey := SnapshotKey{Prefix: r.prefix, RunID: runID}.String()
	latestKey := SnapshotKey{Prefix: r.prefix}.String()

	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, runKey, data, r.ttl)
		pipe.Set(ctx, latestKey, data, r.ttl)
		return nil
	})
	if err != nil {
		SinkErrors.WithLabelValues("redis").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	SinkWrites.WithLabelValues("redis").Inc()
	SinkBytes.WithLabelValues("redis").Set(float64(len(data)))
	return nil
}

// Get reads a stored snapshot back.
// Returns ErrSnapshotNotFound if the key doesn't exist or has expired.
func (r *Redis) Get(ctx context.Context, key SnapshotKey) ([]model.EnrichedUser, error) {
	if key.Prefix == "" {
		key.Prefix = r.prefix
	}

	data, err := r.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var users []model.EnrichedUser
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return users, nil
}
