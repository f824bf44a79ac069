package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/redis"
)

const (
	runKeyPrefix = "sentiment:run:"
	latestKey    = "sentiment:latest"
)

// RunKey returns the Redis key holding the summary of runID.
func RunKey(runID string) string {
	return runKeyPrefix + runID
}

// KeyValueStore is satisfied by *redis.Client.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetAll(ctx context.Context, entries ...redis.Entry) error
}

// RedisRecorder stores each run under its own expiring key and mirrors the
// newest run under sentiment:latest.
type RedisRecorder struct {
	store KeyValueStore
	ttl   time.Duration
}

func NewRedisRecorder(store KeyValueStore, ttl time.Duration) *RedisRecorder {
	return &RedisRecorder{store: store, ttl: ttl}
}

func (r *RedisRecorder) Name() string { return "redis" }

func (r *RedisRecorder) Publish(ctx context.Context, s Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}
	return r.store.SetAll(ctx,
		redis.Entry{Key: RunKey(s.RunID), Value: data, TTL: r.ttl},
		redis.Entry{Key: latestKey, Value: data},
	)
}

// Latest returns the newest recorded run, or nil, nil when none exists.
func (r *RedisRecorder) Latest(ctx context.Context) (*Summary, error) {
	return r.load(ctx, latestKey)
}

// Run returns the recorded run with the given ID, or nil, nil when it has
// expired or never existed.
func (r *RedisRecorder) Run(ctx context.Context, runID string) (*Summary, error) {
	return r.load(ctx, RunKey(runID))
}

func (r *RedisRecorder) load(ctx context.Context, key string) (*Summary, error) {
	raw, err := r.store.Get(ctx, key)
	if redis.IsNilError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	var s Summary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("unmarshaling %s: %w", key, err)
	}
	return &s, nil
}
