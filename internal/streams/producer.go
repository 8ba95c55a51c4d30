package streams

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBroker keeps one Redis stream per batch.
type RedisBroker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisBroker creates a broker for the given Redis URL.
func NewRedisBroker(redisURL string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	// Read timeout must exceed the XRead Block duration (5s)
	// to avoid spurious i/o timeout errors on idle streams.
	opts.ReadTimeout = 10 * time.Second

	return &RedisBroker{rdb: redis.NewClient(opts), ttl: StreamTTL}, nil
}

// Publish appends an event to the batch stream and refreshes its expiry in
// the same round trip.
func (b *RedisBroker) Publish(ctx context.Context, batchID string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := StreamKey(batchID)
	_, err = b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: key,
			MaxLen: 1000,
			Approx: true,
			Values: map[string]interface{}{
				"payload":        string(payload),
				"kind":           string(ev.Kind),
				"published_at":   time.Now().Unix(),
				"schema_version": SchemaVersionV1,
			},
		})
		pipe.Expire(ctx, key, b.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish batch %s event: %w", batchID, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

// Close closes the Redis client connection
func (b *RedisBroker) Close() error {
	return b.rdb.Close()
}
