package streams

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"

	"github.com/redis/go-redis/v9"
)

// Subscribe reads the batch stream from its first entry until a terminal
// event arrives or ctx is done.
func (b *RedisBroker) Subscribe(ctx context.Context, batchID string) (<-chan Event, error) {
	if err := b.rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		key := StreamKey(batchID)
		lastID := "0"

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			streams, err := b.rdb.XRead(ctx, &redis.XReadArgs{
				Streams: []string{key, lastID},
				Count:   10,
				Block:   5000, // 5 seconds
			}).Result()

			if err == redis.Nil {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// Blocking reads return a timeout when no messages arrive
				// within the Block duration; this is normal.
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					continue
				}
				slog.Error("Failed to read from stream", "stream", key, "error", err)
				return
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					lastID = message.ID

					payloadStr, ok := message.Values["payload"].(string)
					if !ok {
						slog.Error("Invalid message payload", "message_id", message.ID)
						continue
					}

					var ev Event
					if err := json.Unmarshal([]byte(payloadStr), &ev); err != nil {
						slog.Error("Failed to unmarshal event", "error", err, "message_id", message.ID)
						continue
					}

					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
					if ev.Terminal() {
						return
					}
				}
			}
		}
	}()
	return out, nil
}
