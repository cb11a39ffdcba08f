package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// CounterStore implements ports.CounterStore on Redis. Window counters rely
// on Redis's atomic INCR; no application-level locking is involved.
type CounterStore struct {
	r redis.Cmdable
}

// NewCounterStore creates a Redis-backed counter store.
func NewCounterStore(r redis.Cmdable) *CounterStore {
	return &CounterStore{r: r}
}

// Get returns the current count for key. Missing keys read as zero.
func (s *CounterStore) Get(ctx context.Context, key string) (int64, error) {
	val, err := s.r.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

// Increment adds one to key and applies ttl in a single transaction so a
// counter created by a crashed window still expires on its own. The bucket
// index is part of the key, so refreshing the TTL on later increments
// never extends a counter into the next window.
func (s *CounterStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.r.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Decrement subtracts one from key. A counter that would drop below zero
// is deleted instead; a stray refund after the window expired must not
// leave a negative count for the next window's first read.
func (s *CounterStore) Decrement(ctx context.Context, key string) error {
	val, err := s.r.Decr(ctx, key).Result()
	if err != nil {
		return err
	}
	if val < 0 {
		return s.r.Del(ctx, key).Err()
	}
	return nil
}
