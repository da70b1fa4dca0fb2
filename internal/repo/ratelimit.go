package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RatelimitStore keeps each user's cooldown deadline in Redis as unix milliseconds.
type RatelimitStore struct {
	rdb *redis.Client
}

func NewRatelimitStore(rdb *redis.Client) *RatelimitStore {
	return &RatelimitStore{rdb: rdb}
}

func ratelimitKey(userID uint64) string {
	return fmt.Sprintf("ratelimit:%d", userID)
}

// Get returns the stored deadline, or ok=false when none is set.
func (s *RatelimitStore) Get(ctx context.Context, userID uint64) (time.Time, bool, error) {
	raw, err := s.rdb.Get(ctx, ratelimitKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("bad ratelimit value %q: %w", raw, err)
	}
	return time.UnixMilli(ms), true, nil
}

// Set stores the deadline. The key expires shortly after the deadline passes.
func (s *RatelimitStore) Set(ctx context.Context, userID uint64, until time.Time) error {
	ttl := time.Until(until) + time.Minute
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return s.rdb.Set(ctx, ratelimitKey(userID), strconv.FormatInt(until.UnixMilli(), 10), ttl).Err()
}

// Clear removes the deadline.
func (s *RatelimitStore) Clear(ctx context.Context, userID uint64) error {
	return s.rdb.Del(ctx, ratelimitKey(userID)).Err()
}
