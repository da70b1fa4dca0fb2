package repo

import (
	"Go_Share/model"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const CacheKeyUserInfo = "user:info"

// UserFinder loads users by id.
type UserFinder interface {
	FindUserByID(ctx context.Context, id uint64) (*model.User, error)
}

// CachedUsers keeps user rows in Redis as JSON so every authenticated request
// does not hit MySQL.
type CachedUsers struct {
	next UserFinder
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCachedUsers(next UserFinder, rdb *redis.Client, ttl time.Duration) *CachedUsers {
	return &CachedUsers{next: next, rdb: rdb, ttl: ttl}
}

func userCacheKey(id uint64) string {
	return fmt.Sprintf("%s:%d", CacheKeyUserInfo, id)
}

// FindUserByID reads through the cache. Cache failures fall back to the store.
func (c *CachedUsers) FindUserByID(ctx context.Context, id uint64) (*model.User, error) {
	key := userCacheKey(id)
	if raw, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var user model.User
		if err := json.Unmarshal([]byte(raw), &user); err == nil {
			return &user, nil
		}
	}
	user, err := c.next.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(user)
	if err != nil {
		return user, nil
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("user cache: set %s failed: %v", key, err)
	}
	return user, nil
}

// Invalidate drops a cached user.
func (c *CachedUsers) Invalidate(ctx context.Context, id uint64) error {
	return c.rdb.Del(ctx, userCacheKey(id)).Err()
}
