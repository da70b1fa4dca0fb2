package service

import (
	"Go_Share/config"
	"Go_Share/model"
	"context"
	"fmt"
	"time"
)

// RateLimiter enforces the per-class upload cooldown.
type RateLimiter struct {
	store RatelimitStore
	cfg   config.UploaderConfig
	now   func() time.Time
}

func NewRateLimiter(store RatelimitStore, cfg config.UploaderConfig, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{store: store, cfg: cfg, now: now}
}

// Check rejects the upload while a cooldown is active and clears an expired
// deadline. It never starts a cooldown; Start does that once the upload succeeded.
func (r *RateLimiter) Check(ctx context.Context, user *model.User) error {
	now := r.now()
	until, ok, err := r.store.Get(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("read ratelimit: %w", err)
	}
	if ok {
		if until.After(now) {
			return &RateLimitedError{Remaining: until.Sub(now)}
		}
		if err := r.store.Clear(ctx, user.ID); err != nil {
			return fmt.Errorf("clear ratelimit: %w", err)
		}
	}
	return nil
}

// Start begins the cooldown of the user's class, if it has one.
func (r *RateLimiter) Start(ctx context.Context, user *model.User) error {
	now := r.now()
	if cooldown := r.cfg.Cooldown(user.Administrator); cooldown > 0 {
		if err := r.store.Set(ctx, user.ID, now.Add(cooldown)); err != nil {
			return fmt.Errorf("set ratelimit: %w", err)
		}
	}
	return nil
}
