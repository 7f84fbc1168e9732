package cache

import (
	"context"
	"time"

	"pagebuilder/internal/log"
)

// Remember returns the cached value for key or computes, stores and returns
// it. Store failures never fail the call: a broken Get falls through to fn and
// a broken Set is logged. Errors from fn are returned and nothing is stored.
func Remember[V any](ctx context.Context, store Store, key string, ttl time.Duration, fn func(ctx context.Context) (V, error)) (V, error) {
	if store == nil {
		return fn(ctx)
	}

	raw, found, err := store.Get(ctx, key)
	if err != nil {
		log.Warn(log.CatCache, "cache get failed, computing directly", "key", key, "error", err)
		return fn(ctx)
	}
	if found {
		if v, ok := raw.(V); ok {
			return v, nil
		}
		log.Error(log.CatCache, "wrong type assertion when getting value", "key", key)
	}

	value, err := fn(ctx)
	if err != nil {
		return value, err
	}

	if err := store.Set(ctx, key, value, ttl); err != nil {
		log.Warn(log.CatCache, "cache set failed", "key", key, "error", err)
	}
	return value, nil
}

// Peek returns the cached value for key without computing anything. Store
// failures and type mismatches read as a miss.
func Peek[V any](ctx context.Context, store Store, key string) (V, bool) {
	var zero V
	if store == nil {
		return zero, false
	}
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		log.Warn(log.CatCache, "cache get failed", "key", key, "error", err)
		return zero, false
	}
	if !found {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "key", key)
	}
	return v, ok
}

// Put stores value under key, logging instead of failing when the store is
// down.
func Put(ctx context.Context, store Store, key string, value any, ttl time.Duration) {
	if store == nil {
		return
	}
	if err := store.Set(ctx, key, value, ttl); err != nil {
		log.Warn(log.CatCache, "cache set failed", "key", key, "error", err)
	}
}

// Forget deletes keys, logging instead of failing when the store is down.
func Forget(ctx context.Context, store Store, keys ...string) {
	if store == nil || len(keys) == 0 {
		return
	}
	if err := store.Delete(ctx, keys...); err != nil {
		log.Warn(log.CatCache, "cache delete failed", "keys", keys, "error", err)
	}
}
