package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations. Values are stored JSON-encoded;
// Get decodes into dest, which must be a pointer.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Close() error
}

// GetOrLoad returns the cached value for key or calls load and caches its result.
// Cache failures never fail the call; they are reported through onCacheErr when non-nil.
func GetOrLoad[T any](ctx context.Context, c Service, key string, ttl time.Duration,
	load func(context.Context) (T, error), onCacheErr func(error)) (T, bool, error) {
	var v T
	err := c.Get(ctx, key, &v)
	if err == nil {
		return v, true, nil
	}
	if !errors.Is(err, ErrCacheMiss) && onCacheErr != nil {
		onCacheErr(err)
	}

	v, err = load(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	if err := c.Set(ctx, key, v, ttl); err != nil && onCacheErr != nil {
		onCacheErr(err)
	}
	return v, false, nil
}
