package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface. Values are stored as JSON and
// decoded into dest on Get.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Close() error
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. hit reports whether the value came from the cache. Cache failures
// other than a miss are returned in cacheErr without failing the call.
func GetOrLoad[T any](ctx context.Context, c Service, key string, ttl time.Duration, load func() (T, error)) (v T, hit bool, cacheErr error, err error) {
	if gerr := c.Get(ctx, key, &v); gerr == nil {
		return v, true, nil, nil
	} else if !errors.Is(gerr, ErrCacheMiss) {
		cacheErr = gerr
	}

	v, err = load()
	if err != nil {
		return v, false, cacheErr, err
	}
	if serr := c.Set(ctx, key, v, ttl); serr != nil && cacheErr == nil {
		cacheErr = serr
	}
	return v, false, cacheErr, nil
}
