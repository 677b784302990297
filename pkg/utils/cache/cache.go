package cache

import (
	"context"
	"errors"
)

// based on github.com/kittpat1413/go-common/framework/cache/cache.go

var ErrCacheMiss = errors.New("cache miss")

// LoaderFunc loads the value for key on a cache miss
type LoaderFunc[K comparable, V any] func(ctx context.Context, key K) (*V, error)

type Cache[K comparable, V any] interface {
	// Get returns the cached value or loads it with the configured loader
	Get(ctx context.Context, key K) (*V, error)
	// GetWith returns the cached value or loads it with lf
	GetWith(ctx context.Context, key K, lf LoaderFunc[K, V]) (*V, error)
	Put(ctx context.Context, key K, value *V)
	Invalidate(ctx context.Context, key K)
	Len() int
}
