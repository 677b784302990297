package cache

import (
	"context"

	"github.com/mpapenbr/speedview-sync/log"
	"github.com/mpapenbr/speedview-sync/pkg/model"
	utilcache "github.com/mpapenbr/speedview-sync/pkg/utils/cache"
	"github.com/mpapenbr/speedview-sync/pkg/utils/cache/loadercache"
)

// EntityCache maps natural keys to resolved entities for the duration of one run.
// Each key is loaded at most once, failed loads are retried on the next call.
type EntityCache[K comparable, V any] struct {
	c utilcache.Cache[K, V]
}

func NewEntityCache[K comparable, V any](name string) *EntityCache[K, V] {
	return &EntityCache[K, V]{
		c: loadercache.New(
			loadercache.WithLogger[K, V](log.Default().Named("cache." + name)),
		),
	}
}

// GetOrCreate returns the cached entity or calls create to look it up
// (and possibly store it).
func (e *EntityCache[K, V]) GetOrCreate(
	ctx context.Context,
	key K,
	create func(ctx context.Context, key K) (*V, error),
) (*V, error) {
	return e.c.GetWith(ctx, key, create)
}

// Lookup returns the cached entity without loading
func (e *EntityCache[K, V]) Lookup(ctx context.Context, key K) (*V, bool) {
	v, err := e.c.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	return v, true
}

func (e *EntityCache[K, V]) Put(ctx context.Context, key K, value *V) {
	e.c.Put(ctx, key, value)
}

func (e *EntityCache[K, V]) Len() int {
	return e.c.Len()
}

// Set bundles the caches used while resolving parents
type Set struct {
	Meetings *EntityCache[int32, model.Meeting]
	Sessions *EntityCache[int32, model.Session]
	Drivers  *EntityCache[int16, model.Driver]
	Teams    *EntityCache[string, model.Team]
}

// NewSet creates empty caches. Call once per run.
func NewSet() *Set {
	return &Set{
		Meetings: NewEntityCache[int32, model.Meeting]("meeting"),
		Sessions: NewEntityCache[int32, model.Session]("session"),
		Drivers:  NewEntityCache[int16, model.Driver]("driver"),
		Teams:    NewEntityCache[string, model.Team]("team"),
	}
}
