package notation

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// missMarker is cached for short forms that have no entry so repeated
// misses do not reach the backing store.
const missMarker = "\x00"

const cacheKeyPrefix = "notation:"

// DefaultCacheCooldown is how long lookups skip the cache after it fails.
const DefaultCacheCooldown = 30 * time.Second

// Cache is the key/value cache sitting in front of a Store.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// CachedStore serves lookups from the cache and falls back to the backing
// store. Cache failures are logged and never fail the lookup. After a failure
// the cache is bypassed for the cooldown so an outage costs one slow call,
// not one per token.
type CachedStore struct {
	store    Store
	cache    Cache
	ttl      time.Duration
	cooldown time.Duration
	now      func() time.Time
	// bypassUntil is a UnixNano deadline, zero while the cache is in use.
	bypassUntil atomic.Int64
}

func NewCachedStore(store Store, cache Cache, ttl time.Duration) *CachedStore {
	return &CachedStore{
		store:    store,
		cache:    cache,
		ttl:      ttl,
		cooldown: DefaultCacheCooldown,
		now:      time.Now,
	}
}

func (s *CachedStore) cacheUsable() bool {
	until := s.bypassUntil.Load()
	return until == 0 || s.now().UnixNano() >= until
}

func (s *CachedStore) tripCache(op, key string, err error) {
	s.bypassUntil.Store(s.now().Add(s.cooldown).UnixNano())
	slog.Warn("[NotationCache] Cache "+op+" failed, bypassing cache",
		slog.String("key", key),
		slog.Duration("cooldown", s.cooldown),
		slog.String("error", err.Error()))
}

func (s *CachedStore) Lookup(ctx context.Context, shortForm string) (string, bool, error) {
	key := cacheKeyPrefix + strings.ToLower(shortForm)

	useCache := s.cacheUsable()
	if useCache {
		cached, hit, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.tripCache("read", key, err)
			useCache = false
		case hit:
			if cached == missMarker {
				return "", false, nil
			}
			return cached, true, nil
		}
	}

	longForm, ok, err := s.store.Lookup(ctx, shortForm)
	if err != nil {
		return "", false, err
	}

	if !useCache {
		return longForm, ok, nil
	}

	value := longForm
	if !ok {
		value = missMarker
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.tripCache("write", key, err)
	}
	return longForm, ok, nil
}

func (s *CachedStore) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// PingCache probes the cache alone. Lookups keep working when it is down.
func (s *CachedStore) PingCache(ctx context.Context) error {
	return s.cache.Ping(ctx)
}
