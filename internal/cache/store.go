package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"pagebuilder/internal/log"
)

const (
	// ChromeTTL bounds the life of a rendered header or footer fragment.
	ChromeTTL = 24 * time.Hour
	// PageTTL bounds the life of a page lookup.
	PageTTL = time.Hour

	DefaultCleanupInterval = 30 * time.Minute
)

// Store is the key/value backend behind every cache in the process. A non-nil
// error means the backend is unavailable; callers fail open.
type Store interface {
	Get(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Flush(ctx context.Context) error
}

// NewInMemoryStore creates a process-local store backed by go-cache.
func NewInMemoryStore(useCase string, defaultExpiration, cleanupInterval time.Duration) *InMemoryStore {
	return &InMemoryStore{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

// InMemoryStore implements Store on top of go-cache.
type InMemoryStore struct {
	useCase string
	cache   *gocache.Cache
}

var _ Store = (*InMemoryStore)(nil)

func (s *InMemoryStore) Get(_ context.Context, key string) (any, bool, error) {
	value, found := s.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	log.Debug(log.CatCache, "cache hit", "store", s.useCase, "key", key)
	return value, true, nil
}

func (s *InMemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	s.cache.Set(key, value, ttl)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.cache.Delete(key)
	}
	return nil
}

func (s *InMemoryStore) Flush(_ context.Context) error {
	s.cache.Flush()
	return nil
}

// Len returns the number of live items, expired ones included until cleanup.
func (s *InMemoryStore) Len() int {
	return s.cache.ItemCount()
}
