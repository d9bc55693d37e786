package loader

import (
	"context"

	"github.com/edaniels/golog"
	"golang.org/x/sync/singleflight"
)

// Manager coalesces concurrent loads of the same cloud and caches finished
// results. Concurrent callers asking for one id share a single flight: the
// first caller's context and options drive it, so followers get the shared
// result but their progress callbacks are not invoked. Only successful loads
// reach the cache; a cancelled or failed flight leaves no entry behind.
type Manager struct {
	source Source
	logger golog.Logger
	cache  *Cache
	group  singleflight.Group
}

// NewManager returns a Manager reading from source and caching into cache.
func NewManager(source Source, cache *Cache, logger golog.Logger) *Manager {
	return &Manager{source: source, logger: logger, cache: cache}
}

// Cache exposes the manager's cache for stats and invalidation.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Load returns the cloud for id, serving from cache when possible and
// otherwise running one shared load. Each flight gets its own Loader, so
// loads of different ids proceed in parallel without superseding each other.
func (m *Manager) Load(ctx context.Context, id string, opts Options) (*Result, error) {
	if res, ok := m.cache.Get(id); ok {
		return res, nil
	}
	v, err, _ := m.group.Do(id, func() (interface{}, error) {
		// A flight that finished while we were queueing already cached the
		// result.
		if res, ok := m.cache.Get(id); ok {
			return res, nil
		}
		res, err := NewLoader(m.source, m.logger).Load(ctx, id, opts)
		if err != nil {
			return nil, err
		}
		m.cache.Set(id, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// Invalidate drops any cached result for id, forcing the next Load to fetch
// it again.
func (m *Manager) Invalidate(id string) {
	m.cache.Remove(id)
}
