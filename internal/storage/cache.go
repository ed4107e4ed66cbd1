package storage

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// CachingBackend decorates a Backend with a read-through cache.
//
// Reads are served from memory once loaded. Every write goes to the wrapped
// backend first and then clears the whole cache, so the next read reloads
// from the backend. The cache is never the system of record.
//
// Individual map accesses are synchronized, but a clear is not coordinated
// with a GetAll already in flight: a GetAll that read the backend before a
// concurrent write may repopulate the cache with pre-write data. This is
// acceptable for a single interactive writer and is intentionally not
// guarded further.
type CachingBackend struct {
	inner Backend

	mu     sync.RWMutex
	byID   map[int64]Task
	order  []int64
	loaded bool // byID holds the full result of the last GetAll

	hits          prometheus.Counter
	misses        prometheus.Counter
	invalidations prometheus.Counter
}

// CacheOption configures a CachingBackend.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	registerer prometheus.Registerer
}

// WithRegisterer registers the cache counters on reg.
//
// Without it the counters are still maintained but not registered anywhere.
func WithRegisterer(reg prometheus.Registerer) CacheOption {
	return func(o *cacheOptions) {
		o.registerer = reg
	}
}

// CacheStats is a point-in-time copy of the cache counters.
type CacheStats struct {
	Hits          float64
	Misses        float64
	Invalidations float64
	Entries       int
}

// NewCachingBackend wraps inner with an empty cache.
func NewCachingBackend(inner Backend, opts ...CacheOption) *CachingBackend {
	var o cacheOptions
	for _, opt := range opts {
		opt(&o)
	}

	factory := promauto.With(o.registerer)
	return &CachingBackend{
		inner: inner,
		byID:  make(map[int64]Task),
		hits: factory.NewCounter(prometheus.CounterOpts{
			Name: "tasks_cache_hits_total",
			Help: "Number of reads served from the task cache",
		}),
		misses: factory.NewCounter(prometheus.CounterOpts{
			Name: "tasks_cache_misses_total",
			Help: "Number of reads delegated to the storage backend",
		}),
		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Name: "tasks_cache_invalidations_total",
			Help: "Number of whole-cache clears caused by writes",
		}),
	}
}

// Inner returns the wrapped backend.
func (c *CachingBackend) Inner() Backend {
	return c.inner
}

// GetAll returns the cached snapshot if one is loaded, otherwise reads the
// backend and caches the result.
func (c *CachingBackend) GetAll() ([]Task, error) {
	c.mu.RLock()
	if c.loaded {
		result := make([]Task, 0, len(c.order))
		for _, id := range c.order {
			result = append(result, c.byID[id])
		}
		c.mu.RUnlock()
		c.hits.Inc()
		return result, nil
	}
	c.mu.RUnlock()

	c.misses.Inc()
	tasks, err := c.inner.GetAll()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byID = make(map[int64]Task, len(tasks))
	c.order = make([]int64, 0, len(tasks))
	for _, t := range tasks {
		c.byID[t.ID] = t
		c.order = append(c.order, t.ID)
	}
	c.loaded = true
	c.mu.Unlock()

	result := make([]Task, len(tasks))
	copy(result, tasks)
	return result, nil
}

// GetByID returns the cached task or reads it from the backend, caching a hit.
//
// A single-task fill does not count as a full snapshot; GetAll still goes to
// the backend afterwards.
func (c *CachingBackend) GetByID(id int64) (Task, bool, error) {
	c.mu.RLock()
	t, ok := c.byID[id]
	c.mu.RUnlock()
	if ok {
		c.hits.Inc()
		return t, true, nil
	}

	c.misses.Inc()
	t, ok, err := c.inner.GetByID(id)
	if err != nil || !ok {
		return t, ok, err
	}

	c.mu.Lock()
	c.byID[id] = t
	c.mu.Unlock()

	return t, true, nil
}

// Add delegates to the backend and clears the cache.
func (c *CachingBackend) Add(t Task) (Task, error) {
	defer c.Invalidate()
	return c.inner.Add(t)
}

// Update delegates to the backend and clears the cache.
func (c *CachingBackend) Update(t Task) error {
	defer c.Invalidate()
	return c.inner.Update(t)
}

// DeleteByID delegates to the backend and clears the cache.
func (c *CachingBackend) DeleteByID(id int64) error {
	defer c.Invalidate()
	return c.inner.DeleteByID(id)
}

// DeleteAll delegates to the backend and clears the cache.
func (c *CachingBackend) DeleteAll() error {
	defer c.Invalidate()
	return c.inner.DeleteAll()
}

// Invalidate drops every cached entry.
func (c *CachingBackend) Invalidate() {
	c.mu.Lock()
	c.byID = make(map[int64]Task)
	c.order = nil
	c.loaded = false
	c.mu.Unlock()
	c.invalidations.Inc()
}

// Len returns the number of cached tasks.
func (c *CachingBackend) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Stats returns the current counter values.
func (c *CachingBackend) Stats() CacheStats {
	return CacheStats{
		Hits:          counterValue(c.hits),
		Misses:        counterValue(c.misses),
		Invalidations: counterValue(c.invalidations),
		Entries:       c.Len(),
	}
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
