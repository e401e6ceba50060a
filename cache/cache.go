// Package cache implements the two-tier result cache: a process-local
// memory tier in front of a durable per-k record store.
//
// Both tiers validate against the dataset before serving. The memory tier
// requires the entry's dataset tag to match the provider's current tag and
// the entry to be younger than the TTL. The durable tier requires the
// record's write time to be strictly newer than the dataset artifact's
// last modification, and, when the record carries one, a matching dataset
// tag. A record written in the same instant the dataset changed is stale.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fleetsense/clusterkit/kmeans"
	"github.com/fleetsense/clusterkit/resultstore"
)

// DefaultTTL bounds the age of memory-tier entries.
const DefaultTTL = 5 * time.Minute

// Tier identifies where a lookup was served from.
type Tier int

const (
	TierNone Tier = iota
	TierMemory
	TierDurable
)

func (t Tier) String() string {
	switch t {
	case TierMemory:
		return "memory"
	case TierDurable:
		return "durable"
	default:
		return "none"
	}
}

// Stats counts cache outcomes since construction.
type Stats struct {
	MemoryHits  int64
	DurableHits int64
	Misses      int64
}

type memEntry struct {
	result     *kmeans.Result
	datasetTag string
	storedAt   time.Time
}

// Cache is the two-tier result cache. Safe for concurrent use.
type Cache struct {
	durable resultstore.Store
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[int]memEntry

	wg sync.WaitGroup

	memoryHits  atomic.Int64
	durableHits atomic.Int64
	misses      atomic.Int64
}

// Options configures the cache.
type Options struct {
	// TTL bounds memory-tier entry age. Zero means DefaultTTL.
	TTL time.Duration
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Now overrides the clock; for tests.
	Now func() time.Time
}

// New creates a cache over the given durable store.
func New(durable resultstore.Store, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		durable: durable,
		ttl:     opts.TTL,
		logger:  opts.Logger,
		now:     opts.Now,
		entries: make(map[int]memEntry),
	}
}

// Lookup returns the cached result for k if either tier holds a fresh one.
// datasetTag and datasetModified describe the current dataset artifact. A
// durable hit populates the memory tier before returning. A miss returns
// (nil, TierNone, nil).
func (c *Cache) Lookup(ctx context.Context, k int, datasetTag string, datasetModified time.Time) (*kmeans.Result, Tier, error) {
	now := c.now()

	c.mu.Lock()
	entry, ok := c.entries[k]
	if ok && entry.datasetTag == datasetTag && now.Sub(entry.storedAt) < c.ttl {
		c.mu.Unlock()
		c.memoryHits.Add(1)
		return entry.result, TierMemory, nil
	}
	c.mu.Unlock()

	env, err := c.durable.Load(ctx, k)
	if err != nil {
		if errors.Is(err, resultstore.ErrNotFound) {
			c.misses.Add(1)
			return nil, TierNone, nil
		}
		// A broken durable tier degrades to a miss; the caller recomputes.
		c.logger.Warn("durable cache load failed", "k", k, "error", err)
		c.misses.Add(1)
		return nil, TierNone, nil
	}

	if !env.WrittenAt.After(datasetModified) {
		c.misses.Add(1)
		return nil, TierNone, nil
	}
	if env.DatasetTag != "" && env.DatasetTag != datasetTag {
		c.misses.Add(1)
		return nil, TierNone, nil
	}

	c.mu.Lock()
	c.entries[k] = memEntry{result: env.Result, datasetTag: datasetTag, storedAt: now}
	c.mu.Unlock()

	c.durableHits.Add(1)
	return env.Result, TierDurable, nil
}

// Store caches the result for k in both tiers. The memory tier is updated
// synchronously; the durable write runs in the background and its failure
// is logged, never surfaced. Flush waits for pending durable writes.
func (c *Cache) Store(_ context.Context, k int, datasetTag string, result *kmeans.Result) {
	c.mu.Lock()
	c.entries[k] = memEntry{result: result, datasetTag: datasetTag, storedAt: c.now()}
	c.mu.Unlock()

	env := &resultstore.Envelope{DatasetTag: datasetTag, Result: result}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		// Detached from the request context: the write must outlive the
		// request that triggered it.
		if err := c.durable.Save(context.Background(), k, env); err != nil {
			c.logger.Error("durable cache write failed", "k", k, "error", err)
		}
	}()
}

// StoreSync writes both tiers synchronously; sweeps use it so the tally
// reflects completed persistence.
func (c *Cache) StoreSync(ctx context.Context, k int, datasetTag string, result *kmeans.Result) error {
	c.mu.Lock()
	c.entries[k] = memEntry{result: result, datasetTag: datasetTag, storedAt: c.now()}
	c.mu.Unlock()

	return c.durable.Save(ctx, k, &resultstore.Envelope{DatasetTag: datasetTag, Result: result})
}

// Invalidate drops every memory-tier entry. Durable records stay; the
// freshness rule rejects them once the dataset artifact is newer.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[int]memEntry)
	c.mu.Unlock()
}

// Flush blocks until all pending durable writes have finished.
func (c *Cache) Flush() {
	c.wg.Wait()
}

// Stats returns the outcome counters.
func (c *Cache) Stats() Stats {
	return Stats{
		MemoryHits:  c.memoryHits.Load(),
		DurableHits: c.durableHits.Load(),
		Misses:      c.misses.Load(),
	}
}
