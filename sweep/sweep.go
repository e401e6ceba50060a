// Package sweep precomputes the clustering result for every admissible
// cluster count so interactive lookups land in the cache.
package sweep

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/fleetsense/clusterkit/cache"
	"github.com/fleetsense/clusterkit/compute"
	"github.com/fleetsense/clusterkit/dataset"
	"github.com/fleetsense/clusterkit/internal/resource"
)

// MaxClusterCount is the largest k a sweep will warm; the dataset's sample
// count clamps it further.
const MaxClusterCount = 117

// Tally aggregates the outcome of one sweep.
type Tally struct {
	// Skipped counts ks already fresh in the memory tier.
	Skipped int64
	// Loaded counts ks served from the durable tier.
	Loaded int64
	// Computed counts ks recomputed and stored.
	Computed int64
	// Errored counts ks whose compute or store failed.
	Errored int64
}

// Report is the outcome of the most recent completed sweep.
type Report struct {
	Tally    Tally
	Warmed   *roaring.Bitmap
	Duration time.Duration
}

// Provider is the dataset dependency of the scheduler.
type Provider interface {
	Get(ctx context.Context) (*dataset.ReducedDataset, error)
}

// Scheduler runs at most one sweep at a time over k = 1..MaxClusterCount.
type Scheduler struct {
	provider   Provider
	cache      *cache.Cache
	computer   compute.Computer
	controller *resource.Controller
	logger     *slog.Logger

	running atomic.Bool
	wg      sync.WaitGroup

	mu   sync.Mutex
	last *Report
}

// New creates a sweep scheduler. A nil controller disables slot limits.
func New(provider Provider, c *cache.Cache, computer compute.Computer, controller *resource.Controller, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		provider:   provider,
		cache:      c,
		computer:   computer,
		controller: controller,
		logger:     logger,
	}
}

// Trigger starts a sweep in the background and returns true, or returns
// false when a sweep is already in flight. The sweep keeps running after
// the triggering request returns; cancelling ctx aborts it.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.run(ctx)
	}()
	return true
}

// Wait blocks until no sweep is in flight.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// LastReport returns the outcome of the most recent completed sweep, or
// nil if none has completed.
func (s *Scheduler) LastReport() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) run(ctx context.Context) {
	started := time.Now()

	ds, err := s.provider.Get(ctx)
	if err != nil {
		s.logger.Error("sweep aborted, dataset unavailable", "error", err)
		return
	}

	maxK := MaxClusterCount
	if ds.SampleCount < maxK {
		maxK = ds.SampleCount
	}

	s.logger.Info("sweep started",
		"max_k", maxK,
		"load_slots", s.controller.LoadSlots(),
		"compute_slots", s.controller.ComputeSlots(),
	)

	var (
		tally    Tally
		warmedMu sync.Mutex
		warmed   = roaring.New()
		perK     sync.WaitGroup
	)

	for k := 1; k <= maxK; k++ {
		perK.Add(1)
		go func(k int) {
			defer perK.Done()

			outcome, err := s.warm(ctx, ds, k)
			if err != nil {
				atomic.AddInt64(&tally.Errored, 1)
				s.logger.Warn("sweep k failed", "k", k, "error", err)
				return
			}

			switch outcome {
			case outcomeSkipped:
				atomic.AddInt64(&tally.Skipped, 1)
			case outcomeLoaded:
				atomic.AddInt64(&tally.Loaded, 1)
			case outcomeComputed:
				atomic.AddInt64(&tally.Computed, 1)
			}

			warmedMu.Lock()
			warmed.Add(uint32(k))
			warmedMu.Unlock()
		}(k)
	}
	perK.Wait()

	report := &Report{Tally: tally, Warmed: warmed, Duration: time.Since(started)}
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	s.logger.Info("sweep complete",
		"max_k", maxK,
		"skipped", tally.Skipped,
		"loaded", tally.Loaded,
		"computed", tally.Computed,
		"errored", tally.Errored,
		"warmed", warmed.GetCardinality(),
		"duration", report.Duration,
	)
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeLoaded
	outcomeComputed
)

// warm ensures a fresh result for k exists in the cache. Cache probes run
// under a load slot, recomputation under a compute slot.
func (s *Scheduler) warm(ctx context.Context, ds *dataset.ReducedDataset, k int) (outcome, error) {
	if err := s.controller.AcquireLoad(ctx); err != nil {
		return 0, err
	}
	res, tier, err := s.cache.Lookup(ctx, k, ds.Tag, ds.LastModified)
	s.controller.ReleaseLoad()
	if err != nil {
		return 0, err
	}
	if res != nil {
		if tier == cache.TierMemory {
			return outcomeSkipped, nil
		}
		return outcomeLoaded, nil
	}

	if err := s.controller.AcquireCompute(ctx); err != nil {
		return 0, err
	}
	defer s.controller.ReleaseCompute()

	result, err := s.computer.Compute(ctx, ds, k)
	if err != nil {
		return 0, err
	}
	if err := s.cache.StoreSync(ctx, k, ds.Tag, result); err != nil {
		return 0, err
	}
	return outcomeComputed, nil
}
