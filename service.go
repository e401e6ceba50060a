package clusterkit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fleetsense/clusterkit/blobstore"
	"github.com/fleetsense/clusterkit/cache"
	"github.com/fleetsense/clusterkit/compute"
	"github.com/fleetsense/clusterkit/dataset"
	"github.com/fleetsense/clusterkit/internal/resource"
	"github.com/fleetsense/clusterkit/kmeans"
	"github.com/fleetsense/clusterkit/resultstore"
	"github.com/fleetsense/clusterkit/sweep"
)

// MaxClusterCount is the largest admissible cluster count; the dataset's
// sample count clamps it further.
const MaxClusterCount = sweep.MaxClusterCount

// QualityReport carries the quality metrics for one clustering.
type QualityReport struct {
	K          int     `json:"k"`
	EffectiveK int     `json:"actual_k"`
	WCSS       float64 `json:"wcss"`
	Silhouette float64 `json:"silhouette"`
}

// ClusterStat summarizes one cluster's membership: its size, the devices
// assigned to it, and the category distribution when the dataset carries
// category tags.
type ClusterStat struct {
	ID         int            `json:"id"`
	Size       int            `json:"size"`
	Devices    []string       `json:"devices"`
	Categories map[string]int `json:"categories,omitempty"`
}

// Service is the inbound surface of the clustering subsystem. It owns the
// dataset provider, the two-tier result cache, and the precompute
// scheduler. Safe for concurrent use.
type Service struct {
	provider   *dataset.Provider
	cache      *cache.Cache
	computer   compute.Computer
	controller *resource.Controller
	sweeper    *sweep.Scheduler
	logger     *Logger

	group  singleflight.Group
	closed atomic.Bool
}

// New creates a Service reading the reduced-dataset artifact from
// datasetStore and persisting per-k results in results. Dataset reads are
// charged against the controller's IO budget.
func New(datasetStore blobstore.Store, results resultstore.Store, optFns ...Option) *Service {
	opts := options{
		logger:   NewLogger(nil),
		computer: compute.Local{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	controller := opts.controller
	if controller == nil {
		controller = resource.NewController(opts.limits)
	}

	datasetStore = blobstore.NewRateLimitedStore(datasetStore, controller)
	provider := dataset.NewProvider(datasetStore, dataset.DefaultArtifactName, nil)
	resultCache := cache.New(results, cache.Options{
		TTL:    opts.ttl,
		Logger: opts.logger.Logger,
		Now:    opts.clock,
	})

	return &Service{
		provider:   provider,
		cache:      resultCache,
		computer:   opts.computer,
		controller: controller,
		sweeper:    sweep.New(provider, resultCache, opts.computer, controller, opts.logger.Logger),
		logger:     opts.logger,
	}
}

// GetClustering returns the clustering for k, serving from the cache when
// a fresh result exists and computing synchronously otherwise. Concurrent
// misses for the same k collapse into one computation.
func (s *Service) GetClustering(ctx context.Context, k int) (*kmeans.Result, error) {
	ds, err := s.loadDataset(ctx, k)
	if err != nil {
		return nil, err
	}
	return s.getClustering(ctx, ds, k)
}

// loadDataset validates k against the static bound and loads the current
// dataset. Statically invalid cluster counts are rejected before any
// storage access.
func (s *Service) loadDataset(ctx context.Context, k int) (*dataset.ReducedDataset, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if k < 1 || k > MaxClusterCount {
		return nil, &ErrKOutOfRange{K: k, Max: MaxClusterCount}
	}

	ds, err := s.provider.Get(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	return ds, nil
}

// getClustering serves k from the cache or computes it, always against
// the given dataset value so callers can derive further metrics from the
// same snapshot the assignments refer to.
func (s *Service) getClustering(ctx context.Context, ds *dataset.ReducedDataset, k int) (*kmeans.Result, error) {
	if ds.SampleCount < k {
		return nil, &ErrKOutOfRange{K: k, Max: ds.SampleCount}
	}

	res, tier, err := s.cache.Lookup(ctx, k, ds.Tag, ds.LastModified)
	if err != nil {
		return nil, translateError(err)
	}
	if res != nil {
		s.logger.WithK(k).Debug("clustering served from cache", "tier", tier.String())
		return res, nil
	}

	v, err, _ := s.group.Do(fmt.Sprintf("%s/%d", ds.Tag, k), func() (any, error) {
		return s.computeAndStore(ctx, ds, k)
	})
	if err != nil {
		return nil, translateError(err)
	}
	return v.(*kmeans.Result), nil
}

func (s *Service) computeAndStore(ctx context.Context, ds *dataset.ReducedDataset, k int) (*kmeans.Result, error) {
	if err := s.controller.AcquireCompute(ctx); err != nil {
		return nil, err
	}
	defer s.controller.ReleaseCompute()

	log := s.logger.WithK(k).WithDatasetTag(ds.Tag)

	started := time.Now()
	result, err := s.computer.Compute(ctx, ds, k)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrComputeFailure, err)
	}
	log.Info("clustering computed",
		"effective_k", result.EffectiveK,
		"duration", time.Since(started),
	)

	s.cache.Store(ctx, k, ds.Tag, result)
	return result, nil
}

// Quality returns the quality metrics for the clustering at k, computing
// the clustering first if no fresh one is cached. Callers typically sweep
// k over a range to plot elbow and silhouette curves.
func (s *Service) Quality(ctx context.Context, k int) (*QualityReport, error) {
	ds, err := s.loadDataset(ctx, k)
	if err != nil {
		return nil, err
	}
	result, err := s.getClustering(ctx, ds, k)
	if err != nil {
		return nil, err
	}

	points := ds.Slice(compute.WorkingDims)
	return &QualityReport{
		K:          result.K,
		EffectiveK: result.EffectiveK,
		WCSS:       kmeans.WCSS(points, result.Assignments, result.Centers),
		Silhouette: kmeans.Silhouette(points, result.Assignments),
	}, nil
}

// ClusterStats returns the per-cluster membership breakdown for the
// clustering at k, computing the clustering first if no fresh one is
// cached. Stats are derived on read from the dataset's sample labels.
func (s *Service) ClusterStats(ctx context.Context, k int) ([]ClusterStat, error) {
	ds, err := s.loadDataset(ctx, k)
	if err != nil {
		return nil, err
	}
	result, err := s.getClustering(ctx, ds, k)
	if err != nil {
		return nil, err
	}

	stats := make([]ClusterStat, result.EffectiveK)
	for i := range stats {
		stats[i].ID = i
	}
	for i, c := range result.Assignments {
		st := &stats[c]
		st.Size++
		st.Devices = append(st.Devices, ds.Samples[i].Device)
		if cat := ds.Samples[i].Category; cat != "" {
			if st.Categories == nil {
				st.Categories = make(map[string]int)
			}
			st.Categories[cat]++
		}
	}
	return stats, nil
}

// TriggerSweep starts a background precompute sweep and reports whether
// it was accepted. A sweep already in flight is never joined or queued.
func (s *Service) TriggerSweep(ctx context.Context) bool {
	if s.closed.Load() {
		return false
	}
	return s.sweeper.Trigger(ctx)
}

// LastSweepReport returns the outcome of the most recent completed sweep,
// or nil if none has completed.
func (s *Service) LastSweepReport() *sweep.Report {
	return s.sweeper.LastReport()
}

// InvalidateDataset drops the in-memory dataset and every memory-tier
// cache entry. The next operation reloads the artifact from storage;
// durable records survive and are re-validated against it.
func (s *Service) InvalidateDataset() {
	s.provider.Invalidate()
	s.cache.Invalidate()
	s.logger.Info("dataset invalidated")
}

// CacheStats returns the cache outcome counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// Close rejects new work and drains in-flight background work: the
// running sweep, if any, and pending durable cache writes. ctx bounds
// the wait.
func (s *Service) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.sweeper.Wait()
		s.cache.Flush()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
