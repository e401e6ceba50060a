// Package compute runs clustering computations, either in-process or by
// delegating to an external service that speaks the same contract.
package compute

import (
	"context"
	"math"

	"github.com/fleetsense/clusterkit/dataset"
	"github.com/fleetsense/clusterkit/kmeans"
)

// Defaults matching the offline pipeline that produced the original
// artifacts.
const (
	DefaultSeed          = 42
	DefaultInitRuns      = 10
	DefaultMaxIterations = kmeans.DefaultMaxIterations
)

// WorkingDims is the dimensionality clustering operates in: the first two
// components of the projection, which carry the bulk of the explained
// variance. Centers in every Result have this many coordinates.
const WorkingDims = 2

// Computer produces a clustering of the dataset into k groups.
// Implementations must be deterministic for a fixed dataset and k, and
// safe for concurrent use.
type Computer interface {
	Compute(ctx context.Context, ds *dataset.ReducedDataset, k int) (*kmeans.Result, error)
}

// Local clusters in-process. Each call runs InitRuns independent
// initializations with derived seeds and keeps the one with the lowest
// within-cluster sum of squares, so a single unlucky seeding cannot
// dominate the cached result.
type Local struct {
	// Seed is the base seed; derived run seeds are Seed+run. Zero means
	// DefaultSeed.
	Seed int64
	// InitRuns is the number of independent initializations. Zero means
	// DefaultInitRuns.
	InitRuns int
	// MaxIterations bounds each Lloyd refinement. Zero means
	// DefaultMaxIterations.
	MaxIterations int
}

// Compute clusters the WorkingDims-dimensional slice of ds into k groups.
func (l Local) Compute(ctx context.Context, ds *dataset.ReducedDataset, k int) (*kmeans.Result, error) {
	seed := l.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	runs := l.InitRuns
	if runs <= 0 {
		runs = DefaultInitRuns
	}
	maxIter := l.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	points := ds.Slice(WorkingDims)

	var best *kmeans.Result
	bestWCSS := math.Inf(1)
	for run := 0; run < runs; run++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := kmeans.Cluster(points, k, maxIter, seed+int64(run))
		if err != nil {
			return nil, err
		}

		wcss := kmeans.WCSS(points, res.Assignments, res.Centers)
		if wcss < bestWCSS {
			best = res
			bestWCSS = wcss
		}
	}

	return best, nil
}
