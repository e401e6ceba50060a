package kmeans

import (
	"errors"
	"fmt"
)

// DefaultMaxIterations bounds Lloyd refinement when the caller passes a
// non-positive iteration budget.
const DefaultMaxIterations = 300

// ErrInvalidK is returned when the requested cluster count is out of range
// for the given point set.
var ErrInvalidK = errors.New("kmeans: invalid cluster count")

// ErrDimensionMismatch indicates that the input points do not share a
// common dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("kmeans: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Result is a clustering of a point set into at most K groups.
//
// Invariants: every id in Assignments lies in [0, EffectiveK), and
// len(Centers) == EffectiveK <= K. Clusters that converge empty are dropped
// and the surviving ids renumbered contiguous ascending.
type Result struct {
	K           int         `json:"k"`
	EffectiveK  int         `json:"actual_k"`
	Assignments []int       `json:"labels"`
	Centers     [][]float64 `json:"centroids"`
}

// Cluster runs seeded k-means++ initialization followed by Lloyd refinement.
//
// Initialization: the first center is drawn uniformly from the generator
// seeded by seed; each subsequent center is drawn with probability
// proportional to squared distance to the nearest already-chosen center,
// from the same generator.
//
// Refinement: up to maxIter rounds of assign-to-nearest (squared Euclidean,
// ties to the lowest cluster id) and recompute-means, stopping early when no
// assignment changes. A cluster that ends a round empty keeps its previous
// center.
func Cluster(points [][]float64, k, maxIter int, seed int64) (*Result, error) {
	n := len(points)
	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: k=%d, points=%d", ErrInvalidK, k, n)
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	dim := len(points[0])
	for _, p := range points {
		if len(p) != dim {
			return nil, &ErrDimensionMismatch{Expected: dim, Actual: len(p)}
		}
	}

	centers := initCenters(points, k, seed)

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}

	sums := make([][]float64, k)
	for j := range sums {
		sums[j] = make([]float64, dim)
	}
	counts := make([]int, k)

	for iter := 0; iter < maxIter; iter++ {
		changed := false

		// Assignment step. Iterating j ascending with a strict comparison
		// breaks distance ties toward the lowest cluster id.
		for i, p := range points {
			best := 0
			bestDist := sqDist(p, centers[0])
			for j := 1; j < k; j++ {
				if d := sqDist(p, centers[j]); d < bestDist {
					bestDist = d
					best = j
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		if !changed {
			break
		}

		// Update step.
		for j := 0; j < k; j++ {
			counts[j] = 0
			for d := 0; d < dim; d++ {
				sums[j][d] = 0
			}
		}
		for i, p := range points {
			c := assignments[i]
			counts[c]++
			for d := 0; d < dim; d++ {
				sums[c][d] += p[d]
			}
		}
		for j := 0; j < k; j++ {
			if counts[j] == 0 {
				continue // empty cluster keeps its center this round
			}
			inv := 1.0 / float64(counts[j])
			for d := 0; d < dim; d++ {
				centers[j][d] = sums[j][d] * inv
			}
		}
	}

	return compact(k, assignments, centers), nil
}

// initCenters implements the seeded k-means++ selection.
func initCenters(points [][]float64, k int, seed int64) [][]float64 {
	n := len(points)
	rng := newLCG(seed)

	centers := make([][]float64, 0, k)
	centers = append(centers, clonePoint(points[rng.intn(n)]))

	// nearest[i] tracks squared distance to the closest chosen center.
	nearest := make([]float64, n)
	for i, p := range points {
		nearest[i] = sqDist(p, centers[0])
	}

	for len(centers) < k {
		var total float64
		for _, w := range nearest {
			total += w
		}

		var idx int
		if total <= 0 {
			// All remaining mass is on already-chosen points (duplicates).
			idx = rng.intn(n)
		} else {
			r := rng.float64() * total
			idx = n - 1
			var cum float64
			for i, w := range nearest {
				cum += w
				if cum >= r {
					idx = i
					break
				}
			}
		}

		c := clonePoint(points[idx])
		centers = append(centers, c)
		for i, p := range points {
			if d := sqDist(p, c); d < nearest[i] {
				nearest[i] = d
			}
		}
	}

	return centers
}

// compact drops clusters that converged empty and renumbers the survivors
// to a contiguous ascending range, reordering centers to match.
func compact(k int, assignments []int, centers [][]float64) *Result {
	counts := make([]int, k)
	for _, c := range assignments {
		counts[c]++
	}

	remap := make([]int, k)
	effective := 0
	for j := 0; j < k; j++ {
		if counts[j] > 0 {
			remap[j] = effective
			effective++
		} else {
			remap[j] = -1
		}
	}

	if effective == k {
		return &Result{K: k, EffectiveK: k, Assignments: assignments, Centers: centers}
	}

	kept := make([][]float64, 0, effective)
	for j := 0; j < k; j++ {
		if remap[j] >= 0 {
			kept = append(kept, centers[j])
		}
	}
	for i, c := range assignments {
		assignments[i] = remap[c]
	}

	return &Result{K: k, EffectiveK: effective, Assignments: assignments, Centers: kept}
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func clonePoint(p []float64) []float64 {
	c := make([]float64, len(p))
	copy(c, p)
	return c
}
