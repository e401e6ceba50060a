package kmeans

import "math"

// WCSS returns the within-cluster sum of squares: the total squared
// Euclidean distance from each point to its assigned center. Callers sweep
// it over a range of k for elbow analysis.
func WCSS(points [][]float64, assignments []int, centers [][]float64) float64 {
	var total float64
	for i, p := range points {
		total += sqDist(p, centers[assignments[i]])
	}
	return total
}

// Silhouette returns the mean silhouette score of the clustering, in [-1, 1].
//
// For each point, a = mean distance to the other members of its cluster
// (0 for a sole member) and b = the minimum over other clusters of the mean
// distance to that cluster's members; the point score is (b-a)/max(a,b),
// or 0 when that maximum is 0. Returns 0 when fewer than two clusters exist
// or the point set is empty.
func Silhouette(points [][]float64, assignments []int) float64 {
	n := len(points)
	if n == 0 {
		return 0
	}

	clusters := make(map[int][]int)
	for i, c := range assignments {
		clusters[c] = append(clusters[c], i)
	}
	if len(clusters) < 2 {
		return 0
	}

	var total float64
	for i, p := range points {
		own := assignments[i]

		var a float64
		if members := clusters[own]; len(members) > 1 {
			var sum float64
			for _, j := range members {
				if j != i {
					sum += math.Sqrt(sqDist(p, points[j]))
				}
			}
			a = sum / float64(len(members)-1)
		}

		b := math.Inf(1)
		for c, members := range clusters {
			if c == own {
				continue
			}
			var sum float64
			for _, j := range members {
				sum += math.Sqrt(sqDist(p, points[j]))
			}
			if mean := sum / float64(len(members)); mean < b {
				b = mean
			}
		}

		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}

	return total / float64(n)
}
