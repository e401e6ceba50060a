// Package kmeans implements seeded k-means clustering over low-dimensional
// projections of fleet telemetry, plus the quality metrics used to compare cluster
// counts (within-cluster dispersion for elbow analysis, silhouette score).
//
// All entry points are pure functions. Results are bit-for-bit reproducible
// for a fixed (points, k, maxIterations, seed) tuple: cached results are
// compared across cache tiers and recomputation, so the initialization draws
// come from an explicit linear-congruential generator rather than a platform
// RNG.
package kmeans
