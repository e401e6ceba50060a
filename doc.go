// Package clusterkit provides the clustering analytics subsystem: a
// cached, deterministic k-means layer over an offline-reduced dataset.
//
// An offline pipeline reduces raw device telemetry to a low-dimensional
// component matrix and writes it as a single artifact. Clusterkit loads
// that artifact, clusters it into k groups on demand, and serves repeated
// requests from a two-tier cache (process memory in front of a durable
// per-k record store). A background sweep can precompute every admissible
// k so interactive lookups never wait on a computation.
//
// # Quick Start
//
// Local mode:
//
//	ctx := context.Background()
//	datasets, _ := blobstore.NewLocalStore("./data")
//	results := resultstore.NewBlobStore(datasets, nil, nil)
//
//	svc := clusterkit.New(datasets, results)
//	defer svc.Close(ctx)
//
//	res, _ := svc.GetClustering(ctx, 7)
//	fmt.Println(res.EffectiveK, res.Assignments)
//
// Cloud mode:
//
//	s3Store, _ := s3.New(ctx, "my-bucket", "telemetry/")
//	svc := clusterkit.New(s3Store, resultstore.NewBlobStore(s3Store, nil, nil))
//
// # Precompute Sweep
//
// A sweep warms the cache for k = 1..117 (clamped to the sample count)
// under bounded concurrency. At most one sweep runs at a time:
//
//	if svc.TriggerSweep(ctx) {
//	    // accepted; runs in the background
//	}
//
// # Determinism
//
// For a fixed dataset artifact and k, GetClustering always returns the
// identical result: seeding is explicit, initialization is derived from
// the seed, and ties break by lowest index.
//
// # Key Features
//
//   - Deterministic seeded k-means with k-means++ initialization
//   - Empty-cluster elimination with compacted, renumbered labels
//   - WCSS and silhouette quality metrics for elbow analysis
//   - Two-tier result cache keyed by dataset version and write time
//   - Durable backends: local disk, S3, MinIO, or embedded badger
//   - Bounded-concurrency precompute sweep with single-flight guard
package clusterkit
