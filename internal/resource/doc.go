// Package resource provides global concurrency and IO governance for
// background work.
//
// The Controller manages two independent semaphore-backed slot pools plus
// an optional IO rate limiter:
//
//   - Load slots: bound concurrent durable-store reads during a sweep
//   - Compute slots: bound concurrent clustering computations
//   - IO: token-bucket rate limit for background reads and writes
//
// Load and compute slots are deliberately separate pools. Probing the
// durable store is cheap and IO-bound while clustering is CPU-bound, so a
// sweep can keep many probes in flight while only a few computations run.
//
// # Usage
//
//	rc := resource.NewController(resource.Config{
//	    MaxLoadSlots:    5,
//	    MaxComputeSlots: 3,
//	})
//
//	if err := rc.AcquireCompute(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseCompute()
//
// # Thread Safety
//
// All Controller methods are safe for concurrent use.
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
// This allows optional resource limiting without nil checks everywhere.
package resource
