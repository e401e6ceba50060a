package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Default slot counts for the precompute sweep.
const (
	DefaultLoadSlots    = 5
	DefaultComputeSlots = 3
)

// Config holds resource limits for background work.
type Config struct {
	// MaxLoadSlots bounds concurrent durable-store loads.
	// If 0, defaults to DefaultLoadSlots.
	MaxLoadSlots int64

	// MaxComputeSlots bounds concurrent clustering computations.
	// If 0, defaults to DefaultComputeSlots.
	MaxComputeSlots int64

	// IOLimitBytesPerSec is the maximum IO throughput for background tasks.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller bounds the load and compute concurrency of background jobs.
// Slots are independent: a job holding a load slot does not occupy a
// compute slot, so cheap cache probes never starve behind clustering runs.
//
// A nil Controller is valid and enforces nothing.
type Controller struct {
	cfg Config

	loadSem    *semaphore.Weighted
	computeSem *semaphore.Weighted

	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxLoadSlots <= 0 {
		cfg.MaxLoadSlots = DefaultLoadSlots
	}
	if cfg.MaxComputeSlots <= 0 {
		cfg.MaxComputeSlots = DefaultComputeSlots
	}

	c := &Controller{
		cfg:        cfg,
		loadSem:    semaphore.NewWeighted(cfg.MaxLoadSlots),
		computeSem: semaphore.NewWeighted(cfg.MaxComputeSlots),
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireLoad reserves a load slot. Blocks if all slots are busy.
func (c *Controller) AcquireLoad(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.loadSem.Acquire(ctx, 1)
}

// ReleaseLoad releases a load slot.
func (c *Controller) ReleaseLoad() {
	if c == nil {
		return
	}
	c.loadSem.Release(1)
}

// AcquireCompute reserves a compute slot. Blocks if all slots are busy.
func (c *Controller) AcquireCompute(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.computeSem.Acquire(ctx, 1)
}

// ReleaseCompute releases a compute slot.
func (c *Controller) ReleaseCompute() {
	if c == nil {
		return
	}
	c.computeSem.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of
// bytes. Transfers larger than one second's budget are charged in burst
// sized chunks rather than rejected.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := bytes
		if n > burst {
			n = burst
		}
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// LoadSlots returns the configured load slot count.
func (c *Controller) LoadSlots() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MaxLoadSlots
}

// ComputeSlots returns the configured compute slot count.
func (c *Controller) ComputeSlots() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MaxComputeSlots
}
