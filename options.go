package clusterkit

import (
	"time"

	"github.com/fleetsense/clusterkit/compute"
	"github.com/fleetsense/clusterkit/internal/resource"
)

type options struct {
	logger     *Logger
	computer   compute.Computer
	ttl        time.Duration
	limits     resource.Config
	controller *resource.Controller
	clock      func() time.Time
}

// Option configures Service constructor behavior.
//
// Today options primarily exist to avoid exploding the API surface
// (e.g. backend-specific constructor variants).
type Option func(*options)

// WithLogger configures the structured logger.
//
// If nil is passed, a text logger to stderr is used.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NewLogger(nil)
		}
		o.logger = l
	}
}

// WithComputer configures the clustering computer. Defaults to an
// in-process compute.Local with the standard seed and init count; pass a
// compute.Remote to delegate heavy work to an external service.
func WithComputer(c compute.Computer) Option {
	return func(o *options) {
		if c == nil {
			c = compute.Local{}
		}
		o.computer = c
	}
}

// WithTTL configures the memory-tier entry lifetime.
// Non-positive values fall back to the default.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithLimits configures the background load/compute slot counts and the
// optional IO byte budget. Zero fields keep their defaults.
func WithLimits(cfg resource.Config) Option {
	return func(o *options) {
		o.limits = cfg
	}
}

// WithController supplies a shared resource controller, letting callers
// apply the same IO byte budget to stores they wrap themselves. Takes
// precedence over WithLimits.
func WithController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithClock overrides the wall clock; for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}
