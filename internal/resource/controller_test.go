package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_ComputeSlotsBlockUntilReleased(t *testing.T) {
	c := NewController(Config{MaxComputeSlots: 2})

	require.NoError(t, c.AcquireCompute(t.Context()))
	require.NoError(t, c.AcquireCompute(t.Context()))

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireCompute(ctx), context.DeadlineExceeded)

	c.ReleaseCompute()
	require.NoError(t, c.AcquireCompute(t.Context()))
}

func TestController_LoadSlotsBlockUntilReleased(t *testing.T) {
	c := NewController(Config{MaxLoadSlots: 1})

	require.NoError(t, c.AcquireLoad(t.Context()))

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireLoad(ctx), context.DeadlineExceeded)

	c.ReleaseLoad()
	require.NoError(t, c.AcquireLoad(t.Context()))
}

func TestController_Defaults(t *testing.T) {
	c := NewController(Config{})

	assert.Equal(t, int64(DefaultLoadSlots), c.LoadSlots())
	assert.Equal(t, int64(DefaultComputeSlots), c.ComputeSlots())
}

func TestController_IORateLimit(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 100})

	// First burst fits in the bucket.
	require.NoError(t, c.AcquireIO(t.Context(), 100))

	// Bucket is drained; the next acquisition must wait for refill.
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireIO(ctx, 100))
}

func TestController_IOChargesOversizedTransferInChunks(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	// Larger than the burst: must be split, not rejected outright.
	require.NoError(t, c.AcquireIO(t.Context(), 1<<20+512))
}

func TestController_UnlimitedIO(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireIO(t.Context(), 1<<30))
}

func TestController_NilSafety(t *testing.T) {
	var c *Controller

	require.NoError(t, c.AcquireLoad(t.Context()))
	c.ReleaseLoad()
	require.NoError(t, c.AcquireCompute(t.Context()))
	c.ReleaseCompute()
	require.NoError(t, c.AcquireIO(t.Context(), 1024))
	assert.Equal(t, int64(0), c.LoadSlots())
	assert.Equal(t, int64(0), c.ComputeSlots())
}
