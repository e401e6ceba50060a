package kmeans

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The LCG recurrence is a compatibility contract for ports in other
// languages; these sequences pin it down.
func TestLCG_ReferenceSequence(t *testing.T) {
	r := newLCG(1)
	want := []uint32{1015568748, 1586005467, 2165703038, 3027450565, 217083232, 1587069247}
	for i, w := range want {
		assert.Equal(t, w, r.next(), "draw %d", i)
	}

	r = newLCG(42)
	want = []uint32{1083814273, 378494188, 2479403867, 955863294, 1613448261, 110225632}
	for i, w := range want {
		assert.Equal(t, w, r.next(), "draw %d", i)
	}
}

func TestLCG_Float64Range(t *testing.T) {
	r := newLCG(7)
	for i := 0; i < 1000; i++ {
		f := r.float64()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}
}

func TestLCG_IntnRange(t *testing.T) {
	r := newLCG(7)
	for i := 0; i < 1000; i++ {
		v := r.intn(117)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 117)
	}
}
