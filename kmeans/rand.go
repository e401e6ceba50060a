package kmeans

// lcg is a 32-bit linear congruential generator with the Numerical Recipes
// constants (multiplier 1664525, increment 1013904223, modulus 2^32).
//
// The recurrence is part of the persisted-result contract: ports in other
// languages must reproduce the exact draw sequence, so the constants are
// fixed and covered by a reference-sequence test.
type lcg struct {
	state uint32
}

func newLCG(seed int64) *lcg {
	return &lcg{state: uint32(seed)}
}

func (r *lcg) next() uint32 {
	r.state = r.state*1664525 + 1013904223
	return r.state
}

// float64 returns a draw in [0, 1).
func (r *lcg) float64() float64 {
	return float64(r.next()) / (1 << 32)
}

// intn returns a draw in [0, n). Modulo bias is acceptable here; n is a
// sample count, orders of magnitude below the generator period.
func (r *lcg) intn(n int) int {
	return int(r.next() % uint32(n))
}
