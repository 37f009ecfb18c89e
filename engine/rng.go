package engine

// Source is the randomness a game needs: shuffles, exploring starts and
// random opponents all draw from one Source per episode.
type Source interface {
	IntN(n int) int
}

// ---------------------------------------------------------------------------
// xorshift64 RNG
// ---------------------------------------------------------------------------

// XorShift is a small deterministic xorshift64 generator.
type XorShift struct {
	state uint64
}

// NewXorShift seeds a generator. Seed 0 is corrected to 1 since xorshift
// cannot leave the zero state.
func NewXorShift(seed uint64) *XorShift {
	if seed == 0 {
		seed = 1
	}
	return &XorShift{state: seed}
}

// Uint64 advances the generator.
func (x *XorShift) Uint64() uint64 {
	s := x.state
	s ^= s << 13
	s ^= s >> 7
	s ^= s << 17
	x.state = s
	return s
}

// IntN returns a number in [0, n). It panics if n <= 0.
func (x *XorShift) IntN(n int) int {
	if n <= 0 {
		panic("engine: IntN called with non-positive n")
	}
	return int(x.Uint64() % uint64(n))
}
