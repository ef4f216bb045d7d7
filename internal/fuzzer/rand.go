package fuzzer

import "math/rand"

// splitmix64 constants used to derive independent per-case seeds from the
// run seed and the case index.
const (
	seedGamma = 0x9E3779B97F4A7C15
	mixMul1   = 0xBF58476D1CE4E5B9
	mixMul2   = 0x94D049BB133111EB
)

// caseSeed derives the seed for one case's random stream. The derivation is
// a splitmix64-style mix of the run seed and the case index, so streams for
// distinct indices are statistically independent and the Nth case for a
// given seed is always identical.
func caseSeed(seed int64, index int) int64 {
	z := uint64(seed) + (uint64(index)+1)*seedGamma
	z ^= z >> 30
	z *= mixMul1
	z ^= z >> 27
	z *= mixMul2
	z ^= z >> 31
	return int64(z)
}

// caseStream creates the random stream owned by one case.
func caseStream(seed int64, index int) *rand.Rand {
	return rand.New(rand.NewSource(caseSeed(seed, index)))
}
