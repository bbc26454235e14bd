package engine

import "math/rand"

// RandomSource is the only source of randomness in combat. *rand.Rand
// satisfies it; tests inject scripted sources to pin variance, critical
// hits and the opponent's move choice.
type RandomSource interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// Intn returns a value in [0, n).
	Intn(n int) int
}

// NewRandomSource returns a seeded source. A *rand.Rand is not safe for
// concurrent use, so each battle session owns its own.
func NewRandomSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}
