package feed

import "math/rand/v2"

// Rand is the random source used by Shuffle and the carousel selector.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

func randOrDefault(r Rand) Rand {
	if r == nil {
		return globalRand{}
	}
	return r
}

// Shuffle returns a Fisher-Yates shuffled copy of items.
func Shuffle[T any](items []T, r Rand) []T {
	out := make([]T, len(items))
	copy(out, items)
	r = randOrDefault(r)
	for i := len(out) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
