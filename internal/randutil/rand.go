// Package randutil derives reproducible random sources from a single game seed.
package randutil

import rand "math/rand/v2"

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
func New(seed int64) *rand.Rand {
	return Stream(seed, 0)
}

// Stream returns an independent generator for one consumer of the game seed.
// The dealer uses stream 0 and every bot gets its own stream, so adding a bot
// never changes how the deck is shuffled.
func Stream(seed int64, stream uint64) *rand.Rand {
	u := uint64(seed) + stream*goldenRatio64*2
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Shuffle permutes ids in place.
func Shuffle(rng *rand.Rand, ids []int) {
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
