package engine

import "math/rand"

// splitmix64 is the standard SplitMix64 finalizer. All engine randomness is
// derived from (seed, stream) pairs through it, so the snapshot only needs to
// record the seed and the ask counter to restore the exact RNG position.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// streamSeed derives a deterministic sub-seed for a named stream.
func streamSeed(seed int64, stream, n uint64) int64 {
	h := splitmix64(uint64(seed))
	h = splitmix64(h ^ stream)
	h = splitmix64(h ^ n)
	return int64(h >> 1) // keep it non-negative for rand.NewSource
}

// streamRand returns a rand.Rand positioned at the start of the derived
// stream. Two engines with equal seeds draw identical values.
func streamRand(seed int64, stream, n uint64) *rand.Rand {
	return rand.New(rand.NewSource(streamSeed(seed, stream, n)))
}

const (
	streamInitial uint64 = 1 // initial point generator
	streamAcq     uint64 = 2 // acquisition minimization
	streamRescue  uint64 = 3 // duplicate-point fallback
)
