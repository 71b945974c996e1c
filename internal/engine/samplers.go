package engine

import (
	"fmt"
	"math"

	"github.com/Raul-Ciria-Aylagas/trnpy/internal/space"
)

// Generator names accepted for the initial sampling phase.
const (
	GeneratorRandom    = "random"
	GeneratorSobol     = "sobol"
	GeneratorHalton    = "halton"
	GeneratorHammersly = "hammersly"
	GeneratorLHS       = "lhs"
	GeneratorGrid      = "grid"
)

// Generators lists the supported initial point generator names.
func Generators() []string {
	return []string{GeneratorRandom, GeneratorSobol, GeneratorHalton, GeneratorHammersly, GeneratorLHS, GeneratorGrid}
}

// sampler produces the i-th point of a deterministic sequence on the unit
// cube. Index addressing (rather than iteration) keeps snapshots down to a
// single cursor.
type sampler interface {
	At(i int) ([]float64, error)
}

func newSampler(name string, dims, n int, seed int64) (sampler, error) {
	switch name {
	case GeneratorRandom, "":
		return &randomSampler{dims: dims, seed: seed}, nil
	case GeneratorSobol:
		return newSobolSampler(dims)
	case GeneratorHalton:
		return newHaltonSampler(dims, 0)
	case GeneratorHammersly:
		if n <= 0 {
			return nil, &space.ConfigError{Op: "sampler hammersly", Reason: "needs a positive point count"}
		}
		return newHaltonSampler(dims, n)
	case GeneratorLHS:
		if n <= 0 {
			return nil, &space.ConfigError{Op: "sampler lhs", Reason: "needs a positive point count"}
		}
		return newLHSSampler(dims, n, seed), nil
	case GeneratorGrid:
		if n <= 0 {
			return nil, &space.ConfigError{Op: "sampler grid", Reason: "needs a positive point count"}
		}
		return newGridSampler(dims, n), nil
	}
	return nil, &space.ConfigError{Op: "sampler", Reason: "unknown initial point generator " + name}
}

// randomSampler draws uniform points, each index its own derived stream.
type randomSampler struct {
	dims int
	seed int64
}

func (s *randomSampler) At(i int) ([]float64, error) {
	rng := streamRand(s.seed, streamInitial, uint64(i))
	u := make([]float64, s.dims)
	for d := range u {
		u[d] = rng.Float64()
	}
	return u, nil
}

var primes = []int{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53,
	59, 61, 67, 71, 73, 79, 83, 89, 97, 101, 103, 107, 109, 113, 127, 131,
	137, 139, 149, 151, 157, 163, 167, 173, 179, 181, 191, 193, 197, 199, 211, 223,
}

// haltonSampler is the Halton sequence over the first-prime bases. With
// hammerslyN > 0 it becomes the Hammersley set: the first coordinate is the
// regular lattice i/N and the remaining ones follow Halton.
type haltonSampler struct {
	dims       int
	hammerslyN int
}

func newHaltonSampler(dims, hammerslyN int) (*haltonSampler, error) {
	need := dims
	if hammerslyN > 0 {
		need = dims - 1
	}
	if need > len(primes) {
		return nil, &space.ConfigError{Op: "sampler halton", Reason: fmt.Sprintf("supports at most %d dimensions, got %d", len(primes), dims)}
	}
	return &haltonSampler{dims: dims, hammerslyN: hammerslyN}, nil
}

func (s *haltonSampler) At(i int) ([]float64, error) {
	u := make([]float64, s.dims)
	base := 0
	start := 0
	if s.hammerslyN > 0 {
		u[0] = (float64(i) + 0.5) / float64(s.hammerslyN)
		start = 1
	}
	for d := start; d < s.dims; d++ {
		u[d] = vanDerCorput(i+1, primes[base])
		base++
	}
	return u, nil
}

// vanDerCorput is the radical inverse of i in the given base.
func vanDerCorput(i, base int) float64 {
	f := 1.0
	r := 0.0
	for i > 0 {
		f /= float64(base)
		r += f * float64(i%base)
		i /= base
	}
	return r
}

// lhsSampler is a centered Latin hypercube: one seeded permutation of the n
// strata per dimension, points at stratum centers.
type lhsSampler struct {
	dims  int
	n     int
	perms [][]int
}

func newLHSSampler(dims, n int, seed int64) *lhsSampler {
	rng := streamRand(seed, streamInitial, 0)
	perms := make([][]int, dims)
	for d := range perms {
		perms[d] = rng.Perm(n)
	}
	return &lhsSampler{dims: dims, n: n, perms: perms}
}

func (s *lhsSampler) At(i int) ([]float64, error) {
	if i >= s.n {
		return nil, &space.ConfigError{Op: "sampler lhs", Reason: fmt.Sprintf("sequence exhausted at %d of %d points", i, s.n)}
	}
	u := make([]float64, s.dims)
	for d := range u {
		u[d] = (float64(s.perms[d][i]) + 0.5) / float64(s.n)
	}
	return u, nil
}

// gridSampler is a full-factorial lattice with enough levels per dimension to
// cover n points, walked row-major with the leftmost dimension slowest.
type gridSampler struct {
	dims   int
	levels int
	total  int
}

func newGridSampler(dims, n int) *gridSampler {
	levels := int(math.Ceil(math.Pow(float64(n), 1.0/float64(dims))))
	if levels < 2 {
		levels = 2
	}
	total := 1
	for d := 0; d < dims; d++ {
		total *= levels
	}
	return &gridSampler{dims: dims, levels: levels, total: total}
}

func (s *gridSampler) At(i int) ([]float64, error) {
	if i >= s.total {
		return nil, &space.ConfigError{Op: "sampler grid", Reason: fmt.Sprintf("grid exhausted at %d of %d points", i, s.total)}
	}
	u := make([]float64, s.dims)
	rem := i
	for d := s.dims - 1; d >= 0; d-- {
		idx := rem % s.levels
		rem /= s.levels
		u[d] = (float64(idx) + 0.5) / float64(s.levels)
	}
	return u, nil
}
