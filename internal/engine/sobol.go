package engine

import (
	"fmt"

	"github.com/Raul-Ciria-Aylagas/trnpy/internal/space"
)

// sobolParams are primitive polynomial degrees, coefficients, and initial
// direction numbers from the Joe & Kuo tables, for dimensions 2 and up
// (dimension 1 is the plain van der Corput sequence in base 2).
var sobolParams = []struct {
	s int
	a uint32
	m []uint32
}{
	{1, 0, []uint32{1}},
	{2, 1, []uint32{1, 3}},
	{3, 1, []uint32{1, 3, 1}},
	{3, 2, []uint32{1, 1, 1}},
	{4, 1, []uint32{1, 1, 3, 3}},
	{4, 4, []uint32{1, 3, 5, 13}},
	{5, 2, []uint32{1, 1, 5, 5, 17}},
	{5, 4, []uint32{1, 1, 5, 5, 5}},
	{5, 7, []uint32{1, 1, 7, 11, 19}},
	{5, 11, []uint32{1, 1, 5, 1, 1}},
	{5, 13, []uint32{1, 1, 1, 3, 11}},
	{5, 14, []uint32{1, 3, 5, 5, 31}},
	{6, 1, []uint32{1, 3, 3, 9, 7, 49}},
	{6, 13, []uint32{1, 1, 1, 15, 21, 21}},
	{6, 16, []uint32{1, 3, 1, 13, 27, 49}},
}

const sobolBits = 32

// SobolMaxDims is the highest dimensionality the built-in Sobol sequence
// supports; asking for more is a configuration error.
var SobolMaxDims = len(sobolParams) + 1

// sobolSampler computes Sobol points by direct index: point i is the XOR of
// the direction numbers selected by the set bits of i.
type sobolSampler struct {
	dims int
	v    [][]uint32 // v[d][j], j-th direction number of dimension d
}

func newSobolSampler(dims int) (*sobolSampler, error) {
	if dims > SobolMaxDims {
		return nil, &space.ConfigError{Op: "sampler sobol", Reason: fmt.Sprintf("supports at most %d dimensions, got %d", SobolMaxDims, dims)}
	}
	v := make([][]uint32, dims)

	// First dimension: v_j = 2^(32-j).
	v[0] = make([]uint32, sobolBits)
	for j := 0; j < sobolBits; j++ {
		v[0][j] = 1 << uint(sobolBits-1-j)
	}

	for d := 1; d < dims; d++ {
		p := sobolParams[d-1]
		vd := make([]uint32, sobolBits)
		for k := 0; k < p.s; k++ {
			vd[k] = p.m[k] << uint(sobolBits-1-k)
		}
		for k := p.s; k < sobolBits; k++ {
			vd[k] = vd[k-p.s] ^ (vd[k-p.s] >> uint(p.s))
			for l := 1; l < p.s; l++ {
				if (p.a>>uint(p.s-1-l))&1 == 1 {
					vd[k] ^= vd[k-l]
				}
			}
		}
		v[d] = vd
	}
	return &sobolSampler{dims: dims, v: v}, nil
}

func (s *sobolSampler) At(i int) ([]float64, error) {
	// Skip the all-zero point at index 0.
	n := uint32(i + 1)
	u := make([]float64, s.dims)
	for d := 0; d < s.dims; d++ {
		var x uint32
		for j := 0; n>>uint(j) != 0; j++ {
			if (n>>uint(j))&1 == 1 {
				x ^= s.v[d][j]
			}
		}
		u[d] = float64(x) / float64(1<<sobolBits)
	}
	return u, nil
}
