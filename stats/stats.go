// Package stats reduces per-sample local estimator values into an
// annotated estimate: mean, error of the mean, variance and a split-chain
// R-hat convergence diagnostic.
package stats

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Stats is an immutable statistical summary of a batch of per-sample
// estimator values.
type Stats struct {
	// Mean is the batch mean of the local values.
	Mean complex128

	// ErrorOfMean estimates the Monte Carlo error of Mean from the
	// scatter of per-chain means.
	ErrorOfMean float64

	// Variance is the batch variance E|x - Mean|².
	Variance float64

	// RHat is the split-chain Gelman-Rubin diagnostic on the real part
	// of the values. Values near 1 indicate converged chains; NaN when
	// the chains are too short to split.
	RHat float64
}

func (s Stats) String() string {
	mean := fmt.Sprintf("%.4f", real(s.Mean))
	if math.Abs(imag(s.Mean)) > 1e-12 {
		mean = fmt.Sprintf("%.4f%+.4fi", real(s.Mean), imag(s.Mean))
	}
	if math.IsNaN(s.RHat) {
		return fmt.Sprintf("%s ± %.4f [var=%.4f]", mean, s.ErrorOfMean, s.Variance)
	}
	return fmt.Sprintf("%s ± %.4f [var=%.4f, R̂=%.4f]", mean, s.ErrorOfMean, s.Variance, s.RHat)
}

// minBlocks is the number of blocks a single chain is divided into for
// the error estimate when there is no chain structure to exploit.
const minBlocks = 16

// Statistics reduces values into a Stats summary. values holds one local
// estimator value per sample, ordered step-major with the chain index
// fastest (the layout produced by flattening a (steps, chains) sample
// buffer), and len(values) must be a positive multiple of nChains.
func Statistics(values []complex128, nChains int) (Stats, error) {
	if nChains < 1 {
		return Stats{}, fmt.Errorf("stats: nChains must be positive, got %d", nChains)
	}
	if len(values) == 0 || len(values)%nChains != 0 {
		return Stats{}, fmt.Errorf("stats: %d values not divisible into %d chains", len(values), nChains)
	}
	steps := len(values) / nChains

	mean := complexMean(values)

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += real(d * cmplx.Conj(d))
	}
	variance /= float64(len(values))

	// De-interleave into per-chain series.
	chains := make([][]complex128, nChains)
	for c := range chains {
		chain := make([]complex128, steps)
		for i := 0; i < steps; i++ {
			chain[i] = values[i*nChains+c]
		}
		chains[c] = chain
	}

	return Stats{
		Mean:        mean,
		ErrorOfMean: errorOfMean(chains, mean),
		Variance:    variance,
		RHat:        splitRHat(chains),
	}, nil
}

// errorOfMean estimates the standard error of the mean from the scatter
// of per-chain means. A single chain is blocked into up to minBlocks
// consecutive blocks first.
func errorOfMean(chains [][]complex128, mean complex128) float64 {
	if len(chains) == 1 {
		chains = blockChain(chains[0], minBlocks)
	}
	if len(chains) < 2 {
		return 0
	}

	var scatter float64
	for _, chain := range chains {
		d := complexMean(chain) - mean
		scatter += real(d * cmplx.Conj(d))
	}
	scatter /= float64(len(chains) - 1)

	return math.Sqrt(scatter / float64(len(chains)))
}

// splitRHat computes the Gelman-Rubin potential scale reduction factor
// on the real part, after splitting every chain in half. Returns NaN
// when the chains are too short to split, and exactly 1 when the values
// carry no variance at all.
func splitRHat(chains [][]complex128) float64 {
	var split [][]float64
	for _, chain := range chains {
		n := len(chain) / 2
		if n < 2 {
			return math.NaN()
		}
		a := make([]float64, n)
		b := make([]float64, n)
		for i := 0; i < n; i++ {
			a[i] = real(chain[i])
			b[i] = real(chain[n+i])
		}
		split = append(split, a, b)
	}

	m := len(split)
	n := len(split[0])

	means := make([]float64, m)
	var w float64
	for i, chain := range split {
		var mu float64
		for _, v := range chain {
			mu += v
		}
		mu /= float64(n)
		means[i] = mu

		var s2 float64
		for _, v := range chain {
			d := v - mu
			s2 += d * d
		}
		w += s2 / float64(n-1)
	}
	w /= float64(m)

	var grand float64
	for _, mu := range means {
		grand += mu
	}
	grand /= float64(m)

	var b float64
	for _, mu := range means {
		d := mu - grand
		b += d * d
	}
	b *= float64(n) / float64(m-1)

	if w == 0 {
		return 1
	}

	varPlus := float64(n-1)/float64(n)*w + b/float64(n)
	return math.Sqrt(varPlus / w)
}

// blockChain splits a single chain into up to maxBlocks consecutive
// equal-size blocks, dropping a short tail.
func blockChain(chain []complex128, maxBlocks int) [][]complex128 {
	nBlocks := maxBlocks
	if len(chain) < nBlocks {
		nBlocks = len(chain)
	}
	size := len(chain) / nBlocks
	if size == 0 {
		return nil
	}
	blocks := make([][]complex128, 0, nBlocks)
	for i := 0; i+size <= len(chain) && len(blocks) < nBlocks; i += size {
		blocks = append(blocks, chain[i:i+size])
	}
	return blocks
}

func complexMean(values []complex128) complex128 {
	var sum complex128
	for _, v := range values {
		sum += v
	}
	return sum / complex(float64(len(values)), 0)
}
