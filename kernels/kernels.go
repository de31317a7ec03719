// Package kernels implements the local estimator kernels of the Monte
// Carlo expectation machinery.
//
// A local estimator maps one sampled configuration σ, its connected
// configurations σp and matrix elements mel to a scalar whose
// sampling-weighted average approximates an operator expectation value.
// All kernels accept complex matrix elements and complex log-amplitudes.
//
// The chunked variants evaluate the log-amplitude function in bounded
// batches to cap peak memory, and reduce to the same result as the plain
// kernels up to floating-point associativity.
package kernels

import (
	"math/cmplx"

	"github.com/hupe1980/vmc/model"
)

// LogPsi evaluates log-amplitudes over a batch of configurations, one
// result per row.
type LogPsi func(vars model.Variables, sigma [][]float64) ([]complex128, error)

// Kernel computes the local estimator value of a single sample.
type Kernel func(logpsi LogPsi, vars model.Variables, sigma []float64, sigmap [][]float64, mel []complex128) (complex128, error)

// LocalValue computes Σ_k mel_k · exp(logψ(σp_k) − logψ(σ)), the local
// estimator of ⟨σ|Ô|ψ⟩ / ⟨σ|ψ⟩ under importance sampling from |ψ|².
func LocalValue(logpsi LogPsi, vars model.Variables, sigma []float64, sigmap [][]float64, mel []complex128) (complex128, error) {
	if len(sigmap) != len(mel) {
		return 0, &ErrShapeMismatch{Dim: "connected", Want: len(sigmap), Got: len(mel)}
	}

	ref, err := logpsi(vars, [][]float64{sigma})
	if err != nil {
		return 0, err
	}
	if len(ref) != 1 {
		return 0, &ErrShapeMismatch{Dim: "logpsi", Want: 1, Got: len(ref)}
	}

	conn, err := logpsi(vars, sigmap)
	if err != nil {
		return 0, err
	}
	if len(conn) != len(sigmap) {
		return 0, &ErrShapeMismatch{Dim: "logpsi", Want: len(sigmap), Got: len(conn)}
	}

	var acc complex128
	for k, m := range mel {
		acc += m * cmplx.Exp(conn[k]-ref[0])
	}
	return acc, nil
}

// LocalValueSquared computes |LocalValue|². The result is real and
// non-negative; it estimates squared/variance-type quantities.
func LocalValueSquared(logpsi LogPsi, vars model.Variables, sigma []float64, sigmap [][]float64, mel []complex128) (complex128, error) {
	v, err := LocalValue(logpsi, vars, sigma, sigmap, mel)
	if err != nil {
		return 0, err
	}
	a := cmplx.Abs(v)
	return complex(a*a, 0), nil
}

// OpOp is the local-value kernel for density-matrix-valued states: bra
// and ket configurations are concatenated, so logψ is evaluated on rows
// of doubled width.
func OpOp(logpsi LogPsi, vars model.Variables, sigma []float64, sigmap [][]float64, mel []complex128) (complex128, error) {
	braket := make([][]float64, len(sigmap))
	for k, conn := range sigmap {
		braket[k] = hstack(conn, sigma)
	}
	return LocalValue(logpsi, vars, hstack(sigma, sigma), braket, mel)
}

// Evaluate applies a per-sample kernel across a batch. Row b of the
// result is k applied to (sigma[b], sigmap[b], mel[b]).
func Evaluate(k Kernel, logpsi LogPsi, vars model.Variables, sigma [][]float64, sigmap [][][]float64, mel [][]complex128) ([]complex128, error) {
	if err := checkBatch(sigma, sigmap, mel); err != nil {
		return nil, err
	}
	out := make([]complex128, len(sigma))
	for b := range sigma {
		v, err := k(logpsi, vars, sigma[b], sigmap[b], mel[b])
		if err != nil {
			return nil, err
		}
		out[b] = v
	}
	return out, nil
}

func checkBatch(sigma [][]float64, sigmap [][][]float64, mel [][]complex128) error {
	if len(sigmap) != len(sigma) {
		return &ErrShapeMismatch{Dim: "batch", Want: len(sigma), Got: len(sigmap)}
	}
	if len(mel) != len(sigma) {
		return &ErrShapeMismatch{Dim: "batch", Want: len(sigma), Got: len(mel)}
	}
	for b := range sigma {
		if len(sigmap[b]) != len(mel[b]) {
			return &ErrShapeMismatch{Dim: "connected", Want: len(sigmap[b]), Got: len(mel[b])}
		}
	}
	return nil
}

func hstack(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
