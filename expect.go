package vmc

import (
	"context"
	"fmt"

	"github.com/hupe1980/vmc/kernels"
	"github.com/hupe1980/vmc/model"
	"github.com/hupe1980/vmc/operator"
	"github.com/hupe1980/vmc/stats"
)

// Expect estimates ⟨Ô⟩ over the variational state: it resolves the
// estimator for the (state kind, operator kind) pair, evaluates the
// local estimator over the state's samples and reduces the per-sample
// values into annotated statistics.
//
// The estimate is invariant to the configured chunk size (within
// floating-point tolerance). A failed call never clobbers the state's
// cached samples or random stream.
func Expect(vs *MCState, op operator.Operator) (stats.Stats, error) {
	if vs == nil {
		return stats.Stats{}, fmt.Errorf("vmc: nil state")
	}
	if op == nil {
		return stats.Stats{}, fmt.Errorf("vmc: nil operator")
	}

	st, err := expect(vs, op)
	vs.logger.LogExpect(context.Background(), string(op.Kind()), vs.NSamples(), err)
	return st, err
}

func expect(vs *MCState, op operator.Operator) (stats.Stats, error) {
	entry, err := lookupExpect(vs.Kind(), op.Kind())
	if err != nil {
		return stats.Stats{}, err
	}

	sigma, sigmap, mel, err := entry.Configs(vs, op)
	if err != nil {
		return stats.Stats{}, err
	}
	if err := checkLeadingDims(sigma, sigmap, mel); err != nil {
		return stats.Stats{}, err
	}

	logpsi := func(vars model.Variables, rows [][]float64) ([]complex128, error) {
		return vs.m.LogAmplitude(vars, rows)
	}

	var locals []complex128
	if vs.chunkSize > 0 || vs.parallelism > 1 {
		locals, err = entry.Chunked(logpsi, vs.vars, sigma, sigmap, mel,
			kernels.WithChunkSize(vs.chunkSize), kernels.WithParallelism(vs.parallelism))
	} else {
		locals, err = kernels.Evaluate(entry.Kernel, logpsi, vs.vars, sigma, sigmap, mel)
	}
	if err != nil {
		return stats.Stats{}, err
	}

	return stats.Statistics(locals, vs.sa.NChains())
}

// checkLeadingDims rejects σp/mel whose leading dimensions disagree with
// the sample batch before any reduction happens; dimensions are never
// silently broadcast.
func checkLeadingDims(sigma [][]float64, sigmap [][][]float64, mel [][]complex128) error {
	if len(sigmap) != len(sigma) {
		return &kernels.ErrShapeMismatch{Dim: "batch", Want: len(sigma), Got: len(sigmap)}
	}
	if len(mel) != len(sigma) {
		return &kernels.ErrShapeMismatch{Dim: "batch", Want: len(sigma), Got: len(mel)}
	}
	for b := range sigmap {
		if len(sigmap[b]) != len(mel[b]) {
			return &kernels.ErrShapeMismatch{Dim: "connected", Want: len(sigmap[b]), Got: len(mel[b])}
		}
	}
	return nil
}
