package kernels

import (
	"math/cmplx"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vmc/model"
)

type evalOptions struct {
	chunkSize   int
	parallelism int
}

// EvalOption configures chunked kernel evaluation.
type EvalOption func(*evalOptions)

// WithChunkSize bounds the number of configurations handed to the
// log-amplitude function per call, capping peak memory. A value <= 0
// evaluates the whole batch in one call.
func WithChunkSize(n int) EvalOption {
	return func(o *evalOptions) {
		o.chunkSize = n
	}
}

// WithParallelism evaluates independent chunks on up to n goroutines.
// The reduction stays deterministic: every chunk writes its own output
// region. The default of 1 evaluates sequentially.
func WithParallelism(n int) EvalOption {
	return func(o *evalOptions) {
		o.parallelism = n
	}
}

func applyEvalOptions(optFns []EvalOption) evalOptions {
	o := evalOptions{chunkSize: 0, parallelism: 1}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// LocalValuesChunked computes the LocalValue estimator for a whole batch,
// evaluating logψ in bounded chunks. The result matches Evaluate with
// LocalValue up to floating-point associativity.
func LocalValuesChunked(logpsi LogPsi, vars model.Variables, sigma [][]float64, sigmap [][][]float64, mel [][]complex128, optFns ...EvalOption) ([]complex128, error) {
	if err := checkBatch(sigma, sigmap, mel); err != nil {
		return nil, err
	}
	o := applyEvalOptions(optFns)

	// Flatten the connected configurations so both logψ passes run over
	// plain row batches.
	offsets := make([]int, len(sigmap)+1)
	for b, conns := range sigmap {
		offsets[b+1] = offsets[b] + len(conns)
	}
	flat := make([][]float64, 0, offsets[len(sigmap)])
	for _, conns := range sigmap {
		flat = append(flat, conns...)
	}

	ref, err := chunkedLogPsi(logpsi, vars, sigma, o)
	if err != nil {
		return nil, err
	}
	conn, err := chunkedLogPsi(logpsi, vars, flat, o)
	if err != nil {
		return nil, err
	}

	out := make([]complex128, len(sigma))
	for b := range sigma {
		var acc complex128
		for k, m := range mel[b] {
			acc += m * cmplx.Exp(conn[offsets[b]+k]-ref[b])
		}
		out[b] = acc
	}
	return out, nil
}

// LocalValuesSquaredChunked is the chunked batch form of
// LocalValueSquared. All results are real and non-negative.
func LocalValuesSquaredChunked(logpsi LogPsi, vars model.Variables, sigma [][]float64, sigmap [][][]float64, mel [][]complex128, optFns ...EvalOption) ([]complex128, error) {
	values, err := LocalValuesChunked(logpsi, vars, sigma, sigmap, mel, optFns...)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		a := cmplx.Abs(v)
		values[i] = complex(a*a, 0)
	}
	return values, nil
}

// OpOpChunked is the chunked batch form of OpOp: bra and ket
// configurations are concatenated before the chunked local-value pass.
func OpOpChunked(logpsi LogPsi, vars model.Variables, sigma [][]float64, sigmap [][][]float64, mel [][]complex128, optFns ...EvalOption) ([]complex128, error) {
	if err := checkBatch(sigma, sigmap, mel); err != nil {
		return nil, err
	}

	doubled := make([][]float64, len(sigma))
	braket := make([][][]float64, len(sigma))
	for b, row := range sigma {
		doubled[b] = hstack(row, row)
		conns := make([][]float64, len(sigmap[b]))
		for k, conn := range sigmap[b] {
			conns[k] = hstack(conn, row)
		}
		braket[b] = conns
	}
	return LocalValuesChunked(logpsi, vars, doubled, braket, mel, optFns...)
}

// chunkedLogPsi evaluates logψ over rows in chunks of at most
// o.chunkSize, optionally across goroutines. Each chunk fills its own
// output region, so results are independent of scheduling.
func chunkedLogPsi(logpsi LogPsi, vars model.Variables, rows [][]float64, o evalOptions) ([]complex128, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	size := o.chunkSize
	if size <= 0 || size > len(rows) {
		size = len(rows)
	}

	out := make([]complex128, len(rows))

	eval := func(start, end int) error {
		res, err := logpsi(vars, rows[start:end])
		if err != nil {
			return err
		}
		if len(res) != end-start {
			return &ErrShapeMismatch{Dim: "logpsi", Want: end - start, Got: len(res)}
		}
		copy(out[start:end], res)
		return nil
	}

	if o.parallelism <= 1 {
		for start := 0; start < len(rows); start += size {
			end := min(start+size, len(rows))
			if err := eval(start, end); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	var g errgroup.Group
	g.SetLimit(o.parallelism)
	for start := 0; start < len(rows); start += size {
		start, end := start, min(start+size, len(rows))
		g.Go(func() error { return eval(start, end) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
