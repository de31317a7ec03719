package vmc

import (
	"fmt"
	"sync"

	"github.com/hupe1980/vmc/kernels"
	"github.com/hupe1980/vmc/model"
	"github.com/hupe1980/vmc/operator"
)

// GetConfigsFunc resolves the (σ, σp, mel) triple an estimator runs
// over: the state's flattened samples, their connected configurations
// and the matrix elements.
type GetConfigsFunc func(vs *MCState, op operator.Operator) (sigma [][]float64, sigmap [][][]float64, mel [][]complex128, err error)

// ChunkedFunc is the memory-bounded batch form of a kernel, matching
// the signatures in the kernels package.
type ChunkedFunc func(logpsi kernels.LogPsi, vars model.Variables, sigma [][]float64, sigmap [][][]float64, mel [][]complex128, optFns ...kernels.EvalOption) ([]complex128, error)

// ExpectEntry pairs a configuration-retrieval strategy with the local
// estimator kernel applied to it, in plain and chunked form.
type ExpectEntry struct {
	Configs GetConfigsFunc
	Kernel  kernels.Kernel
	Chunked ChunkedFunc
}

type dispatchKey struct {
	state StateKind
	op    operator.Kind
}

var (
	dispatchMu sync.RWMutex
	dispatch   = map[dispatchKey]ExpectEntry{}
)

// RegisterExpect registers an estimator for a (state kind, operator
// kind) combination. Each combination is registered independently;
// registering one twice is an error so that extensions cannot silently
// shadow each other.
func RegisterExpect(state StateKind, op operator.Kind, entry ExpectEntry) error {
	if entry.Configs == nil || entry.Kernel == nil || entry.Chunked == nil {
		return fmt.Errorf("vmc: incomplete expectation entry for state %q and operator %q", state, op)
	}

	dispatchMu.Lock()
	defer dispatchMu.Unlock()

	key := dispatchKey{state: state, op: op}
	if _, ok := dispatch[key]; ok {
		return fmt.Errorf("vmc: expectation case for state %q and operator %q already registered", state, op)
	}
	dispatch[key] = entry
	return nil
}

// lookupExpect resolves the estimator for a combination by exact match,
// failing closed when nothing is registered.
func lookupExpect(state StateKind, op operator.Kind) (ExpectEntry, error) {
	dispatchMu.RLock()
	defer dispatchMu.RUnlock()

	entry, ok := dispatch[dispatchKey{state: state, op: op}]
	if !ok {
		return ExpectEntry{}, &ErrNoMatchingCase{State: state, Operator: op}
	}
	return entry, nil
}

func init() {
	mustRegister(StateKindMC, operator.KindDiscrete, ExpectEntry{
		Configs: discreteConfigs,
		Kernel:  kernels.LocalValue,
		Chunked: kernels.LocalValuesChunked,
	})
	mustRegister(StateKindMC, operator.KindSquared, ExpectEntry{
		Configs: squaredConfigs,
		Kernel:  kernels.LocalValueSquared,
		Chunked: kernels.LocalValuesSquaredChunked,
	})
}

func mustRegister(state StateKind, op operator.Kind, entry ExpectEntry) {
	if err := RegisterExpect(state, op, entry); err != nil {
		panic(err)
	}
}

// discreteConfigs serves generic discrete operators: connected
// configurations come from the operator itself.
func discreteConfigs(vs *MCState, op operator.Operator) ([][]float64, [][][]float64, [][]complex128, error) {
	if err := CheckHilbert(vs.Hilbert(), op.Hilbert()); err != nil {
		return nil, nil, nil, err
	}

	sigma, err := vs.flatSamples()
	if err != nil {
		return nil, nil, nil, err
	}
	sigmap, mel, err := op.GetConnPadded(sigma)
	if err != nil {
		return nil, nil, nil, err
	}
	return sigma, sigmap, mel, nil
}

// squaredConfigs serves Squared wrappers: connected configurations come
// from the wrapped operator, the squaring happens in the kernel.
func squaredConfigs(vs *MCState, op operator.Operator) ([][]float64, [][][]float64, [][]complex128, error) {
	sq, ok := op.(interface{ Parent() operator.Operator })
	if !ok {
		return nil, nil, nil, fmt.Errorf("vmc: operator of kind %q does not expose a parent", op.Kind())
	}
	if err := CheckHilbert(vs.Hilbert(), op.Hilbert()); err != nil {
		return nil, nil, nil, err
	}

	sigma, err := vs.flatSamples()
	if err != nil {
		return nil, nil, nil, err
	}
	sigmap, mel, err := sq.Parent().GetConnPadded(sigma)
	if err != nil {
		return nil, nil, nil, err
	}
	return sigma, sigmap, mel, nil
}

// flatSamples returns the cached samples flattened to (batch, size),
// step-major with the chain index fastest. This matches the layout the
// statistics reducer expects for its per-chain diagnostics.
func (s *MCState) flatSamples() ([][]float64, error) {
	samples, err := s.Samples()
	if err != nil {
		return nil, err
	}
	var flat [][]float64
	for _, step := range samples {
		flat = append(flat, step...)
	}
	return flat, nil
}
