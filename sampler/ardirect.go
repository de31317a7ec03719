package sampler

import (
	"fmt"
	"math"

	"github.com/hupe1980/vmc/hilbert"
	"github.com/hupe1980/vmc/model"
	"github.com/hupe1980/vmc/rng"
)

// ARDirect draws exact i.i.d. samples from an autoregressive model by
// sampling each degree of freedom sequentially from the model's per-site
// conditional. There is no rejection and no equilibration: every call
// yields independent joint samples.
//
// ARDirect does not honor a machine_pow of its own; the exponent of the
// sampling distribution is a property of the model.
type ARDirect struct {
	space      *hilbert.Space
	nChains    int
	machinePow float64
}

var _ Sampler = (*ARDirect)(nil)

type arOptions struct {
	nChains    int
	machinePow float64
}

// Option configures an ARDirect sampler.
type Option func(*arOptions)

// WithChains sets the number of parallel chains per sampling call.
// The default is 16.
func WithChains(n int) Option {
	return func(o *arOptions) {
		o.nChains = n
	}
}

// WithMachinePow overrides the sampling distribution exponent. ARDirect
// rejects integral overrides other than the default of 2 at
// construction: fix the exponent on the model instead.
func WithMachinePow(p float64) Option {
	return func(o *arOptions) {
		o.machinePow = p
	}
}

// NewARDirect creates a direct sampler over the given space.
func NewARDirect(space *hilbert.Space, optFns ...Option) (*ARDirect, error) {
	if space == nil {
		return nil, fmt.Errorf("sampler: nil hilbert space")
	}

	o := arOptions{nChains: 16, machinePow: 2}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	if o.nChains < 1 {
		return nil, fmt.Errorf("sampler: chains must be positive, got %d", o.nChains)
	}
	// Only an integral override is rejected; non-integral values pass
	// through unchecked, matching the narrow historical behavior.
	if o.machinePow == math.Trunc(o.machinePow) && o.machinePow != 2 {
		return nil, &ErrMachinePow{MachinePow: o.machinePow}
	}

	return &ARDirect{
		space:      space,
		nChains:    o.nChains,
		machinePow: o.machinePow,
	}, nil
}

// Space returns the configuration space.
func (s *ARDirect) Space() *hilbert.Space { return s.space }

// NChains returns the number of chains per call.
func (s *ARDirect) NChains() int { return s.nChains }

// MachinePow returns the sampling distribution exponent.
func (s *ARDirect) MachinePow() float64 { return s.machinePow }

// IsExact reports true: direct samples are i.i.d. draws from the model
// distribution.
func (s *ARDirect) IsExact() bool { return true }

// InitState wraps key in a fresh sampler state.
func (s *ARDirect) InitState(key rng.Key) State {
	return NewState(key)
}

// Reset is the identity: direct sampling does not depend on previous
// samples, so there is nothing to re-equilibrate.
func (s *ARDirect) Reset(st State) State { return st }

// SampleChain draws chainLength*NChains() joint samples, one degree of
// freedom at a time, and returns them as (chainLength, nChains, size)
// together with the successor state. The returned state carries a fresh
// top-level key, distinct from the per-site sub-keys, so a subsequent
// call produces an independent stream.
func (s *ARDirect) SampleChain(m model.ConditionalModel, vars model.Variables, st State, chainLength int) ([][][]float64, State, error) {
	if chainLength < 1 {
		return nil, st, fmt.Errorf("%w: got %d", ErrInvalidChainLength, chainLength)
	}

	batch := chainLength * s.nChains
	size := s.space.Size()
	local := s.space.LocalStates()

	keys := st.Key().Split(3)
	nextKey, initKey, scanKey := keys[0], keys[1], keys[2]

	// The buffer starts zeroed but its initial content never matters:
	// every site is written before any conditional may read it.
	sigma := make([][]float64, batch)
	for b := range sigma {
		sigma[b] = make([]float64, size)
	}

	// The incremental cache is rebuilt on every call, even with unchanged
	// variables, so that sequential evaluation restarts at site 0.
	var cache model.Cache
	if ci, ok := m.(model.CacheInitializer); ok {
		cache = ci.InitCache(initKey, sigma)
	}

	carry := scanKey
	for site := 0; site < size; site++ {
		sub := carry.Split(2)
		carry = sub[0]

		p, next, err := m.Conditional(vars, cache, sigma, site)
		if err != nil {
			return nil, st, fmt.Errorf("sampler: conditional at site %d: %w", site, err)
		}
		cache = next

		if len(p) != batch {
			return nil, st, &ErrProbabilityShape{Site: site, WantRows: batch, GotRows: len(p), WantCols: len(local), GotCols: -1}
		}
		for _, row := range p {
			if len(row) != len(local) {
				return nil, st, &ErrProbabilityShape{Site: site, WantRows: batch, GotRows: len(p), WantCols: len(local), GotCols: len(row)}
			}
		}

		vals, err := BatchChoice(sub[1], local, p)
		if err != nil {
			return nil, st, err
		}
		for b := range sigma {
			sigma[b][site] = vals[b]
		}
	}

	out := make([][][]float64, chainLength)
	for l := range out {
		out[l] = sigma[l*s.nChains : (l+1)*s.nChains]
	}
	return out, NewState(nextKey), nil
}

// SampleNext draws a single batch of NChains() samples, squeezing the
// length-1 leading axis of SampleChain.
func (s *ARDirect) SampleNext(m model.ConditionalModel, vars model.Variables, st State) ([][]float64, State, error) {
	samples, next, err := s.SampleChain(m, vars, st, 1)
	if err != nil {
		return nil, st, err
	}
	return samples[0], next, nil
}
