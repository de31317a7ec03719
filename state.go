package vmc

import (
	"context"
	"fmt"

	"github.com/hupe1980/vmc/hilbert"
	"github.com/hupe1980/vmc/model"
	"github.com/hupe1980/vmc/operator"
	"github.com/hupe1980/vmc/params"
	"github.com/hupe1980/vmc/rng"
	"github.com/hupe1980/vmc/sampler"
	"github.com/hupe1980/vmc/snapshot"
	"github.com/hupe1980/vmc/stats"
)

// StateKind tags the runtime category of a variational state for
// expectation dispatch.
type StateKind string

// StateKindMC is the Monte Carlo sampled pure-state category.
const StateKindMC StateKind = "mc"

// MCState is a variational state whose expectation values are estimated
// from Monte Carlo samples. It owns the model variables, the sampler and
// its threaded state, and a lazily filled sample cache that is
// invalidated whenever the variables change.
//
// MCState is not safe for concurrent mutation; treat it as owned by one
// goroutine during a sampling or estimation call.
type MCState struct {
	m  model.ConditionalModel
	sa sampler.Sampler

	vars        model.Variables
	st          sampler.State
	samples     [][][]float64
	chainLength int
	chunkSize   int
	parallelism int
	logger      *Logger
}

// NewMCState creates a Monte Carlo variational state. key seeds the
// sampler's random stream; equal seeds replay identical runs.
func NewMCState(m model.ConditionalModel, sa sampler.Sampler, key rng.Key, optFns ...Option) (*MCState, error) {
	if m == nil {
		return nil, fmt.Errorf("vmc: nil model")
	}
	if sa == nil {
		return nil, fmt.Errorf("vmc: nil sampler")
	}

	o := applyOptions(optFns)
	if o.chainLength < 1 {
		return nil, fmt.Errorf("vmc: chain length must be positive, got %d", o.chainLength)
	}

	return &MCState{
		m:           m,
		sa:          sa,
		vars:        o.vars,
		st:          sa.InitState(key),
		chainLength: o.chainLength,
		chunkSize:   o.chunkSize,
		parallelism: o.parallelism,
		logger:      o.logger,
	}, nil
}

// Kind returns the state's dispatch category.
func (s *MCState) Kind() StateKind { return StateKindMC }

// Hilbert returns the configuration space samples range over.
func (s *MCState) Hilbert() *hilbert.Space { return s.sa.Space() }

// Model returns the variational model.
func (s *MCState) Model() model.ConditionalModel { return s.m }

// Sampler returns the sampler.
func (s *MCState) Sampler() sampler.Sampler { return s.sa }

// Variables returns the current variable bundle.
func (s *MCState) Variables() model.Variables { return s.vars }

// ChainLength returns the number of steps per chain per sampling call.
func (s *MCState) ChainLength() int { return s.chainLength }

// NSamples returns the total number of samples per sampling call.
func (s *MCState) NSamples() int { return s.chainLength * s.sa.NChains() }

// SetVariables replaces the variable bundle and invalidates any cached
// samples: they were drawn from the old distribution.
func (s *MCState) SetVariables(vars model.Variables) {
	s.vars = vars
	s.samples = nil
}

// SetParameters replaces the trainable parameters, keeping the model
// state, and invalidates cached samples.
func (s *MCState) SetParameters(tree params.Tree) {
	s.vars.Params = tree
	s.samples = nil
}

// Reset drops the cached samples so the next access draws fresh ones.
func (s *MCState) Reset() {
	s.st = s.sa.Reset(s.st)
	s.samples = nil
}

// Samples returns the cached sample buffer of shape (chainLength,
// nChains, size), drawing it first if the cache is empty or invalidated.
func (s *MCState) Samples() ([][][]float64, error) {
	if s.samples != nil {
		return s.samples, nil
	}
	return s.Sample()
}

// Sample draws a fresh sample buffer, replacing the cache. The sampler
// state advances only if sampling succeeds; a failed call leaves both
// the cache and the random stream untouched.
func (s *MCState) Sample() ([][][]float64, error) {
	samples, next, err := s.sa.SampleChain(s.m, s.vars, s.st, s.chainLength)
	s.logger.LogSample(context.Background(), s.chainLength, s.sa.NChains(), err)
	if err != nil {
		return nil, err
	}
	s.samples = samples
	s.st = next
	return samples, nil
}

// LogPsi evaluates the model's log-amplitudes with the state's current
// variables.
func (s *MCState) LogPsi(sigma [][]float64) ([]complex128, error) {
	return s.m.LogAmplitude(s.vars, sigma)
}

// LogPDF evaluates the log-density of the sampling distribution,
// machinePow * Re(log ψ), with machinePow taken from the sampler
// (2 for Born-rule squared-amplitude sampling).
func (s *MCState) LogPDF(sigma [][]float64) ([]float64, error) {
	amps, err := s.LogPsi(sigma)
	if err != nil {
		return nil, err
	}
	pow := s.sa.MachinePow()
	out := make([]float64, len(amps))
	for i, a := range amps {
		out[i] = pow * real(a)
	}
	return out, nil
}

// Expect estimates the expectation value of op over the state. See the
// package-level Expect.
func (s *MCState) Expect(op operator.Operator) (stats.Stats, error) {
	return Expect(s, op)
}

// Snapshot captures the current sample buffer and sampler state for
// persistence. Samples are drawn first if the cache is empty.
func (s *MCState) Snapshot() (*snapshot.Snapshot, error) {
	samples, err := s.Samples()
	if err != nil {
		return nil, err
	}
	return snapshot.New(samples, s.st), nil
}

// Restore replaces the sample cache and sampler state from a snapshot,
// validating the buffer against the sampler configuration.
func (s *MCState) Restore(snap *snapshot.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("vmc: nil snapshot")
	}
	size := s.Hilbert().Size()
	nChains := s.sa.NChains()
	for _, step := range snap.Samples {
		if len(step) != nChains {
			return fmt.Errorf("vmc: snapshot has %d chains, sampler expects %d", len(step), nChains)
		}
		for _, row := range step {
			if len(row) != size {
				return fmt.Errorf("vmc: snapshot configuration has %d sites, space has %d", len(row), size)
			}
		}
	}

	s.samples = snap.Samples
	if len(s.samples) == 0 {
		s.samples = nil
	}
	s.st = snap.State()
	s.logger.LogSnapshot(context.Background(), "restore", len(snap.Samples)*nChains, nil)
	return nil
}
