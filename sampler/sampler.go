// Package sampler generates configuration samples from model-defined
// probability distributions.
//
// The only sampler implemented here is ARDirect, an exact (rejection-free)
// sampler for autoregressive models. All randomness is threaded through
// immutable rng.Key values carried in a State: every sampling call takes a
// State in and returns a fresh one, so runs are reproducible and states
// are never mutated in place.
package sampler

import (
	"github.com/hupe1980/vmc/hilbert"
	"github.com/hupe1980/vmc/model"
	"github.com/hupe1980/vmc/rng"
)

// State is the opaque per-sampler state threaded through sampling calls.
// It is a value type and is replaced, never mutated, by each call.
type State struct {
	key rng.Key
}

// NewState wraps a random key in a sampler state.
func NewState(key rng.Key) State {
	return State{key: key}
}

// Key returns the random key carried by the state, e.g. for persistence.
func (s State) Key() rng.Key { return s.key }

// Sampler produces batches of configuration samples from an
// autoregressive model.
type Sampler interface {
	// Space returns the configuration space samples are drawn from.
	Space() *hilbert.Space

	// NChains returns the number of parallel chains per call.
	NChains() int

	// MachinePow returns the exponent of the sampling distribution
	// |ψ|^machinePow.
	MachinePow() float64

	// IsExact reports whether samples are exact i.i.d. draws (as opposed
	// to a Markov chain that needs equilibration).
	IsExact() bool

	// InitState wraps a key into an initial sampler state. No sampling
	// is performed.
	InitState(key rng.Key) State

	// Reset prepares the state for an independent run.
	Reset(st State) State

	// SampleChain draws chainLength batches of NChains() samples each,
	// returning a buffer of shape (chainLength, nChains, size) and the
	// successor state.
	SampleChain(m model.ConditionalModel, vars model.Variables, st State, chainLength int) ([][][]float64, State, error)
}
