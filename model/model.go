// Package model defines the contract between variational models and the
// sampling/estimation machinery, together with a small reference model.
//
// A model is evaluated in log-amplitude form: LogAmplitude returns
// log ψ(σ) for a batch of configurations, as complex values so that
// generally complex wavefunctions are representable. Autoregressive
// models additionally expose Conditional, the per-site distribution the
// direct sampler draws from.
package model

import (
	"github.com/hupe1980/vmc/params"
	"github.com/hupe1980/vmc/rng"
)

// Variables bundles everything a model evaluation needs besides the
// configurations: trainable parameters and auxiliary non-trainable state.
// Both trees are handled by value and never mutated by the library.
type Variables struct {
	Params params.Tree
	State  params.Tree
}

// Cache is an opaque, model-defined incremental state threaded through
// the sequential sampling loop. nil is a valid cache for models without
// incremental evaluation.
type Cache any

// Model evaluates log-amplitudes over a batch of configurations.
type Model interface {
	// LogAmplitude returns log ψ(σ) for every row of sigma.
	// The result has one entry per row.
	LogAmplitude(vars Variables, sigma [][]float64) ([]complex128, error)
}

// ConditionalModel is a model with an autoregressive factorization:
// the joint distribution is a product of per-site conditionals, so exact
// samples can be drawn site by site.
type ConditionalModel interface {
	Model

	// Conditional returns, for every row of sigma, the probability
	// distribution over the local states at the given site, conditioned
	// on the already-filled sites < site. Entries of sigma at sites
	// >= site must not be read. The returned cache replaces the passed
	// one for the next site; models without incremental state return
	// the cache unchanged.
	Conditional(vars Variables, cache Cache, sigma [][]float64, site int) (p [][]float64, next Cache, err error)
}

// CacheInitializer is implemented by conditional models that carry an
// incremental cache. The sampler calls InitCache before every full chain
// so that sequential evaluation restarts at site 0.
type CacheInitializer interface {
	InitCache(key rng.Key, example [][]float64) Cache
}
