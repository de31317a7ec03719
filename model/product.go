package model

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/hupe1980/vmc/hilbert"
	"github.com/hupe1980/vmc/params"
	"github.com/hupe1980/vmc/rng"
)

// logitsName is the parameter leaf holding the per-site logits, stored
// row-major as size x localSize.
const logitsName = "logits"

// Product is a mean-field autoregressive model: every site is independent
// with distribution softmax(logits[site]). It is the simplest model with a
// valid autoregressive factorization and is mainly useful as a reference
// and in tests of the sampling machinery.
//
// The sampling distribution is |ψ|^machinePow with machinePow fixed to 2,
// i.e. log ψ(σ) = Σ_i logSoftmax(logits[i])[σ_i] / 2.
type Product struct {
	space *hilbert.Space
}

var (
	_ ConditionalModel = (*Product)(nil)
	_ CacheInitializer = (*Product)(nil)
)

// NewProduct creates a product model over the given space.
func NewProduct(space *hilbert.Space) *Product {
	return &Product{space: space}
}

// Space returns the configuration space the model is defined on.
func (m *Product) Space() *hilbert.Space { return m.space }

// InitParams returns a parameter tree with all logits zero, i.e. the
// uniform distribution at every site.
func (m *Product) InitParams() params.Tree {
	return params.New().With(logitsName, make([]float64, m.space.Size()*m.space.LocalSize()))
}

// WithLogits returns a parameter tree carrying the given per-site logits,
// row-major with one row of LocalSize values per site.
func (m *Product) WithLogits(logits []float64) (params.Tree, error) {
	if want := m.space.Size() * m.space.LocalSize(); len(logits) != want {
		return params.Tree{}, fmt.Errorf("model: logits length %d, want %d", len(logits), want)
	}
	return params.New().With(logitsName, logits), nil
}

// LogAmplitude returns log ψ(σ) for every row of sigma.
func (m *Product) LogAmplitude(vars Variables, sigma [][]float64) ([]complex128, error) {
	logits, err := m.logits(vars)
	if err != nil {
		return nil, err
	}

	size := m.space.Size()
	local := m.space.LocalSize()

	out := make([]complex128, len(sigma))
	for b, row := range sigma {
		if len(row) != size {
			return nil, fmt.Errorf("model: configuration row %d has %d sites, want %d", b, len(row), size)
		}
		var acc float64
		for i, v := range row {
			j := m.space.StateIndex(v)
			if j < 0 {
				return nil, fmt.Errorf("model: value %v at site %d is not a local state", v, i)
			}
			acc += logSoftmax(logits[i*local:(i+1)*local], j) / 2
		}
		out[b] = complex(acc, 0)
	}
	return out, nil
}

// Conditional returns softmax(logits[site]) for every row. The model has
// no inter-site dependencies, so the partial configuration is ignored,
// but the cache cursor still enforces sequential use.
func (m *Product) Conditional(vars Variables, cache Cache, sigma [][]float64, site int) ([][]float64, Cache, error) {
	if site < 0 || site >= m.space.Size() {
		return nil, nil, fmt.Errorf("model: site %d out of range [0, %d)", site, m.space.Size())
	}
	next := cache
	if cur, ok := cache.(*productCache); ok {
		if site != cur.next {
			return nil, nil, fmt.Errorf("model: conditional at site %d, cache expects site %d", site, cur.next)
		}
		next = &productCache{next: site + 1}
	}

	logits, err := m.logits(vars)
	if err != nil {
		return nil, nil, err
	}

	local := m.space.LocalSize()
	probs := softmax(logits[site*local : (site+1)*local])

	p := make([][]float64, len(sigma))
	for b := range sigma {
		p[b] = probs
	}
	return p, next, nil
}

// InitCache returns a fresh site cursor. The example configuration and
// key are unused; they are part of the contract for models whose cache
// shape depends on the batch.
func (m *Product) InitCache(_ rng.Key, _ [][]float64) Cache {
	return &productCache{next: 0}
}

func (m *Product) logits(vars Variables) ([]float64, error) {
	logits, ok := vars.Params.Get(logitsName)
	if !ok {
		return nil, fmt.Errorf("model: missing %q parameter", logitsName)
	}
	if want := m.space.Size() * m.space.LocalSize(); len(logits) != want {
		return nil, fmt.Errorf("model: %q has length %d, want %d", logitsName, len(logits), want)
	}
	return logits, nil
}

// productCache tracks the next expected site. It exists to exercise the
// cache side-channel of the sequential sampling loop.
type productCache struct {
	next int
}

func softmax(logits []float64) []float64 {
	max := math.Inf(-1)
	for _, v := range logits {
		if v > max {
			max = v
		}
	}
	var sum float64
	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func logSoftmax(logits []float64, j int) float64 {
	max := math.Inf(-1)
	for _, v := range logits {
		if v > max {
			max = v
		}
	}
	var sum float64
	for _, v := range logits {
		sum += math.Exp(v - max)
	}
	return logits[j] - max - math.Log(sum)
}

// Constant is a model whose log-amplitude is a fixed complex value for
// every configuration and whose conditionals put all probability mass on
// a fixed local-state index. Deterministic by construction; used to pin
// down sampler and estimator behavior in tests and examples.
type Constant struct {
	space    *hilbert.Space
	logPsi   complex128
	stateIdx int
}

var _ ConditionalModel = (*Constant)(nil)

// NewConstant creates a constant model. stateIdx selects the local state
// every conditional is concentrated on.
func NewConstant(space *hilbert.Space, logPsi complex128, stateIdx int) (*Constant, error) {
	if stateIdx < 0 || stateIdx >= space.LocalSize() {
		return nil, fmt.Errorf("model: state index %d out of range [0, %d)", stateIdx, space.LocalSize())
	}
	return &Constant{space: space, logPsi: logPsi, stateIdx: stateIdx}, nil
}

// LogAmplitude returns the fixed log-amplitude for every row.
func (m *Constant) LogAmplitude(_ Variables, sigma [][]float64) ([]complex128, error) {
	out := make([]complex128, len(sigma))
	for i := range out {
		out[i] = m.logPsi
	}
	return out, nil
}

// Conditional puts all probability mass on the configured local state.
func (m *Constant) Conditional(_ Variables, cache Cache, sigma [][]float64, site int) ([][]float64, Cache, error) {
	if site < 0 || site >= m.space.Size() {
		return nil, nil, fmt.Errorf("model: site %d out of range [0, %d)", site, m.space.Size())
	}
	p := make([][]float64, len(sigma))
	onehot := make([]float64, m.space.LocalSize())
	onehot[m.stateIdx] = 1
	for b := range p {
		p[b] = onehot
	}
	return p, cache, nil
}

// Amplitude returns exp(logPsi) of the model, mainly for test assertions.
func (m *Constant) Amplitude() complex128 { return cmplx.Exp(m.logPsi) }
