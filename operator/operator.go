// Package operator defines the operator contract consumed by the
// expectation machinery, a Squared wrapper for variance-type costs, and
// generic reference operators (diagonal, single-site matrix).
//
// Operators are long-lived, read-only and safe to share across
// concurrent evaluations.
package operator

import (
	"github.com/hupe1980/vmc/hilbert"
)

// Kind tags the runtime category of an operator. The expectation
// dispatcher resolves its estimator kernel by exact (state kind,
// operator kind) match; custom operator families introduce new kinds and
// register their own handlers.
type Kind string

const (
	// KindDiscrete is the generic discrete-operator category, estimated
	// with the amplitude-ratio local-value kernel.
	KindDiscrete Kind = "discrete"

	// KindSquared marks a Squared wrapper, estimated with the
	// squared-magnitude local-value kernel.
	KindSquared Kind = "squared"
)

// Operator maps sampled configurations to their connected configurations
// and matrix elements.
type Operator interface {
	// Hilbert returns the configuration space the operator acts on.
	Hilbert() *hilbert.Space

	// Kind returns the operator's dispatch category.
	Kind() Kind

	// GetConnPadded returns, for every row σ of sigma, the connected
	// configurations σp and matrix elements ⟨σ|Ô|σp⟩. All rows are
	// padded to a common connection count: sigmap has shape
	// (batch, nConn, size) and mels (batch, nConn), rows padded with
	// zero matrix elements.
	GetConnPadded(sigma [][]float64) (sigmap [][][]float64, mels [][]complex128, err error)
}

// Squared wraps an operator Ô to represent |Ô|² ≡ Ô†Ô. Its expectation
// over a state is the squared magnitude of the wrapped operator's local
// values, used for variance and fidelity-type cost functions.
type Squared struct {
	parent Operator
}

var _ Operator = (*Squared)(nil)

// NewSquared wraps op.
func NewSquared(op Operator) *Squared {
	return &Squared{parent: op}
}

// Parent returns the wrapped operator.
func (s *Squared) Parent() Operator { return s.parent }

// Hilbert returns the wrapped operator's space.
func (s *Squared) Hilbert() *hilbert.Space { return s.parent.Hilbert() }

// Kind returns KindSquared.
func (s *Squared) Kind() Kind { return KindSquared }

// GetConnPadded delegates to the wrapped operator. The estimator decides
// how the connected elements enter the squared local value.
func (s *Squared) GetConnPadded(sigma [][]float64) ([][][]float64, [][]complex128, error) {
	return s.parent.GetConnPadded(sigma)
}
