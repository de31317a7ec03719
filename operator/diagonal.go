package operator

import (
	"fmt"
	"slices"

	"github.com/hupe1980/vmc/hilbert"
)

// Diagonal is an operator that is diagonal in the configuration basis:
// ⟨σ|Ô|σ'⟩ = d(σ)·δ_{σσ'}. Each sampled configuration connects only to
// itself, with matrix element d(σ).
type Diagonal struct {
	space *hilbert.Space
	fn    func(sigma []float64) complex128
}

var _ Operator = (*Diagonal)(nil)

// NewDiagonal creates a diagonal operator with diagonal entries d(σ)
// given by fn.
func NewDiagonal(space *hilbert.Space, fn func(sigma []float64) complex128) (*Diagonal, error) {
	if space == nil {
		return nil, fmt.Errorf("operator: nil hilbert space")
	}
	if fn == nil {
		return nil, fmt.Errorf("operator: nil diagonal function")
	}
	return &Diagonal{space: space, fn: fn}, nil
}

// NewIdentity creates the identity operator on the given space.
func NewIdentity(space *hilbert.Space) (*Diagonal, error) {
	return NewDiagonal(space, func([]float64) complex128 { return 1 })
}

// Hilbert returns the space the operator acts on.
func (d *Diagonal) Hilbert() *hilbert.Space { return d.space }

// Kind returns KindDiscrete.
func (d *Diagonal) Kind() Kind { return KindDiscrete }

// GetConnPadded connects every configuration to itself with matrix
// element d(σ), so nConn is always 1.
func (d *Diagonal) GetConnPadded(sigma [][]float64) ([][][]float64, [][]complex128, error) {
	sigmap := make([][][]float64, len(sigma))
	mels := make([][]complex128, len(sigma))
	for b, row := range sigma {
		if len(row) != d.space.Size() {
			return nil, nil, fmt.Errorf("operator: configuration row %d has %d sites, want %d", b, len(row), d.space.Size())
		}
		sigmap[b] = [][]float64{slices.Clone(row)}
		mels[b] = []complex128{d.fn(row)}
	}
	return sigmap, mels, nil
}
