package operator

import (
	"fmt"
	"slices"

	"github.com/hupe1980/vmc/hilbert"
)

// SiteMatrix is a single-site operator given by a dense matrix in the
// local-state basis: ⟨σ|Ô|σ'⟩ = M[σ_site, σ'_site] when σ and σ' agree
// on every other site, and 0 otherwise. The connected set of any
// configuration is the full local-state column at that site, so the
// padded connection count equals the local size.
type SiteMatrix struct {
	space *hilbert.Space
	site  int
	m     [][]complex128
}

var _ Operator = (*SiteMatrix)(nil)

// NewSiteMatrix creates a single-site operator from a square matrix of
// dimension LocalSize x LocalSize, indexed by local-state order.
func NewSiteMatrix(space *hilbert.Space, site int, m [][]complex128) (*SiteMatrix, error) {
	if space == nil {
		return nil, fmt.Errorf("operator: nil hilbert space")
	}
	if site < 0 || site >= space.Size() {
		return nil, fmt.Errorf("operator: site %d out of range [0, %d)", site, space.Size())
	}
	local := space.LocalSize()
	if len(m) != local {
		return nil, fmt.Errorf("operator: matrix has %d rows, want %d", len(m), local)
	}
	rows := make([][]complex128, local)
	for i, row := range m {
		if len(row) != local {
			return nil, fmt.Errorf("operator: matrix row %d has %d columns, want %d", i, len(row), local)
		}
		rows[i] = slices.Clone(row)
	}
	return &SiteMatrix{space: space, site: site, m: rows}, nil
}

// Hilbert returns the space the operator acts on.
func (o *SiteMatrix) Hilbert() *hilbert.Space { return o.space }

// Kind returns KindDiscrete.
func (o *SiteMatrix) Kind() Kind { return KindDiscrete }

// Site returns the site the operator acts on.
func (o *SiteMatrix) Site() int { return o.site }

// GetConnPadded connects every configuration σ to the configurations
// obtained by replacing σ_site with each local state v, with matrix
// element M[σ_site, v].
func (o *SiteMatrix) GetConnPadded(sigma [][]float64) ([][][]float64, [][]complex128, error) {
	local := o.space.LocalStates()

	sigmap := make([][][]float64, len(sigma))
	mels := make([][]complex128, len(sigma))
	for b, row := range sigma {
		if len(row) != o.space.Size() {
			return nil, nil, fmt.Errorf("operator: configuration row %d has %d sites, want %d", b, len(row), o.space.Size())
		}
		i := o.space.StateIndex(row[o.site])
		if i < 0 {
			return nil, nil, fmt.Errorf("operator: value %v at site %d is not a local state", row[o.site], o.site)
		}
		conns := make([][]float64, len(local))
		els := make([]complex128, len(local))
		for j, v := range local {
			conn := slices.Clone(row)
			conn[o.site] = v
			conns[j] = conn
			els[j] = o.m[i][j]
		}
		sigmap[b] = conns
		mels[b] = els
	}
	return sigmap, mels, nil
}
