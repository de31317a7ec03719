package vmc

import (
	"fmt"

	"github.com/hupe1980/vmc/hilbert"
	"github.com/hupe1980/vmc/operator"
)

// ErrHilbertMismatch indicates that a variational state and an operator
// are defined on different configuration spaces. Estimating across
// mismatched spaces would silently produce wrong numbers, so the
// combination is rejected before any evaluation.
type ErrHilbertMismatch struct {
	State    *hilbert.Space
	Operator *hilbert.Space
}

func (e *ErrHilbertMismatch) Error() string {
	return fmt.Sprintf("non-matching hilbert spaces: state %v, operator %v", e.State, e.Operator)
}

// CheckHilbert returns an ErrHilbertMismatch when a and b describe
// different configuration spaces.
func CheckHilbert(a, b *hilbert.Space) error {
	if !a.Equal(b) {
		return &ErrHilbertMismatch{State: a, Operator: b}
	}
	return nil
}

// ErrNoMatchingCase indicates that no estimator is registered for a
// (state kind, operator kind) combination. Lookups fail closed: there is
// no default kernel to fall back to.
type ErrNoMatchingCase struct {
	State    StateKind
	Operator operator.Kind
}

func (e *ErrNoMatchingCase) Error() string {
	return fmt.Sprintf("no expectation case registered for state %q and operator %q", e.State, e.Operator)
}
