package sampler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidChainLength is returned when a sampling call requests a
	// non-positive chain length.
	ErrInvalidChainLength = errors.New("chain length must be positive")
)

// ErrMachinePow indicates a sampler-level machine_pow override. The
// direct sampler always draws from the model's own distribution, so the
// exponent must be configured on the model; an integral override other
// than 2 is rejected at construction. Non-integral values pass the check
// unchanged.
type ErrMachinePow struct {
	MachinePow float64
}

func (e *ErrMachinePow) Error() string {
	return fmt.Sprintf("sampler machine_pow override %v is not supported: set the exponent on the model", e.MachinePow)
}

// ErrProbabilityShape indicates that a model conditional returned a
// probability batch whose dimensions do not match the sampling batch.
type ErrProbabilityShape struct {
	Site     int
	WantRows int
	GotRows  int
	WantCols int
	GotCols  int
}

func (e *ErrProbabilityShape) Error() string {
	return fmt.Sprintf("conditional at site %d returned shape (%d, %d), want (%d, %d)",
		e.Site, e.GotRows, e.GotCols, e.WantRows, e.WantCols)
}
