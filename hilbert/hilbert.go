// Package hilbert describes discrete configuration spaces.
//
// A Space is an immutable descriptor: the number of degrees of freedom and
// the ordered set of values each degree of freedom may take. It carries no
// amplitudes and no samples; samplers and operators share one Space by
// reference and never modify it.
package hilbert

import (
	"fmt"
	"slices"
)

// Space is an immutable discrete configuration space descriptor.
// It is safe for concurrent use.
type Space struct {
	size        int
	localStates []float64
}

// Custom creates a space of size degrees of freedom, each taking one of the
// given local states. The states must be non-empty, strictly increasing and
// are defensively copied.
func Custom(localStates []float64, size int) (*Space, error) {
	if size <= 0 {
		return nil, fmt.Errorf("hilbert: size must be positive, got %d", size)
	}
	if len(localStates) == 0 {
		return nil, fmt.Errorf("hilbert: local states must be non-empty")
	}
	if !slices.IsSorted(localStates) {
		return nil, fmt.Errorf("hilbert: local states must be sorted")
	}
	for i := 1; i < len(localStates); i++ {
		if localStates[i] == localStates[i-1] {
			return nil, fmt.Errorf("hilbert: duplicate local state %v", localStates[i])
		}
	}
	return &Space{size: size, localStates: slices.Clone(localStates)}, nil
}

// Spin creates a space of n spin-1/2 degrees of freedom with local
// states {-1, +1}.
func Spin(n int) (*Space, error) {
	return Custom([]float64{-1, 1}, n)
}

// Qubit creates a space of n binary degrees of freedom with local
// states {0, 1}.
func Qubit(n int) (*Space, error) {
	return Custom([]float64{0, 1}, n)
}

// Size returns the number of degrees of freedom.
func (s *Space) Size() int { return s.size }

// LocalStates returns the ordered allowed values per degree of freedom.
// The returned slice is shared and must not be modified.
func (s *Space) LocalStates() []float64 { return s.localStates }

// LocalSize returns the number of allowed values per degree of freedom.
func (s *Space) LocalSize() int { return len(s.localStates) }

// StateIndex returns the index of v in the local states, or -1 if v is not
// an allowed value.
func (s *Space) StateIndex(v float64) int {
	return slices.Index(s.localStates, v)
}

// Equal reports whether two spaces describe the same configuration space.
func (s *Space) Equal(o *Space) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	return s.size == o.size && slices.Equal(s.localStates, o.localStates)
}

func (s *Space) String() string {
	return fmt.Sprintf("Space(size=%d, local=%v)", s.size, s.localStates)
}
