package kernels

import "fmt"

// ErrShapeMismatch indicates that the connected configurations or matrix
// elements do not share the expected leading dimensions. It is raised
// before any reduction; dimensions are never silently broadcast.
type ErrShapeMismatch struct {
	Dim  string
	Want int
	Got  int
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("shape mismatch on %s dimension: want %d, got %d", e.Dim, e.Want, e.Got)
}
