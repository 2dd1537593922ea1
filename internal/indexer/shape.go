package indexer

import (
	"fmt"
	"strings"
)

// Shape is a concrete array shape. A nil or empty Shape is a scalar.
type Shape []int

// Scalar is the shape of a zero-dimensional value.
var Scalar = Shape{}

// Size returns the total number of elements an array of this shape holds.
func (s Shape) Size() int {
	size := 1
	for _, dim := range s {
		size *= dim
	}
	return size
}

// Equal checks two shapes for equality. Scalars compare equal regardless of
// nil-vs-empty representation.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i, dim := range s {
		if other[i] != dim {
			return false
		}
	}
	return true
}

// String renders the shape in tuple form, e.g. "(3, 2)" or "()" for scalars.
func (s Shape) String() string {
	if len(s) == 0 {
		return "()"
	}
	parts := make([]string, len(s))
	for i, dim := range s {
		parts[i] = fmt.Sprintf("%d", dim)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// strides returns the row-major stride of each dimension.
func (s Shape) strides() []int {
	strides := make([]int, len(s))
	stride := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= s[i]
	}
	return strides
}
