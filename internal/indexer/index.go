package indexer

import (
	"fmt"
)

// Index is an index expression selecting a sub-array of a source. Exactly
// one of Flat and Dims is set; a nil *Index means the whole source (the
// identity mapping).
type Index struct {
	// Flat selects positions in the row-major flattening of the source.
	// Negative positions count from the end.
	Flat []int
	// Dims selects per-dimension; its length must match the source rank.
	Dims []Dim
}

// Dim is the selection applied to one dimension of the source.
type Dim struct {
	// Indices lists explicit positions along the dimension. Negative
	// positions count from the end.
	Indices []int
	// Slice selects a start/stop/step range. Nil bounds follow the usual
	// slicing defaults for the step's direction.
	Slice *Slice
	// All selects the entire dimension.
	All bool
}

// Slice is a start/stop/step range over one dimension.
type Slice struct {
	Start *int
	Stop  *int
	Step  int
}

// NewFlat builds a flat index expression.
func NewFlat(positions []int) *Index {
	return &Index{Flat: positions}
}

// NewDims builds a per-dimension index expression.
func NewDims(dims ...Dim) *Index {
	return &Index{Dims: dims}
}

// resolvePos normalizes one possibly-negative position against a dimension
// size, erroring when it falls outside the dimension.
func resolvePos(pos, size int) (int, error) {
	resolved := pos
	if resolved < 0 {
		resolved += size
	}
	if resolved < 0 || resolved >= size {
		return 0, fmt.Errorf("index %d out of range for dimension of size %d", pos, size)
	}
	return resolved, nil
}

// expand returns the resolved positions a Dim selects along a dimension of
// the given size, in selection order.
func (d Dim) expand(size int) ([]int, error) {
	switch {
	case d.All:
		positions := make([]int, size)
		for i := range positions {
			positions[i] = i
		}
		return positions, nil

	case d.Slice != nil:
		return d.Slice.expand(size)

	default:
		positions := make([]int, 0, len(d.Indices))
		for _, pos := range d.Indices {
			resolved, err := resolvePos(pos, size)
			if err != nil {
				return nil, err
			}
			positions = append(positions, resolved)
		}
		return positions, nil
	}
}

// expand enumerates the positions a slice selects along a dimension of the
// given size.
func (s *Slice) expand(size int) ([]int, error) {
	step := s.Step
	if step == 0 {
		return nil, fmt.Errorf("slice step cannot be zero")
	}

	var start, stop int
	if step > 0 {
		start, stop = 0, size
	} else {
		start, stop = size-1, -1
	}
	if s.Start != nil {
		start = *s.Start
		if start < 0 {
			start += size
		}
	}
	if s.Stop != nil {
		stop = *s.Stop
		if stop < 0 {
			stop += size
		}
	}

	var positions []int
	if step > 0 {
		for i := start; i < stop && i < size; i += step {
			if i >= 0 {
				positions = append(positions, i)
			}
		}
	} else {
		for i := start; i > stop && i >= 0; i += step {
			if i < size {
				positions = append(positions, i)
			}
		}
	}
	return positions, nil
}

// ResultShape returns the shape of the array the index produces when
// applied to a source of the given shape. A nil Index yields the source
// shape unchanged.
func (ix *Index) ResultShape(src Shape) (Shape, error) {
	if ix == nil {
		return src, nil
	}
	if ix.Flat != nil {
		return Shape{len(ix.Flat)}, nil
	}
	if len(ix.Dims) != len(src) {
		return nil, fmt.Errorf("index has %d dimensions but source shape %s has %d", len(ix.Dims), src, len(src))
	}
	result := make(Shape, len(ix.Dims))
	for i, dim := range ix.Dims {
		positions, err := dim.expand(src[i])
		if err != nil {
			return nil, err
		}
		result[i] = len(positions)
	}
	return result, nil
}

// Flatten resolves the index into explicit positions in the row-major
// flattening of a source of the given shape. A nil Index yields the full
// identity ordering.
func (ix *Index) Flatten(src Shape) ([]int, error) {
	if ix == nil {
		flat := make([]int, src.Size())
		for i := range flat {
			flat[i] = i
		}
		return flat, nil
	}

	if ix.Flat != nil {
		size := src.Size()
		flat := make([]int, 0, len(ix.Flat))
		for _, pos := range ix.Flat {
			resolved, err := resolvePos(pos, size)
			if err != nil {
				return nil, err
			}
			flat = append(flat, resolved)
		}
		return flat, nil
	}

	if len(ix.Dims) != len(src) {
		return nil, fmt.Errorf("index has %d dimensions but source shape %s has %d", len(ix.Dims), src, len(src))
	}

	perDim := make([][]int, len(ix.Dims))
	for i, dim := range ix.Dims {
		positions, err := dim.expand(src[i])
		if err != nil {
			return nil, err
		}
		perDim[i] = positions
	}

	strides := src.strides()
	flat := []int{}
	var walk func(dim, offset int)
	walk = func(dim, offset int) {
		if dim == len(perDim) {
			flat = append(flat, offset)
			return
		}
		for _, pos := range perDim[dim] {
			walk(dim+1, offset+pos*strides[dim])
		}
	}
	walk(0, 0)
	return flat, nil
}

// Compose collapses an outer selection (already flattened against the true
// source) with an inner index applied to the outer selection's result. The
// returned positions address the true source directly.
func Compose(outerFlat []int, inner *Index, innerSrc Shape) ([]int, error) {
	innerFlat, err := inner.Flatten(innerSrc)
	if err != nil {
		return nil, err
	}
	composed := make([]int, 0, len(innerFlat))
	for _, pos := range innerFlat {
		if pos < 0 || pos >= len(outerFlat) {
			return nil, fmt.Errorf("composed index %d out of range for selection of %d elements", pos, len(outerFlat))
		}
		composed = append(composed, outerFlat[pos])
	}
	return composed, nil
}
