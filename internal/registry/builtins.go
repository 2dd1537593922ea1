package registry

import (
	"fmt"

	"github.com/vk/modelgraph/internal/indexer"
)

// RegisterBuiltins installs the shape functions every application gets for
// free. Embedders may register more or replace these before loading.
func RegisterBuiltins(r *Registry) {
	r.RegisterShapeFunc("match_siblings", MatchSiblings)
	r.RegisterShapeFunc("total_size", TotalSize)
}

// MatchSiblings requires every opposite-direction sibling to share one
// shape, and returns it.
func MatchSiblings(siblings map[string]indexer.Shape) (indexer.Shape, error) {
	var common indexer.Shape
	first := true
	for name, shape := range siblings {
		if first {
			common = shape
			first = false
			continue
		}
		if !common.Equal(shape) {
			return nil, fmt.Errorf("sibling '%s' has shape %s, expected %s", name, shape, common)
		}
	}
	if first {
		return nil, fmt.Errorf("no opposite-direction siblings to match")
	}
	return common, nil
}

// TotalSize returns a flat vector sized to hold every element of every
// opposite-direction sibling.
func TotalSize(siblings map[string]indexer.Shape) (indexer.Shape, error) {
	total := 0
	for _, shape := range siblings {
		total += shape.Size()
	}
	return indexer.Shape{total}, nil
}
