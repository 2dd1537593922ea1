package resolver

import (
	"context"
	"fmt"

	"github.com/vk/modelgraph/internal/ctxlog"
	"github.com/vk/modelgraph/internal/indexer"
)

// composeIndices finalizes every connection's per-target index mapping.
// It runs after shape inference because the outermost index applies
// against the true resolved source shape.
//
// Composition is function composition root to leaf: the outermost index
// selects from the source, each deeper level selects from the previous
// level's output. A level that declared a src_shape pins the shape it
// expects to receive; disagreement is fatal.
func composeIndices(ctx context.Context, shapes *shapeResult, conns *connectionResult, col *collector) {
	logger := ctxlog.FromContext(ctx)

	composed, identity := 0, 0
	for _, conn := range conns.connections {
		srcShape, ok := shapes.shapes[conn.Source.String()]
		if !ok {
			// Shape inference already reported the unresolved source.
			continue
		}
		for _, binding := range conn.Targets {
			if chainIdentity(binding.chain) {
				binding.Identity = true
				identity++
				continue
			}
			flat, err := composeChain(binding.chain, srcShape, conn, binding, col)
			if err != nil {
				continue
			}
			binding.Composed = flat
			composed++
		}
	}

	logger.Debug("Index composition complete.", "composed", composed, "identity", identity)
}

// composeChain folds one binding's chain into flat positions addressing
// the true source. Errors are collected and also returned so the caller
// can skip the binding.
func composeChain(chain []chainLink, srcShape indexer.Shape, conn *Connection, binding *TargetBinding, col *collector) ([]int, error) {
	shape := srcShape
	var flat []int

	for i, link := range chain {
		if link.srcShape != nil && !link.srcShape.Equal(shape) {
			err := &ShapeMismatchError{
				Context: fmt.Sprintf("composing src_indices for '%s' at level '%s'", binding.Path, scopeName(link.scope)),
				Want:    link.srcShape,
				Got:     shape,
			}
			col.add(err)
			return nil, err
		}
		if link.index == nil {
			continue
		}

		var err error
		if i == 0 || flat == nil {
			flat, err = link.index.Flatten(shape)
		} else {
			flat, err = indexer.Compose(flat, link.index, shape)
		}
		if err != nil {
			wrapped := fmt.Errorf("composing src_indices for '%s' from '%s': %w", binding.Path, conn.Source, err)
			col.add(wrapped)
			return nil, wrapped
		}

		shape, err = link.index.ResultShape(shape)
		if err != nil {
			wrapped := fmt.Errorf("composing src_indices for '%s' from '%s': %w", binding.Path, conn.Source, err)
			col.add(wrapped)
			return nil, wrapped
		}
	}

	return flat, nil
}
