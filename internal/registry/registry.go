// Package registry holds the named shape functions a model may reference
// from a `compute_shape` declaration.
//
// A Computed shape spec cannot carry a closure through the declaration
// format, so models name a function and the embedding program registers the
// Go implementation here. Validation performs a strict parity check between
// the loaded model and the registered code, reporting every missing
// function at once.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/modelgraph/internal/ctxlog"
	"github.com/vk/modelgraph/internal/indexer"
	"github.com/vk/modelgraph/internal/model"
)

// ShapeFunc computes the shape of a variable from the resolved shapes of
// all its opposite-direction siblings, keyed by local name. It must be a
// pure function of its argument.
type ShapeFunc func(siblings map[string]indexer.Shape) (indexer.Shape, error)

// Registry maps shape-function names to their Go implementations for a
// single application instance.
type Registry struct {
	ShapeFuncRegistry map[string]ShapeFunc
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		ShapeFuncRegistry: make(map[string]ShapeFunc),
	}
}

// RegisterShapeFunc adds a named shape function. Re-registering a name
// replaces the previous implementation.
func (r *Registry) RegisterShapeFunc(name string, fn ShapeFunc) {
	r.ShapeFuncRegistry[name] = fn
}

// ShapeFunc returns the registered implementation for a name.
func (r *Registry) ShapeFunc(name string) (ShapeFunc, bool) {
	fn, ok := r.ShapeFuncRegistry[name]
	return fn, ok
}

// ValidateModel checks that every compute_shape name referenced by the
// model has a registered implementation. All missing names are reported
// together.
func (r *Registry) ValidateModel(ctx context.Context, m *model.Model) error {
	logger := ctxlog.FromContext(ctx)

	var errs []string
	for _, v := range m.Variables() {
		if v.Shape.Kind != model.Computed {
			continue
		}
		if _, ok := r.ShapeFuncRegistry[v.Shape.Compute]; !ok {
			errs = append(errs, fmt.Sprintf("variable '%s': compute_shape function '%s' is not registered", v.Path, v.Shape.Compute))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Debug("Registry validation passed.", "shape_funcs", len(r.ShapeFuncRegistry))
	return nil
}

// Names returns the registered function names in sorted order, for
// diagnostics and help output.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ShapeFuncRegistry))
	for name := range r.ShapeFuncRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
