package resolver

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/modelgraph/internal/indexer"
	"github.com/vk/modelgraph/internal/model"
	"github.com/vk/modelgraph/internal/syspath"
)

// chainLink is one namespace level's slicing directive on the way from a
// source down to one target input, ordered root to leaf.
type chainLink struct {
	scope syspath.Path
	index *indexer.Index
	// srcShape is the shape this level assumes the previous level's output
	// has; nil when the level declared none.
	srcShape indexer.Shape
}

// TargetBinding is one target input of a connection together with its
// composed source-index mapping.
type TargetBinding struct {
	// Path is the absolute path of the target input.
	Path syspath.Path

	// Identity is true when no level sliced the connection; Composed is
	// nil in that case and the full source feeds the target.
	Identity bool
	// Composed maps each element of the target to a position in the
	// row-major flattening of the source. Nil iff Identity.
	Composed []int

	// chain holds the per-level directives the composer consumed, kept
	// for diagnostics.
	chain []chainLink
}

// Connection is one finalized source → targets edge of the flat graph.
type Connection struct {
	// Source is the absolute path of the output feeding the targets; for
	// synthesized sources it points at the AutoSource variable.
	Source syspath.Path
	// Auto is true when Source names a synthesized AutoSource.
	Auto bool
	// Targets lists the connected inputs in declaration order.
	Targets []*TargetBinding
}

// AutoSource is an output synthesized for a promoted-name group of inputs
// that no declared output reaches. Downstream consumers treat it as an
// ordinary output at the top-level namespace.
type AutoSource struct {
	// Path is the synthesized absolute path, e.g. "_auto_ivc.v0".
	Path syspath.Path
	// Promoted is the root-level promoted name of the inputs it feeds.
	Promoted string
	// Value and Units are the reconciled default metadata.
	Value cty.Value
	Units string
	// Discrete mirrors the member inputs' discrete flag.
	Discrete bool
	// SrcShape is the declared source shape when some level pinned one;
	// nil leaves the shape to propagate back from the member inputs.
	SrcShape indexer.Shape
}

// VariableInfo is one row of the flat table handed to the execution and
// derivatives collaborators.
type VariableInfo struct {
	Path        syspath.Path
	IO          model.IO
	Discrete    bool
	Distributed bool
	// Shape is the concrete resolved shape.
	Shape indexer.Shape
	// Units is the declared unit string of the variable itself.
	Units string
	// Value is the effective default: for auto-sourced inputs, the
	// reconciled source value converted into the variable's own units.
	Value cty.Value
}

// Resolution is the complete artifact of one resolution pass. It is
// immutable once returned.
type Resolution struct {
	// Table lists every variable, declaration order, AutoSources last.
	Table []*VariableInfo
	// Connections is the finalized flat connection set.
	Connections []*Connection
	// AutoSources lists the synthesized sources in creation order.
	AutoSources []*AutoSource
	// Graph is the read-only diagnostic projection of the shape pass.
	Graph *DiagnosticGraph

	byPath map[string]*VariableInfo
}

// Lookup returns the table row for an absolute path.
func (r *Resolution) Lookup(p syspath.Path) (*VariableInfo, bool) {
	info, ok := r.byPath[p.String()]
	return info, ok
}

// ConnectionTo returns the connection and binding feeding an input.
func (r *Resolution) ConnectionTo(target syspath.Path) (*Connection, *TargetBinding, bool) {
	for _, conn := range r.Connections {
		for _, binding := range conn.Targets {
			if binding.Path.Equal(target) {
				return conn, binding, true
			}
		}
	}
	return nil, nil, false
}
