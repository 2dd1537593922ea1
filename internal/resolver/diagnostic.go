package resolver

import (
	"github.com/vk/modelgraph/internal/indexer"
	"github.com/vk/modelgraph/internal/shapegraph"
)

// NodeStatus is the shape-pass outcome of one variable, for rendering.
type NodeStatus int

const (
	// StatusStatic marks a shape seeded from the declaration.
	StatusStatic NodeStatus = iota
	// StatusResolved marks a shape derived during propagation.
	StatusResolved
	// StatusUnresolved marks a shape the pass could not determine.
	StatusUnresolved
)

// String renders the status for serialization.
func (s NodeStatus) String() string {
	switch s {
	case StatusStatic:
		return "static"
	case StatusResolved:
		return "resolved"
	default:
		return "unresolved"
	}
}

// DiagnosticNode is the read-only projection of one shape-graph node.
type DiagnosticNode struct {
	Path         string        `json:"path"`
	Status       string        `json:"status"`
	Shape        indexer.Shape `json:"shape,omitempty"`
	EquivalentTo []string      `json:"equivalent_to,omitempty"`
	ComputeDeps  []string      `json:"compute_deps,omitempty"`
}

// DiagnosticGraph is the shape-dependency graph exposed to visualization
// consumers. It is a pure projection: mutating it has no effect on the
// engine, and the engine never reads it back.
type DiagnosticGraph struct {
	Nodes []*DiagnosticNode `json:"nodes"`
}

// buildDiagnostic projects the constraint graph and the converged shape
// table into the external rendering form, preserving declaration order.
func buildDiagnostic(g *shapegraph.Graph, resolved map[string]indexer.Shape, static map[string]bool) *DiagnosticGraph {
	diag := &DiagnosticGraph{}
	for _, id := range g.Nodes() {
		node := &DiagnosticNode{
			Path:         id,
			Status:       StatusUnresolved.String(),
			EquivalentTo: append([]string(nil), g.EquivalentTo(id)...),
			ComputeDeps:  append([]string(nil), g.ComputeDeps(id)...),
		}
		if shape, ok := resolved[id]; ok {
			node.Shape = shape
			node.Status = StatusResolved.String()
			if static[id] {
				node.Status = StatusStatic.String()
			}
		}
		diag.Nodes = append(diag.Nodes, node)
	}
	return diag
}
