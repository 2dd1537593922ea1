package shapegraph

import (
	"fmt"
)

// node is one vertex with insertion-ordered adjacency lists.
type node struct {
	id string
	// equiv holds the ids sharing this node's shape, in insertion order.
	equiv []string
	// computeDeps holds the ids this node's computed shape reads.
	computeDeps []string
	// computeDependents holds the ids whose computed shape reads this node.
	computeDependents []string
}

// Graph is the shape-constraint topology for one resolution run.
type Graph struct {
	nodes map[string]*node
	order []string
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. Adding an
// existing ID does nothing.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{id: id}
	g.order = append(g.order, id)
}

// AddEquivalence records that two nodes must resolve to equivalent shapes.
// The edge is undirected; both adjacency lists are extended. An error is
// returned if either node does not exist or the edge is self-referential.
func (g *Graph) AddEquivalence(a, b string) error {
	if a == b {
		return fmt.Errorf("self-referential equivalence not allowed: %s", a)
	}
	na, ok := g.nodes[a]
	if !ok {
		return fmt.Errorf("node not found: %s", a)
	}
	nb, ok := g.nodes[b]
	if !ok {
		return fmt.Errorf("node not found: %s", b)
	}
	na.equiv = append(na.equiv, b)
	nb.equiv = append(nb.equiv, a)
	return nil
}

// AddComputeDep records that the shape of `id` is computed from the shape
// of `dep`. The edge is directed dep → id.
func (g *Graph) AddComputeDep(id, dep string) error {
	if id == dep {
		return fmt.Errorf("self-referential compute dependency not allowed: %s", id)
	}
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("node not found: %s", id)
	}
	d, ok := g.nodes[dep]
	if !ok {
		return fmt.Errorf("dependency node not found: %s", dep)
	}
	n.computeDeps = append(n.computeDeps, dep)
	d.computeDependents = append(d.computeDependents, id)
	return nil
}

// Nodes returns every node ID in insertion order.
func (g *Graph) Nodes() []string {
	return g.order
}

// EquivalentTo returns the equivalence neighbors of a node in insertion
// order, or nil for an unknown node.
func (g *Graph) EquivalentTo(id string) []string {
	if n, ok := g.nodes[id]; ok {
		return n.equiv
	}
	return nil
}

// ComputeDeps returns the ids a node's computed shape depends on.
func (g *Graph) ComputeDeps(id string) []string {
	if n, ok := g.nodes[id]; ok {
		return n.computeDeps
	}
	return nil
}

// ComputeDependents returns the ids whose computed shape depends on a node.
func (g *Graph) ComputeDependents(id string) []string {
	if n, ok := g.nodes[id]; ok {
		return n.computeDependents
	}
	return nil
}

// DetectComputeCycles checks the directed compute edges for cycles. A
// cycle means the involved shapes can never fire and is reported with the
// first node found on it. Equivalence edges are not followed; they cannot
// deadlock propagation.
func (g *Graph) DetectComputeCycles() error {
	// Classic depth-first search with permanent and temporary marks,
	// visiting in insertion order so the reported node is deterministic.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return fmt.Errorf("compute-shape cycle detected involving '%s'", n.id)
		}

		temporary[n.id] = true
		for _, depID := range n.computeDependents {
			if err := visit(g.nodes[depID]); err != nil {
				return err
			}
		}
		delete(temporary, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, id := range g.order {
		if !permanent[id] {
			if err := visit(g.nodes[id]); err != nil {
				return err
			}
		}
	}
	return nil
}
