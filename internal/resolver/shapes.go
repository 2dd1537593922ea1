package resolver

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/modelgraph/internal/ctxlog"
	"github.com/vk/modelgraph/internal/indexer"
	"github.com/vk/modelgraph/internal/model"
	"github.com/vk/modelgraph/internal/registry"
	"github.com/vk/modelgraph/internal/shapegraph"
	"github.com/vk/modelgraph/internal/syspath"
)

// shapeResult carries the converged shapes plus the material needed to
// project the diagnostic graph.
type shapeResult struct {
	shapes map[string]indexer.Shape
	// static marks the paths seeded from declarations rather than
	// propagated.
	static map[string]bool
	graph  *shapegraph.Graph
}

// shapeEngine is the transient state of one shape inference run.
type shapeEngine struct {
	m     *model.Model
	reg   *registry.Registry
	col   *collector
	graph *shapegraph.Graph

	// transforms maps "from>to" to the slicing chain crossed when a shape
	// propagates along that equivalence edge in that direction. An edge
	// direction without an entry cannot be crossed (slicing does not
	// invert).
	transforms map[string][]chainLink

	resolved map[string]indexer.Shape
	static   map[string]bool
	// failed marks nodes whose propagation raised an error; they are not
	// retried and not re-reported as unresolved.
	failed map[string]bool

	autos map[string]*AutoSource
}

// resolveShapes propagates concrete shapes across the connection graph and
// intra-component relations to a fixed point.
func resolveShapes(ctx context.Context, m *model.Model, conns *connectionResult, reg *registry.Registry, col *collector) *shapeResult {
	logger := ctxlog.FromContext(ctx)

	e := &shapeEngine{
		m:          m,
		reg:        reg,
		col:        col,
		graph:      shapegraph.New(),
		transforms: make(map[string][]chainLink),
		resolved:   make(map[string]indexer.Shape),
		static:     make(map[string]bool),
		failed:     make(map[string]bool),
		autos:      make(map[string]*AutoSource),
	}

	e.buildGraph(conns)
	scans := e.propagate()
	e.validateConverged()

	logger.Debug("Shape inference complete.",
		"nodes", len(e.graph.Nodes()), "resolved", len(e.resolved), "scans", scans)

	return &shapeResult{shapes: e.resolved, static: e.static, graph: e.graph}
}

// buildGraph seeds statically shaped nodes and adds every constraint edge.
func (e *shapeEngine) buildGraph(conns *connectionResult) {
	for _, v := range e.m.Variables() {
		id := v.Path.String()
		e.graph.AddNode(id)
		if v.Shape.Kind == model.Static {
			e.resolved[id] = v.Shape.Shape
			e.static[id] = true
		}
	}
	for _, auto := range conns.autoSources {
		id := auto.Path.String()
		e.graph.AddNode(id)
		e.autos[id] = auto
		switch {
		case auto.SrcShape != nil:
			e.resolved[id] = auto.SrcShape
			e.static[id] = true
		case auto.Value != cty.NilVal && valueShape(auto.Value) != nil:
			e.resolved[id] = valueShape(auto.Value)
			e.static[id] = true
		}
	}

	// Connection equivalence, transformed by the target's slicing chain.
	for _, conn := range conns.connections {
		src := conn.Source.String()
		for _, binding := range conn.Targets {
			tgt := binding.Path.String()
			if err := e.graph.AddEquivalence(src, tgt); err != nil {
				e.col.add(err)
				continue
			}
			e.transforms[src+">"+tgt] = binding.chain
			if chainIdentity(binding.chain) {
				e.transforms[tgt+">"+src] = nil
			}
			e.checkDistributed(conn, binding)
		}
	}

	// Intra-component relations.
	for _, v := range e.m.Variables() {
		id := v.Path.String()
		switch v.Shape.Kind {
		case model.CopyShape:
			sibling := v.Path.Parent().Child(v.Shape.Ref)
			if _, ok := e.m.Variable(sibling); !ok {
				e.col.add(fmt.Errorf("variable '%s': copy_shape names unknown sibling '%s'", v.Path, v.Shape.Ref))
				continue
			}
			sid := sibling.String()
			if err := e.graph.AddEquivalence(id, sid); err != nil {
				e.col.add(err)
				continue
			}
			e.transforms[id+">"+sid] = nil
			e.transforms[sid+">"+id] = nil

		case model.Computed:
			for _, dep := range e.computedDeps(v) {
				if err := e.graph.AddComputeDep(id, dep.Path.String()); err != nil {
					e.col.add(err)
				}
			}
		}
	}
}

// computedDeps returns every opposite-direction sibling of a computed
// variable, declaration order. A computed shape never reads a sibling of
// its own direction.
func (e *shapeEngine) computedDeps(v *model.Variable) []*model.Variable {
	owner, ok := e.m.System(v.Path.Parent())
	if !ok {
		return nil
	}
	var deps []*model.Variable
	for _, sibling := range owner.Variables {
		if sibling.IO != v.IO {
			deps = append(deps, sibling)
		}
	}
	return deps
}

// checkDistributed rejects a dynamically-shaped distributed output feeding
// a dynamically-shaped non-distributed input; the receiver's value would
// differ per rank. The converse direction is allowed.
func (e *shapeEngine) checkDistributed(conn *Connection, binding *TargetBinding) {
	sv, ok := e.m.Variable(conn.Source)
	if !ok {
		return // auto sources are never distributed
	}
	tv, ok := e.m.Variable(binding.Path)
	if !ok {
		return
	}
	if sv.Distributed && sv.Shape.Kind != model.Static &&
		!tv.Distributed && tv.Shape.Kind != model.Static {
		e.col.add(&DistributedShapeMismatchError{Source: conn.Source, Target: binding.Path})
	}
}

// propagate runs the fixed-point scan: resolve any node reachable from a
// resolved node over a crossable equivalence edge, evaluate any computed
// node whose full dependency set is known, stop on a scan with no change.
func (e *shapeEngine) propagate() int {
	scans := 0
	for {
		scans++
		changed := false
		for _, id := range e.graph.Nodes() {
			if _, ok := e.resolved[id]; ok {
				continue
			}
			if e.failed[id] {
				continue
			}
			if e.tryEquivalence(id) || e.tryComputed(id) {
				changed = true
			}
		}
		if !changed {
			return scans
		}
	}
}

func (e *shapeEngine) tryEquivalence(id string) bool {
	for _, nb := range e.graph.EquivalentTo(id) {
		shape, ok := e.resolved[nb]
		if !ok {
			continue
		}
		chain, present := e.transforms[nb+">"+id]
		if !present {
			continue
		}
		out, err := applyChain(chain, shape)
		if err != nil {
			e.col.add(fmt.Errorf("propagating shape from '%s' to '%s': %w", nb, id, err))
			e.failed[id] = true
			return false
		}
		e.resolved[id] = out
		return true
	}
	return false
}

func (e *shapeEngine) tryComputed(id string) bool {
	v, ok := e.m.Variable(syspath.MustParse(id))
	if !ok || v.Shape.Kind != model.Computed {
		return false
	}

	deps := e.computedDeps(v)
	if len(deps) == 0 {
		e.col.add(fmt.Errorf("variable '%s': computed shape has no opposite-direction siblings", v.Path))
		e.failed[id] = true
		return false
	}
	siblings := make(map[string]indexer.Shape, len(deps))
	for _, dep := range deps {
		shape, ok := e.resolved[dep.Path.String()]
		if !ok {
			return false
		}
		siblings[dep.Path.Name()] = shape
	}

	fn, ok := e.reg.ShapeFunc(v.Shape.Compute)
	if !ok {
		// Registry validation reports this; avoid spinning on it here.
		e.failed[id] = true
		return false
	}
	shape, err := fn(siblings)
	if err != nil {
		e.col.add(fmt.Errorf("variable '%s': compute_shape '%s': %w", v.Path, v.Shape.Compute, err))
		e.failed[id] = true
		return false
	}
	e.resolved[id] = shape
	return true
}

// validateConverged reports unresolved nodes and cross-checks every
// crossable edge between two resolved nodes.
func (e *shapeEngine) validateConverged() {
	var unresolved []syspath.Path
	for _, id := range e.graph.Nodes() {
		if _, ok := e.resolved[id]; ok {
			continue
		}
		if e.failed[id] {
			continue
		}
		unresolved = append(unresolved, syspath.MustParse(id))
	}
	if len(unresolved) > 0 {
		detail := ""
		if err := e.graph.DetectComputeCycles(); err != nil {
			detail = err.Error()
		}
		e.col.add(&UnresolvableShapeError{
			Paths:  unresolved,
			Graph:  buildDiagnostic(e.graph, e.resolved, e.static),
			Detail: detail,
		})
	}

	for _, id := range e.graph.Nodes() {
		src, ok := e.resolved[id]
		if !ok {
			continue
		}
		for _, nb := range e.graph.EquivalentTo(id) {
			chain, present := e.transforms[id+">"+nb]
			if !present {
				continue
			}
			want, ok := e.resolved[nb]
			if !ok {
				continue
			}
			got, err := applyChain(chain, src)
			if err != nil || !got.Equal(want) {
				e.col.add(&ShapeMismatchError{
					Context: fmt.Sprintf("between connected '%s' and '%s'", id, nb),
					Want:    want,
					Got:     got,
				})
			}
		}
	}
}

// chainIdentity reports whether a slicing chain selects the whole source.
func chainIdentity(chain []chainLink) bool {
	for _, link := range chain {
		if link.index != nil {
			return false
		}
	}
	return true
}

// applyChain reduces a shape by every index expression on a chain,
// outermost first.
func applyChain(chain []chainLink, shape indexer.Shape) (indexer.Shape, error) {
	out := shape
	for _, link := range chain {
		if link.index == nil {
			continue
		}
		next, err := link.index.ResultShape(out)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// valueShape derives a concrete shape from a declared default value. Only
// collections pin a shape; scalars broadcast to whatever the connection
// needs, so they return nil.
func valueShape(v cty.Value) indexer.Shape {
	ty := v.Type()
	if !ty.IsTupleType() && !ty.IsListType() {
		return nil
	}
	n := v.LengthInt()
	if n == 0 {
		return indexer.Shape{0}
	}
	it := v.ElementIterator()
	it.Next()
	_, first := it.Element()
	return append(indexer.Shape{n}, valueShape(first)...)
}
