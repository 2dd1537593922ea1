package model

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/modelgraph/internal/indexer"
	"github.com/vk/modelgraph/internal/syspath"
)

// IO is the direction of a variable relative to its owning component.
type IO int

const (
	// Input is a variable the component consumes.
	Input IO = iota
	// Output is a variable the component produces.
	Output
)

// String renders the direction for diagnostics.
func (io IO) String() string {
	if io == Input {
		return "input"
	}
	return "output"
}

// ShapeSpecKind discriminates the tagged ShapeSpec variant.
type ShapeSpecKind int

const (
	// Static declares a concrete shape up front.
	Static ShapeSpecKind = iota
	// ByConnection copies the shape of whatever the variable is connected to.
	ByConnection
	// CopyShape copies the shape of a named sibling in the same component.
	CopyShape
	// Computed evaluates a registered shape function over the shapes of all
	// opposite-direction siblings once every one of them is known.
	Computed
)

// ShapeSpec is the tagged shape declaration of a variable. Exactly the
// fields of the active Kind are meaningful.
type ShapeSpec struct {
	Kind ShapeSpecKind
	// Shape is the declared shape for Kind == Static.
	Shape indexer.Shape
	// Ref is the sibling local name for Kind == CopyShape.
	Ref string
	// Compute is the registered shape-function name for Kind == Computed.
	Compute string
}

// StaticShape builds a Static shape spec.
func StaticShape(shape indexer.Shape) ShapeSpec {
	return ShapeSpec{Kind: Static, Shape: shape}
}

// Variable is one declared input or output, owned by exactly one component.
type Variable struct {
	// Path is the globally unique absolute path of the variable.
	Path syspath.Path
	// IO is the variable's direction.
	IO IO
	// Discrete marks a non-array variable holding an opaque value.
	Discrete bool
	// Distributed marks a variable whose shape may differ per process rank.
	Distributed bool
	// Shape is the declared shape specification.
	Shape ShapeSpec
	// Value is the declared default, or cty.NilVal when none was given.
	Value cty.Value
	// Units is the declared unit string, empty for dimensionless.
	Units string
}

// Override replaces the default metadata of the inputs a promotion rule
// matches. Unset fields leave the declared metadata in place.
type Override struct {
	// Value overrides the default value when not cty.NilVal.
	Value cty.Value
	// Units overrides the unit string when non-nil.
	Units *string
	// SrcShape overrides the assumed upstream shape when non-nil.
	SrcShape indexer.Shape
}

// IsZero reports whether the override sets nothing.
func (o *Override) IsZero() bool {
	return o == nil || (o.Value == cty.NilVal && o.Units == nil && o.SrcShape == nil)
}

// PromotionRule exposes matching variables of one direct child under this
// group's namespace. Rules are scoped to a single child and applied in
// declaration order.
type PromotionRule struct {
	// Child is the local name of the direct child the rule applies to.
	Child string
	// Pattern matches the child's visible names: an exact name or a
	// single-level glob ("*", "x_*").
	Pattern string
	// As renames the matched name on promotion. Empty keeps the matched
	// name. A rule with As set must have an exact (non-glob) Pattern.
	As string
	// SrcIndices selects the sub-array of the eventual source feeding the
	// matched inputs, declared at this namespace level.
	SrcIndices *indexer.Index
	// SrcShape is the shape this level assumes its upstream source has,
	// used to validate SrcIndices composition. Nil when unspecified.
	SrcShape indexer.Shape
	// Override replaces default metadata for the matched promoted inputs.
	Override *Override
}

// IsGlob reports whether the rule's pattern is a wildcard match rather
// than an exact name.
func (r *PromotionRule) IsGlob() bool {
	for _, c := range r.Pattern {
		if c == '*' || c == '?' || c == '[' {
			return true
		}
	}
	return false
}

// Connection is an explicit source → targets directive declared by a
// group. Endpoint names are relative dotted paths or promoted names,
// interpreted within the declaring group's namespace.
type Connection struct {
	Source  string
	Targets []string
	// Indices selects the sub-array of the source feeding every target.
	Indices *indexer.Index
}

// System is one node of the model tree: a leaf component owning variables,
// or an internal group owning children, promotion rules and connections.
type System struct {
	// Path is the absolute path of the system; Root for the top group.
	Path syspath.Path
	// Children holds sub-systems in declaration order. Empty for leaves.
	Children []*System
	// Variables is the leaf's variable table in declaration order.
	Variables []*Variable
	// Promotions are the group's promotion rules in declaration order.
	Promotions []*PromotionRule
	// Connections are the group's explicit connections in declaration order.
	Connections []*Connection
}

// IsLeaf reports whether the system is a component rather than a group.
func (s *System) IsLeaf() bool {
	return len(s.Children) == 0
}

// Child returns the direct child with the given local name, or nil.
func (s *System) Child(name string) *System {
	for _, child := range s.Children {
		if child.Path.Name() == name {
			return child
		}
	}
	return nil
}

// Model is the complete declared model: a system tree plus flat lookup
// tables derived once at construction.
type Model struct {
	Root *System

	systems   map[string]*System
	variables map[string]*Variable
	// ordered keeps every variable in tree declaration order for
	// deterministic whole-model iteration.
	ordered []*Variable
}

// New assembles a Model around a fully built system tree, deriving the
// flat lookup tables. The tree must not be mutated afterwards.
func New(root *System) *Model {
	m := &Model{
		Root:      root,
		systems:   make(map[string]*System),
		variables: make(map[string]*Variable),
	}
	m.index(root)
	return m
}

func (m *Model) index(s *System) {
	m.systems[s.Path.String()] = s
	for _, v := range s.Variables {
		m.variables[v.Path.String()] = v
		m.ordered = append(m.ordered, v)
	}
	for _, child := range s.Children {
		m.index(child)
	}
}

// System looks up a system by absolute path.
func (m *Model) System(p syspath.Path) (*System, bool) {
	s, ok := m.systems[p.String()]
	return s, ok
}

// Variable looks up a variable by absolute path.
func (m *Model) Variable(p syspath.Path) (*Variable, bool) {
	v, ok := m.variables[p.String()]
	return v, ok
}

// Variables returns every variable in tree declaration order. The returned
// slice is shared; callers must not mutate it.
func (m *Model) Variables() []*Variable {
	return m.ordered
}

// Walk visits every system in pre-order, parents before children, in
// declaration order.
func (m *Model) Walk(visit func(*System)) {
	var walk func(*System)
	walk = func(s *System) {
		visit(s)
		for _, child := range s.Children {
			walk(child)
		}
	}
	walk(m.Root)
}
