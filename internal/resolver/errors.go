package resolver

import (
	"fmt"
	"strings"

	"github.com/vk/modelgraph/internal/indexer"
	"github.com/vk/modelgraph/internal/syspath"
)

// PromotionError reports a non-wildcard promotion rule that names a
// variable which does not exist in its scope.
type PromotionError struct {
	// Scope is the group that declares the rule.
	Scope syspath.Path
	// Child is the direct child the rule is scoped to.
	Child string
	// Pattern is the name the rule tried to match.
	Pattern string
}

func (e *PromotionError) Error() string {
	scope := e.Scope.String()
	if scope == "" {
		scope = "<model>"
	}
	return fmt.Sprintf("promotion error in group '%s': child '%s' has no variable matching '%s'", scope, e.Child, e.Pattern)
}

// AmbiguousInputDefaultsError reports co-promoted inputs whose declared
// default metadata disagrees and no ancestor override settles the conflict.
type AmbiguousInputDefaultsError struct {
	// Scope is the lowest common ancestor group of the conflicting inputs.
	Scope syspath.Path
	// Promoted is the shared promoted name of the group.
	Promoted string
	// Paths lists every conflicting absolute input path, declaration order.
	Paths []syspath.Path
	// Fields names the metadata fields that differ ("value", "units").
	Fields []string
}

func (e *AmbiguousInputDefaultsError) Error() string {
	scope := e.Scope.String()
	if scope == "" {
		scope = "<model>"
	}
	paths := make([]string, len(e.Paths))
	for i, p := range e.Paths {
		paths[i] = "  " + p.String()
	}
	return fmt.Sprintf(
		"ambiguous defaults for inputs promoted to '%s' in group '%s': the fields [%s] differ among:\n%s\nDeclare an override for '%s' on group '%s' (or an ancestor) to settle the conflict.",
		e.Promoted, scope, strings.Join(e.Fields, ", "), strings.Join(paths, "\n"), e.Promoted, scope)
}

// InvalidDiscreteOverrideError reports an override that sets units or
// src_shape for a discrete variable; a discrete override may only set the
// default value.
type InvalidDiscreteOverrideError struct {
	Scope    syspath.Path
	Promoted string
	Field    string
}

func (e *InvalidDiscreteOverrideError) Error() string {
	scope := e.Scope.String()
	if scope == "" {
		scope = "<model>"
	}
	return fmt.Sprintf("invalid override for discrete '%s' in group '%s': a discrete override may only set the value, not %s", e.Promoted, scope, e.Field)
}

// UnresolvableShapeError reports every variable whose shape remained
// unknown after shape propagation reached its fixed point.
type UnresolvableShapeError struct {
	// Paths lists every unresolved path in declaration order.
	Paths []syspath.Path
	// Graph is the read-only diagnostic projection of the shape pass, for
	// external rendering of the stuck state.
	Graph *DiagnosticGraph
	// Detail carries extra diagnosis, e.g. a compute-shape cycle.
	Detail string
}

func (e *UnresolvableShapeError) Error() string {
	paths := make([]string, len(e.Paths))
	for i, p := range e.Paths {
		paths[i] = "  " + p.String()
	}
	msg := fmt.Sprintf("shape resolution did not converge; unresolvable shapes for:\n%s", strings.Join(paths, "\n"))
	if e.Detail != "" {
		msg += "\n" + e.Detail
	}
	return msg
}

// ShapeMismatchError reports incompatible shapes: conflicting src_shape
// declarations for one promoted name, or a composed index whose input
// shape disagrees with the shape declared at that level.
type ShapeMismatchError struct {
	// Context describes where the mismatch was detected.
	Context string
	Want    indexer.Shape
	Got     indexer.Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch %s: expected %s, got %s", e.Context, e.Want, e.Got)
}

// DistributedShapeMismatchError reports a dynamically-shaped distributed
// output connected to a dynamically-shaped non-distributed input. The
// receiver's value would depend on which rank's shape won, so the
// combination is rejected regardless of convergence.
type DistributedShapeMismatchError struct {
	Source syspath.Path
	Target syspath.Path
}

func (e *DistributedShapeMismatchError) Error() string {
	return fmt.Sprintf(
		"distributed output '%s' with dynamic shape may not connect to dynamic non-distributed input '%s'",
		e.Source, e.Target)
}

// PassError aggregates every conflict found during one resolution pass.
// Individual errors remain reachable through errors.As / errors.Is.
type PassError struct {
	Errs []error
}

func (e *PassError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("resolution failed with %d error(s):\n%s", len(e.Errs), strings.Join(msgs, "\n"))
}

// Unwrap exposes the collected errors to the errors package.
func (e *PassError) Unwrap() []error {
	return e.Errs
}

// collector accumulates conflicts across the phases of one resolution
// pass so a single invocation surfaces every fixable issue.
type collector struct {
	errs []error
}

func (c *collector) add(err error) {
	if err != nil {
		c.errs = append(c.errs, err)
	}
}

func (c *collector) ok() bool {
	return len(c.errs) == 0
}

func (c *collector) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &PassError{Errs: c.errs}
}
