package resolver

import (
	"context"
	"fmt"

	"github.com/vk/modelgraph/internal/ctxlog"
	"github.com/vk/modelgraph/internal/model"
	"github.com/vk/modelgraph/internal/registry"
	"github.com/vk/modelgraph/internal/syspath"
)

// Resolve runs one complete resolution pass over a declared model and
// returns the flat resolution artifact. All conflicts found during the
// pass are returned together; on error no Resolution is produced.
func Resolve(ctx context.Context, m *model.Model, reg *registry.Registry) (*Resolution, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolve: starting resolution pass.")

	col := &collector{}

	// Structural defects make every later phase meaningless, so they
	// abort before derivation begins.
	validateModel(m, col)
	if !col.ok() {
		return nil, col.err()
	}
	logger.Debug("Resolve: model validation passed.")

	proms := resolvePromotions(ctx, m, col)
	conns := resolveConnections(ctx, m, proms, col)
	shapes := resolveShapes(ctx, m, conns, reg, col)
	composeIndices(ctx, shapes, conns, col)

	if err := col.err(); err != nil {
		return nil, err
	}

	res := assemble(m, conns, shapes)
	logger.Info("Resolve: resolution successful.",
		"variables", len(res.Table),
		"connections", len(res.Connections),
		"auto_sources", len(res.AutoSources))
	return res, nil
}

// validateModel checks the structural sanity of the declaration tree.
func validateModel(m *model.Model, col *collector) {
	seen := make(map[string]bool)

	m.Walk(func(s *model.System) {
		key := s.Path.String()
		if seen[key] {
			col.add(fmt.Errorf("duplicate system path '%s'", scopeName(s.Path)))
			return
		}
		seen[key] = true

		if s.IsLeaf() {
			if len(s.Promotions) > 0 || len(s.Connections) > 0 {
				col.add(fmt.Errorf("component '%s' may not declare promotions or connections", s.Path))
			}
			for _, v := range s.Variables {
				vkey := v.Path.String()
				if seen[vkey] {
					col.add(fmt.Errorf("duplicate variable path '%s'", v.Path))
					continue
				}
				seen[vkey] = true
				if !v.Path.Parent().Equal(s.Path) {
					col.add(fmt.Errorf("variable '%s' is not owned by its declaring component '%s'", v.Path, s.Path))
				}
			}
			return
		}

		if len(s.Variables) > 0 {
			col.add(fmt.Errorf("group '%s' may not declare variables", scopeName(s.Path)))
		}
		for _, rule := range s.Promotions {
			if s.Child(rule.Child) == nil {
				col.add(&PromotionError{Scope: s.Path, Child: rule.Child, Pattern: rule.Pattern})
			}
			if rule.As != "" && rule.IsGlob() {
				col.add(fmt.Errorf("group '%s': promotion of '%s.%s' cannot both glob and rename", scopeName(s.Path), rule.Child, rule.Pattern))
			}
		}
		for _, c := range s.Connections {
			if len(c.Targets) == 0 {
				col.add(fmt.Errorf("group '%s': connection from '%s' has no targets", scopeName(s.Path), c.Source))
			}
		}
	})
}

// assemble builds the immutable Resolution artifact from the converged
// phase outputs.
func assemble(m *model.Model, conns *connectionResult, shapes *shapeResult) *Resolution {
	res := &Resolution{
		Connections: conns.connections,
		AutoSources: conns.autoSources,
		Graph:       buildDiagnostic(shapes.graph, shapes.shapes, shapes.static),
		byPath:      make(map[string]*VariableInfo),
	}

	for _, v := range m.Variables() {
		info := &VariableInfo{
			Path:        v.Path,
			IO:          v.IO,
			Discrete:    v.Discrete,
			Distributed: v.Distributed,
			Shape:       shapes.shapes[v.Path.String()],
			Units:       v.Units,
			Value:       v.Value,
		}
		if effective, ok := conns.effectiveValues[v.Path.String()]; ok {
			info.Value = effective
		}
		res.Table = append(res.Table, info)
		res.byPath[info.Path.String()] = info
	}

	for _, auto := range conns.autoSources {
		info := &VariableInfo{
			Path:     auto.Path,
			IO:       model.Output,
			Discrete: auto.Discrete,
			Shape:    shapes.shapes[auto.Path.String()],
			Units:    auto.Units,
			Value:    auto.Value,
		}
		res.Table = append(res.Table, info)
		res.byPath[info.Path.String()] = info
	}

	return res
}

// autoSourceRoot is the namespace the synthesized sources are injected
// under; kept in one place so consumers can recognize them.
var autoSourceRoot = syspath.MustParse("_auto_ivc")

// IsAutoSourcePath reports whether a path names a synthesized source.
func IsAutoSourcePath(p syspath.Path) bool {
	return autoSourceRoot.IsAncestorOf(p)
}
