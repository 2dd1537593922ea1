package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/modelgraph/internal/ctxlog"
	"github.com/vk/modelgraph/internal/indexer"
	"github.com/vk/modelgraph/internal/model"
	"github.com/vk/modelgraph/internal/syspath"
	"github.com/vk/modelgraph/internal/units"
)

// explicitConn records one explicit connection reaching a target input.
type explicitConn struct {
	source syspath.Path
	scope  syspath.Path
	index  *indexer.Index
}

// inputGroup is a set of co-promoted inputs sharing one promoted name at
// the model root; every group resolves to exactly one source.
type inputGroup struct {
	promoted string
	members  []syspath.Path
}

// connectionResult is what the connection resolver hands to the shape and
// index passes.
type connectionResult struct {
	connections []*Connection
	autoSources []*AutoSource
	// effectiveValues maps auto-sourced input paths to the reconciled
	// source value converted into the input's own units.
	effectiveValues map[string]cty.Value
}

// resolveConnections merges explicit connections with promotion-implied
// equivalence and synthesizes an AutoSource for every promoted-name group
// of inputs that no declared output reaches.
func resolveConnections(ctx context.Context, m *model.Model, proms *promotions, col *collector) *connectionResult {
	logger := ctxlog.FromContext(ctx)

	explicit := resolveExplicit(m, proms, col)
	groups := groupInputs(m, proms)

	result := &connectionResult{
		effectiveValues: make(map[string]cty.Value),
	}

	rootTable := proms.VisibleAt(syspath.Root)
	autoCount := 0

	for _, group := range groups {
		// Candidate sources: outputs co-promoted to the group's name plus
		// every distinct explicitly connected source of a member.
		var sources []syspath.Path
		seen := make(map[string]bool)
		addSource := func(p syspath.Path) {
			if !seen[p.String()] {
				seen[p.String()] = true
				sources = append(sources, p)
			}
		}

		for _, p := range rootTable.Lookup(group.promoted) {
			if v, ok := m.Variable(p); ok && v.IO == model.Output {
				addSource(p)
			}
		}
		for _, member := range group.members {
			if ec, ok := explicit[member.String()]; ok {
				addSource(ec.source)
			}
		}

		switch {
		case len(sources) > 1:
			names := make([]string, len(sources))
			for i, s := range sources {
				names[i] = "'" + s.String() + "'"
			}
			col.add(fmt.Errorf("inputs promoted to '%s' have multiple sources: %s", group.promoted, joinComma(names)))

		case len(sources) == 1:
			conn := &Connection{Source: sources[0]}
			for _, member := range group.members {
				binding := &TargetBinding{Path: member, chain: buildChain(member, proms, explicit)}
				conn.Targets = append(conn.Targets, binding)
				checkConnectedUnits(m, sources[0], member, col)
			}
			result.connections = append(result.connections, conn)

		default:
			auto := synthesizeAutoSource(m, proms, group, autoCount, col, result.effectiveValues)
			if auto == nil {
				continue
			}
			autoCount++
			result.autoSources = append(result.autoSources, auto)

			conn := &Connection{Source: auto.Path, Auto: true}
			for _, member := range group.members {
				conn.Targets = append(conn.Targets, &TargetBinding{Path: member, chain: buildChain(member, proms, explicit)})
			}
			result.connections = append(result.connections, conn)
		}
	}

	logger.Debug("Connection resolution complete.",
		"connections", len(result.connections), "auto_sources", len(result.autoSources))
	return result
}

// resolveExplicit expands every explicit connection directive through the
// promoted-name tables into absolute endpoints.
func resolveExplicit(m *model.Model, proms *promotions, col *collector) map[string]explicitConn {
	explicit := make(map[string]explicitConn)

	m.Walk(func(s *model.System) {
		for _, c := range s.Connections {
			srcPaths := expandEndpoint(m, proms, s.Path, c.Source)
			var srcOutputs []syspath.Path
			for _, p := range srcPaths {
				if v, ok := m.Variable(p); ok && v.IO == model.Output {
					srcOutputs = append(srcOutputs, p)
				}
			}
			if len(srcOutputs) != 1 {
				col.add(fmt.Errorf("connection in group '%s': source '%s' must denote exactly one output, found %d", scopeName(s.Path), c.Source, len(srcOutputs)))
				continue
			}
			source := srcOutputs[0]

			for _, target := range c.Targets {
				tgtPaths := expandEndpoint(m, proms, s.Path, target)
				var tgtInputs []syspath.Path
				for _, p := range tgtPaths {
					if v, ok := m.Variable(p); ok && v.IO == model.Input {
						tgtInputs = append(tgtInputs, p)
					}
				}
				if len(tgtInputs) == 0 {
					col.add(fmt.Errorf("connection in group '%s': target '%s' does not denote any input", scopeName(s.Path), target))
					continue
				}
				for _, tp := range tgtInputs {
					key := tp.String()
					if prev, ok := explicit[key]; ok && !prev.source.Equal(source) {
						col.add(fmt.Errorf("input '%s' is explicitly connected to both '%s' and '%s'", tp, prev.source, source))
						continue
					}
					explicit[key] = explicitConn{source: source, scope: s.Path, index: c.Indices}
				}
			}
		}
	})

	return explicit
}

// expandEndpoint resolves a connection endpoint given within a scope to
// the absolute paths it denotes: first through the scope's visible names
// (fan-out for promoted inputs), then as a plain relative path.
func expandEndpoint(m *model.Model, proms *promotions, scope syspath.Path, endpoint string) []syspath.Path {
	if t := proms.VisibleAt(scope); t != nil {
		if paths := t.Lookup(endpoint); len(paths) > 0 {
			return paths
		}
	}
	abs, err := scope.Join(endpoint)
	if err != nil {
		return nil
	}
	if _, ok := m.Variable(abs); ok {
		return []syspath.Path{abs}
	}
	return nil
}

// groupInputs partitions every input by its promoted name at the model
// root, preserving declaration order of both groups and members.
func groupInputs(m *model.Model, proms *promotions) []*inputGroup {
	var groups []*inputGroup
	byName := make(map[string]*inputGroup)

	for _, v := range m.Variables() {
		if v.IO != model.Input {
			continue
		}
		name := proms.RootName(v.Path)
		group, ok := byName[name]
		if !ok {
			group = &inputGroup{promoted: name}
			byName[name] = group
			groups = append(groups, group)
		}
		group.members = append(group.members, v.Path)
	}
	return groups
}

// buildChain assembles the root-to-leaf slicing directives feeding one
// target input: the explicit connection's index expression (outermost at
// its declaring scope) and every matched promotion rule that declared
// src_indices or src_shape.
func buildChain(target syspath.Path, proms *promotions, explicit map[string]explicitConn) []chainLink {
	var links []chainLink
	if ec, ok := explicit[target.String()]; ok && ec.index != nil {
		links = append(links, chainLink{scope: ec.scope, index: ec.index})
	}
	for _, contrib := range proms.Contributions(target) {
		if contrib.Rule.SrcIndices == nil && contrib.Rule.SrcShape == nil {
			continue
		}
		links = append(links, chainLink{
			scope:    contrib.Scope,
			index:    contrib.Rule.SrcIndices,
			srcShape: contrib.Rule.SrcShape,
		})
	}
	// Root-to-leaf order; at equal depth the connection's own index stays
	// outermost. Contributions are already root-to-leaf, so a stable sort
	// by depth settles the interleaving.
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].scope.Depth() < links[j].scope.Depth()
	})
	return links
}

// memberMeta is the effective default metadata of one group member after
// applying its below-LCA overrides.
type memberMeta struct {
	path     syspath.Path
	value    cty.Value
	units    string
	srcShape indexer.Shape
}

// synthesizeAutoSource reconciles default metadata across an unconnected
// group and creates its implicit source. A nil return means the conflict
// diagnostics were added to the collector instead.
func synthesizeAutoSource(m *model.Model, proms *promotions, group *inputGroup, ordinal int, col *collector, effective map[string]cty.Value) *AutoSource {
	lca := groupAncestor(group)

	// Validate every override along every member's chain first; discrete
	// misuse is fatal wherever the override sits.
	discrete := false
	for _, member := range group.members {
		v, _ := m.Variable(member)
		if v.Discrete {
			discrete = true
		}
	}
	if discrete {
		for _, member := range group.members {
			for _, contrib := range proms.Contributions(member) {
				o := contrib.Rule.Override
				if o.IsZero() {
					continue
				}
				name, _ := proms.NameAt(member, contrib.Scope)
				if o.Units != nil {
					col.add(&InvalidDiscreteOverrideError{Scope: contrib.Scope, Promoted: name, Field: "units"})
				}
				if o.SrcShape != nil {
					col.add(&InvalidDiscreteOverrideError{Scope: contrib.Scope, Promoted: name, Field: "src_shape"})
				}
			}
		}
	}

	// src_shape disagreement is always fatal, independent of overrides.
	srcShape := reconcileSrcShape(proms, group, col)

	// Per-member effective metadata: overrides declared below the group's
	// common ancestor rebind that member's defaults, closest level first.
	members := make([]memberMeta, 0, len(group.members))
	for _, member := range group.members {
		v, _ := m.Variable(member)
		meta := memberMeta{path: member, value: v.Value, units: v.Units}
		contribs := proms.Contributions(member)
		valueSet, unitsSet := false, false
		for i := len(contribs) - 1; i >= 0; i-- {
			contrib := contribs[i]
			if contrib.Scope.Depth() <= lca.Depth() {
				continue
			}
			o := contrib.Rule.Override
			if o.IsZero() {
				continue
			}
			if o.Value != cty.NilVal && !valueSet {
				meta.value = o.Value
				valueSet = true
			}
			if o.Units != nil && !unitsSet {
				meta.units = *o.Units
				unitsSet = true
			}
		}
		members = append(members, meta)
	}

	// Group-level override: closest ancestor wins, ties at equal distance
	// go to the last-declared rule.
	override := groupOverride(proms, group, lca)

	// Compare the members' effective metadata field by field; a group
	// override settles the fields it sets.
	var fields []string
	base := members[0]
	valuesDiffer, unitsDiffer := false, false
	for _, meta := range members[1:] {
		if !valuesEqual(base.value, meta.value) {
			valuesDiffer = true
		}
		if base.units != meta.units {
			unitsDiffer = true
		}
	}
	if valuesDiffer && (override == nil || override.Value == cty.NilVal) {
		fields = append(fields, "value")
	}
	if unitsDiffer && (override == nil || override.Units == nil) {
		fields = append(fields, "units")
	}
	if len(fields) > 0 {
		col.add(&AmbiguousInputDefaultsError{
			Scope:    lca,
			Promoted: group.promoted,
			Paths:    group.members,
			Fields:   fields,
		})
		return nil
	}

	value, unitStr := base.value, base.units
	if override != nil {
		if override.Value != cty.NilVal {
			value = override.Value
		}
		if override.Units != nil {
			unitStr = *override.Units
		}
		if override.SrcShape != nil {
			srcShape = override.SrcShape
		}
	}

	auto := &AutoSource{
		Path:     syspath.MustParse("_auto_ivc").Child(fmt.Sprintf("v%d", ordinal)),
		Promoted: group.promoted,
		Value:    value,
		Units:    unitStr,
		Discrete: discrete,
		SrcShape: srcShape,
	}

	// Each member observes the source value converted into its own units.
	if !discrete && value != cty.NilVal {
		from, err := units.Parse(unitStr)
		if err != nil {
			col.add(fmt.Errorf("inputs promoted to '%s': %w", group.promoted, err))
			return auto
		}
		for _, member := range group.members {
			v, _ := m.Variable(member)
			to, err := units.Parse(v.Units)
			if err != nil {
				col.add(fmt.Errorf("input '%s': %w", member, err))
				continue
			}
			converted, err := convertValue(value, from, to)
			if err != nil {
				col.add(fmt.Errorf("input '%s' promoted to '%s': %w", member, group.promoted, err))
				continue
			}
			effective[member.String()] = converted
		}
	}

	return auto
}

// groupAncestor returns the lowest common ancestor group of the members.
func groupAncestor(group *inputGroup) syspath.Path {
	lca := group.members[0].Parent()
	for _, member := range group.members[1:] {
		lca = syspath.CommonAncestor(lca, member.Parent())
	}
	return lca
}

// groupOverride selects the winning override at the group's common
// ancestor or above. Scope distance dominates; at equal distance the
// last-declared rule wins.
func groupOverride(proms *promotions, group *inputGroup, lca syspath.Path) *model.Override {
	var winner *model.Override
	winnerDepth, winnerIndex := -1, -1

	for _, member := range group.members {
		for _, contrib := range proms.Contributions(member) {
			if contrib.Scope.Depth() > lca.Depth() {
				continue
			}
			o := contrib.Rule.Override
			if o.IsZero() {
				continue
			}
			depth := contrib.Scope.Depth()
			if depth > winnerDepth || (depth == winnerDepth && contrib.RuleIndex > winnerIndex) {
				winner = o
				winnerDepth = depth
				winnerIndex = contrib.RuleIndex
			}
		}
	}
	return winner
}

// reconcileSrcShape checks that every src_shape declared for the group
// agrees and returns it.
func reconcileSrcShape(proms *promotions, group *inputGroup, col *collector) indexer.Shape {
	var shape indexer.Shape
	for _, member := range group.members {
		for _, contrib := range proms.Contributions(member) {
			declared := contrib.Rule.SrcShape
			if declared == nil {
				continue
			}
			if shape == nil {
				shape = declared
				continue
			}
			if !shape.Equal(declared) {
				col.add(&ShapeMismatchError{
					Context: fmt.Sprintf("in src_shape declarations for inputs promoted to '%s'", group.promoted),
					Want:    shape,
					Got:     declared,
				})
			}
		}
	}
	return shape
}

// checkConnectedUnits verifies that a declared connection joins variables
// with compatible units.
func checkConnectedUnits(m *model.Model, source, target syspath.Path, col *collector) {
	sv, ok := m.Variable(source)
	if !ok {
		return
	}
	tv, _ := m.Variable(target)
	if sv.Discrete || tv.Discrete {
		return
	}
	su, err := units.Parse(sv.Units)
	if err != nil {
		col.add(fmt.Errorf("output '%s': %w", source, err))
		return
	}
	tu, err := units.Parse(tv.Units)
	if err != nil {
		col.add(fmt.Errorf("input '%s': %w", target, err))
		return
	}
	if !units.Compatible(su, tu) {
		col.add(fmt.Errorf("cannot connect '%s' (%s) to '%s' (%s): incompatible units", source, sv.Units, target, tv.Units))
	}
}

// valuesEqual compares declared defaults. cty's RawEquals gives strict
// structural equality, which is what ambiguity detection wants: "3000 mm"
// and "300 cm" are different declarations even though physically equal.
func valuesEqual(a, b cty.Value) bool {
	if a == cty.NilVal || b == cty.NilVal {
		return a == b
	}
	return a.RawEquals(b)
}

// convertValue converts a numeric value (scalar or nested collection)
// between units, element-wise.
func convertValue(v cty.Value, from, to units.Unit) (cty.Value, error) {
	if from == to || from.Name == to.Name {
		return v, nil
	}
	ty := v.Type()
	switch {
	case ty == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		converted, err := units.Convert(f, from, to)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.NumberFloatVal(converted), nil

	case ty.IsTupleType() || ty.IsListType():
		elems := make([]cty.Value, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			converted, err := convertValue(elem, from, to)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, converted)
		}
		return cty.TupleVal(elems), nil

	default:
		return cty.NilVal, fmt.Errorf("cannot convert value of type %s between units", ty.FriendlyName())
	}
}

func scopeName(p syspath.Path) string {
	if p.IsRoot() {
		return "<model>"
	}
	return p.String()
}

func joinComma(parts []string) string {
	out := ""
	for i, part := range parts {
		if i > 0 {
			out += ", "
		}
		out += part
	}
	return out
}
