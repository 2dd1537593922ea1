package resolver

import (
	"context"
	"path"
	"strings"

	"github.com/vk/modelgraph/internal/ctxlog"
	"github.com/vk/modelgraph/internal/model"
	"github.com/vk/modelgraph/internal/syspath"
)

// PromotedName is one (namespace level, visible name) pair of a variable.
type PromotedName struct {
	Scope syspath.Path
	Name  string
}

// Contribution is one promotion rule that matched a variable on its way up
// the tree, recorded for composing multi-level slicing and overrides.
type Contribution struct {
	// Scope is the group declaring the rule.
	Scope syspath.Path
	// Rule is the matched promotion rule.
	Rule *model.PromotionRule
	// RuleIndex is the rule's declaration position within its group, used
	// to break ties among equally scoped overrides.
	RuleIndex int
}

// nameTable is the visible namespace of one scope: an insertion-ordered
// list of names, each denoting one or more absolute variable paths.
type nameTable struct {
	order  []string
	byName map[string][]syspath.Path
}

func newNameTable() *nameTable {
	return &nameTable{byName: make(map[string][]syspath.Path)}
}

func (t *nameTable) add(name string, paths ...syspath.Path) {
	if _, ok := t.byName[name]; !ok {
		t.order = append(t.order, name)
	}
	t.byName[name] = append(t.byName[name], paths...)
}

// Lookup returns the variable paths a visible name denotes, in declaration
// order.
func (t *nameTable) Lookup(name string) []syspath.Path {
	return t.byName[name]
}

// promotions is the output of the promotion resolver: per-variable visible
// names at every namespace level, the per-scope name tables used to expand
// connection endpoints, and the ordered rule contributions per variable.
type promotions struct {
	visible  map[string]*nameTable
	names    map[string][]PromotedName
	contribs map[string][]Contribution
}

// VisibleAt returns the name table of a scope, or nil for unknown scopes.
func (p *promotions) VisibleAt(scope syspath.Path) *nameTable {
	return p.visible[scope.String()]
}

// NameAt returns the visible name of a variable at one namespace level.
func (p *promotions) NameAt(varPath, scope syspath.Path) (string, bool) {
	for _, pn := range p.names[varPath.String()] {
		if pn.Scope.Equal(scope) {
			return pn.Name, true
		}
	}
	return "", false
}

// RootName returns the visible name of a variable at the model root. Every
// variable has one.
func (p *promotions) RootName(varPath syspath.Path) string {
	name, _ := p.NameAt(varPath, syspath.Root)
	return name
}

// Names returns every (scope, name) pair of a variable, root to leaf.
func (p *promotions) Names(varPath syspath.Path) []PromotedName {
	return p.names[varPath.String()]
}

// Contributions returns the promotion rules that matched a variable, in
// root-to-leaf order as required for index composition.
func (p *promotions) Contributions(varPath syspath.Path) []Contribution {
	return p.contribs[varPath.String()]
}

// matchPattern applies a promotion rule pattern to one visible name.
// Globs are single-level: a '*' never crosses a dot, so promoting "*"
// exposes the child's own names but not names merely passing through
// deeper scopes qualified.
func matchPattern(pattern, name string) bool {
	if !strings.ContainsAny(pattern, "*?[") {
		return pattern == name
	}
	ok, err := path.Match(
		strings.ReplaceAll(pattern, ".", "/"),
		strings.ReplaceAll(name, ".", "/"),
	)
	return err == nil && ok
}

// resolvePromotions composes every group's promotion rules into the
// tree-wide visible-name tables. Rule matching walks the tree bottom-up so
// each level matches against its children's already-resolved names; a name
// no rule matches stays visible qualified by the child's local name.
func resolvePromotions(ctx context.Context, m *model.Model, col *collector) *promotions {
	logger := ctxlog.FromContext(ctx)

	p := &promotions{
		visible:  make(map[string]*nameTable),
		names:    make(map[string][]PromotedName),
		contribs: make(map[string][]Contribution),
	}

	var resolve func(s *model.System) *nameTable
	resolve = func(s *model.System) *nameTable {
		t := newNameTable()

		if s.IsLeaf() {
			for _, v := range s.Variables {
				t.add(v.Path.Name(), v.Path)
				p.recordName(v.Path, s.Path, v.Path.Name())
			}
			p.visible[s.Path.String()] = t
			return t
		}

		matched := make(map[*model.PromotionRule]bool)
		for _, child := range s.Children {
			childTable := resolve(child)
			childName := child.Path.Name()

			for _, name := range childTable.order {
				paths := childTable.byName[name]

				rule, ruleIndex := firstMatchingRule(s.Promotions, childName, name)
				visibleName := childName + "." + name
				if rule != nil {
					matched[rule] = true
					visibleName = name
					if rule.As != "" {
						visibleName = rule.As
					}
					for _, vp := range paths {
						p.recordContribution(vp, Contribution{Scope: s.Path, Rule: rule, RuleIndex: ruleIndex})
					}
				}

				t.add(visibleName, paths...)
				for _, vp := range paths {
					p.recordName(vp, s.Path, visibleName)
				}
			}
		}

		// Non-wildcard rules that matched nothing name variables their
		// scope does not have; globs are allowed to match nothing.
		for _, rule := range s.Promotions {
			if matched[rule] || rule.IsGlob() {
				continue
			}
			col.add(&PromotionError{Scope: s.Path, Child: rule.Child, Pattern: rule.Pattern})
		}

		p.visible[s.Path.String()] = t
		return t
	}

	resolve(m.Root)
	p.finish()

	logger.Debug("Promotion resolution complete.", "scopes", len(p.visible))
	return p
}

// firstMatchingRule returns the first rule in declaration order scoped to
// the child that matches the visible name.
func firstMatchingRule(rules []*model.PromotionRule, childName, name string) (*model.PromotionRule, int) {
	for i, rule := range rules {
		if rule.Child != childName {
			continue
		}
		if matchPattern(rule.Pattern, name) {
			return rule, i
		}
	}
	return nil, -1
}

// recordName appends one per-level visible name; the recursion visits leaf
// scopes first, so entries accumulate leaf-to-root and finish reverses.
func (p *promotions) recordName(varPath, scope syspath.Path, name string) {
	key := varPath.String()
	p.names[key] = append(p.names[key], PromotedName{Scope: scope, Name: name})
}

func (p *promotions) recordContribution(varPath syspath.Path, c Contribution) {
	key := varPath.String()
	p.contribs[key] = append(p.contribs[key], c)
}

// finish reorders the accumulated per-variable lists into root-to-leaf
// order, the order index composition consumes them in.
func (p *promotions) finish() {
	for key, names := range p.names {
		reverseSlice(names)
		p.names[key] = names
	}
	for key, contribs := range p.contribs {
		reverseSlice(contribs)
		p.contribs[key] = contribs
	}
}

func reverseSlice[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
