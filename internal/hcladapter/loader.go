// Package hcladapter parses HCL model definition files and translates
// them into the format-agnostic declaration model.
package hcladapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/modelgraph/internal/ctxlog"
	"github.com/vk/modelgraph/internal/fsutil"
	"github.com/vk/modelgraph/internal/indexer"
	"github.com/vk/modelgraph/internal/model"
	"github.com/vk/modelgraph/internal/schema"
	"github.com/vk/modelgraph/internal/syspath"
)

// Loader is the HCL implementation of model loading.
type Loader struct{}

// NewLoader creates a new HCL model loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under the given paths and merges them into
// one declaration model. All files contribute to the root group; a model
// split across files merges in path, then file, order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*model.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	var files []string
	for _, path := range paths {
		found, err := fsutil.FindModelFiles(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("discovering model files under %s: %w", path, err)
		}
		files = append(files, found...)
	}
	logger.Debug("Discovered model files.", "count", len(files))

	parser := hclparse.NewParser()
	merged := &schema.Root{}

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse model file %s: %w", file, diags)
		}

		var root schema.Root
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode model file %s: %w", file, diags)
		}

		merged.Components = append(merged.Components, root.Components...)
		merged.Groups = append(merged.Groups, root.Groups...)
		merged.Promotes = append(merged.Promotes, root.Promotes...)
		merged.Connects = append(merged.Connects, root.Connects...)
	}

	return l.Translate(ctx, merged)
}

// LoadString parses a single in-memory model definition; the test harness
// and examples use this.
func (l *Loader) LoadString(ctx context.Context, src string) (*model.Model, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL([]byte(src), "inline.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse model source: %w", diags)
	}

	var root schema.Root
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode model source: %w", diags)
	}

	return l.Translate(ctx, &root)
}

// Translate converts the decoded wire form into the declaration model.
func (l *Loader) Translate(ctx context.Context, root *schema.Root) (*model.Model, error) {
	logger := ctxlog.FromContext(ctx)

	sys, err := translateGroupBody(syspath.Root, root.Components, root.Groups, root.Promotes, root.Connects)
	if err != nil {
		return nil, err
	}

	m := model.New(sys)
	logger.Debug("Model translated from HCL.", "variables", len(m.Variables()))
	return m, nil
}

func translateGroupBody(path syspath.Path, components []*schema.Component, groups []*schema.Group, promotes []*schema.Promote, connects []*schema.Connect) (*model.System, error) {
	sys := &model.System{Path: path}

	for _, comp := range components {
		child, err := translateComponent(path, comp)
		if err != nil {
			return nil, err
		}
		sys.Children = append(sys.Children, child)
	}
	for _, group := range groups {
		childPath, err := childPath(path, group.Name)
		if err != nil {
			return nil, err
		}
		child, err := translateGroupBody(childPath, group.Components, group.Groups, group.Promotes, group.Connects)
		if err != nil {
			return nil, err
		}
		sys.Children = append(sys.Children, child)
	}

	for _, promote := range promotes {
		rule, err := translatePromote(path, promote)
		if err != nil {
			return nil, err
		}
		sys.Promotions = append(sys.Promotions, rule)
	}
	for _, connect := range connects {
		conn, err := translateConnect(path, connect)
		if err != nil {
			return nil, err
		}
		sys.Connections = append(sys.Connections, conn)
	}

	return sys, nil
}

func translateComponent(parent syspath.Path, comp *schema.Component) (*model.System, error) {
	path, err := childPath(parent, comp.Name)
	if err != nil {
		return nil, err
	}
	sys := &model.System{Path: path}

	for _, in := range comp.Inputs {
		v, err := translateVariable(path, in, model.Input)
		if err != nil {
			return nil, err
		}
		sys.Variables = append(sys.Variables, v)
	}
	for _, out := range comp.Outputs {
		v, err := translateVariable(path, out, model.Output)
		if err != nil {
			return nil, err
		}
		sys.Variables = append(sys.Variables, v)
	}

	return sys, nil
}

func translateVariable(parent syspath.Path, v *schema.Variable, io model.IO) (*model.Variable, error) {
	path, err := childPath(parent, v.Name)
	if err != nil {
		return nil, err
	}

	spec, err := translateShapeSpec(v)
	if err != nil {
		return nil, fmt.Errorf("variable '%s': %w", path, err)
	}

	return &model.Variable{
		Path:        path,
		IO:          io,
		Discrete:    v.Discrete,
		Distributed: v.Distributed,
		Shape:       spec,
		Value:       v.Value,
		Units:       v.Units,
	}, nil
}

func translateShapeSpec(v *schema.Variable) (model.ShapeSpec, error) {
	declared := 0
	spec := model.ShapeSpec{Kind: model.Static}

	if v.Shape != nil {
		declared++
		spec = model.StaticShape(toShape(*v.Shape))
	}
	if v.ShapeByConn {
		declared++
		spec = model.ShapeSpec{Kind: model.ByConnection}
	}
	if v.CopyShape != nil {
		declared++
		spec = model.ShapeSpec{Kind: model.CopyShape, Ref: *v.CopyShape}
	}
	if v.ComputeShape != nil {
		declared++
		spec = model.ShapeSpec{Kind: model.Computed, Compute: *v.ComputeShape}
	}
	if declared > 1 {
		return model.ShapeSpec{}, fmt.Errorf("at most one of shape, shape_by_conn, copy_shape, compute_shape may be set")
	}
	return spec, nil
}

func translatePromote(scope syspath.Path, p *schema.Promote) (*model.PromotionRule, error) {
	index, err := translateIndex(p.SrcIndices, p.SrcDims)
	if err != nil {
		return nil, fmt.Errorf("promote '%s.%s' in group '%s': %w", p.Child, p.Match, displayScope(scope), err)
	}

	rule := &model.PromotionRule{
		Child:      p.Child,
		Pattern:    p.Match,
		As:         p.As,
		SrcIndices: index,
	}
	if p.SrcShape != nil {
		rule.SrcShape = toShape(*p.SrcShape)
	}

	override := &model.Override{Value: p.Value, Units: p.Units}
	if p.SrcShape != nil {
		// src_shape on the rule doubles as the override's source shape.
		override.SrcShape = rule.SrcShape
	}
	if !override.IsZero() {
		rule.Override = override
	}

	return rule, nil
}

func translateConnect(scope syspath.Path, c *schema.Connect) (*model.Connection, error) {
	index, err := translateIndex(c.SrcIndices, c.SrcDims)
	if err != nil {
		return nil, fmt.Errorf("connect '%s' in group '%s': %w", c.Source, displayScope(scope), err)
	}

	return &model.Connection{
		Source:  c.Source,
		Targets: c.Targets,
		Indices: index,
	}, nil
}

func childPath(parent syspath.Path, name string) (syspath.Path, error) {
	p, err := parent.Join(name)
	if err != nil {
		return syspath.Path{}, fmt.Errorf("invalid name %q under '%s': %w", name, displayScope(parent), err)
	}
	return p, nil
}

func toShape(dims []int) indexer.Shape {
	out := make(indexer.Shape, len(dims))
	copy(out, dims)
	return out
}

func displayScope(p syspath.Path) string {
	if p.IsRoot() {
		return "<model>"
	}
	return p.String()
}
