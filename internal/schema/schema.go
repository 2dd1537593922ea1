// Package schema declares the HCL block structures of a model definition
// file. It is purely the wire form; translation into the format-agnostic
// model lives in the hcladapter package.
package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Variable represents an `input` or `output` block within a component.
type Variable struct {
	Name string `hcl:"name,label"`

	// Value is the declared default, any literal HCL value.
	Value cty.Value `hcl:"value,optional"`
	Units string    `hcl:"units,optional"`

	// Exactly one shape declaration may be present; none means a static
	// scalar.
	Shape        *[]int  `hcl:"shape,optional"`
	ShapeByConn  bool    `hcl:"shape_by_conn,optional"`
	CopyShape    *string `hcl:"copy_shape,optional"`
	ComputeShape *string `hcl:"compute_shape,optional"`

	Discrete    bool `hcl:"discrete,optional"`
	Distributed bool `hcl:"distributed,optional"`
}

// Component represents a `component` block: a leaf system with its
// variable table.
type Component struct {
	Name    string      `hcl:"name,label"`
	Inputs  []*Variable `hcl:"input,block"`
	Outputs []*Variable `hcl:"output,block"`
}

// Promote represents a `promote` block: one promotion rule scoped to a
// direct child of the declaring group.
type Promote struct {
	Child string `hcl:"child"`
	// Match is the name pattern: exact, or a single-level glob.
	Match string `hcl:"match"`
	// As renames the matched name; only valid with an exact Match.
	As string `hcl:"as,optional"`

	// SrcIndices is the flat index form; SrcDims the per-dimension form
	// ("0,2", "1:4:2", ":"). At most one may be present.
	SrcIndices *[]int    `hcl:"src_indices,optional"`
	SrcDims    *[]string `hcl:"src_dims,optional"`
	SrcShape   *[]int    `hcl:"src_shape,optional"`

	// Value and Units override the default metadata of matched inputs.
	Value cty.Value `hcl:"value,optional"`
	Units *string   `hcl:"units,optional"`
}

// Connect represents a `connect` block: an explicit connection declared
// by the enclosing group.
type Connect struct {
	Source  string   `hcl:"source"`
	Targets []string `hcl:"targets"`

	SrcIndices *[]int    `hcl:"src_indices,optional"`
	SrcDims    *[]string `hcl:"src_dims,optional"`
}

// Group represents a `group` block: an internal system with children,
// promotion rules and connections. Groups nest arbitrarily.
type Group struct {
	Name       string       `hcl:"name,label"`
	Components []*Component `hcl:"component,block"`
	Groups     []*Group     `hcl:"group,block"`
	Promotes   []*Promote   `hcl:"promote,block"`
	Connects   []*Connect   `hcl:"connect,block"`
}

// Root represents the top level of a model definition file. The file's
// top level is itself the root group's content.
type Root struct {
	Components []*Component `hcl:"component,block"`
	Groups     []*Group     `hcl:"group,block"`
	Promotes   []*Promote   `hcl:"promote,block"`
	Connects   []*Connect   `hcl:"connect,block"`
	Remain     hcl.Body     `hcl:",remain"`
}
