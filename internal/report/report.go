// Package report renders a resolution artifact for people and for
// machines: a flat text summary of the variable table and connection set,
// and a JSON projection of the shape diagnostic graph.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/modelgraph/internal/model"
	"github.com/vk/modelgraph/internal/resolver"
)

// WriteSummary renders the flat variable table, the connection set and the
// synthesized sources as text.
func WriteSummary(w io.Writer, res *resolver.Resolution) error {
	fmt.Fprintln(w, "VARIABLES")
	for _, info := range res.Table {
		fmt.Fprintf(w, "  %-8s %s%s\n", direction(info), info.Path, variableDetail(info))
	}

	fmt.Fprintln(w, "CONNECTIONS")
	for _, conn := range res.Connections {
		kind := ""
		if conn.Auto {
			kind = " (auto)"
		}
		fmt.Fprintf(w, "  %s%s\n", conn.Source, kind)
		for _, binding := range conn.Targets {
			fmt.Fprintf(w, "    -> %s%s\n", binding.Path, bindingDetail(binding))
		}
	}

	if len(res.AutoSources) > 0 {
		fmt.Fprintln(w, "AUTO SOURCES")
		for _, auto := range res.AutoSources {
			fmt.Fprintf(w, "  %s feeds '%s'\n", auto.Path, auto.Promoted)
		}
	}
	return nil
}

// WriteGraphJSON renders the shape diagnostic graph as indented JSON.
func WriteGraphJSON(w io.Writer, res *resolver.Resolution) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Graph)
}

func direction(info *resolver.VariableInfo) string {
	s := "output"
	if info.IO == model.Input {
		s = "input"
	}
	if info.Discrete {
		s += "*"
	}
	return s
}

func variableDetail(info *resolver.VariableInfo) string {
	var parts []string
	if info.Shape != nil {
		parts = append(parts, "shape="+info.Shape.String())
	}
	if info.Units != "" {
		parts = append(parts, "units="+info.Units)
	}
	if info.Value != cty.NilVal {
		parts = append(parts, "value="+renderValue(info.Value))
	}
	if len(parts) == 0 {
		return ""
	}
	return "  [" + strings.Join(parts, " ") + "]"
}

func bindingDetail(binding *resolver.TargetBinding) string {
	if binding.Identity {
		return ""
	}
	return fmt.Sprintf("  src_indices=%v", binding.Composed)
}

func renderValue(v cty.Value) string {
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(b)
}
