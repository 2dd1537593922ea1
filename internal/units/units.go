// Package units implements the minimal physical-units support the resolver
// needs: parsing simple unit strings, checking dimensional compatibility,
// and converting scalar values between compatible units.
//
// Only linear, single-symbol units with SI prefixes are supported. That is
// sufficient for default-metadata reconciliation; anything richer belongs to
// the numerical collaborators, not to namespace resolution.
package units

import (
	"fmt"
	"strings"
)

// Unit is a parsed unit: a base dimension and a scale factor relative to
// that dimension's canonical unit.
type Unit struct {
	// Name is the string the unit was parsed from, kept for diagnostics.
	Name string
	// Dim identifies the base dimension ("m" for length, "g" for mass, ...).
	// Two units are compatible iff their Dim fields match.
	Dim string
	// Factor converts a value in this unit into the canonical unit.
	Factor float64
}

// Dimensionless is the unit of variables declared without units. It is
// compatible only with itself.
var Dimensionless = Unit{Name: "", Dim: "", Factor: 1}

// baseUnits maps a base symbol to its dimension. The canonical unit of each
// dimension is the base symbol itself with factor 1.
var baseUnits = map[string]string{
	"m":   "m",
	"g":   "g",
	"s":   "s",
	"A":   "A",
	"K":   "K",
	"N":   "N",
	"Pa":  "Pa",
	"J":   "J",
	"W":   "W",
	"Hz":  "Hz",
	"rad": "rad",
}

// nonPrefixFactors covers units that are not a prefixed base symbol.
var nonPrefixFactors = map[string]Unit{
	"deg":  {Name: "deg", Dim: "rad", Factor: 0.017453292519943295},
	"min":  {Name: "min", Dim: "s", Factor: 60},
	"h":    {Name: "h", Dim: "s", Factor: 3600},
	"ft":   {Name: "ft", Dim: "m", Factor: 0.3048},
	"inch": {Name: "inch", Dim: "m", Factor: 0.0254},
	"lbm":  {Name: "lbm", Dim: "g", Factor: 453.59237},
}

// siPrefixes maps an SI prefix to its multiplier.
var siPrefixes = map[string]float64{
	"n": 1e-9,
	"u": 1e-6,
	"m": 1e-3,
	"c": 1e-2,
	"d": 1e-1,
	"k": 1e3,
	"M": 1e6,
	"G": 1e9,
}

// Parse interprets a unit string. The empty string parses to Dimensionless.
func Parse(name string) (Unit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Dimensionless, nil
	}

	if u, ok := nonPrefixFactors[name]; ok {
		return u, nil
	}
	if dim, ok := baseUnits[name]; ok {
		return Unit{Name: name, Dim: dim, Factor: 1}, nil
	}

	// Try a single SI prefix on a base symbol, e.g. "mm", "kPa", "GHz".
	for prefix, mult := range siPrefixes {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		base := name[len(prefix):]
		if dim, ok := baseUnits[base]; ok {
			return Unit{Name: name, Dim: dim, Factor: mult}, nil
		}
	}

	return Unit{}, fmt.Errorf("unknown unit %q", name)
}

// Compatible reports whether values in a can be converted to b.
func Compatible(a, b Unit) bool {
	return a.Dim == b.Dim
}

// Convert translates a scalar value from one unit into another. Converting
// between incompatible dimensions is an error.
func Convert(value float64, from, to Unit) (float64, error) {
	if !Compatible(from, to) {
		return 0, fmt.Errorf("cannot convert %q to %q: incompatible dimensions", from.Name, to.Name)
	}
	return value * from.Factor / to.Factor, nil
}
