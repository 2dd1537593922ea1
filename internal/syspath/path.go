package syspath

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex validates a single dotted-path segment, e.g. `spar` or `x_2`.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// Path is the structured representation of an absolute dotted identifier.
// The zero value is the model root (empty path).
type Path struct {
	segments []string
}

// Root is the empty path addressing the top-level group of the model.
var Root = Path{}

// Parse creates a Path by parsing its canonical dotted string representation.
// An empty string parses to the root path.
func Parse(raw string) (Path, error) {
	if raw == "" {
		return Root, nil
	}

	parts := strings.Split(raw, ".")
	for _, part := range parts {
		if part == "" {
			return Path{}, fmt.Errorf("path %q contains an empty segment", raw)
		}
		if !segmentRegex.MatchString(part) {
			return Path{}, fmt.Errorf("invalid path segment %q in %q", part, raw)
		}
	}
	return Path{segments: parts}, nil
}

// MustParse is Parse that panics on malformed input. For literals in tests
// and built-in declarations only.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String serializes the Path into its canonical dotted representation.
func (p Path) String() string {
	return strings.Join(p.segments, ".")
}

// IsRoot reports whether the path addresses the model root.
func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

// Depth returns the number of segments in the path. The root has depth 0.
func (p Path) Depth() int {
	return len(p.segments)
}

// Name returns the final segment, the local name within the parent's scope.
// The root path has no name.
func (p Path) Name() string {
	if p.IsRoot() {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Parent returns the path with the final segment removed. The root is its
// own parent.
func (p Path) Parent() Path {
	if p.IsRoot() {
		return Root
	}
	return Path{segments: p.segments[:len(p.segments)-1]}
}

// Child returns the path extended by one local name. The name is assumed to
// be a valid segment; callers constructing paths from user input go through
// Parse instead.
func (p Path) Child(name string) Path {
	segments := make([]string, 0, len(p.segments)+1)
	segments = append(segments, p.segments...)
	segments = append(segments, name)
	return Path{segments: segments}
}

// Join returns the path extended by a relative dotted suffix.
func (p Path) Join(rel string) (Path, error) {
	suffix, err := Parse(rel)
	if err != nil {
		return Path{}, err
	}
	segments := make([]string, 0, len(p.segments)+len(suffix.segments))
	segments = append(segments, p.segments...)
	segments = append(segments, suffix.segments...)
	return Path{segments: segments}, nil
}

// Equal checks for equality between two paths.
func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i, seg := range p.segments {
		if other.segments[i] != seg {
			return false
		}
	}
	return true
}

// IsAncestorOf reports whether p is a strict ancestor of other. The root is
// an ancestor of every non-root path.
func (p Path) IsAncestorOf(other Path) bool {
	if len(p.segments) >= len(other.segments) {
		return false
	}
	for i, seg := range p.segments {
		if other.segments[i] != seg {
			return false
		}
	}
	return true
}

// RelativeTo returns the dotted suffix of p below the ancestor path. It
// errors if ancestor is not an ancestor of (or equal to) p.
func (p Path) RelativeTo(ancestor Path) (string, error) {
	if !ancestor.IsAncestorOf(p) && !ancestor.Equal(p) {
		return "", fmt.Errorf("%q is not an ancestor of %q", ancestor, p)
	}
	return strings.Join(p.segments[len(ancestor.segments):], "."), nil
}

// CommonAncestor returns the deepest path that is an ancestor of (or equal
// to) both a and b. Two unrelated paths share the root.
func CommonAncestor(a, b Path) Path {
	n := len(a.segments)
	if len(b.segments) < n {
		n = len(b.segments)
	}
	i := 0
	for i < n && a.segments[i] == b.segments[i] {
		i++
	}
	return Path{segments: a.segments[:i]}
}
