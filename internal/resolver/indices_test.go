package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/modelgraph/internal/indexer"
	"github.com/vk/modelgraph/internal/resolver"
	"github.com/vk/modelgraph/internal/syspath"
	"github.com/vk/modelgraph/internal/testutil"
)

func TestComposedIndicesAcrossLevels(t *testing.T) {
	t.Parallel()

	// The connection selects columns 0 and 2 of a (3, 3) source; the
	// promotion rule then selects column 1 of that (3, 2) selection.
	// "direct.x" picks column 2 of the source in a single step, so both
	// targets must address the same source positions.
	res := testutil.MustResolve(t, `
component "src" {
	output "y" {
		shape = [3, 3]
	}
}
group "wing" {
	component "spar" {
		input "x" {
			shape = [3, 1]
		}
	}
	promote {
		child     = "spar"
		match     = "x"
		as        = "width"
		src_dims  = [":", "1"]
		src_shape = [3, 2]
	}
}
component "direct" {
	input "x" {
		shape = [3, 1]
	}
}
connect {
	source   = "src.y"
	targets  = ["wing.width"]
	src_dims = [":", "0,2"]
}
connect {
	source   = "src.y"
	targets  = ["direct.x"]
	src_dims = [":", "2"]
}
`)

	_, composed, ok := res.ConnectionTo(syspath.MustParse("wing.spar.x"))
	require.True(t, ok)
	assert.False(t, composed.Identity)
	assert.Equal(t, []int{2, 5, 8}, composed.Composed)

	_, direct, ok := res.ConnectionTo(syspath.MustParse("direct.x"))
	require.True(t, ok)
	assert.Equal(t, []int{2, 5, 8}, direct.Composed)
}

func TestComposedIndicesVerifySrcShapePerLevel(t *testing.T) {
	t.Parallel()

	// The promotion rule pins the shape it expects to receive; the
	// connection delivers (3, 2) instead.
	_, err := testutil.Resolve(t, `
component "src" {
	output "y" {
		shape = [3, 3]
	}
}
group "wing" {
	component "spar" {
		input "x" {
			shape_by_conn = true
		}
	}
	promote {
		child     = "spar"
		match     = "x"
		as        = "width"
		src_dims  = [":", "1"]
		src_shape = [2, 2]
	}
}
connect {
	source   = "src.y"
	targets  = ["wing.width"]
	src_dims = [":", "0,2"]
}
`)
	require.Error(t, err)

	var mismatch *resolver.ShapeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.True(t, indexer.Shape{2, 2}.Equal(mismatch.Want))
	assert.True(t, indexer.Shape{3, 2}.Equal(mismatch.Got))
}

func TestNegativeFlatIndexSelectsFromEnd(t *testing.T) {
	t.Parallel()

	res := testutil.MustResolve(t, `
component "a" {
	output "y" {
		shape = [4]
	}
}
component "b" {
	input "x" {
		shape = [1]
	}
}
connect {
	source      = "a.y"
	targets     = ["b.x"]
	src_indices = [-1]
}
`)

	_, binding, ok := res.ConnectionTo(syspath.MustParse("b.x"))
	require.True(t, ok)
	assert.Equal(t, []int{3}, binding.Composed)
}

func TestSlicedIndexWithStep(t *testing.T) {
	t.Parallel()

	res := testutil.MustResolve(t, `
component "a" {
	output "y" {
		shape = [6]
	}
}
component "b" {
	input "x" {
		shape_by_conn = true
	}
}
connect {
	source   = "a.y"
	targets  = ["b.x"]
	src_dims = ["0:6:2"]
}
`)

	info, ok := res.Lookup(syspath.MustParse("b.x"))
	require.True(t, ok)
	assert.True(t, indexer.Shape{3}.Equal(info.Shape))

	_, binding, ok := res.ConnectionTo(syspath.MustParse("b.x"))
	require.True(t, ok)
	assert.Equal(t, []int{0, 2, 4}, binding.Composed)
}

func TestIndexOutOfRangeReported(t *testing.T) {
	t.Parallel()

	_, err := testutil.Resolve(t, `
component "a" {
	output "y" {
		shape = [3]
	}
}
component "b" {
	input "x" {
		shape = [1]
	}
}
connect {
	source      = "a.y"
	targets     = ["b.x"]
	src_indices = [7]
}
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}
