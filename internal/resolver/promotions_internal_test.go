package resolver

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/modelgraph/internal/ctxlog"
	"github.com/vk/modelgraph/internal/hcladapter"
	"github.com/vk/modelgraph/internal/model"
	"github.com/vk/modelgraph/internal/syspath"
)

func quietCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func loadModel(t *testing.T, src string) *model.Model {
	t.Helper()
	m, err := hcladapter.NewLoader().LoadString(quietCtx(), src)
	require.NoError(t, err)
	return m
}

func TestPromotionVisibleNames(t *testing.T) {
	t.Parallel()

	m := loadModel(t, `
group "wing" {
	component "spar" {
		input "x" {}
		output "stress" {}
	}
	promote {
		child = "spar"
		match = "x"
		as    = "width"
	}
}
`)

	col := &collector{}
	proms := resolvePromotions(quietCtx(), m, col)
	require.True(t, col.ok(), "unexpected errors: %v", col.errs)

	x := syspath.MustParse("wing.spar.x")
	stress := syspath.MustParse("wing.spar.stress")

	name, ok := proms.NameAt(x, syspath.MustParse("wing"))
	require.True(t, ok)
	assert.Equal(t, "width", name)
	assert.Equal(t, "wing.width", proms.RootName(x))

	// Unmatched names pass through qualified by the child's local name.
	assert.Equal(t, "wing.spar.stress", proms.RootName(stress))

	// The alias rule is recorded as a contribution for index composition.
	contribs := proms.Contributions(x)
	require.Len(t, contribs, 1)
	assert.Equal(t, "wing", contribs[0].Scope.String())
	assert.Equal(t, "width", contribs[0].Rule.As)
}

func TestPromotionGlob(t *testing.T) {
	t.Parallel()

	m := loadModel(t, `
group "g" {
	component "c" {
		input "x_1" {}
		input "x_2" {}
		output "y" {}
	}
	promote {
		child = "c"
		match = "x_*"
	}
}
`)

	col := &collector{}
	proms := resolvePromotions(quietCtx(), m, col)
	require.True(t, col.ok())

	assert.Equal(t, "g.x_1", proms.RootName(syspath.MustParse("g.c.x_1")))
	assert.Equal(t, "g.x_2", proms.RootName(syspath.MustParse("g.c.x_2")))
	assert.Equal(t, "g.c.y", proms.RootName(syspath.MustParse("g.c.y")))

	table := proms.VisibleAt(syspath.MustParse("g"))
	require.NotNil(t, table)
	assert.Equal(t, []syspath.Path{syspath.MustParse("g.c.x_1")}, table.Lookup("x_1"))
}

func TestPromotionGlobDoesNotCrossLevels(t *testing.T) {
	t.Parallel()

	// The inner group does not promote x, so at the outer group it is
	// visible as "inner.x"; a single-level glob must not capture it.
	m := loadModel(t, `
group "outer" {
	group "inner" {
		component "c" {
			input "x" {}
		}
	}
	promote {
		child = "inner"
		match = "*"
	}
}
`)

	col := &collector{}
	proms := resolvePromotions(quietCtx(), m, col)
	require.True(t, col.ok())

	assert.Equal(t, "outer.inner.c.x", proms.RootName(syspath.MustParse("outer.inner.c.x")))
}

func TestPromotionMergesCoPromotedInputs(t *testing.T) {
	t.Parallel()

	m := loadModel(t, `
group "g" {
	component "c1" {
		input "x" {}
	}
	component "c2" {
		input "x" {}
	}
	promote {
		child = "c1"
		match = "x"
	}
	promote {
		child = "c2"
		match = "x"
	}
}
`)

	col := &collector{}
	proms := resolvePromotions(quietCtx(), m, col)
	require.True(t, col.ok())

	table := proms.VisibleAt(syspath.MustParse("g"))
	require.NotNil(t, table)
	assert.Equal(t,
		[]syspath.Path{syspath.MustParse("g.c1.x"), syspath.MustParse("g.c2.x")},
		table.Lookup("x"))
}

func TestPromotionErrorForMissingName(t *testing.T) {
	t.Parallel()

	m := loadModel(t, `
group "g" {
	component "c" {
		input "x" {}
	}
	promote {
		child = "c"
		match = "nope"
	}
	promote {
		child = "c"
		match = "zz_*"
	}
}
`)

	col := &collector{}
	resolvePromotions(quietCtx(), m, col)

	// The exact rule is fatal; the glob matching nothing is allowed.
	require.Len(t, col.errs, 1)
	var perr *PromotionError
	require.ErrorAs(t, col.errs[0], &perr)
	assert.Equal(t, "nope", perr.Pattern)
	assert.Equal(t, "c", perr.Child)
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	cases := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"x", "x", true},
		{"x", "y", false},
		{"*", "x", true},
		{"*", "sub.x", false},
		{"x_*", "x_1", true},
		{"sub.*", "sub.x", true},
		{"sub.*", "sub.deep.x", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, matchPattern(tc.pattern, tc.name), "pattern %q vs %q", tc.pattern, tc.name)
	}
}
