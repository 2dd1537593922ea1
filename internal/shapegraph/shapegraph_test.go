package shapegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNode(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("a")
	g.AddNode("b")
	g.AddNode("a") // idempotent
	assert.Equal(t, []string{"a", "b"}, g.Nodes())
}

func TestAddEquivalence(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("a")
	g.AddNode("b")

	require.NoError(t, g.AddEquivalence("a", "b"))
	assert.Equal(t, []string{"b"}, g.EquivalentTo("a"))
	assert.Equal(t, []string{"a"}, g.EquivalentTo("b"))

	require.Error(t, g.AddEquivalence("a", "a"))
	require.Error(t, g.AddEquivalence("a", "missing"))
}

func TestComputeDeps(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("x")
	g.AddNode("y")
	g.AddNode("out")

	require.NoError(t, g.AddComputeDep("out", "x"))
	require.NoError(t, g.AddComputeDep("out", "y"))
	assert.Equal(t, []string{"x", "y"}, g.ComputeDeps("out"))
	assert.Equal(t, []string{"out"}, g.ComputeDependents("x"))

	require.Error(t, g.AddComputeDep("out", "out"))
	require.Error(t, g.AddComputeDep("out", "missing"))
}

func TestDetectComputeCycles(t *testing.T) {
	t.Parallel()

	t.Run("acyclic passes", func(t *testing.T) {
		t.Parallel()
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		require.NoError(t, g.AddComputeDep("b", "a"))
		require.NoError(t, g.AddComputeDep("c", "b"))
		require.NoError(t, g.DetectComputeCycles())
	})

	t.Run("cycle is reported", func(t *testing.T) {
		t.Parallel()
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddComputeDep("b", "a"))
		require.NoError(t, g.AddComputeDep("a", "b"))
		err := g.DetectComputeCycles()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cycle")
	})

	t.Run("equivalence edges never cycle", func(t *testing.T) {
		t.Parallel()
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEquivalence("a", "b"))
		require.NoError(t, g.DetectComputeCycles())
	})
}
