// Package testutil provides the shared harness for resolution tests:
// parse an inline HCL model definition, run a resolution pass with the
// builtin shape functions, and hand back the artifact.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/modelgraph/internal/ctxlog"
	"github.com/vk/modelgraph/internal/hcladapter"
	"github.com/vk/modelgraph/internal/model"
	"github.com/vk/modelgraph/internal/registry"
	"github.com/vk/modelgraph/internal/resolver"
)

// Context returns a context carrying a quiet logger, so resolution's
// phase narration does not drown test output.
func Context() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

// LoadModel parses an inline model definition, failing the test on any
// parse or translation error.
func LoadModel(t *testing.T, src string) *model.Model {
	t.Helper()
	m, err := hcladapter.NewLoader().LoadString(Context(), src)
	require.NoError(t, err)
	return m
}

// Resolve parses an inline model definition and runs one resolution pass
// with the builtin shape functions registered.
func Resolve(t *testing.T, src string) (*resolver.Resolution, error) {
	t.Helper()
	m := LoadModel(t, src)

	reg := registry.New()
	registry.RegisterBuiltins(reg)
	require.NoError(t, reg.ValidateModel(Context(), m))

	return resolver.Resolve(Context(), m, reg)
}

// MustResolve is Resolve that fails the test on any resolution error.
func MustResolve(t *testing.T, src string) *resolver.Resolution {
	t.Helper()
	res, err := Resolve(t, src)
	require.NoError(t, err)
	return res
}
