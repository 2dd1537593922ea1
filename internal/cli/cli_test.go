package cli_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/modelgraph/internal/cli"
)

func TestParsePositionalPath(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, shouldExit, err := cli.Parse([]string{"model.hcl"}, &out)
	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, "model.hcl", cfg.ModelPath)
	assert.Equal(t, "summary", cfg.OutputFormat)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestParseFlagOverridesPositional(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, _, err := cli.Parse([]string{"-model", "a.hcl", "b.hcl"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "a.hcl", cfg.ModelPath)
}

func TestParseEmitFlags(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, _, err := cli.Parse([]string{
		"-emit", "http://localhost:3000/socket.io/",
		"-emit-event", "shapes",
		"model.hcl",
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/socket.io/", cfg.EmitURL)
	assert.Equal(t, "shapes", cfg.EmitEvent)
}

func TestParseNoPathPrintsUsage(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, shouldExit, err := cli.Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "bad output", args: []string{"-output", "xml", "m.hcl"}, want: "invalid output"},
		{name: "bad log format", args: []string{"-log-format", "yaml", "m.hcl"}, want: "invalid log-format"},
		{name: "bad log level", args: []string{"-log-level", "verbose", "m.hcl"}, want: "invalid log-level"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			_, _, err := cli.Parse(tc.args, &out)
			require.Error(t, err)

			exitErr, ok := err.(*cli.ExitError)
			require.True(t, ok)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}
