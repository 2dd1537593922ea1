package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeModelFile(t *testing.T, content string) string {
	t.Helper()
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	err := os.WriteFile(filePath, []byte(content), 0600)
	require.NoError(t, err, "failed to set up test file")
	return filePath
}

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Define an HCL string with a syntax error that is guaranteed to cause
	// a panic during the loading phase inside app.NewApp().
	invalidHCL := `
		component "a" {
			input "x" {
		// Missing closing brace here
	`
	filePath := writeModelFile(t, invalidHCL)

	args := []string{"-log-level", "error", filePath}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	// --- Act ---
	// Call the run function, which should recover the panic and return it
	// as an error.
	runErr := run(out, errOut, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	require.True(t, strings.Contains(runErr.Error(), "application startup panicked"),
		"The error message should indicate that a panic was recovered.")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	// --- Act ---
	err := run(out, errOut, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	// --- Act ---
	err := run(out, errOut, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_ResolvesAndReports(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	filePath := writeModelFile(t, `
component "source" {
	output "y" {
		shape = [3]
		units = "m"
	}
}
component "sink" {
	input "x" {
		shape_by_conn = true
		units = "m"
	}
}
connect {
	source  = "source.y"
	targets = ["sink.x"]
}
`)

	args := []string{"-log-level", "error", filePath}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	// --- Act ---
	err := run(out, errOut, args)

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), "VARIABLES")
	require.Contains(t, out.String(), "source.y")
	require.Contains(t, out.String(), "-> sink.x")
}

func TestRun_GraphOutput(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	filePath := writeModelFile(t, `
component "c" {
	input "x" {
		value = 1
	}
}
`)

	args := []string{"-log-level", "error", "-output", "graph", filePath}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	// --- Act ---
	err := run(out, errOut, args)

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), `"nodes"`)
	require.Contains(t, out.String(), `"c.x"`)
}
