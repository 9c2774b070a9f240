package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return shouldExit=true.
	out := &bytes.Buffer{}
	err := run(out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Parallel()

	// A config file with a syntax error must fail the run before any
	// evaluation happens.
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "analytics.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(`equations = [`), 0600))

	out := &bytes.Buffer{}
	err := run(out, []string{"-log-level", "error", filePath})

	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse")
}
