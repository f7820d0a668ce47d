package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, configBody string) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"jsdeps.toml": configBody,
		"a.js":        "import { b } from './b'\nimport './d'\n",
		"b.js":        "const c = require('./c')\n",
		"c.ts":        "export * from './a'\n",
		"d.js":        "import('./c')\n",
		"lone.js":     "export const lone = true\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}
	return root
}

const baseConfig = `
[output]
graph_json = "out/graph.json"
`

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_BuildThenQuery(t *testing.T) {
	root := writeProject(t, baseConfig)
	cfg := filepath.Join(root, "jsdeps.toml")

	code, out, _ := runCLI(t, "-config", cfg, "-build")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "jsdeps build")
	assert.FileExists(t, filepath.Join(root, "out", "graph.json"))

	code, out, _ = runCLI(t, "-config", cfg, "a.js", "c.ts")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "a.js --> b.js --> c.ts\n", out)

	code, out, _ = runCLI(t, "-config", cfg, "./c.ts", filepath.Join(root, "d.js"))
	require.Equal(t, exitOK, code)
	assert.Equal(t, "c.ts --> a.js --> d.js\n", out)
}

func TestRun_BuildWithQueryArguments(t *testing.T) {
	root := writeProject(t, baseConfig)

	code, out, _ := runCLI(t, "-config", filepath.Join(root, "jsdeps.toml"), "-build", "-top", "2", "d.js", "b.js")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "most connected modules")
	assert.Contains(t, out, "d.js --> c.ts --> a.js --> b.js\n")
}

func TestRun_NoPathIsNotAnError(t *testing.T) {
	root := writeProject(t, baseConfig)
	cfg := filepath.Join(root, "jsdeps.toml")
	code, _, _ := runCLI(t, "-config", cfg, "-build")
	require.Equal(t, exitOK, code)

	code, out, stderr := runCLI(t, "-config", cfg, "-verbose", "a.js", "lone.js")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "no path from a.js to lone.js found in dependency graph\n", out)
	assert.NotContains(t, stderr, "error:")
	assert.Contains(t, stderr, "code=QUERY_NOT_FOUND")

	code, out, _ = runCLI(t, "-config", cfg, "a.js", "a.js")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "a.js\n", out)
}

func TestRun_UsageErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "NoArguments", args: nil, want: "origin and destination are required"},
		{name: "OneArgument", args: []string{"a.js"}, want: "origin and destination are required"},
		{name: "ThreeArguments", args: []string{"a.js", "b.js", "c.js"}, want: "origin and destination are required"},
		{name: "ExclusiveModes", args: []string{"-build", "-cycles"}, want: "mutually exclusive"},
		{name: "ModeWithArguments", args: []string{"-cycles", "a.js"}, want: "unexpected arguments"},
		{name: "SnapshotWithBuild", args: []string{"-build", "-snapshot", "latest"}, want: "-snapshot only applies"},
		{name: "NegativeTop", args: []string{"-build", "-top", "-1"}, want: "-top must not be negative"},
		{name: "UnknownFlag", args: []string{"-nope"}, want: "flag provided but not defined"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, out, stderr := runCLI(t, tc.args...)
			assert.Equal(t, exitUsage, code)
			assert.Empty(t, out)
			assert.Contains(t, stderr, tc.want)
			assert.Contains(t, stderr, "usage: jsdeps")
		})
	}
}

func TestRun_VersionAndHelp(t *testing.T) {
	code, out, _ := runCLI(t, "-version")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "jsdeps v"+versionString+"\n", out)

	code, _, stderr := runCLI(t, "-h")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "usage: jsdeps")
}

func TestRun_RuntimeFailures(t *testing.T) {
	root := writeProject(t, baseConfig)

	code, _, stderr := runCLI(t, "-config", filepath.Join(root, "jsdeps.toml"), "a.js", "b.js")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "run with -build first")

	code, _, _ = runCLI(t, "-config", filepath.Join(root, "missing.toml"), "a.js", "b.js")
	assert.Equal(t, exitFailure, code)
}

func TestRun_CyclesAndImporters(t *testing.T) {
	root := writeProject(t, baseConfig)
	cfg := filepath.Join(root, "jsdeps.toml")
	code, _, _ := runCLI(t, "-config", cfg, "-build")
	require.Equal(t, exitOK, code)

	code, out, _ := runCLI(t, "-config", cfg, "-cycles")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "1 import cycle(s)")
	assert.Contains(t, out, "1. a.js, b.js, c.ts, d.js")

	code, out, _ = runCLI(t, "-config", cfg, "-importers", "c.ts")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "importers of c.ts")
	assert.Contains(t, out, "direct (2)")
	assert.Contains(t, out, "transitive (1)")
}

func TestRun_SnapshotQuery(t *testing.T) {
	root := writeProject(t, baseConfig+`
[db]
enabled = true
path = "state/jsdeps.db"
`)
	cfg := filepath.Join(root, "jsdeps.toml")

	code, out, _ := runCLI(t, "-config", cfg, "-build")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "snapshot")
	assert.FileExists(t, filepath.Join(root, "state", "jsdeps.db"))

	require.NoError(t, os.Remove(filepath.Join(root, "out", "graph.json")))

	code, out, _ = runCLI(t, "-config", cfg, "-snapshot", "latest", "b.js", "d.js")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "b.js --> c.ts --> a.js --> d.js\n", out)

	code, _, stderr := runCLI(t, "-config", cfg, "-snapshot", "nope", "b.js", "d.js")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "not found")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitFailure, exitCode(os.ErrNotExist))
}
