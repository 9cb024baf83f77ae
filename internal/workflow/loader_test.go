package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

const validWorkflow = `
name: CI
on:
  push:
    branches: [master]
jobs:
  test:
    strategy:
      matrix:
        python-version: [3.6, 3.7]
    steps:
      - name: Say hi
        run: echo hi
`

func TestLoad_SingleFile(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{"ci.yml": validWorkflow})

	set, err := NewLoader().Load(context.Background(), filepath.Join(dir, "ci.yml"))
	require.NoError(t, err)
	require.Len(t, set.Workflows, 1)

	wf := set.Workflows[0]
	require.Equal(t, "CI", wf.Name)
	require.Len(t, wf.Jobs, 1)
	require.Equal(t, []string{"3.6", "3.7"}, wf.Jobs[0].Strategy.Matrix.Axes["python-version"])
	// fail-fast defaults on.
	require.True(t, wf.Jobs[0].Strategy.FailFast)
}

func TestLoad_DirectoryDiscoversRecursively(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"workflows/ci.yml":      validWorkflow,
		"workflows/deep/x.yaml": validWorkflow,
		"workflows/notes.txt":   "not a workflow",
		"workflows/README.md":   "docs",
	})

	set, err := NewLoader().Load(context.Background(), filepath.Join(dir, "workflows"))
	require.NoError(t, err)
	require.Len(t, set.Workflows, 2)
}

func TestLoad_EmptyDirectoryErrors(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().Load(context.Background(), t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no workflow files")
}

func TestLoad_NameFallsBackToFileBasename(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{"nightly.yml": `
on: push
jobs:
  test:
    steps:
      - run: echo hi
`})

	set, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, "nightly", set.Workflows[0].Name)
}

func TestLoad_ValidationFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "no jobs",
			src:  "on: push\n",
			want: "declares no jobs",
		},
		{
			name: "job without steps",
			src:  "on: push\njobs:\n  test: {}\n",
			want: "has no steps",
		},
		{
			name: "step without run",
			src:  "on: push\njobs:\n  test:\n    steps:\n      - name: empty\n",
			want: "empty run script",
		},
		{
			name: "unknown needs",
			src:  "on: push\njobs:\n  test:\n    needs: ghost\n    steps:\n      - run: echo hi\n",
			want: `needs unknown job "ghost"`,
		},
		{
			name: "self needs",
			src:  "on: push\njobs:\n  test:\n    needs: test\n    steps:\n      - run: echo hi\n",
			want: "needs itself",
		},
		{
			name: "unknown shell",
			src:  "on: push\njobs:\n  test:\n    steps:\n      - run: echo hi\n        shell: csh\n",
			want: `unknown shell "csh"`,
		},
		{
			name: "negative timeout",
			src:  "on: push\njobs:\n  test:\n    timeout-minutes: -5\n    steps:\n      - run: echo hi\n",
			want: "timeout-minutes must not be negative",
		},
		{
			name: "empty matrix axis",
			src:  "on: push\njobs:\n  test:\n    strategy:\n      matrix:\n        v: []\n    steps:\n      - run: echo hi\n",
			want: "has no values",
		},
		{
			name: "broken yaml",
			src:  "on: [push\n",
			want: "failed to parse",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := writeFiles(t, map[string]string{"bad.yml": tc.src})
			_, err := NewLoader().Load(context.Background(), dir)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}
