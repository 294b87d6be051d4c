package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/moveng/internal/testutil"
)

// writeRepo renders the fixture dataset into a temporary repository.
func writeRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range testutil.RepoFiles(t, testutil.Snapshot()) {
		writeTestFile(t, filepath.Join(dir, filepath.FromSlash(name)), content)
	}
	return dir
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// isolate points HOME at an empty directory and returns a config file that
// keeps the archive inside a temporary directory.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfg := filepath.Join(t.TempDir(), "moveng.yaml")
	writeTestFile(t, cfg, "archive:\n  path: archive.db\n")
	return cfg
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := isolate(t)

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", cfg}, args...))

	err := cmd.Execute()
	return buf.String(), err
}

func assertGolden(t *testing.T, name, actual string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(actual))
}
