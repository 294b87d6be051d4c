package cli

import (
	"archive/zip"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/moveng/internal/model"
	"github.com/roach88/moveng/internal/validate"
)

const badPractice = `---
id: prc-bad
name: Broken
involvedEntityIds: [ent-ghost]
---
`

func TestCompile_Text(t *testing.T) {
	repo := writeRepo(t)

	out, err := execute(t, "compile", repo)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 19 record(s) across 2 movement(s)")
	assert.Contains(t, out, "  texts: 4\n")
	assert.Contains(t, out, "  notes: 3\n")
	assert.Contains(t, out, "Fingerprint: ")
	assert.NotContains(t, out, "Warnings:")
}

// TestCompile_OutputFile tests that the written snapshot passes import
// validation and carries the fingerprint reported in the response.
func TestCompile_OutputFile(t *testing.T) {
	repo := writeRepo(t)
	output := filepath.Join(t.TempDir(), "snapshot.json")

	out, err := execute(t, "--format", "json", "compile", repo, "-o", output)
	require.NoError(t, err)

	var resp struct {
		Status      string            `json:"status"`
		Fingerprint string            `json:"fingerprint"`
		Data        CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 19, resp.Data.Snapshot.Len())
	assert.Empty(t, resp.Data.Warnings)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	s, _, err := validate.ImportJSON(data)
	require.NoError(t, err)
	require.NotNil(t, s.Meta)
	assert.Equal(t, resp.Fingerprint, s.Meta.Fingerprint)
	assert.Equal(t, model.SpecVersion, s.Meta.SpecVersion)
}

func TestCompile_ReferenceError(t *testing.T) {
	repo := writeRepo(t)
	writeTestFile(t, filepath.Join(repo, "movements", "mov-lantern", "practices", "prc-bad.md"), badPractice)

	out, err := execute(t, "compile", repo)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "E203: Missing reference: practices/prc-bad involvedEntityIds -> ent-ghost")
}

func TestCompile_MissingRepository(t *testing.T) {
	out, err := execute(t, "--format", "json", "compile", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, model.ErrCodeSource, resp.Error.Code)
}

func TestValidate_Repository(t *testing.T) {
	repo := writeRepo(t)

	out, err := execute(t, "validate", "--repo", repo)
	require.NoError(t, err)
	assert.Equal(t, "✓ Dataset valid: 19 record(s) across 2 movement(s)\n", out)
}

func TestValidate_Import(t *testing.T) {
	repo := writeRepo(t)
	output := filepath.Join(t.TempDir(), "snapshot.json")
	_, err := execute(t, "compile", repo, "-o", output)
	require.NoError(t, err)

	out, err := execute(t, "--format", "json", "validate", "--import", output)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 19, resp.Data.Records)
}

func TestValidate_ImportBadShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	writeTestFile(t, path, `{"movements": "not a list"}`)

	out, err := execute(t, "validate", "--import", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, model.ErrCodeImport)
}

func TestValidate_ImportMissingFile(t *testing.T) {
	_, err := execute(t, "validate", "--import", filepath.Join(t.TempDir(), "none.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTree_Golden(t *testing.T) {
	repo := writeRepo(t)

	out, err := execute(t, "--repo", repo, "tree", "mov-lantern")
	require.NoError(t, err)
	assertGolden(t, "tree_lantern", out)
}

func TestTree_NoTexts(t *testing.T) {
	repo := writeRepo(t)

	out, err := execute(t, "--repo", repo, "tree", "mov-tide")
	require.NoError(t, err)
	assert.Equal(t, "Movement mov-tide has no texts\n", out)

	_, err = execute(t, "--repo", repo, "tree", "mov-ghost")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTree_ParentCycle(t *testing.T) {
	repo := t.TempDir()
	writeTestFile(t, filepath.Join(repo, "movements", "loop", "movement.md"), "---\nid: mov-loop\nname: Loop\n---\n")
	writeTestFile(t, filepath.Join(repo, "movements", "loop", "texts", "a.md"), "---\nid: txt-a\ntitle: A\nparentId: txt-b\n---\n")
	writeTestFile(t, filepath.Join(repo, "movements", "loop", "texts", "b.md"), "---\nid: txt-b\ntitle: B\nparentId: txt-a\n---\n")

	out, err := execute(t, "--repo", repo, "tree", "mov-loop")
	require.NoError(t, err)
	assert.Contains(t, out, "Uncollected texts\n")
	assert.Contains(t, out, "  A [txt-a]\n")
	assert.Contains(t, out, "  B [txt-b]\n")
	assert.Contains(t, out, "Warnings:\n  parent cycle detected: txt-a → txt-b → txt-a\n")
}

func TestGraph_NeighborhoodGolden(t *testing.T) {
	repo := writeRepo(t)

	out, err := execute(t, "--repo", repo, "graph", "--center", "prc-walk", "--depth", "2")
	require.NoError(t, err)
	assertGolden(t, "graph_walk_depth2", out)
}

func TestGraph_Filters(t *testing.T) {
	repo := writeRepo(t)

	out, err := execute(t, "--repo", repo, "--format", "json", "graph",
		"--center", "prc-vigil", "--depth", "1", "--relation", "involves,authority_for", "--type", "Entity")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Nodes []struct {
				ID string `json:"id"`
			} `json:"nodes"`
			Edges []struct {
				RelationType string `json:"relationType"`
			} `json:"edges"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	var ids []string
	for _, n := range resp.Data.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"ent-founder", "ent-council", "prc-vigil"}, ids)
	for _, e := range resp.Data.Edges {
		assert.Contains(t, []string{"involves", "authority_for"}, e.RelationType)
	}
}

func TestGraph_MovementScope(t *testing.T) {
	repo := writeRepo(t)

	out, err := execute(t, "--repo", repo, "graph", "--movement", "mov-tide")
	require.NoError(t, err)
	assert.Contains(t, out, "Graph: 4 node(s), 2 edge(s), 0 dropped\n")
}

func TestGraph_Errors(t *testing.T) {
	repo := writeRepo(t)

	out, err := execute(t, "--repo", repo, "graph", "--center", "ent-ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]: unknown node: ent-ghost")

	_, err = execute(t, "--repo", repo, "graph", "--center", "prc-walk", "--depth", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStats_Golden(t *testing.T) {
	repo := writeRepo(t)

	out, err := execute(t, "--repo", repo, "stats", "mov-lantern")
	require.NoError(t, err)
	assertGolden(t, "stats_lantern", out)
}

func TestShow(t *testing.T) {
	repo := writeRepo(t)

	out, err := execute(t, "--repo", repo, "show", "prc-vigil")
	require.NoError(t, err)

	assert.Contains(t, out, "# movements/mov-lantern/practices/prc-vigil.md\n---\n")
	assert.Contains(t, out, "id: prc-vigil\n")
	assert.Contains(t, out, "Sit until dawn.")
	assert.Contains(t, out, "  -> involves ent-council [Entity/group] Ember Council\n")
	assert.Contains(t, out, "  <- authority_for ent-founder [Entity/person] Mara Vell\n")
}

func TestShow_JSON(t *testing.T) {
	repo := writeRepo(t)

	out, err := execute(t, "--repo", repo, "--format", "json", "show", "note-tide", "--collection", "notes")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Collection  string            `json:"collection"`
			Path        string            `json:"path"`
			Connections []json.RawMessage `json:"connections"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "notes", resp.Data.Collection)
	assert.Equal(t, "movements/mov-tide/notes/note-tide.md", resp.Data.Path)
	assert.Len(t, resp.Data.Connections, 1)
}

func TestShow_Errors(t *testing.T) {
	repo := writeRepo(t)

	_, err := execute(t, "--repo", repo, "show", "prc-vigil", "--collection", "rituals")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "--repo", repo, "show", "prc-vigil", "--collection", "entities")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, "--repo", repo, "show", "ent-ghost")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E003")
}

// TestExport_RoundTrip tests that an exported movement compiles back to the
// same records.
func TestExport_RoundTrip(t *testing.T) {
	repo := writeRepo(t)
	dir := filepath.Join(t.TempDir(), "tide")

	out, err := execute(t, "--repo", repo, "export", dir, "--movement", "mov-tide")
	require.NoError(t, err)
	assert.Equal(t, "✓ Exported 4 record file(s) to "+dir+"\n", out)

	out, err = execute(t, "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "4 record(s) across 1 movement(s)")

	_, err = execute(t, "--repo", repo, "export", dir, "--movement", "mov-ghost")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// TestExport_ZipRoundTrip tests that a zipped single-movement export is
// readable as an archive repository.
func TestExport_ZipRoundTrip(t *testing.T) {
	repo := writeRepo(t)
	dir := filepath.Join(t.TempDir(), "tide")
	_, err := execute(t, "--repo", repo, "export", dir, "--movement", "mov-tide")
	require.NoError(t, err)

	archive := filepath.Join(t.TempDir(), "tide.zip")
	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	require.NoError(t, filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}))
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	out, err := execute(t, "validate", "--repo", archive)
	require.NoError(t, err)
	assert.Equal(t, "✓ Dataset valid: 4 record(s) across 1 movement(s)\n", out)
}
