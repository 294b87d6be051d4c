package dataset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/moveng/internal/model"
	"github.com/roach88/moveng/internal/source"
	"github.com/roach88/moveng/internal/testutil"
)

func newTestAssembler() *Assembler {
	clock := testutil.NewDeterministicClock(time.Second)
	return New(
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func withoutMeta(s *model.Snapshot) *model.Snapshot {
	out := *s
	out.Meta = nil
	return &out
}

// TestAssemble_Fixture tests that a rendered fixture repository compiles back
// to the fixture snapshot.
func TestAssemble_Fixture(t *testing.T) {
	want := testutil.Snapshot()
	reader := source.NewMemReader(testutil.RepoFiles(t, want))
	reader.Ref, reader.Commit = "main", "deadbeef"

	ds, err := newTestAssembler().Assemble(context.Background(), Source{Reader: reader})
	require.NoError(t, err)

	assert.Equal(t, want, withoutMeta(ds.Snapshot))
	assert.Empty(t, ds.Warnings)
	assert.Equal(t, "movements/mov-lantern/practices/prc-vigil.md", ds.FileIndex.Path(model.Practices, "prc-vigil"))
	assert.Len(t, ds.FileIndex, want.Len())

	meta := ds.Snapshot.Meta
	require.NotNil(t, meta)
	assert.Equal(t, model.SpecVersion, meta.SpecVersion)
	assert.Equal(t, "2024-01-01T00:00:00Z", meta.GeneratedAt)
	assert.Equal(t, &model.SourceInfo{Kind: source.KindMemory, Root: "memory", Ref: "main", Commit: "deadbeef"}, meta.Source)

	fp, err := model.Fingerprint(want)
	require.NoError(t, err)
	assert.Equal(t, fp, meta.Fingerprint)
}

// TestAssemble_OrderIndependence tests that splitting files across sources in
// either order yields the same snapshot.
func TestAssemble_OrderIndependence(t *testing.T) {
	files := testutil.RepoFiles(t, testutil.Snapshot())
	first, second := map[string]string{}, map[string]string{}
	i := 0
	for _, name := range sortedKeys(files) {
		if i%2 == 0 {
			first[name] = files[name]
		} else {
			second[name] = files[name]
		}
		i++
	}

	a := newTestAssembler()
	ctx := context.Background()
	ab, err := a.Assemble(ctx, Source{Reader: source.NewMemReader(first)}, Source{Reader: source.NewMemReader(second)})
	require.NoError(t, err)
	ba, err := a.Assemble(ctx, Source{Reader: source.NewMemReader(second)}, Source{Reader: source.NewMemReader(first)})
	require.NoError(t, err)

	assert.Equal(t, withoutMeta(ab.Snapshot), withoutMeta(ba.Snapshot))
	assert.Equal(t, ab.Snapshot.Meta.Fingerprint, ba.Snapshot.Meta.Fingerprint)
	assert.Equal(t, "multiple", ab.Snapshot.Meta.Source.Kind)
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}

// TestAssemble_LocalRepository tests the mixed data/ and movements/ layouts.
func TestAssemble_LocalRepository(t *testing.T) {
	reader, err := source.NewLocalReader("testdata/repo", source.Filter{})
	require.NoError(t, err)

	ds, err := newTestAssembler().Assemble(context.Background(), Source{Reader: reader})
	require.NoError(t, err)
	s := ds.Snapshot

	require.Len(t, s.Movements, 1)
	assert.Equal(t, "mov-harbor", s.Movements[0].ID)

	require.Len(t, s.Texts, 2)
	assert.Equal(t, "txt-log", s.Texts[0].ID)
	assert.Equal(t, "mov-harbor", s.Texts[0].MovementID, "movementId inherited from movement.md")
	assert.Equal(t, []string{"ent-keeper"}, s.Texts[1].MentionsEntityIDs)

	require.Len(t, s.Claims, 1)
	assert.Equal(t, "The light guides every ship home.", s.Claims[0].Text)

	require.Len(t, s.Notes, 1)
	assert.Equal(t, "Practice", s.Notes[0].TargetType)
	assert.Equal(t, "prc-lamp", s.Notes[0].TargetID)
	assert.Equal(t, "Never missed a night.", s.Notes[0].Body)

	assert.Equal(t, "data/entities/keeper.md", ds.FileIndex.Path(model.Entities, "ent-keeper"))
	assert.Equal(t, source.KindLocal, s.Meta.Source.Kind)
}

func TestAssemble_SlugFallback(t *testing.T) {
	reader := source.NewMemReader(map[string]string{
		"movements/harbor/movement.md":         "---\nid: harbor\nname: Harbor\n---\n",
		"movements/harbor/entities/keeper.md":  "---\nid: ent-keeper\nname: Keeper\n---\n",
		"movements/orphans/entities/stray.md":  "---\nid: ent-stray\nname: Stray\n---\n",
		"movements/orphans/notes/not-a-rec.txt": "ignored",
	})
	_, err := newTestAssembler().Assemble(context.Background(), Source{Reader: reader})

	var refErr *model.ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, model.ReasonMissingMovement, refErr.Reason)
	assert.Equal(t, "ent-stray", refErr.RecordID)
	assert.Equal(t, "orphans", refErr.Value, "slug is the fallback movement id")
	assert.Equal(t, "movements/orphans/entities/stray.md", refErr.Path)
}

func TestAssemble_DuplicateAcrossSources(t *testing.T) {
	base := testutil.RepoFiles(t, testutil.Snapshot())
	extra := map[string]string{
		"data/entities/dup.md": "---\nid: ent-founder\nmovementId: mov-lantern\nname: Copy\n---\n",
	}
	_, err := newTestAssembler().Assemble(context.Background(),
		Source{Reader: source.NewMemReader(base)},
		Source{Reader: source.NewMemReader(extra)})

	var dupErr *model.DuplicateIDError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, model.Entities, dupErr.Collection)
	assert.Equal(t, "ent-founder", dupErr.ID)
	assert.Equal(t, "movements/mov-lantern/entities/ent-founder.md", dupErr.FirstPath)
	assert.Equal(t, "data/entities/dup.md", dupErr.SecondPath)
}

func TestAssemble_NoRecords(t *testing.T) {
	reader := source.NewMemReader(map[string]string{"README.md": "# hi", "data/unknown/x.md": "---\n---\n"})
	_, err := newTestAssembler().Assemble(context.Background(), Source{Reader: reader})
	assert.ErrorIs(t, err, model.ErrNoRecords)
	assert.Equal(t, model.ErrCodeNoRecords, model.ErrorCode(err))
}

func TestAssemble_ParseAndSchemaErrors(t *testing.T) {
	ctx := context.Background()

	_, err := newTestAssembler().Assemble(ctx, Source{Reader: source.NewMemReader(map[string]string{
		"data/entities/bad.md": "no header here",
	})})
	assert.True(t, model.IsParseError(err))

	_, err = newTestAssembler().Assemble(ctx, Source{Reader: source.NewMemReader(map[string]string{
		"data/entities/bad.md": "---\nid: e\nmovementId: m\n---\n",
	})})
	assert.True(t, model.IsSchemaError(err))
}

// failingReader lists one record file and fails to read it.
type failingReader struct {
	listErr error
	readErr error
}

func (r failingReader) Kind() string     { return "failing" }
func (r failingReader) Location() string { return "nowhere" }

func (r failingReader) ListFiles(context.Context, string) (source.Listing, error) {
	if r.listErr != nil {
		return source.Listing{}, r.listErr
	}
	return source.Listing{Files: []string{"data/entities/e.md"}}, nil
}

func (r failingReader) ReadText(context.Context, string) (string, error) {
	return "", r.readErr
}

func TestAssemble_SourceErrors(t *testing.T) {
	boom := errors.New("connection reset")
	ctx := context.Background()

	_, err := newTestAssembler().Assemble(ctx, Source{Reader: failingReader{listErr: boom}})
	var srcErr *model.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "list", srcErr.Op)
	assert.ErrorIs(t, err, boom, "reader error is kept intact")

	_, err = newTestAssembler().Assemble(ctx, Source{Reader: failingReader{readErr: boom}})
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "read", srcErr.Op)
	assert.Equal(t, "data/entities/e.md", srcErr.Path)
	assert.ErrorIs(t, err, boom)
}

// TestAssemble_MissingMovementAfterRemoval removes one of three movements but
// leaves a dependent entity behind.
func TestAssemble_MissingMovementAfterRemoval(t *testing.T) {
	s := testutil.Snapshot()
	s.Movements = append(s.Movements, model.Movement{ID: "mov-third", MovementID: "mov-third", Name: "Third", Tags: []string{}})
	files := testutil.RepoFiles(t, s)

	ctx := context.Background()
	_, err := newTestAssembler().Assemble(ctx, Source{Reader: source.NewMemReader(files)})
	require.NoError(t, err, "three movements compile together")

	for name := range files {
		if strings.HasPrefix(name, "movements/mov-tide/") && name != "movements/mov-tide/entities/ent-tide-founder.md" {
			delete(files, name)
		}
	}
	_, err = newTestAssembler().Assemble(ctx, Source{Reader: source.NewMemReader(files)})

	var refErr *model.ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, model.ReasonMissingMovement, refErr.Reason)
	assert.Equal(t, "ent-tide-founder", refErr.RecordID)
	assert.Contains(t, err.Error(), "missing movement")
}

func TestAssemble_ParentCycleWarning(t *testing.T) {
	reader := source.NewMemReader(map[string]string{
		"movements/m/movement.md":  "---\nid: m\nname: M\n---\n",
		"movements/m/texts/a.md":   "---\nid: a\ntitle: A\nparentId: b\n---\n",
		"movements/m/texts/b.md":   "---\nid: b\ntitle: B\nparentId: a\n---\n",
	})
	ds, err := newTestAssembler().Assemble(context.Background(), Source{Reader: reader})
	require.NoError(t, err)
	require.Len(t, ds.Warnings, 1)
	assert.Equal(t, "movements/m/texts/a.md", ds.Warnings[0].Path)
}
