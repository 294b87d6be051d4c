package hierarchy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/moveng/internal/model"
)

func text(id, movement string, parent ...string) model.TextNode {
	t := model.TextNode{ID: id, MovementID: movement, Title: id}
	if len(parent) > 0 {
		t.ParentID = model.StringPtr(parent[0])
	}
	return t
}

// TestBuild_Tree tests depths and children order on a well-formed tree.
func TestBuild_Tree(t *testing.T) {
	texts := []model.TextNode{
		text("book", "m"),
		text("ch1", "m", "book"),
		text("ch2", "m", "book"),
		text("v1", "m", "ch1"),
		text("other", "x"),
	}
	f := Build(texts, "m")

	assert.Equal(t, 4, f.Len())
	assert.Equal(t, []string{"book"}, f.Roots)
	assert.Empty(t, f.Fallback)
	assert.Equal(t, []string{"ch1", "ch2"}, f.Children["book"])
	assert.Equal(t, map[string]int{"book": 0, "ch1": 1, "ch2": 1, "v1": 2}, f.Depth)
	assert.Empty(t, f.Cycles)

	_, ok := f.Text("other")
	assert.False(t, ok, "texts of other movements are excluded")
}

// TestBuild_UnresolvedParentIsRoot tests that a parent outside the scope makes a root.
func TestBuild_UnresolvedParentIsRoot(t *testing.T) {
	f := Build([]model.TextNode{text("a", "m", "elsewhere"), text("b", "m", "a")}, "m")
	assert.Equal(t, []string{"a"}, f.Roots)
	assert.Equal(t, 1, f.Depth["b"])
}

// TestBuild_TwoCycle tests that a 2-cycle terminates with both texts at depth 0.
func TestBuild_TwoCycle(t *testing.T) {
	texts := []model.TextNode{
		text("a", "m", "b"),
		text("b", "m", "a"),
		text("leaf", "m", "a"),
		text("root", "m"),
	}
	f := Build(texts, "m")

	assert.Equal(t, []string{"root", "a", "b", "leaf"}, f.Roots)
	assert.Equal(t, []string{"a", "b", "leaf"}, f.Fallback)
	assert.Equal(t, 0, f.Depth["a"])
	assert.Equal(t, 0, f.Depth["b"])
	assert.Equal(t, 0, f.Depth["root"])
	assert.Len(t, f.Depth, 4, "every text receives a depth")

	require.Len(t, f.Cycles, 1)
	assert.Equal(t, []string{"a", "b"}, f.Cycles[0].IDs)
	assert.Equal(t, "m", f.Cycles[0].MovementID)
	assert.Equal(t, "a → b → a", f.Cycles[0].String())
}

func TestBuild_SelfParent(t *testing.T) {
	f := Build([]model.TextNode{text("a", "m", "a")}, "m")
	assert.Equal(t, []string{"a"}, f.Roots)
	assert.Equal(t, 0, f.Depth["a"])
	require.Len(t, f.Cycles, 1)
	assert.Equal(t, []string{"a"}, f.Cycles[0].IDs)
	assert.Contains(t, f.Cycles[0].Message(), "its own parent")
}

func TestParentCycles_Deterministic(t *testing.T) {
	texts := []model.TextNode{
		text("x", "m", "z"),
		text("y", "m", "x"),
		text("z", "m", "y"),
		text("p", "m", "q"),
		text("q", "m", "p"),
		text("free", "m"),
	}
	for range 5 {
		cycles := ParentCycles(texts)
		require.Len(t, cycles, 2)
		assert.Equal(t, []string{"x", "z", "y"}, cycles[0].IDs)
		assert.Equal(t, []string{"p", "q"}, cycles[1].IDs)
	}
}

func TestParentCycles_None(t *testing.T) {
	assert.Empty(t, ParentCycles(nil))
	assert.Empty(t, ParentCycles([]model.TextNode{text("a", "m"), text("b", "m", "a")}))
}

func TestForest_CanonRoots(t *testing.T) {
	f := Build([]model.TextNode{text("a", "m"), text("b", "m"), text("c", "m", "a")}, "m")

	tc := model.TextCollection{ID: "tc", MovementID: "m", RootTextIDs: []string{"c", "missing", "c"}}
	assert.Equal(t, []string{"c"}, f.CanonRoots(tc))
	assert.Equal(t, []string{"a", "b"}, f.CanonRoots(model.TextCollection{}))
}

// TestForest_Walk tests depth-first order and that cycles terminate.
func TestForest_Walk(t *testing.T) {
	f := Build([]model.TextNode{
		text("book", "m"),
		text("ch1", "m", "book"),
		text("v1", "m", "ch1"),
		text("ch2", "m", "book"),
		text("a", "m", "b"),
		text("b", "m", "a"),
	}, "m")

	var visited []string
	var levels []int
	err := f.Walk(f.Roots, func(t model.TextNode, level int) error {
		visited = append(visited, t.ID)
		levels = append(levels, level)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"book", "ch1", "v1", "ch2", "a", "b"}, visited)
	assert.Equal(t, []int{0, 1, 2, 1, 0, 1}, levels)

	stop := errors.New("stop")
	err = f.Walk(f.Roots, func(model.TextNode, int) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestForest_Stats(t *testing.T) {
	f := Build([]model.TextNode{text("a", "m"), text("b", "m", "a"), text("c", "m", "b"), text("d", "m")}, "m")
	s := f.Stats()
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.RootCount)
	assert.Equal(t, map[int]int{0: 2, 1: 1, 2: 1}, s.ByDepth)
	require.NotNil(t, s.MaxDepth)
	assert.Equal(t, 2, *s.MaxDepth)

	assert.Nil(t, Build(nil, "m").Stats().MaxDepth)
}
