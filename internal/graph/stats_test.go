package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/moveng/internal/testutil"
)

func TestStats(t *testing.T) {
	d, err := Stats(testutil.Snapshot(), testutil.Lantern)
	require.NoError(t, err)

	assert.Equal(t, "Lantern Circle", d.Movement.Name)
	assert.Equal(t, []string{"tc-canon"}, d.TextCollections)

	assert.Equal(t, 4, d.Texts.Total)
	assert.Equal(t, map[int]int{0: 1, 1: 2, 2: 1}, d.Texts.ByDepth)
	assert.Equal(t, 1, d.Texts.RootCount)
	require.NotNil(t, d.Texts.MaxDepth)
	assert.Equal(t, 2, *d.Texts.MaxDepth)

	assert.Equal(t, KindCount{Total: 2, ByKind: map[string]int{"person": 1, "group": 1}}, d.Entities)
	assert.Equal(t, KindCount{Total: 1, ByKind: map[string]int{"ritual": 1}}, d.Practices)
	assert.Equal(t, KindCount{Total: 1, ByKind: map[string]int{"yearly": 1}}, d.Events)
	assert.Equal(t, 1, d.RuleCount)
	assert.Equal(t, 1, d.ClaimCount)
	assert.Equal(t, 1, d.MediaCount)
	assert.Equal(t, 2, d.NoteCount)

	assert.Equal(t, []string{"ent-founder", "ent-council"}, d.KeyEntities)
	assert.Equal(t, []string{"prc-vigil"}, d.KeyPractices)
}

func TestStats_SparseMovement(t *testing.T) {
	s := testutil.Snapshot()
	s.Practices[1].Kind = nil

	d, err := Stats(s, testutil.Tide)
	require.NoError(t, err)

	assert.Zero(t, d.Texts.Total)
	assert.Nil(t, d.Texts.MaxDepth)
	assert.Equal(t, map[string]int{"unknown": 1}, d.Practices.ByKind)
	assert.Equal(t, KindCount{ByKind: map[string]int{}}, d.Events)
	assert.Empty(t, d.TextCollections)
	assert.Equal(t, []string{}, d.KeyEvents)
}

// TestStats_KeyNodes tests that the most-tagged records lead, capped at five.
func TestStats_KeyNodes(t *testing.T) {
	s := testutil.Snapshot()
	for i := range 6 {
		e := s.Entities[0]
		e.ID = "ent-extra-" + string(rune('a'+i))
		e.Tags = []string{}
		s.Entities = append(s.Entities, e)
	}
	s.Entities[1].Tags = []string{"elder", "keeper"}

	d, err := Stats(s, testutil.Lantern)
	require.NoError(t, err)
	require.Len(t, d.KeyEntities, 5)
	assert.Equal(t, s.Entities[1].ID, d.KeyEntities[0])
	assert.Equal(t, 8, d.Entities.Total)
}

func TestStats_UnknownMovement(t *testing.T) {
	_, err := Stats(testutil.Snapshot(), "mov-ghost")
	assert.ErrorIs(t, err, ErrUnknownNode)
}
