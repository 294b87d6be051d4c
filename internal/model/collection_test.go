package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionKeysAndKinds(t *testing.T) {
	tests := []struct {
		c    Collection
		key  string
		kind string
	}{
		{Movements, "movements", "Movement"},
		{TextCollections, "textCollections", "TextCollection"},
		{Texts, "texts", "TextNode"},
		{Entities, "entities", "Entity"},
		{Practices, "practices", "Practice"},
		{Events, "events", "Event"},
		{Rules, "rules", "Rule"},
		{Claims, "claims", "Claim"},
		{Media, "media", "MediaAsset"},
		{Notes, "notes", "Note"},
	}

	require.Len(t, Collections, len(tests))
	for i, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.c, Collections[i], "snapshot order")
			assert.Equal(t, tt.key, tt.c.Key())
			assert.Equal(t, tt.kind, tt.c.Kind())

			parsed, ok := ParseCollection(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.c, parsed)

			byKind, ok := CollectionForKind(tt.kind)
			require.True(t, ok)
			assert.Equal(t, tt.c, byKind)
		})
	}
}

func TestParseCollectionUnknown(t *testing.T) {
	_, ok := ParseCollection("relations")
	assert.False(t, ok)
	assert.False(t, Collection(42).Valid())
	assert.Equal(t, "", Collection(42).Kind())
}

func TestCollectionJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Collection{"c": Practices})
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":"practices"}`, string(data))

	var decoded map[string]Collection
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Practices, decoded["c"])

	err = json.Unmarshal([]byte(`{"c":"bogus"}`), &decoded)
	assert.Error(t, err)
}

func TestCanonicalTargetType(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"Entity", "Entity", true},
		{"entity", "Entity", true},
		{"TextNode", "TextNode", true},
		{"text", "TextNode", true},
		{"Text Node", "TextNode", true},
		{"movementNode", "Movement", true},
		{"media_asset", "MediaAsset", true},
		{"Media Asset", "MediaAsset", true},
		{"MEDIA", "MediaAsset", true},
		{"Note", "", false},
		{"textCollection", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := CanonicalTargetType(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNoteTargetCollection(t *testing.T) {
	c, ok := NoteTargetCollection("MediaAsset")
	require.True(t, ok)
	assert.Equal(t, Media, c)

	c, ok = NoteTargetCollection("TextNode")
	require.True(t, ok)
	assert.Equal(t, Texts, c)

	// Notes cannot target notes or text collections.
	_, ok = NoteTargetCollection("Note")
	assert.False(t, ok)
	_, ok = NoteTargetCollection("TextCollection")
	assert.False(t, ok)
}
