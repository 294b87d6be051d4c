// Package testutil provides shared fixtures for tests: a deterministic
// clock and a small two-movement dataset that exercises every collection
// and every reference rule.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/moveng/internal/compiler"
	"github.com/roach88/moveng/internal/model"
)

// Movement ids in the fixture dataset.
const (
	Lantern = "mov-lantern"
	Tide    = "mov-tide"
)

// Snapshot returns a fresh, valid, sorted fixture snapshot. Callers may
// mutate the result.
func Snapshot() *model.Snapshot {
	s := &model.Snapshot{
		Movements: []model.Movement{
			{ID: Lantern, MovementID: Lantern, Name: "Lantern Circle", ShortName: model.StringPtr("Lanterns"),
				Tags: []string{"light"}, Summary: "A circle that keeps watch through the longest night.",
				Status: model.StringPtr("active"), Order: model.FloatPtr(1)},
			{ID: Tide, MovementID: Tide, Name: "Tide Walkers", Tags: []string{},
				Summary: "Walkers of the shoreline.", Order: model.FloatPtr(2)},
		},
		TextCollections: []model.TextCollection{
			{ID: "tc-canon", MovementID: Lantern, Name: "Lantern Canon", RootTextIDs: []string{"txt-book"},
				Tags: []string{}, Description: "The collected teachings."},
		},
		Texts: []model.TextNode{
			{ID: "txt-book", MovementID: Lantern, Title: "Book of Embers", Tags: []string{},
				MentionsEntityIDs: []string{}, Order: model.FloatPtr(1), Content: "The book."},
			{ID: "txt-ch1", MovementID: Lantern, Title: "First Watch", ParentID: model.StringPtr("txt-book"),
				MainFunction: model.StringPtr("teaching"), Tags: []string{}, MentionsEntityIDs: []string{},
				Order: model.FloatPtr(2), Content: "Keep the flame."},
			{ID: "txt-ch2", MovementID: Lantern, Title: "Second Watch", ParentID: model.StringPtr("txt-book"),
				MainFunction: model.StringPtr("instruction"), Tags: []string{}, MentionsEntityIDs: []string{},
				Order: model.FloatPtr(3), Content: "Pass the flame."},
			{ID: "txt-verse", MovementID: Lantern, Title: "Ember Verse", ParentID: model.StringPtr("txt-ch1"),
				Tags: []string{"verse"}, MentionsEntityIDs: []string{"ent-founder"}, Content: "One light, many hands."},
		},
		Entities: []model.Entity{
			{ID: "ent-founder", MovementID: Lantern, Name: "Mara Vell", Kind: model.StringPtr("person"),
				Tags: []string{}, SourceEntityIDs: []string{}, SourcesOfTruth: []string{"oral history"},
				Order: model.FloatPtr(1), Summary: "Founder of the circle."},
			{ID: "ent-council", MovementID: Lantern, Name: "Ember Council", Kind: model.StringPtr("group"),
				Tags: []string{}, SourceEntityIDs: []string{"ent-founder"}, SourcesOfTruth: []string{},
				Order: model.FloatPtr(2), Summary: "Keepers of the canon."},
			{ID: "ent-tide-founder", MovementID: Tide, Name: "Oren Sal", Kind: model.StringPtr("person"),
				Tags: []string{}, SourceEntityIDs: []string{}, SourcesOfTruth: []string{}},
		},
		Practices: []model.Practice{
			{ID: "prc-vigil", MovementID: Lantern, Name: "Night Vigil", Kind: model.StringPtr("ritual"),
				Frequency: model.StringPtr("weekly"), Tags: []string{}, InvolvedEntityIDs: []string{"ent-council"},
				InstructionsTextIDs: []string{"txt-ch2"}, SupportingClaimIDs: []string{"clm-light"},
				SourceEntityIDs: []string{"ent-founder"}, SourcesOfTruth: []string{}, Description: "Sit until dawn."},
			{ID: "prc-walk", MovementID: Tide, Name: "Low Tide Walk", Kind: model.StringPtr("ritual"),
				Tags: []string{}, InvolvedEntityIDs: []string{"ent-tide-founder"}, InstructionsTextIDs: []string{},
				SupportingClaimIDs: []string{}, SourceEntityIDs: []string{}, SourcesOfTruth: []string{}},
		},
		Events: []model.Event{
			{ID: "evt-solstice", MovementID: Lantern, Name: "Longest Night", Recurrence: model.StringPtr("yearly"),
				TimingRule: model.StringPtr("winter solstice"), Tags: []string{}, MainPracticeIDs: []string{"prc-vigil"},
				MainEntityIDs: []string{"ent-founder"}, ReadingTextIDs: []string{"txt-verse"},
				SupportingClaimIDs: []string{"clm-light"}, Description: "The great vigil."},
		},
		Rules: []model.Rule{
			{ID: "rul-silence", MovementID: Lantern, ShortText: "Keep silence at the vigil",
				Kind: model.StringPtr("prohibition"), Details: model.StringPtr("No speech between dusk and dawn."),
				AppliesTo: []string{"members"}, Domain: []string{"ritual"}, Tags: []string{},
				SupportingTextIDs: []string{"txt-ch1"}, SupportingClaimIDs: []string{"clm-light"},
				RelatedPracticeIDs: []string{"prc-vigil"}, SourceEntityIDs: []string{"ent-council"},
				SourcesOfTruth: []string{}},
		},
		Claims: []model.Claim{
			{ID: "clm-light", MovementID: Lantern, Text: "Shared light outlasts the night.",
				Category: model.StringPtr("doctrine"), Tags: []string{}, AboutEntityIDs: []string{"ent-founder"},
				SourceTextIDs: []string{"txt-verse"}, SourceEntityIDs: []string{"ent-council"}, SourcesOfTruth: []string{}},
		},
		Media: []model.MediaAsset{
			{ID: "med-lantern", MovementID: Lantern, Kind: "image", URI: "https://example.org/lantern.png",
				Title: model.StringPtr("The first lantern"), Tags: []string{},
				LinkedEntityIDs: []string{"ent-founder"}, LinkedPracticeIDs: []string{"prc-vigil"},
				LinkedEventIDs: []string{"evt-solstice"}, LinkedTextIDs: []string{"txt-book"}},
		},
		Notes: []model.Note{
			{ID: "note-movement", MovementID: Lantern, TargetType: "Movement", TargetID: Lantern,
				Tags: []string{}, Body: "Founded in a lighthouse."},
			{ID: "note-vigil", MovementID: Lantern, TargetType: "Practice", TargetID: "prc-vigil",
				Author: model.StringPtr("archivist"), Tags: []string{}, Body: "Attendance doubles in winter."},
			{ID: "note-tide", MovementID: Tide, TargetType: "Entity", TargetID: "ent-tide-founder",
				Tags: []string{}, Body: "Few records survive."},
		},
	}
	s.Normalize()
	s.Sort()
	return s
}

// RepoFiles renders s as a repository of record files keyed by path, in
// the movements/<id>/... layout.
func RepoFiles(t testing.TB, s *model.Snapshot) map[string]string {
	t.Helper()
	files := make(map[string]string)
	for _, c := range model.Collections {
		for _, r := range s.Records(c) {
			data, err := compiler.Render(r)
			require.NoError(t, err)
			rel, err := compiler.RecordPath(r)
			require.NoError(t, err)
			files[rel] = string(data)
		}
	}
	return files
}
