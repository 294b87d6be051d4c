package graph

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/moveng/internal/hierarchy"
	"github.com/roach88/moveng/internal/model"
)

// unknownKind buckets records with no kind in histograms.
const unknownKind = "unknown"

// keyNodeLimit caps the example nodes listed per collection.
const keyNodeLimit = 5

// KindCount is a total and a histogram by sub-kind.
type KindCount struct {
	Total  int            `json:"total"`
	ByKind map[string]int `json:"byKind"`
}

// Dashboard summarises one movement.
type Dashboard struct {
	Movement        model.Movement  `json:"movement"`
	TextCollections []string        `json:"textCollections"`
	Texts           hierarchy.Stats `json:"textStats"`
	Entities        KindCount       `json:"entityStats"`
	Practices       KindCount       `json:"practiceStats"`
	Events          KindCount       `json:"eventStats"` // by recurrence
	RuleCount       int             `json:"ruleCount"`
	ClaimCount      int             `json:"claimCount"`
	MediaCount      int             `json:"mediaCount"`
	NoteCount       int             `json:"noteCount"`
	// Key* list up to five ids each, most-tagged first.
	KeyEntities  []string `json:"keyEntities"`
	KeyPractices []string `json:"keyPractices"`
	KeyEvents    []string `json:"keyEvents"`
}

// Stats builds the dashboard for movementID.
func Stats(s *model.Snapshot, movementID string) (*Dashboard, error) {
	r, ok := s.Find(model.Movements, movementID)
	if !ok {
		return nil, fmt.Errorf("%w: movement %s", ErrUnknownNode, movementID)
	}
	scoped := s.ForMovement(movementID)

	d := &Dashboard{
		Movement:        r.(model.Movement),
		TextCollections: []string{},
		Texts:           hierarchy.Build(scoped.Texts, movementID).Stats(),
		Entities:        countKinds(scoped.Records(model.Entities)),
		Practices:       countKinds(scoped.Records(model.Practices)),
		Events:          countKinds(scoped.Records(model.Events)),
		RuleCount:       len(scoped.Rules),
		ClaimCount:      len(scoped.Claims),
		MediaCount:      len(scoped.Media),
		NoteCount:       len(scoped.Notes),
	}
	for _, tc := range scoped.TextCollections {
		d.TextCollections = append(d.TextCollections, tc.ID)
	}
	d.KeyEntities = keyNodes(scoped.Entities, func(e model.Entity) []string { return e.Tags })
	d.KeyPractices = keyNodes(scoped.Practices, func(p model.Practice) []string { return p.Tags })
	d.KeyEvents = keyNodes(scoped.Events, func(e model.Event) []string { return e.Tags })
	return d, nil
}

func countKinds(records []model.Record) KindCount {
	kc := KindCount{Total: len(records), ByKind: make(map[string]int)}
	for _, r := range records {
		kind := r.SubKind()
		if kind == "" {
			kind = unknownKind
		}
		kc.ByKind[kind]++
	}
	return kc
}

// keyNodes picks the most-tagged records, keeping snapshot order on ties.
func keyNodes[R model.Record](records []R, tags func(R) []string) []string {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b R) int {
		return cmp.Compare(len(tags(b)), len(tags(a)))
	})
	ids := []string{}
	for _, r := range sorted[:min(len(sorted), keyNodeLimit)] {
		ids = append(ids, r.RecordID())
	}
	return ids
}
