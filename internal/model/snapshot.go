package model

import (
	"cmp"
	"fmt"
	"slices"
)

// SpecVersion is the dataset format version stamped into snapshot metadata.
const SpecVersion = "2.3"

// Snapshot is the complete dataset: one array per collection.
type Snapshot struct {
	Movements       []Movement       `json:"movements"`
	TextCollections []TextCollection `json:"textCollections"`
	Texts           []TextNode       `json:"texts"`
	Entities        []Entity         `json:"entities"`
	Practices       []Practice       `json:"practices"`
	Events          []Event          `json:"events"`
	Rules           []Rule           `json:"rules"`
	Claims          []Claim          `json:"claims"`
	Media           []MediaAsset     `json:"media"`
	Notes           []Note           `json:"notes"`
	Meta            *Meta            `json:"meta,omitempty"`
}

// Meta carries provenance for a compiled snapshot.
type Meta struct {
	SpecVersion string      `json:"specVersion"`
	GeneratedAt string      `json:"generatedAt,omitempty"` // RFC 3339, UTC
	Source      *SourceInfo `json:"source,omitempty"`
	Fingerprint string      `json:"fingerprint,omitempty"` // canonical content hash
}

// SourceInfo identifies where a snapshot's records were read from.
type SourceInfo struct {
	Kind   string `json:"kind"`             // "local", "archive", "memory"
	Root   string `json:"root"`             // directory, archive path or URL
	Ref    string `json:"ref,omitempty"`    // branch or tag, when known
	Commit string `json:"commit,omitempty"` // commit sha, when known
}

// Records returns the records of one collection as a Record slice.
func (s *Snapshot) Records(c Collection) []Record {
	switch c {
	case Movements:
		return asRecords(s.Movements)
	case TextCollections:
		return asRecords(s.TextCollections)
	case Texts:
		return asRecords(s.Texts)
	case Entities:
		return asRecords(s.Entities)
	case Practices:
		return asRecords(s.Practices)
	case Events:
		return asRecords(s.Events)
	case Rules:
		return asRecords(s.Rules)
	case Claims:
		return asRecords(s.Claims)
	case Media:
		return asRecords(s.Media)
	case Notes:
		return asRecords(s.Notes)
	}
	return nil
}

func asRecords[T Record](items []T) []Record {
	out := make([]Record, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

// Add appends a record to its collection. Pointer records are dereferenced.
func (s *Snapshot) Add(r Record) error {
	switch v := r.(type) {
	case Movement:
		s.Movements = append(s.Movements, v)
	case *Movement:
		s.Movements = append(s.Movements, *v)
	case TextCollection:
		s.TextCollections = append(s.TextCollections, v)
	case *TextCollection:
		s.TextCollections = append(s.TextCollections, *v)
	case TextNode:
		s.Texts = append(s.Texts, v)
	case *TextNode:
		s.Texts = append(s.Texts, *v)
	case Entity:
		s.Entities = append(s.Entities, v)
	case *Entity:
		s.Entities = append(s.Entities, *v)
	case Practice:
		s.Practices = append(s.Practices, v)
	case *Practice:
		s.Practices = append(s.Practices, *v)
	case Event:
		s.Events = append(s.Events, v)
	case *Event:
		s.Events = append(s.Events, *v)
	case Rule:
		s.Rules = append(s.Rules, v)
	case *Rule:
		s.Rules = append(s.Rules, *v)
	case Claim:
		s.Claims = append(s.Claims, v)
	case *Claim:
		s.Claims = append(s.Claims, *v)
	case MediaAsset:
		s.Media = append(s.Media, v)
	case *MediaAsset:
		s.Media = append(s.Media, *v)
	case Note:
		s.Notes = append(s.Notes, v)
	case *Note:
		s.Notes = append(s.Notes, *v)
	default:
		return fmt.Errorf("unsupported record type %T", r)
	}
	return nil
}

// Len returns the total number of records across all collections.
func (s *Snapshot) Len() int {
	n := 0
	for _, c := range Collections {
		n += len(s.Records(c))
	}
	return n
}

// Find returns the record with the given id in collection c.
func (s *Snapshot) Find(c Collection, id string) (Record, bool) {
	for _, r := range s.Records(c) {
		if r.RecordID() == id {
			return r, true
		}
	}
	return nil, false
}

// Normalize replaces nil slices with empty ones so that every collection and
// every list field encodes as an array, and fills an empty Movement
// movementId with the movement's id. It mutates s and returns it.
func (s *Snapshot) Normalize() *Snapshot {
	s.Movements = orEmpty(s.Movements)
	for i := range s.Movements {
		m := &s.Movements[i]
		m.Tags = orEmpty(m.Tags)
		if m.MovementID == "" {
			m.MovementID = m.ID
		}
	}
	s.TextCollections = orEmpty(s.TextCollections)
	for i := range s.TextCollections {
		r := &s.TextCollections[i]
		r.RootTextIDs = orEmpty(r.RootTextIDs)
		r.Tags = orEmpty(r.Tags)
	}
	s.Texts = orEmpty(s.Texts)
	for i := range s.Texts {
		r := &s.Texts[i]
		r.Tags = orEmpty(r.Tags)
		r.MentionsEntityIDs = orEmpty(r.MentionsEntityIDs)
	}
	s.Entities = orEmpty(s.Entities)
	for i := range s.Entities {
		r := &s.Entities[i]
		r.Tags = orEmpty(r.Tags)
		r.SourceEntityIDs = orEmpty(r.SourceEntityIDs)
		r.SourcesOfTruth = orEmpty(r.SourcesOfTruth)
	}
	s.Practices = orEmpty(s.Practices)
	for i := range s.Practices {
		r := &s.Practices[i]
		r.Tags = orEmpty(r.Tags)
		r.InvolvedEntityIDs = orEmpty(r.InvolvedEntityIDs)
		r.InstructionsTextIDs = orEmpty(r.InstructionsTextIDs)
		r.SupportingClaimIDs = orEmpty(r.SupportingClaimIDs)
		r.SourceEntityIDs = orEmpty(r.SourceEntityIDs)
		r.SourcesOfTruth = orEmpty(r.SourcesOfTruth)
	}
	s.Events = orEmpty(s.Events)
	for i := range s.Events {
		r := &s.Events[i]
		r.Tags = orEmpty(r.Tags)
		r.MainPracticeIDs = orEmpty(r.MainPracticeIDs)
		r.MainEntityIDs = orEmpty(r.MainEntityIDs)
		r.ReadingTextIDs = orEmpty(r.ReadingTextIDs)
		r.SupportingClaimIDs = orEmpty(r.SupportingClaimIDs)
	}
	s.Rules = orEmpty(s.Rules)
	for i := range s.Rules {
		r := &s.Rules[i]
		r.AppliesTo = orEmpty(r.AppliesTo)
		r.Domain = orEmpty(r.Domain)
		r.Tags = orEmpty(r.Tags)
		r.SupportingTextIDs = orEmpty(r.SupportingTextIDs)
		r.SupportingClaimIDs = orEmpty(r.SupportingClaimIDs)
		r.RelatedPracticeIDs = orEmpty(r.RelatedPracticeIDs)
		r.SourceEntityIDs = orEmpty(r.SourceEntityIDs)
		r.SourcesOfTruth = orEmpty(r.SourcesOfTruth)
	}
	s.Claims = orEmpty(s.Claims)
	for i := range s.Claims {
		r := &s.Claims[i]
		r.Tags = orEmpty(r.Tags)
		r.AboutEntityIDs = orEmpty(r.AboutEntityIDs)
		r.SourceTextIDs = orEmpty(r.SourceTextIDs)
		r.SourceEntityIDs = orEmpty(r.SourceEntityIDs)
		r.SourcesOfTruth = orEmpty(r.SourcesOfTruth)
	}
	s.Media = orEmpty(s.Media)
	for i := range s.Media {
		r := &s.Media[i]
		r.Tags = orEmpty(r.Tags)
		r.LinkedEntityIDs = orEmpty(r.LinkedEntityIDs)
		r.LinkedPracticeIDs = orEmpty(r.LinkedPracticeIDs)
		r.LinkedEventIDs = orEmpty(r.LinkedEventIDs)
		r.LinkedTextIDs = orEmpty(r.LinkedTextIDs)
	}
	s.Notes = orEmpty(s.Notes)
	for i := range s.Notes {
		s.Notes[i].Tags = orEmpty(s.Notes[i].Tags)
	}
	return s
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Sort orders every collection by order ascending, records without an order
// last, ties broken by byte-wise id comparison. Sorting is stable.
func (s *Snapshot) Sort() {
	sortRecords(s.Movements)
	sortRecords(s.TextCollections)
	sortRecords(s.Texts)
	sortRecords(s.Entities)
	sortRecords(s.Practices)
	sortRecords(s.Events)
	sortRecords(s.Rules)
	sortRecords(s.Claims)
	sortRecords(s.Media)
	sortRecords(s.Notes)
}

func sortRecords[T Record](items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		return CompareRecords(a, b)
	})
}

// CompareRecords is the snapshot ordering used by Sort.
func CompareRecords(a, b Record) int {
	ao, bo := a.SortOrder(), b.SortOrder()
	switch {
	case ao == nil && bo != nil:
		return 1
	case ao != nil && bo == nil:
		return -1
	case ao != nil && bo != nil && *ao != *bo:
		return cmp.Compare(*ao, *bo)
	}
	return cmp.Compare(a.RecordID(), b.RecordID())
}

// MovementIDs returns the declared movement ids in snapshot order.
func (s *Snapshot) MovementIDs() []string {
	ids := make([]string, len(s.Movements))
	for i, m := range s.Movements {
		ids[i] = m.ID
	}
	return ids
}

// ForMovement returns a new snapshot holding only records scoped to movementID.
// Metadata is shared with s.
func (s *Snapshot) ForMovement(movementID string) *Snapshot {
	out := &Snapshot{Meta: s.Meta}
	for _, c := range Collections {
		for _, r := range s.Records(c) {
			if r.Scope() == movementID {
				_ = out.Add(r)
			}
		}
	}
	return out.Normalize()
}
