// Package validate enforces the structural and referential integrity of a
// compiled snapshot.
//
// Validation is fail-fast: the first violation is returned as a typed error
// from internal/model and nothing is repaired. Records are checked in
// collection order, then snapshot order, then reference-rule order, so the
// reported violation is deterministic. Non-fatal findings such as TextNode
// parent cycles are returned as warnings.
package validate

import (
	"fmt"

	"github.com/roach88/moveng/internal/hierarchy"
	"github.com/roach88/moveng/internal/model"
)

// Warning codes.
const (
	WarnParentCycle = "W301" // TextNode parentId links form a cycle
	WarnSharedID    = "W302" // records in different collections share an id
)

// Warning is a non-fatal validation finding.
type Warning struct {
	Code       string           `json:"code"`
	Level      string           `json:"level"` // "warning" or "info"
	Collection model.Collection `json:"collection"`
	RecordID   string           `json:"recordId"`
	Path       string           `json:"path,omitempty"`
	Message    string           `json:"message"`
	Cycle      []string         `json:"cycle,omitempty"`
}

// recordIndex maps collection → id → record.
type recordIndex map[model.Collection]map[string]model.Record

// Snapshot validates s and returns it normalised (nil slices replaced by
// empty ones, in place) together with any warnings. index supplies source
// paths for error messages and may be nil.
func Snapshot(s *model.Snapshot, index model.FileIndex) (*model.Snapshot, []Warning, error) {
	s.Normalize()

	records, err := checkStructure(s, index)
	if err != nil {
		return nil, nil, err
	}
	if err := checkReferences(s, records, index); err != nil {
		return nil, nil, err
	}
	return s, append(cycleWarnings(s, index), sharedIDWarnings(s, index)...), nil
}

// checkStructure verifies ids and movement scoping and builds the lookup
// index used by the referential pass.
func checkStructure(s *model.Snapshot, index model.FileIndex) (recordIndex, error) {
	records := make(recordIndex, len(model.Collections))
	for _, c := range model.Collections {
		byID := make(map[string]model.Record)
		for _, r := range s.Records(c) {
			id := r.RecordID()
			if id == "" {
				return nil, &model.ReferenceError{Collection: c, Field: "id", Reason: model.ReasonEmptyID}
			}
			if _, dup := byID[id]; dup {
				return nil, &model.DuplicateIDError{Collection: c, ID: id, FirstPath: index.Path(c, id)}
			}
			byID[id] = r
		}
		records[c] = byID
	}

	for _, m := range s.Movements {
		if m.MovementID != m.ID {
			return nil, &model.ReferenceError{
				Collection: model.Movements,
				RecordID:   m.ID,
				Field:      "movementId",
				Value:      m.MovementID,
				Path:       index.Path(model.Movements, m.ID),
				Reason:     model.ReasonMovementID,
			}
		}
	}

	movements := records[model.Movements]
	for _, c := range model.Collections[1:] {
		for _, r := range s.Records(c) {
			if _, ok := movements[r.Scope()]; !ok {
				return nil, &model.ReferenceError{
					Collection: c,
					RecordID:   r.RecordID(),
					Field:      "movementId",
					Value:      r.Scope(),
					Path:       index.Path(c, r.RecordID()),
					Reason:     model.ReasonMissingMovement,
				}
			}
		}
	}
	return records, nil
}

func checkReferences(s *model.Snapshot, records recordIndex, index model.FileIndex) error {
	for _, c := range model.Collections {
		rules := model.RulesFor(c)
		if len(rules) == 0 {
			continue
		}
		for _, r := range s.Records(c) {
			for _, rule := range rules {
				for _, value := range rule.Values(r) {
					if err := checkTarget(r, rule.Field, value, rule.Target, records, index); err != nil {
						return err
					}
				}
			}
		}
	}

	for _, n := range s.Notes {
		if err := checkNote(n, records, index); err != nil {
			return err
		}
	}
	return nil
}

// checkTarget resolves one reference value and enforces movement scope.
func checkTarget(r model.Record, field, value string, target model.Collection, records recordIndex, index model.FileIndex) error {
	refErr := func(reason string) error {
		return &model.ReferenceError{
			Collection: r.Collection(),
			RecordID:   r.RecordID(),
			Field:      field,
			Value:      value,
			Path:       index.Path(r.Collection(), r.RecordID()),
			Reason:     reason,
		}
	}

	t, ok := records[target][value]
	if !ok {
		return refErr(model.ReasonMissing)
	}
	if r.Scope() != "" && t.Scope() != "" && r.Scope() != t.Scope() {
		return refErr(model.ReasonCrossMovement)
	}
	return nil
}

func checkNote(n model.Note, records recordIndex, index model.FileIndex) error {
	targetType, ok := model.CanonicalTargetType(n.TargetType)
	if !ok {
		return &model.ReferenceError{
			Collection: model.Notes,
			RecordID:   n.ID,
			Field:      "targetType",
			Value:      n.TargetType,
			Path:       index.Path(model.Notes, n.ID),
			Reason:     model.ReasonTargetType,
		}
	}
	target, _ := model.NoteTargetCollection(targetType)
	if target != model.Movements {
		return checkTarget(n, "targetId", n.TargetID, target, records, index)
	}

	// Movement notes may only annotate their own movement.
	reason := ""
	if _, ok := records[model.Movements][n.TargetID]; !ok {
		reason = model.ReasonMissing
	} else if n.TargetID != n.MovementID {
		reason = model.ReasonForeignMovement
	}
	if reason == "" {
		return nil
	}
	return &model.ReferenceError{
		Collection: model.Notes,
		RecordID:   n.ID,
		Field:      "targetId",
		Value:      n.TargetID,
		Path:       index.Path(model.Notes, n.ID),
		Reason:     reason,
	}
}

func cycleWarnings(s *model.Snapshot, index model.FileIndex) []Warning {
	var warnings []Warning
	for _, movementID := range s.MovementIDs() {
		var texts []model.TextNode
		for _, t := range s.Texts {
			if t.MovementID == movementID {
				texts = append(texts, t)
			}
		}
		for _, c := range hierarchy.ParentCycles(texts) {
			warnings = append(warnings, Warning{
				Code:       WarnParentCycle,
				Level:      "warning",
				Collection: model.Texts,
				RecordID:   c.IDs[0],
				Path:       index.Path(model.Texts, c.IDs[0]),
				Message:    c.Message(),
				Cycle:      c.IDs,
			})
		}
	}
	return warnings
}

// sharedIDWarnings reports ids used in more than one collection. Ids are
// unique per collection only, but graph nodes are keyed by id alone, so such
// snapshots cannot be drawn as a graph.
func sharedIDWarnings(s *model.Snapshot, index model.FileIndex) []Warning {
	var warnings []Warning
	first := make(map[string]model.Collection)
	for _, c := range model.Collections {
		for _, r := range s.Records(c) {
			id := r.RecordID()
			prev, seen := first[id]
			if !seen {
				first[id] = c
				continue
			}
			warnings = append(warnings, Warning{
				Code:       WarnSharedID,
				Level:      "warning",
				Collection: c,
				RecordID:   id,
				Path:       index.Path(c, id),
				Message:    fmt.Sprintf("id %s is also used by %s/%s; graph views will reject this snapshot", id, prev.Key(), id),
			})
		}
	}
	return warnings
}
