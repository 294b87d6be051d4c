// Package compiler turns parsed record files into typed dataset records.
//
// Each collection has one compile function, registered in a table keyed by
// model.Collection. Compile functions coerce header values, apply defaults
// and fail with *model.SchemaError when a required field is missing.
package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/moveng/internal/frontmatter"
	"github.com/roach88/moveng/internal/model"
)

// Input is one parsed record file ready to compile.
type Input struct {
	Collection model.Collection
	Doc        *frontmatter.Document
	// DefaultMovementID is used when the header has no movementId, typically
	// the movement owning the file's movements/<slug>/ subtree.
	DefaultMovementID string
}

type compileFunc func(h *header) (model.Record, error)

var compilers = map[model.Collection]compileFunc{
	model.Movements:       compileMovement,
	model.TextCollections: compileTextCollection,
	model.Texts:           compileText,
	model.Entities:        compileEntity,
	model.Practices:       compilePractice,
	model.Events:          compileEvent,
	model.Rules:           compileRule,
	model.Claims:          compileClaim,
	model.Media:           compileMedia,
	model.Notes:           compileNote,
}

// Compile compiles one record file into a record of in.Collection.
func Compile(in Input) (model.Record, error) {
	fn, ok := compilers[in.Collection]
	if !ok {
		return nil, fmt.Errorf("compile: no compiler for collection %s", in.Collection)
	}
	if in.Doc == nil {
		return nil, fmt.Errorf("compile: nil document for collection %s", in.Collection)
	}
	h := &header{
		path:            in.Doc.Path,
		collection:      in.Collection,
		values:          in.Doc.Header,
		body:            in.Doc.Body,
		defaultMovement: in.DefaultMovementID,
	}
	if h.values == nil {
		h.values = map[string]any{}
	}
	return fn(h)
}

func compileMovement(h *header) (model.Record, error) {
	id, err := h.requireID("id")
	if err != nil {
		return nil, err
	}
	name, err := h.require("name")
	if err != nil {
		return nil, err
	}
	movementID := CleanID(h.values["movementId"])
	if movementID == "" {
		movementID = id
	}
	return model.Movement{
		ID:         id,
		MovementID: movementID,
		Name:       name,
		ShortName:  h.optString("shortName"),
		Tags:       h.list("tags"),
		Summary:    h.longText("summary"),
		Status:     h.optString("status"),
		Order:      h.order(),
	}, nil
}

// scoped reads the id and movementId every non-movement record requires.
func scoped(h *header) (id, movementID string, err error) {
	if id, err = h.requireID("id"); err != nil {
		return "", "", err
	}
	if movementID, err = h.movementID(); err != nil {
		return "", "", err
	}
	return id, movementID, nil
}

func compileTextCollection(h *header) (model.Record, error) {
	id, movementID, err := scoped(h)
	if err != nil {
		return nil, err
	}
	name, err := h.require("name")
	if err != nil {
		return nil, err
	}
	return model.TextCollection{
		ID:          id,
		MovementID:  movementID,
		Name:        name,
		RootTextIDs: h.ids("rootTextIds"),
		Description: h.longText("description"),
		Tags:        h.list("tags"),
		Order:       h.order(),
	}, nil
}

func compileText(h *header) (model.Record, error) {
	id, movementID, err := scoped(h)
	if err != nil {
		return nil, err
	}
	title, err := h.require("title")
	if err != nil {
		return nil, err
	}
	return model.TextNode{
		ID:                id,
		MovementID:        movementID,
		Title:             title,
		DisplayLabel:      h.optString("label"),
		ParentID:          h.optID("parentId"),
		MainFunction:      h.optString("mainFunction"),
		Tags:              h.list("tags"),
		MentionsEntityIDs: h.ids("mentionsEntityIds"),
		Order:             h.order(),
		Content:           h.longText("content"),
	}, nil
}

func compileEntity(h *header) (model.Record, error) {
	id, movementID, err := scoped(h)
	if err != nil {
		return nil, err
	}
	name, err := h.require("name")
	if err != nil {
		return nil, err
	}
	return model.Entity{
		ID:              id,
		MovementID:      movementID,
		Name:            name,
		Kind:            h.optString("kind"),
		Tags:            h.list("tags"),
		SourceEntityIDs: h.ids("sourceEntityIds"),
		SourcesOfTruth:  h.list("sourcesOfTruth"),
		Order:           h.order(),
		Summary:         h.longText("summary"),
	}, nil
}

func compilePractice(h *header) (model.Record, error) {
	id, movementID, err := scoped(h)
	if err != nil {
		return nil, err
	}
	name, err := h.require("name")
	if err != nil {
		return nil, err
	}
	return model.Practice{
		ID:                  id,
		MovementID:          movementID,
		Name:                name,
		Kind:                h.optString("kind"),
		Frequency:           h.optString("frequency"),
		Tags:                h.list("tags"),
		InvolvedEntityIDs:   h.ids("involvedEntityIds"),
		InstructionsTextIDs: h.ids("instructionsTextIds"),
		SupportingClaimIDs:  h.ids("supportingClaimIds"),
		SourceEntityIDs:     h.ids("sourceEntityIds"),
		SourcesOfTruth:      h.list("sourcesOfTruth"),
		Order:               h.order(),
		Description:         h.longText("description"),
	}, nil
}

func compileEvent(h *header) (model.Record, error) {
	id, movementID, err := scoped(h)
	if err != nil {
		return nil, err
	}
	name, err := h.require("name")
	if err != nil {
		return nil, err
	}
	return model.Event{
		ID:                 id,
		MovementID:         movementID,
		Name:               name,
		Recurrence:         h.optString("recurrence"),
		TimingRule:         h.optString("timingRule"),
		Tags:               h.list("tags"),
		MainPracticeIDs:    h.ids("mainPracticeIds"),
		MainEntityIDs:      h.ids("mainEntityIds"),
		ReadingTextIDs:     h.ids("readingTextIds"),
		SupportingClaimIDs: h.ids("supportingClaimIds"),
		Order:              h.order(),
		Description:        h.longText("description"),
	}, nil
}

func compileRule(h *header) (model.Record, error) {
	id, movementID, err := scoped(h)
	if err != nil {
		return nil, err
	}
	shortText, err := h.require("shortText")
	if err != nil {
		return nil, err
	}
	details := h.longText("details")
	return model.Rule{
		ID:                 id,
		MovementID:         movementID,
		ShortText:          shortText,
		Kind:               h.optString("kind"),
		Details:            &details,
		AppliesTo:          h.list("appliesTo"),
		Domain:             h.list("domain"),
		Tags:               h.list("tags"),
		SupportingTextIDs:  h.ids("supportingTextIds"),
		SupportingClaimIDs: h.ids("supportingClaimIds"),
		RelatedPracticeIDs: h.ids("relatedPracticeIds"),
		SourceEntityIDs:    h.ids("sourceEntityIds"),
		SourcesOfTruth:     h.list("sourcesOfTruth"),
		Order:              h.order(),
	}, nil
}

func compileClaim(h *header) (model.Record, error) {
	id, movementID, err := scoped(h)
	if err != nil {
		return nil, err
	}
	text := h.longText("text")
	if text == "" {
		return nil, h.missing("text")
	}
	return model.Claim{
		ID:              id,
		MovementID:      movementID,
		Text:            text,
		Category:        h.optString("category"),
		Tags:            h.list("tags"),
		AboutEntityIDs:  h.ids("aboutEntityIds"),
		SourceTextIDs:   h.ids("sourceTextIds"),
		SourceEntityIDs: h.ids("sourceEntityIds"),
		SourcesOfTruth:  h.list("sourcesOfTruth"),
		Order:           h.order(),
	}, nil
}

func compileMedia(h *header) (model.Record, error) {
	id, movementID, err := scoped(h)
	if err != nil {
		return nil, err
	}
	kind, err := h.require("kind")
	if err != nil {
		return nil, err
	}
	uri, err := h.require("uri")
	if err != nil {
		return nil, err
	}
	return model.MediaAsset{
		ID:                id,
		MovementID:        movementID,
		Kind:              kind,
		URI:               uri,
		Title:             h.optString("title"),
		Tags:              h.list("tags"),
		LinkedEntityIDs:   h.ids("linkedEntityIds"),
		LinkedPracticeIDs: h.ids("linkedPracticeIds"),
		LinkedEventIDs:    h.ids("linkedEventIds"),
		LinkedTextIDs:     h.ids("linkedTextIds"),
		Order:             h.order(),
		Description:       h.longText("description"),
	}, nil
}

func compileNote(h *header) (model.Record, error) {
	id, movementID, err := scoped(h)
	if err != nil {
		return nil, err
	}
	rawTarget, err := h.require("targetType")
	if err != nil {
		return nil, err
	}
	targetID, err := h.requireID("targetId")
	if err != nil {
		return nil, err
	}
	targetType, ok := model.CanonicalTargetType(rawTarget)
	if !ok {
		return nil, &model.SchemaError{
			Path:       h.path,
			Collection: model.Notes,
			Field:      "targetType",
			Message: fmt.Sprintf("invalid note targetType %q, expected one of: %s",
				rawTarget, strings.Join(model.NoteTargetTypes, ", ")),
		}
	}
	return model.Note{
		ID:         id,
		MovementID: movementID,
		TargetType: targetType,
		TargetID:   targetID,
		Author:     h.optString("author"),
		Context:    h.optString("context"),
		Tags:       h.list("tags"),
		Order:      h.order(),
		Body:       h.longText("body"),
	}, nil
}
