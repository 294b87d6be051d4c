package model

// ReferenceRule declares one reference field: values of Field on records of
// Collection must resolve to ids in Target.
//
// Relation is the graph relation type derived from the field. When Reversed
// is set the derived edge points from the referenced record to the owner
// (a text's parentId yields parent -> child "contains").
type ReferenceRule struct {
	Collection Collection
	Field      string
	Target     Collection
	Relation   string
	Reversed   bool

	values func(Record) []string
}

// Values returns the reference values held by r for this rule.
// It returns nil when r belongs to a different collection.
func (rule ReferenceRule) Values(r Record) []string {
	if r.Collection() != rule.Collection {
		return nil
	}
	return rule.values(r)
}

// NoteRelation is the relation type of note -> target edges.
const NoteRelation = "note_on"

// ReferenceRules is the dataset's foreign key schema. Note targets are
// polymorphic and handled separately; see NoteTargetCollection.
var ReferenceRules = []ReferenceRule{
	{TextCollections, "rootTextIds", Texts, "includes", false,
		func(r Record) []string { return r.(TextCollection).RootTextIDs }},

	{Texts, "parentId", Texts, "contains", true,
		func(r Record) []string { return optional(r.(TextNode).ParentID) }},
	{Texts, "mentionsEntityIds", Entities, "mentions", false,
		func(r Record) []string { return r.(TextNode).MentionsEntityIDs }},

	{Entities, "sourceEntityIds", Entities, "influences", true,
		func(r Record) []string { return r.(Entity).SourceEntityIDs }},

	{Practices, "involvedEntityIds", Entities, "involves", false,
		func(r Record) []string { return r.(Practice).InvolvedEntityIDs }},
	{Practices, "instructionsTextIds", Texts, "instructions", false,
		func(r Record) []string { return r.(Practice).InstructionsTextIDs }},
	{Practices, "supportingClaimIds", Claims, "supported_by", false,
		func(r Record) []string { return r.(Practice).SupportingClaimIDs }},
	{Practices, "sourceEntityIds", Entities, "authority_for", true,
		func(r Record) []string { return r.(Practice).SourceEntityIDs }},

	{Events, "mainPracticeIds", Practices, "features", false,
		func(r Record) []string { return r.(Event).MainPracticeIDs }},
	{Events, "mainEntityIds", Entities, "honours", false,
		func(r Record) []string { return r.(Event).MainEntityIDs }},
	{Events, "readingTextIds", Texts, "reads", false,
		func(r Record) []string { return r.(Event).ReadingTextIDs }},
	{Events, "supportingClaimIds", Claims, "supported_by", false,
		func(r Record) []string { return r.(Event).SupportingClaimIDs }},

	{Rules, "supportingTextIds", Texts, "supported_by", false,
		func(r Record) []string { return r.(Rule).SupportingTextIDs }},
	{Rules, "supportingClaimIds", Claims, "supported_by", false,
		func(r Record) []string { return r.(Rule).SupportingClaimIDs }},
	{Rules, "relatedPracticeIds", Practices, "related_practice", false,
		func(r Record) []string { return r.(Rule).RelatedPracticeIDs }},
	{Rules, "sourceEntityIds", Entities, "authority_for", true,
		func(r Record) []string { return r.(Rule).SourceEntityIDs }},

	{Claims, "sourceTextIds", Texts, "cites", false,
		func(r Record) []string { return r.(Claim).SourceTextIDs }},
	{Claims, "aboutEntityIds", Entities, "about", false,
		func(r Record) []string { return r.(Claim).AboutEntityIDs }},
	{Claims, "sourceEntityIds", Entities, "authority_for", true,
		func(r Record) []string { return r.(Claim).SourceEntityIDs }},

	{Media, "linkedEntityIds", Entities, "depicts", false,
		func(r Record) []string { return r.(MediaAsset).LinkedEntityIDs }},
	{Media, "linkedPracticeIds", Practices, "depicts", false,
		func(r Record) []string { return r.(MediaAsset).LinkedPracticeIDs }},
	{Media, "linkedEventIds", Events, "depicts", false,
		func(r Record) []string { return r.(MediaAsset).LinkedEventIDs }},
	{Media, "linkedTextIds", Texts, "depicts", false,
		func(r Record) []string { return r.(MediaAsset).LinkedTextIDs }},
}

// RulesFor returns the reference rules whose owning collection is c.
func RulesFor(c Collection) []ReferenceRule {
	var out []ReferenceRule
	for _, rule := range ReferenceRules {
		if rule.Collection == c {
			out = append(out, rule)
		}
	}
	return out
}

// RelationTypes returns every relation type the graph can contain, without
// duplicates, in rule order followed by NoteRelation.
func RelationTypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rule := range ReferenceRules {
		if !seen[rule.Relation] {
			seen[rule.Relation] = true
			out = append(out, rule.Relation)
		}
	}
	return append(out, NoteRelation)
}

func optional(s *string) []string {
	if s == nil || *s == "" {
		return nil
	}
	return []string{*s}
}
