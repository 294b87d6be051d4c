package model

// Record is implemented by every collection's record type.
type Record interface {
	// Collection returns the collection the record belongs to.
	Collection() Collection
	// RecordID returns the record id, unique within its collection.
	RecordID() string
	// Scope returns the owning movement id. Movements return their own id.
	Scope() string
	// SortOrder returns the display order, or nil when unset.
	SortOrder() *float64
	// Label returns the best human-readable name for the record.
	Label() string
	// SubKind returns the record's own classification (entity kind,
	// event recurrence, claim category, ...) or "" when it has none.
	SubKind() string
}

// Movement is the top-level grouping record.
type Movement struct {
	ID         string   `json:"id"`
	MovementID string   `json:"movementId"`
	Name       string   `json:"name"`
	ShortName  *string  `json:"shortName"`
	Tags       []string `json:"tags"`
	Summary    string   `json:"summary"`
	Status     *string  `json:"status"`
	Order      *float64 `json:"order"`
}

// TextCollection groups root texts into a named canon.
type TextCollection struct {
	ID          string   `json:"id"`
	MovementID  string   `json:"movementId"`
	Name        string   `json:"name"`
	RootTextIDs []string `json:"rootTextIds"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Order       *float64 `json:"order"`
}

// TextNode is one text in a movement's text forest.
type TextNode struct {
	ID                string   `json:"id"`
	MovementID        string   `json:"movementId"`
	Title             string   `json:"title"`
	DisplayLabel      *string  `json:"label"`
	ParentID          *string  `json:"parentId"`
	MainFunction      *string  `json:"mainFunction"`
	Tags              []string `json:"tags"`
	MentionsEntityIDs []string `json:"mentionsEntityIds"`
	Order             *float64 `json:"order"`
	Content           string   `json:"content"`
}

// Entity is a person, organisation, place or concept.
type Entity struct {
	ID              string   `json:"id"`
	MovementID      string   `json:"movementId"`
	Name            string   `json:"name"`
	Kind            *string  `json:"kind"`
	Tags            []string `json:"tags"`
	SourceEntityIDs []string `json:"sourceEntityIds"`
	SourcesOfTruth  []string `json:"sourcesOfTruth"`
	Order           *float64 `json:"order"`
	Summary         string   `json:"summary"`
}

// Practice is a recurring activity of a movement.
type Practice struct {
	ID                  string   `json:"id"`
	MovementID          string   `json:"movementId"`
	Name                string   `json:"name"`
	Kind                *string  `json:"kind"`
	Frequency           *string  `json:"frequency"`
	Tags                []string `json:"tags"`
	InvolvedEntityIDs   []string `json:"involvedEntityIds"`
	InstructionsTextIDs []string `json:"instructionsTextIds"`
	SupportingClaimIDs  []string `json:"supportingClaimIds"`
	SourceEntityIDs     []string `json:"sourceEntityIds"`
	SourcesOfTruth      []string `json:"sourcesOfTruth"`
	Order               *float64 `json:"order"`
	Description         string   `json:"description"`
}

// Event is a calendar occurrence.
type Event struct {
	ID                 string   `json:"id"`
	MovementID         string   `json:"movementId"`
	Name               string   `json:"name"`
	Recurrence         *string  `json:"recurrence"`
	TimingRule         *string  `json:"timingRule"`
	Tags               []string `json:"tags"`
	MainPracticeIDs    []string `json:"mainPracticeIds"`
	MainEntityIDs      []string `json:"mainEntityIds"`
	ReadingTextIDs     []string `json:"readingTextIds"`
	SupportingClaimIDs []string `json:"supportingClaimIds"`
	Order              *float64 `json:"order"`
	Description        string   `json:"description"`
}

// Rule is a norm or guideline.
type Rule struct {
	ID                 string   `json:"id"`
	MovementID         string   `json:"movementId"`
	ShortText          string   `json:"shortText"`
	Kind               *string  `json:"kind"`
	Details            *string  `json:"details"`
	AppliesTo          []string `json:"appliesTo"`
	Domain             []string `json:"domain"`
	Tags               []string `json:"tags"`
	SupportingTextIDs  []string `json:"supportingTextIds"`
	SupportingClaimIDs []string `json:"supportingClaimIds"`
	RelatedPracticeIDs []string `json:"relatedPracticeIds"`
	SourceEntityIDs    []string `json:"sourceEntityIds"`
	SourcesOfTruth     []string `json:"sourcesOfTruth"`
	Order              *float64 `json:"order"`
}

// Claim is an assertion made by or about the movement.
type Claim struct {
	ID              string   `json:"id"`
	MovementID      string   `json:"movementId"`
	Text            string   `json:"text"`
	Category        *string  `json:"category"`
	Tags            []string `json:"tags"`
	AboutEntityIDs  []string `json:"aboutEntityIds"`
	SourceTextIDs   []string `json:"sourceTextIds"`
	SourceEntityIDs []string `json:"sourceEntityIds"`
	SourcesOfTruth  []string `json:"sourcesOfTruth"`
	Order           *float64 `json:"order"`
}

// MediaAsset is an image, video, audio or document reference.
type MediaAsset struct {
	ID                string   `json:"id"`
	MovementID        string   `json:"movementId"`
	Kind              string   `json:"kind"`
	URI               string   `json:"uri"`
	Title             *string  `json:"title"`
	Tags              []string `json:"tags"`
	LinkedEntityIDs   []string `json:"linkedEntityIds"`
	LinkedPracticeIDs []string `json:"linkedPracticeIds"`
	LinkedEventIDs    []string `json:"linkedEventIds"`
	LinkedTextIDs     []string `json:"linkedTextIds"`
	Order             *float64 `json:"order"`
	Description       string   `json:"description"`
}

// Note is a free-form annotation attached to one record.
type Note struct {
	ID         string   `json:"id"`
	MovementID string   `json:"movementId"`
	TargetType string   `json:"targetType"`
	TargetID   string   `json:"targetId"`
	Author     *string  `json:"author"`
	Context    *string  `json:"context"`
	Tags       []string `json:"tags"`
	Order      *float64 `json:"order"`
	Body       string   `json:"body"`
}

func (Movement) Collection() Collection       { return Movements }
func (TextCollection) Collection() Collection { return TextCollections }
func (TextNode) Collection() Collection       { return Texts }
func (Entity) Collection() Collection         { return Entities }
func (Practice) Collection() Collection       { return Practices }
func (Event) Collection() Collection          { return Events }
func (Rule) Collection() Collection           { return Rules }
func (Claim) Collection() Collection          { return Claims }
func (MediaAsset) Collection() Collection     { return Media }
func (Note) Collection() Collection           { return Notes }

func (r Movement) RecordID() string       { return r.ID }
func (r TextCollection) RecordID() string { return r.ID }
func (r TextNode) RecordID() string       { return r.ID }
func (r Entity) RecordID() string         { return r.ID }
func (r Practice) RecordID() string       { return r.ID }
func (r Event) RecordID() string          { return r.ID }
func (r Rule) RecordID() string           { return r.ID }
func (r Claim) RecordID() string          { return r.ID }
func (r MediaAsset) RecordID() string     { return r.ID }
func (r Note) RecordID() string           { return r.ID }

func (r Movement) Scope() string       { return r.ID }
func (r TextCollection) Scope() string { return r.MovementID }
func (r TextNode) Scope() string       { return r.MovementID }
func (r Entity) Scope() string         { return r.MovementID }
func (r Practice) Scope() string       { return r.MovementID }
func (r Event) Scope() string          { return r.MovementID }
func (r Rule) Scope() string           { return r.MovementID }
func (r Claim) Scope() string          { return r.MovementID }
func (r MediaAsset) Scope() string     { return r.MovementID }
func (r Note) Scope() string           { return r.MovementID }

func (r Movement) SortOrder() *float64       { return r.Order }
func (r TextCollection) SortOrder() *float64 { return r.Order }
func (r TextNode) SortOrder() *float64       { return r.Order }
func (r Entity) SortOrder() *float64         { return r.Order }
func (r Practice) SortOrder() *float64       { return r.Order }
func (r Event) SortOrder() *float64          { return r.Order }
func (r Rule) SortOrder() *float64           { return r.Order }
func (r Claim) SortOrder() *float64          { return r.Order }
func (r MediaAsset) SortOrder() *float64     { return r.Order }
func (r Note) SortOrder() *float64           { return r.Order }

func (r Movement) Label() string       { return orID(r.Name, r.ID) }
func (r TextCollection) Label() string { return orID(r.Name, r.ID) }
func (r TextNode) Label() string       { return orID(r.Title, r.ID) }
func (r Entity) Label() string         { return orID(r.Name, r.ID) }
func (r Practice) Label() string       { return orID(r.Name, r.ID) }
func (r Event) Label() string          { return orID(r.Name, r.ID) }
func (r Rule) Label() string           { return orID(r.ShortText, r.ID) }
func (r Claim) Label() string          { return orID(r.Text, r.ID) }

func (r MediaAsset) Label() string {
	if r.Title != nil && *r.Title != "" {
		return *r.Title
	}
	return orID(r.URI, r.ID)
}

// noteLabelRunes caps note labels, which come from free-form body text.
const noteLabelRunes = 80

func (r Note) Label() string {
	body := []rune(r.Body)
	if len(body) > noteLabelRunes {
		body = body[:noteLabelRunes]
	}
	return orID(string(body), r.ID)
}

func (r Movement) SubKind() string       { return deref(r.Status) }
func (TextCollection) SubKind() string   { return "" }
func (r TextNode) SubKind() string       { return deref(r.MainFunction) }
func (r Entity) SubKind() string         { return deref(r.Kind) }
func (r Practice) SubKind() string       { return deref(r.Kind) }
func (r Event) SubKind() string          { return deref(r.Recurrence) }
func (r Rule) SubKind() string           { return deref(r.Kind) }
func (r Claim) SubKind() string          { return deref(r.Category) }
func (r MediaAsset) SubKind() string     { return r.Kind }
func (r Note) SubKind() string           { return r.TargetType }

func orID(label, id string) string {
	if label == "" {
		return id
	}
	return label
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 {
	return &f
}
