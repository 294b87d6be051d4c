package model

import (
	"fmt"
	"strings"
)

// Collection identifies one of the ten fixed record collections.
type Collection int

const (
	Movements Collection = iota
	TextCollections
	Texts
	Entities
	Practices
	Events
	Rules
	Claims
	Media
	Notes
)

// Collections lists every collection in snapshot order.
var Collections = []Collection{
	Movements,
	TextCollections,
	Texts,
	Entities,
	Practices,
	Events,
	Rules,
	Claims,
	Media,
	Notes,
}

type collectionInfo struct {
	key  string // snapshot array name and directory name
	kind string // logical record type, used as the graph node type
}

var collectionTable = [...]collectionInfo{
	Movements:       {key: "movements", kind: "Movement"},
	TextCollections: {key: "textCollections", kind: "TextCollection"},
	Texts:           {key: "texts", kind: "TextNode"},
	Entities:        {key: "entities", kind: "Entity"},
	Practices:       {key: "practices", kind: "Practice"},
	Events:          {key: "events", kind: "Event"},
	Rules:           {key: "rules", kind: "Rule"},
	Claims:          {key: "claims", kind: "Claim"},
	Media:           {key: "media", kind: "MediaAsset"},
	Notes:           {key: "notes", kind: "Note"},
}

// Valid reports whether c is one of the declared collections.
func (c Collection) Valid() bool {
	return c >= Movements && c <= Notes
}

// Key returns the snapshot array name, e.g. "textCollections".
func (c Collection) Key() string {
	if !c.Valid() {
		return fmt.Sprintf("collection(%d)", int(c))
	}
	return collectionTable[c].key
}

// Kind returns the logical record type, e.g. "TextNode".
func (c Collection) Kind() string {
	if !c.Valid() {
		return ""
	}
	return collectionTable[c].kind
}

func (c Collection) String() string {
	return c.Key()
}

// MarshalText encodes the collection as its snapshot key.
func (c Collection) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid collection %d", int(c))
	}
	return []byte(c.Key()), nil
}

// UnmarshalText decodes a snapshot key.
func (c *Collection) UnmarshalText(text []byte) error {
	parsed, ok := ParseCollection(string(text))
	if !ok {
		return fmt.Errorf("unknown collection %q", string(text))
	}
	*c = parsed
	return nil
}

// ParseCollection resolves a snapshot key or directory name.
func ParseCollection(key string) (Collection, bool) {
	for _, c := range Collections {
		if collectionTable[c].key == key {
			return c, true
		}
	}
	return 0, false
}

// CollectionForKind resolves a logical record type such as "Entity".
func CollectionForKind(kind string) (Collection, bool) {
	for _, c := range Collections {
		if collectionTable[c].kind == kind {
			return c, true
		}
	}
	return 0, false
}

// noteTargetAliases maps normalised targetType spellings to canonical kinds.
// Keys are lowercased with spaces and underscores removed.
var noteTargetAliases = map[string]string{
	"movement":     "Movement",
	"movementnode": "Movement",
	"textnode":     "TextNode",
	"text":         "TextNode",
	"entity":       "Entity",
	"practice":     "Practice",
	"event":        "Event",
	"rule":         "Rule",
	"claim":        "Claim",
	"media":        "MediaAsset",
	"mediaasset":   "MediaAsset",
}

// NoteTargetTypes lists the canonical note target kinds.
var NoteTargetTypes = []string{
	"Movement",
	"TextNode",
	"Entity",
	"Practice",
	"Event",
	"Rule",
	"Claim",
	"MediaAsset",
}

// CanonicalTargetType normalises a note targetType spelling.
// "media_asset", "Media Asset" and "MediaAsset" all yield "MediaAsset".
func CanonicalTargetType(raw string) (string, bool) {
	key := strings.ToLower(raw)
	key = strings.NewReplacer(" ", "", "_", "", "\t", "").Replace(key)
	kind, ok := noteTargetAliases[key]
	return kind, ok
}

// NoteTargetCollection maps a canonical note target kind to its collection.
func NoteTargetCollection(targetType string) (Collection, bool) {
	for _, t := range NoteTargetTypes {
		if t == targetType {
			return CollectionForKind(targetType)
		}
	}
	return 0, false
}
