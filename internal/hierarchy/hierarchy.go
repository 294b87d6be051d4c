// Package hierarchy derives the parent/child forest of TextNodes within one
// movement.
//
// Roots are texts whose parentId is absent or does not resolve within the
// movement. Depths come from a breadth-first walk from those roots. Texts
// the walk never reaches sit on or below a parent cycle; they are added as
// fallback roots at depth 0 and their cycles are reported in Forest.Cycles
// rather than rejected.
package hierarchy

import (
	"slices"

	"github.com/roach88/moveng/internal/model"
)

// Forest is the derived hierarchy for one movement.
type Forest struct {
	MovementID string
	// Roots lists declared roots then fallback roots, each in input order.
	Roots []string
	// Fallback lists the roots that were only added because the walk from
	// the declared roots never reached them.
	Fallback []string
	// Children maps a text id to its children in input order.
	Children map[string][]string
	Depth    map[string]int
	Cycles   []Cycle

	texts map[string]model.TextNode
	order []string
}

// Build derives the forest over texts scoped to movementID. An empty
// movementID keeps every text.
func Build(texts []model.TextNode, movementID string) *Forest {
	f := &Forest{
		MovementID: movementID,
		Children:   make(map[string][]string),
		Depth:      make(map[string]int),
		texts:      make(map[string]model.TextNode),
	}

	var scoped []model.TextNode
	for _, t := range texts {
		if movementID != "" && t.MovementID != movementID {
			continue
		}
		if t.ID == "" {
			continue
		}
		if _, dup := f.texts[t.ID]; dup {
			continue
		}
		f.texts[t.ID] = t
		f.order = append(f.order, t.ID)
		scoped = append(scoped, t)
	}

	for _, t := range scoped {
		if t.ParentID == nil {
			f.Roots = append(f.Roots, t.ID)
			continue
		}
		if _, ok := f.texts[*t.ParentID]; !ok {
			f.Roots = append(f.Roots, t.ID)
			continue
		}
		f.Children[*t.ParentID] = append(f.Children[*t.ParentID], t.ID)
	}

	f.walk(f.Roots)

	for _, id := range f.order {
		if _, reached := f.Depth[id]; !reached {
			f.Fallback = append(f.Fallback, id)
		}
	}
	if len(f.Fallback) > 0 {
		f.Roots = append(f.Roots, f.Fallback...)
		f.walk(f.Fallback)
	}

	for _, c := range ParentCycles(scoped) {
		c.MovementID = movementID
		f.Cycles = append(f.Cycles, c)
	}
	return f
}

// walk seeds every start id at depth 0 and expands breadth first. A depth
// is only ever lowered, so revisits terminate.
func (f *Forest) walk(start []string) {
	type item struct {
		id    string
		depth int
	}
	var queue []item
	enqueue := func(id string, depth int) {
		if existing, ok := f.Depth[id]; ok && existing <= depth {
			return
		}
		f.Depth[id] = depth
		queue = append(queue, item{id, depth})
	}

	for _, id := range start {
		enqueue(id, 0)
	}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, child := range f.Children[next.id] {
			enqueue(child, next.depth+1)
		}
	}
}

// Len returns the number of texts in the forest.
func (f *Forest) Len() int { return len(f.order) }

// Text returns the text with the given id.
func (f *Forest) Text(id string) (model.TextNode, bool) {
	t, ok := f.texts[id]
	return t, ok
}

// CanonRoots returns the rootTextIds of tc that exist in the forest, in
// the collection's order. It falls back to Roots when tc lists none.
func (f *Forest) CanonRoots(tc model.TextCollection) []string {
	var roots []string
	for _, id := range tc.RootTextIDs {
		if _, ok := f.texts[id]; ok && !slices.Contains(roots, id) {
			roots = append(roots, id)
		}
	}
	if len(roots) == 0 {
		return f.Roots
	}
	return roots
}

// Visit is called by Walk for each text. level counts edges from the walk
// root, which differs from Depth when walking from a non-root.
type Visit func(t model.TextNode, level int) error

// Walk visits the subtrees under roots depth first, children in input
// order. Each text is visited at most once, so cycles terminate.
func (f *Forest) Walk(roots []string, fn Visit) error {
	seen := make(map[string]bool, len(f.order))
	var visit func(id string, level int) error
	visit = func(id string, level int) error {
		if seen[id] {
			return nil
		}
		t, ok := f.texts[id]
		if !ok {
			return nil
		}
		seen[id] = true
		if err := fn(t, level); err != nil {
			return err
		}
		for _, child := range f.Children[id] {
			if err := visit(child, level+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, id := range roots {
		if err := visit(id, 0); err != nil {
			return err
		}
	}
	return nil
}

// Stats summarises the forest's shape.
type Stats struct {
	Total     int         `json:"totalTexts"`
	ByDepth   map[int]int `json:"byDepth"`
	RootCount int         `json:"rootCount"`
	MaxDepth  *int        `json:"maxDepth"`
}

// Stats returns text counts by depth. MaxDepth is nil for an empty forest.
func (f *Forest) Stats() Stats {
	s := Stats{Total: len(f.order), ByDepth: make(map[int]int)}
	for _, id := range f.order {
		d := f.Depth[id]
		s.ByDepth[d]++
		if s.MaxDepth == nil || d > *s.MaxDepth {
			s.MaxDepth = &d
		}
	}
	s.RootCount = s.ByDepth[0]
	return s
}
