package hierarchy

import (
	"fmt"
	"strings"

	"github.com/roach88/moveng/internal/model"
)

// Cycle is one parent cycle among TextNodes. IDs follows parent links from
// the member that appears first in input order; the last member's parent
// is IDs[0]. A self-parented node is a cycle of one.
type Cycle struct {
	MovementID string   `json:"movementId"`
	IDs        []string `json:"ids"`
}

// String renders the cycle as "a → b → a".
func (c Cycle) String() string {
	if len(c.IDs) == 0 {
		return ""
	}
	return strings.Join(append(append([]string{}, c.IDs...), c.IDs[0]), " → ")
}

// Message is a human-readable description of the cycle.
func (c Cycle) Message() string {
	if len(c.IDs) == 1 {
		return fmt.Sprintf("text %s is its own parent", c.IDs[0])
	}
	return fmt.Sprintf("parent cycle detected: %s", c)
}

// parentGraph maps text id → parent id, restricted to resolvable parents.
type parentGraph struct {
	order  []string
	parent map[string]string
}

func newParentGraph(texts []model.TextNode) parentGraph {
	g := parentGraph{parent: make(map[string]string, len(texts))}
	known := make(map[string]bool, len(texts))
	for _, t := range texts {
		if !known[t.ID] {
			known[t.ID] = true
			g.order = append(g.order, t.ID)
		}
	}
	for _, t := range texts {
		if t.ParentID != nil && known[*t.ParentID] {
			g.parent[t.ID] = *t.ParentID
		}
	}
	return g
}

// ParentCycles finds parent cycles among texts using Tarjan's strongly
// connected components algorithm. texts should belong to one movement.
// The result is deterministic for a given input order.
func ParentCycles(texts []model.TextNode) []Cycle {
	g := newParentGraph(texts)
	position := make(map[string]int, len(g.order))
	for i, id := range g.order {
		position[id] = i
	}

	var cycles []Cycle
	for _, scc := range tarjanSCC(g) {
		if len(scc) == 1 && g.parent[scc[0]] != scc[0] {
			continue
		}
		start := scc[0]
		for _, id := range scc[1:] {
			if position[id] < position[start] {
				start = id
			}
		}
		cycles = append(cycles, Cycle{IDs: followParents(g, start, len(scc))})
	}
	return cycles
}

// followParents walks parent links from start until it returns there.
func followParents(g parentGraph, start string, limit int) []string {
	path := []string{start}
	for current := g.parent[start]; current != start && len(path) < limit; current = g.parent[current] {
		path = append(path, current)
	}
	return path
}

func tarjanSCC(g parentGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		if w, ok := g.parent[v]; ok {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}
