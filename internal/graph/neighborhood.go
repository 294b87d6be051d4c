package graph

import (
	"fmt"
)

// Query selects the part of a graph within Depth hops of Center.
type Query struct {
	Center string
	Depth  int
	// RelationTypes, when non-empty, keeps only edges of these relations
	// before traversal.
	RelationTypes []string
	// NodeTypes, when non-empty, keeps only nodes of these types (plus the
	// center) after traversal.
	NodeTypes []string
}

// Neighborhood returns the subgraph around q.Center. Edges are treated as
// undirected for traversal; the returned edges keep their direction. A
// depth of 0 returns only the center. Node and edge order follows g.
func Neighborhood(g *Graph, q Query) (*Graph, error) {
	if q.Depth < 0 {
		return nil, fmt.Errorf("neighborhood depth must be >= 0, got %d", q.Depth)
	}
	if _, ok := g.index[q.Center]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, q.Center)
	}

	relations := toSet(q.RelationTypes)
	var edges []Edge
	adjacency := make(map[string][]string)
	for _, e := range g.Edges {
		if relations != nil && !relations[e.RelationType] {
			continue
		}
		edges = append(edges, e)
		adjacency[e.From] = append(adjacency[e.From], e.To)
		adjacency[e.To] = append(adjacency[e.To], e.From)
	}

	visited := map[string]bool{q.Center: true}
	frontier := []string{q.Center}
	for step := 0; step < q.Depth && len(frontier) > 0; step++ {
		var next []string
		for _, id := range frontier {
			for _, neighbor := range adjacency[id] {
				if !visited[neighbor] {
					visited[neighbor] = true
					next = append(next, neighbor)
				}
			}
		}
		frontier = next
	}

	types := toSet(q.NodeTypes)
	out := &Graph{Nodes: []Node{}, Edges: []Edge{}, index: make(map[string]int)}
	for _, n := range g.Nodes {
		if !visited[n.ID] {
			continue
		}
		if types != nil && !types[n.Type] && n.ID != q.Center {
			continue
		}
		out.index[n.ID] = len(out.Nodes)
		out.Nodes = append(out.Nodes, n)
	}
	for _, e := range edges {
		_, fromOK := out.index[e.From]
		_, toOK := out.index[e.To]
		if fromOK && toOK {
			out.Edges = append(out.Edges, e)
		}
	}
	return out, nil
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
