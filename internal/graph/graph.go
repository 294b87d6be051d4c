// Package graph derives a uniform node/edge graph from a validated snapshot
// and answers neighborhood queries over it.
//
// Every record becomes one node keyed by its id. Every reference value
// becomes one directed edge carrying the relation type of its reference
// rule and the provenance (collection, record, field) it was read from.
// Edge ids are name-based UUIDs of that provenance, so rebuilding the graph
// from the same snapshot yields identical ids.
package graph

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/roach88/moveng/internal/model"
)

// edgeNamespace seeds the name-based edge ids.
var edgeNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("moveng/graph/edge"))

// ErrUnknownNode is returned when a query names a node the graph lacks.
var ErrUnknownNode = errors.New("unknown node")

// Node is one record in the graph.
type Node struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"` // collection kind, e.g. "Entity"
	Collection model.Collection `json:"collection"`
	SubKind    string           `json:"kind,omitempty"`
	Label      string           `json:"label"`
	MovementID string           `json:"movementId"`
}

// Provenance identifies the reference value an edge was derived from.
type Provenance struct {
	Collection model.Collection `json:"collection"`
	RecordID   string           `json:"recordId"`
	Field      string           `json:"field"`
	Index      int              `json:"index"` // position of the value within the field
}

// Edge is one reference occurrence.
type Edge struct {
	ID           string     `json:"id"`
	From         string     `json:"fromId"`
	To           string     `json:"toId"`
	RelationType string     `json:"relationType"`
	Source       Provenance `json:"source"`
}

// Graph is the derived node/edge model. Nodes and Edges follow snapshot
// order; it is never mutated after Build.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	// Dropped counts edges whose endpoint is not a node of the graph.
	Dropped int `json:"dropped"`

	index map[string]int
}

// Options configures Build.
type Options struct {
	// MovementID restricts the graph to one movement's records.
	MovementID string
	// Strict turns a dangling edge into a *DanglingEdgeError instead of
	// dropping it.
	Strict bool
}

// DanglingEdgeError reports an edge whose endpoint is missing in strict mode.
type DanglingEdgeError struct {
	Edge    Edge
	Missing string
}

func (e *DanglingEdgeError) Error() string {
	return fmt.Sprintf("dangling edge %s/%s %s -> %s: node %s not in graph",
		e.Edge.Source.Collection.Key(), e.Edge.Source.RecordID, e.Edge.Source.Field, e.Edge.To, e.Missing)
}

// AmbiguousNodeError reports two records in different collections sharing
// one id, which would collapse into a single node.
type AmbiguousNodeError struct {
	ID    string
	First model.Collection
	Other model.Collection
}

func (e *AmbiguousNodeError) Error() string {
	return fmt.Sprintf("node id %s is used by both %s and %s", e.ID, e.First.Key(), e.Other.Key())
}

// Build derives the graph of s. It is a pure function of its inputs.
func Build(s *model.Snapshot, opts Options) (*Graph, error) {
	g := &Graph{Nodes: []Node{}, Edges: []Edge{}, index: make(map[string]int)}

	for _, c := range model.Collections {
		for _, r := range s.Records(c) {
			if opts.MovementID != "" && r.Scope() != opts.MovementID {
				continue
			}
			if i, dup := g.index[r.RecordID()]; dup {
				return nil, &AmbiguousNodeError{ID: r.RecordID(), First: g.Nodes[i].Collection, Other: c}
			}
			g.index[r.RecordID()] = len(g.Nodes)
			g.Nodes = append(g.Nodes, Node{
				ID:         r.RecordID(),
				Type:       c.Kind(),
				Collection: c,
				SubKind:    r.SubKind(),
				Label:      r.Label(),
				MovementID: r.Scope(),
			})
		}
	}

	add := func(e Edge) error {
		for _, end := range []string{e.From, e.To} {
			if _, ok := g.index[end]; ok {
				continue
			}
			if opts.Strict {
				return &DanglingEdgeError{Edge: e, Missing: end}
			}
			g.Dropped++
			return nil
		}
		g.Edges = append(g.Edges, e)
		return nil
	}

	for _, c := range model.Collections {
		rules := model.RulesFor(c)
		for _, r := range s.Records(c) {
			if _, ok := g.index[r.RecordID()]; !ok {
				continue
			}
			for _, rule := range rules {
				for i, value := range rule.Values(r) {
					from, to := r.RecordID(), value
					if rule.Reversed {
						from, to = to, from
					}
					e := newEdge(from, to, rule.Relation, Provenance{Collection: c, RecordID: r.RecordID(), Field: rule.Field, Index: i})
					if err := add(e); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	for _, n := range s.Notes {
		if _, ok := g.index[n.ID]; !ok {
			continue
		}
		e := newEdge(n.ID, n.TargetID, model.NoteRelation, Provenance{Collection: model.Notes, RecordID: n.ID, Field: "targetId"})
		if err := add(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func newEdge(from, to, relation string, p Provenance) Edge {
	name := p.Collection.Key() + "\x00" + p.RecordID + "\x00" + p.Field + "\x00" +
		strconv.Itoa(p.Index) + "\x00" + from + "\x00" + to
	return Edge{
		ID:           uuid.NewSHA1(edgeNamespace, []byte(name)).String(),
		From:         from,
		To:           to,
		RelationType: relation,
		Source:       p,
	}
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Direction of an edge relative to a node.
const (
	Outgoing = "outgoing"
	Incoming = "incoming"
)

// Connection is an edge seen from one of its endpoints.
type Connection struct {
	Edge      Edge   `json:"edge"`
	Direction string `json:"direction"`
	Node      Node   `json:"node"` // the other endpoint
}

// Connections returns every edge touching id, in edge order.
func (g *Graph) Connections(id string) ([]Connection, error) {
	if _, ok := g.index[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	var out []Connection
	for _, e := range g.Edges {
		switch id {
		case e.From:
			other, _ := g.Node(e.To)
			out = append(out, Connection{Edge: e, Direction: Outgoing, Node: other})
		case e.To:
			other, _ := g.Node(e.From)
			out = append(out, Connection{Edge: e, Direction: Incoming, Node: other})
		}
	}
	return out, nil
}
