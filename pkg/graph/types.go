package graph

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/pageflowhq/pageflow/pkg/flow"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Node types on the wire.
const (
	TypeStart        = "start"
	TypeIntermediate = "intermediate"
	TypeEnd          = "end"
)

// =============================================================================
// Graph - Journey Graph Serialization
// =============================================================================

// Graph is the canonical serialization format for journey graphs.
// Used for API responses, storage, caching, and cross-tool compatibility.
//
// The format is human-readable and designed for round-trip fidelity:
// build → export → re-import produces an identical graph.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// =============================================================================
// Node - Unified Node Type
// =============================================================================

// Node is the unified node type for all serialization contexts.
// Used in both Graph and Layout types for consistency.
type Node struct {
	ID             string  `json:"id" bson:"id"`
	Title          string  `json:"title,omitempty" bson:"title,omitempty"`
	Type           string  `json:"type" bson:"type"`
	Visits         int     `json:"visits" bson:"visits"`
	UniqueSessions int     `json:"unique_sessions" bson:"unique_sessions"`
	BounceRate     float64 `json:"bounce_rate,omitempty" bson:"bounce_rate,omitempty"`
	X              float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y              float64 `json:"y,omitempty" bson:"y,omitempty"`
	Width          float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height         float64 `json:"height,omitempty" bson:"height,omitempty"`
}

// DisplayTitle returns the title if set, otherwise the ID.
func (n *Node) DisplayTitle() string {
	if n.Title != "" {
		return n.Title
	}
	return n.ID
}

// =============================================================================
// Edge - Directed Transition
// =============================================================================

// Edge represents a directed page transition with its traffic counters.
type Edge struct {
	From       string  `json:"from" bson:"from"`
	To         string  `json:"to" bson:"to"`
	Count      int     `json:"count" bson:"count"`
	Sessions   int     `json:"sessions" bson:"sessions"`
	Percentage float64 `json:"percentage,omitempty" bson:"percentage,omitempty"`
}

// =============================================================================
// Flow ↔ Graph Conversion
// =============================================================================

// FromFlow converts an in-memory graph to its serialization format.
// Nodes and edges are sorted by ID for deterministic output.
func FromFlow(g *flow.Graph) Graph {
	ids := g.NodeIDs()
	out := Graph{
		Nodes: make([]Node, len(ids)),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}

	for i, id := range ids {
		n, _ := g.Node(id)
		out.Nodes[i] = Node{
			ID:             n.ID,
			Title:          n.Title,
			Type:           typeToString(n.Type),
			Visits:         n.Visits,
			UniqueSessions: n.UniqueSessions,
			BounceRate:     n.BounceRate,
			X:              n.X,
			Y:              n.Y,
			Width:          n.Width,
			Height:         n.Height,
		}
	}

	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, Edge{
			From:       e.From,
			To:         e.To,
			Count:      e.Count,
			Sessions:   e.Sessions,
			Percentage: e.Percentage,
		})
	}
	slices.SortFunc(out.Edges, func(a, b Edge) int {
		if a.From != b.From {
			if a.From < b.From {
				return -1
			}
			return 1
		}
		if a.To < b.To {
			return -1
		}
		if a.To > b.To {
			return 1
		}
		return 0
	})

	return out
}

// ToFlow converts a serialized Graph back to an in-memory graph.
// Returns an error if the structure violates graph constraints.
func ToFlow(gj Graph) (*flow.Graph, error) {
	g := flow.NewGraph()

	for _, nj := range gj.Nodes {
		n := flow.Node{
			ID:             nj.ID,
			Title:          nj.Title,
			Type:           stringToType(nj.Type),
			Visits:         nj.Visits,
			UniqueSessions: nj.UniqueSessions,
			BounceRate:     nj.BounceRate,
			X:              nj.X,
			Y:              nj.Y,
			Width:          nj.Width,
			Height:         nj.Height,
		}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("add node %s: %w", nj.ID, err)
		}
	}

	for _, ej := range gj.Edges {
		e := flow.Edge{
			From:       ej.From,
			To:         ej.To,
			Count:      ej.Count,
			Sessions:   ej.Sessions,
			Percentage: ej.Percentage,
		}
		if err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", ej.From, ej.To, err)
		}
	}

	return g, nil
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

func typeToString(t flow.NodeType) string {
	switch t {
	case flow.NodeStart:
		return TypeStart
	case flow.NodeEnd:
		return TypeEnd
	default:
		return TypeIntermediate
	}
}

func stringToType(s string) flow.NodeType {
	switch s {
	case TypeStart:
		return flow.NodeStart
	case TypeEnd:
		return flow.NodeEnd
	default:
		return flow.NodeIntermediate
	}
}
