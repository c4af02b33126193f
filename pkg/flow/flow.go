package flow

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. Every node is keyed by its page path, which must be non-empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists. One node per distinct path.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfLoop is returned by [Graph.AddEdge] for a transition from a page
	// to itself. Self-transitions are dropped during aggregation, so a
	// self-loop reaching the graph indicates a builder bug.
	ErrSelfLoop = errors.New("self-loop edge")

	// ErrDuplicateEdge is returned by [Graph.AddEdge] when an edge with the
	// same (From, To) pair already exists. Transition counts accumulate on a
	// single edge rather than parallel edges.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node absent from the graph. This indicates corruption:
	// pruning must remove edges together with their endpoints.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")
)

// NodeType classifies a page's role within observed journeys.
type NodeType int

const (
	// NodeIntermediate is a page visited mid-journey.
	NodeIntermediate NodeType = iota
	// NodeStart is an entry page: the configured entry path, or a page with
	// no surviving incoming transitions.
	NodeStart
	// NodeEnd is a configured terminal page (checkout complete, signup done).
	NodeEnd
)

// Node is one distinct page observed across sessions, with aggregated
// traffic metrics and, after a layout pass, canvas coordinates.
//
// Counts are fixed during the build pass; BounceRate is filled in by
// [AnnotateMetrics]; X/Y/Width/Height are filled in by a layout engine.
// Between rebuilds a node is treated as immutable by consumers.
type Node struct {
	ID             string  // page path, unique per graph
	Title          string  // display title derived from the path
	Visits         int     // total event count across all sessions
	UniqueSessions int     // distinct sessions that visited the page
	BounceRate     float64 // percent of sessions with no onward transition, [0,100]
	Type           NodeType

	X, Y          float64
	Width, Height float64
}

// Edge is an observed direct transition between two pages.
// Percentage is only meaningful after [AnnotateMetrics] runs.
type Edge struct {
	From       string
	To         string
	Count      int     // total transition occurrences
	Sessions   int     // distinct sessions that made the transition
	Percentage float64 // share of the source node's outgoing session traffic, [0,100]
}

// Graph is the pruned page-transition graph for one aggregation pass.
// It is rebuilt from scratch on every pass and is not safe for concurrent
// mutation; consumers treat a built graph as read-only.
type Graph struct {
	nodes    map[string]*Node
	edges    []*Edge
	outgoing map[string][]*Edge // keyed by From
	incoming map[string][]*Edge // keyed by To
}

// NewGraph creates an empty journey graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]*Edge),
		incoming: make(map[string][]*Edge),
	}
}

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID for an empty ID or ErrDuplicateNodeID if the page
// is already present.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := &n
	g.nodes[node.ID] = node
	return nil
}

// AddEdge adds a directed transition between two existing nodes.
// Returns ErrSelfLoop, ErrUnknownSourceNode, ErrUnknownTargetNode, or
// ErrDuplicateEdge when the edge cannot be added.
func (g *Graph) AddEdge(e Edge) error {
	if e.From == e.To {
		return ErrSelfLoop
	}
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	for _, existing := range g.outgoing[e.From] {
		if existing.To == e.To {
			return ErrDuplicateEdge
		}
	}
	edge := &e
	g.edges = append(g.edges, edge)
	g.outgoing[edge.From] = append(g.outgoing[edge.From], edge)
	g.incoming[edge.To] = append(g.incoming[edge.To], edge)
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
// The pointer refers to the actual node, so layout engines can position it
// in place.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in the graph. The order is not guaranteed;
// use NodeIDs for a deterministic traversal order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	return nodes
}

// NodeIDs returns all node IDs in sorted order.
func (g *Graph) NodeIDs() []string {
	return slices.Sorted(maps.Keys(g.nodes))
}

// Edges returns all edges in insertion order. The slice is a copy but the
// edge pointers are shared with the graph.
func (g *Graph) Edges() []*Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Outgoing returns the transitions leaving the node, in insertion order.
// The returned slice is a read-only view.
func (g *Graph) Outgoing(id string) []*Edge { return g.outgoing[id] }

// Incoming returns the transitions entering the node, in insertion order.
// The returned slice is a read-only view.
func (g *Graph) Incoming(id string) []*Edge { return g.incoming[id] }

// OutDegree returns the number of outgoing transitions from the node.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// InDegree returns the number of incoming transitions to the node.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// Sources returns nodes with no incoming transitions (journey entry points),
// sorted by ID.
func (g *Graph) Sources() []*Node {
	var sources []*Node
	for _, id := range g.NodeIDs() {
		if len(g.incoming[id]) == 0 {
			sources = append(sources, g.nodes[id])
		}
	}
	return sources
}

// Sinks returns nodes with no outgoing transitions (journey dead ends),
// sorted by ID.
func (g *Graph) Sinks() []*Node {
	var sinks []*Node
	for _, id := range g.NodeIDs() {
		if len(g.outgoing[id]) == 0 {
			sinks = append(sinks, g.nodes[id])
		}
	}
	return sinks
}

// StartNodes returns nodes typed as journey entries, sorted by ID.
// Layout engines seed their traversals here.
func (g *Graph) StartNodes() []*Node {
	var starts []*Node
	for _, id := range g.NodeIDs() {
		if g.nodes[id].Type == NodeStart {
			starts = append(starts, g.nodes[id])
		}
	}
	return starts
}

// Validate checks that every edge references nodes present in the graph.
// Returns ErrInvalidEdgeEndpoint on the first violation, nil otherwise.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return ErrInvalidEdgeEndpoint
		}
		if _, ok := g.nodes[e.To]; !ok {
			return ErrInvalidEdgeEndpoint
		}
	}
	return nil
}
