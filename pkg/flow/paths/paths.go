// Package paths enumerates common journeys through a flow graph.
//
// Exploration is a bounded depth-first search: from a chosen root it follows
// outgoing edges in order of descending session count, never revisits a node
// within a single path, and stops once enough paths have been collected.
// A path ends at a dead end (no unvisited successors) or at the depth limit.
package paths

import (
	"slices"
	"strings"

	"github.com/pageflowhq/pageflow/pkg/flow"
)

// Search limits. MaxDepth bounds the number of nodes in a path.
const (
	DefaultMaxDepth = 5
	DefaultMaxPaths = 5
)

// Options bounds a path search. Zero values fall back to the defaults.
type Options struct {
	MaxDepth int
	MaxPaths int
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxPaths <= 0 {
		o.MaxPaths = DefaultMaxPaths
	}
	return o
}

// Find returns up to MaxPaths node sequences starting at root, each at most
// MaxDepth nodes long. Successors are explored most-traveled first,
// with node ID as the tiebreak, so results are deterministic. An unknown
// root yields no paths.
func Find(g *flow.Graph, root string, opts Options) [][]*flow.Node {
	opts = opts.withDefaults()

	start, ok := g.Node(root)
	if !ok {
		return nil
	}

	s := searcher{g: g, opts: opts, visited: map[string]bool{}}
	s.walk(start, []*flow.Node{start})
	return s.paths
}

type searcher struct {
	g       *flow.Graph
	opts    Options
	visited map[string]bool
	paths   [][]*flow.Node
}

func (s *searcher) walk(n *flow.Node, path []*flow.Node) {
	if len(s.paths) >= s.opts.MaxPaths {
		return
	}

	next := s.successors(n.ID)
	if len(path) >= s.opts.MaxDepth || len(next) == 0 {
		s.paths = append(s.paths, slices.Clone(path))
		return
	}

	s.visited[n.ID] = true
	for _, child := range next {
		if len(s.paths) >= s.opts.MaxPaths {
			break
		}
		s.walk(child, append(path, child))
	}
	delete(s.visited, n.ID)
}

// successors returns the unvisited targets of a node's outgoing edges,
// ordered by session count descending, then target ID ascending.
func (s *searcher) successors(id string) []*flow.Node {
	edges := slices.Clone(s.g.Outgoing(id))
	slices.SortFunc(edges, func(a, b *flow.Edge) int {
		if a.Sessions != b.Sessions {
			return b.Sessions - a.Sessions
		}
		return strings.Compare(a.To, b.To)
	})

	var out []*flow.Node
	for _, e := range edges {
		if s.visited[e.To] {
			continue
		}
		if n, ok := s.g.Node(e.To); ok {
			out = append(out, n)
		}
	}
	return out
}
