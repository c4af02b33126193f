package flow

import (
	"slices"
	"strings"

	"github.com/pageflowhq/pageflow/pkg/events"
)

// DefaultEntryPath is the page treated as the designated journey entry when
// the caller does not configure one.
const DefaultEntryPath = "/"

// BuildConfig controls graph synthesis and pruning.
type BuildConfig struct {
	// MinSessions is the threshold T: nodes and edges supported by fewer
	// than T distinct sessions are excluded entirely. Values below 1 are
	// treated as 1.
	MinSessions int

	// EntryPath is the designated entry page, typed NodeStart even when it
	// has incoming transitions. Defaults to [DefaultEntryPath].
	EntryPath string

	// TerminalPaths are pages typed NodeEnd (conversion or exit pages).
	TerminalPaths []string
}

// provisional accumulators carry a session-ID set during the build pass.
// The sets are collapsed to counts and discarded before Build returns, so
// per-session identity never outlives the pass.
type provisionalNode struct {
	visits   int
	sessions map[string]struct{}
}

type provisionalEdge struct {
	from, to string
	count    int
	sessions map[string]struct{}
}

// Build synthesizes the pruned transition graph from grouped sessions.
//
// For every page view it upserts a node, adding the event count to visits
// and the session ID to the node's tracking set. For every consecutive pair
// of views within a session whose paths differ it upserts the (from, to)
// edge the same way; self-transitions are skipped. After all sessions are
// processed the tracking sets collapse to counts and anything below the
// threshold is dropped, edges falling with their endpoints.
//
// An empty session map yields an empty graph, not an error: the threshold
// may legitimately exclude everything.
func Build(sessions map[string]events.SessionSequence, cfg BuildConfig) *Graph {
	threshold := cfg.MinSessions
	if threshold < 1 {
		threshold = 1
	}
	entry := cfg.EntryPath
	if entry == "" {
		entry = DefaultEntryPath
	}

	nodes := make(map[string]*provisionalNode)
	edges := make(map[[2]string]*provisionalEdge)

	for _, sid := range events.SessionIDs(sessions) {
		seq := sessions[sid]
		for _, pv := range seq {
			pn := nodes[pv.Path]
			if pn == nil {
				pn = &provisionalNode{sessions: make(map[string]struct{})}
				nodes[pv.Path] = pn
			}
			pn.visits += pv.Count
			pn.sessions[sid] = struct{}{}
		}
		for i := 1; i < len(seq); i++ {
			from, to := seq[i-1].Path, seq[i].Path
			if from == to {
				continue
			}
			key := [2]string{from, to}
			pe := edges[key]
			if pe == nil {
				pe = &provisionalEdge{from: from, to: to, sessions: make(map[string]struct{})}
				edges[key] = pe
			}
			pe.count++
			pe.sessions[sid] = struct{}{}
		}
	}

	g := NewGraph()

	surviving := make([]string, 0, len(nodes))
	for path, pn := range nodes {
		if len(pn.sessions) >= threshold {
			surviving = append(surviving, path)
		}
	}
	slices.Sort(surviving)
	for _, path := range surviving {
		pn := nodes[path]
		g.AddNode(Node{
			ID:             path,
			Title:          pageTitle(path),
			Visits:         pn.visits,
			UniqueSessions: len(pn.sessions),
		})
	}

	keys := make([][2]string, 0, len(edges))
	for key := range edges {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b [2]string) int {
		if c := strings.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return strings.Compare(a[1], b[1])
	})
	for _, key := range keys {
		pe := edges[key]
		if len(pe.sessions) < threshold {
			continue
		}
		// AddEdge rejects edges whose endpoints were pruned, which is
		// exactly the exclusion the threshold demands.
		g.AddEdge(Edge{
			From:     pe.from,
			To:       pe.to,
			Count:    pe.count,
			Sessions: len(pe.sessions),
		})
	}

	assignTypes(g, entry, cfg.TerminalPaths)
	return g
}

// assignTypes classifies every surviving node. The entry page and pages with
// no surviving incoming transitions are starts; configured terminal pages
// are ends; everything else is intermediate.
func assignTypes(g *Graph, entry string, terminals []string) {
	terminal := make(map[string]struct{}, len(terminals))
	for _, p := range terminals {
		terminal[p] = struct{}{}
	}
	for _, n := range g.Nodes() {
		_, isTerminal := terminal[n.ID]
		switch {
		case n.ID == entry || g.InDegree(n.ID) == 0:
			n.Type = NodeStart
		case isTerminal:
			n.Type = NodeEnd
		default:
			n.Type = NodeIntermediate
		}
	}
}

// pageTitle derives a display title from a page path: "/" becomes "Home",
// other paths title-case their last segment ("/pricing/eu-west" → "Eu West").
func pageTitle(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "Home"
	}
	segments := strings.Split(trimmed, "/")
	last := strings.NewReplacer("-", " ", "_", " ").Replace(segments[len(segments)-1])
	words := strings.Fields(last)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
