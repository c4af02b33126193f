package flow

import (
	"testing"

	"github.com/pageflowhq/pageflow/pkg/events"
)

// twoSessionBatch is the canonical two-session fixture: both sessions enter
// at "/" and move to "/a".
func twoSessionBatch() []events.RawEvent {
	return []events.RawEvent{
		{SessionID: "s1", Path: "/", EventType: "enter", Timestamp: 0, Count: 1},
		{SessionID: "s1", Path: "/a", EventType: "enter", Timestamp: 1, Count: 1},
		{SessionID: "s2", Path: "/", EventType: "enter", Timestamp: 2, Count: 1},
		{SessionID: "s2", Path: "/a", EventType: "enter", Timestamp: 3, Count: 1},
	}
}

func TestBuildTwoSessions(t *testing.T) {
	g := Build(events.GroupSessions(twoSessionBatch()), BuildConfig{MinSessions: 1})

	if got := g.NodeCount(); got != 2 {
		t.Fatalf("nodes = %d, want 2", got)
	}
	for _, id := range []string{"/", "/a"} {
		n, ok := g.Node(id)
		if !ok {
			t.Fatalf("node %s missing", id)
		}
		if n.UniqueSessions != 2 {
			t.Errorf("%s uniqueSessions = %d, want 2", id, n.UniqueSessions)
		}
	}

	edges := g.Edges()
	if len(edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(edges))
	}
	e := edges[0]
	if e.From != "/" || e.To != "/a" || e.Sessions != 2 || e.Count != 2 {
		t.Errorf("edge = %+v, want /→/a sessions=2 count=2", e)
	}
}

func TestBuildThresholdPrunesEverything(t *testing.T) {
	g := Build(events.GroupSessions(twoSessionBatch()), BuildConfig{MinSessions: 3})
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("graph = %d nodes, %d edges, want empty", g.NodeCount(), g.EdgeCount())
	}
}

func TestBuildEmptyInput(t *testing.T) {
	g := Build(nil, BuildConfig{MinSessions: 1})
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("graph not empty: %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}
}

func TestBuildSkipsSelfTransitions(t *testing.T) {
	batch := []events.RawEvent{
		{SessionID: "s1", Path: "/", Timestamp: 0, Count: 1},
		{SessionID: "s1", Path: "/", Timestamp: 1, Count: 1},
		{SessionID: "s1", Path: "/a", Timestamp: 2, Count: 1},
	}
	g := Build(events.GroupSessions(batch), BuildConfig{MinSessions: 1})

	if got := g.EdgeCount(); got != 1 {
		t.Fatalf("edges = %d, want 1 (self-transition skipped)", got)
	}
	n, _ := g.Node("/")
	if n.Visits != 2 {
		t.Errorf("/ visits = %d, want 2", n.Visits)
	}
	if n.UniqueSessions != 1 {
		t.Errorf("/ uniqueSessions = %d, want 1", n.UniqueSessions)
	}
}

func TestBuildIdempotent(t *testing.T) {
	batch := twoSessionBatch()
	shuffled := []events.RawEvent{batch[3], batch[1], batch[0], batch[2]}

	a := Build(events.GroupSessions(batch), BuildConfig{MinSessions: 1})
	b := Build(events.GroupSessions(shuffled), BuildConfig{MinSessions: 1})

	aIDs, bIDs := a.NodeIDs(), b.NodeIDs()
	if len(aIDs) != len(bIDs) {
		t.Fatalf("node counts differ: %d vs %d", len(aIDs), len(bIDs))
	}
	for i := range aIDs {
		if aIDs[i] != bIDs[i] {
			t.Fatalf("node IDs differ: %v vs %v", aIDs, bIDs)
		}
		an, _ := a.Node(aIDs[i])
		bn, _ := b.Node(bIDs[i])
		if an.Visits != bn.Visits || an.UniqueSessions != bn.UniqueSessions {
			t.Errorf("node %s counts differ: %+v vs %+v", aIDs[i], an, bn)
		}
	}

	aEdges, bEdges := a.Edges(), b.Edges()
	if len(aEdges) != len(bEdges) {
		t.Fatalf("edge counts differ: %d vs %d", len(aEdges), len(bEdges))
	}
	for i := range aEdges {
		if aEdges[i].From != bEdges[i].From || aEdges[i].To != bEdges[i].To ||
			aEdges[i].Sessions != bEdges[i].Sessions || aEdges[i].Count != bEdges[i].Count {
			t.Errorf("edge %d differs: %+v vs %+v", i, aEdges[i], bEdges[i])
		}
	}
}

func TestBuildMonotonicPruning(t *testing.T) {
	batch := []events.RawEvent{
		{SessionID: "s1", Path: "/", Timestamp: 0, Count: 1},
		{SessionID: "s1", Path: "/a", Timestamp: 1, Count: 1},
		{SessionID: "s2", Path: "/", Timestamp: 2, Count: 1},
		{SessionID: "s2", Path: "/b", Timestamp: 3, Count: 1},
		{SessionID: "s3", Path: "/", Timestamp: 4, Count: 1},
		{SessionID: "s3", Path: "/a", Timestamp: 5, Count: 1},
	}
	sessions := events.GroupSessions(batch)

	prevNodes, prevEdges := -1, -1
	for threshold := 1; threshold <= 4; threshold++ {
		g := Build(sessions, BuildConfig{MinSessions: threshold})
		if prevNodes >= 0 {
			if g.NodeCount() > prevNodes {
				t.Errorf("threshold %d: nodes grew from %d to %d", threshold, prevNodes, g.NodeCount())
			}
			if g.EdgeCount() > prevEdges {
				t.Errorf("threshold %d: edges grew from %d to %d", threshold, prevEdges, g.EdgeCount())
			}
		}
		prevNodes, prevEdges = g.NodeCount(), g.EdgeCount()
	}
}

func TestBuildEdgeEndpointsAlwaysPresent(t *testing.T) {
	batch := []events.RawEvent{
		{SessionID: "s1", Path: "/", Timestamp: 0, Count: 1},
		{SessionID: "s1", Path: "/rare", Timestamp: 1, Count: 1},
		{SessionID: "s1", Path: "/b", Timestamp: 2, Count: 1},
		{SessionID: "s2", Path: "/", Timestamp: 3, Count: 1},
		{SessionID: "s2", Path: "/b", Timestamp: 4, Count: 1},
	}
	// "/rare" has one session; threshold 2 prunes it and both edges
	// touching it.
	g := Build(events.GroupSessions(batch), BuildConfig{MinSessions: 2})
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate = %v", err)
	}
	if _, ok := g.Node("/rare"); ok {
		t.Error("/rare survived pruning")
	}
	for _, e := range g.Edges() {
		if e.From == "/rare" || e.To == "/rare" {
			t.Errorf("edge %s→%s references pruned node", e.From, e.To)
		}
	}
}

func TestBuildNodeTypes(t *testing.T) {
	batch := []events.RawEvent{
		{SessionID: "s1", Path: "/", Timestamp: 0, Count: 1},
		{SessionID: "s1", Path: "/shop", Timestamp: 1, Count: 1},
		{SessionID: "s1", Path: "/checkout", Timestamp: 2, Count: 1},
		{SessionID: "s2", Path: "/landing", Timestamp: 0, Count: 1},
		{SessionID: "s2", Path: "/shop", Timestamp: 1, Count: 1},
	}
	g := Build(events.GroupSessions(batch), BuildConfig{
		MinSessions:   1,
		EntryPath:     "/",
		TerminalPaths: []string{"/checkout"},
	})

	wantTypes := map[string]NodeType{
		"/":         NodeStart, // designated entry
		"/landing":  NodeStart, // no incoming edges
		"/shop":     NodeIntermediate,
		"/checkout": NodeEnd,
	}
	for id, want := range wantTypes {
		n, ok := g.Node(id)
		if !ok {
			t.Fatalf("node %s missing", id)
		}
		if n.Type != want {
			t.Errorf("%s type = %d, want %d", id, n.Type, want)
		}
	}
}

func TestPageTitle(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "Home"},
		{"/pricing", "Pricing"},
		{"/docs/getting-started", "Getting Started"},
		{"/a_b", "A B"},
	}
	for _, tt := range tests {
		if got := pageTitle(tt.path); got != tt.want {
			t.Errorf("pageTitle(%s) = %s, want %s", tt.path, got, tt.want)
		}
	}
}
