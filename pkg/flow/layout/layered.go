package layout

import (
	"slices"

	"github.com/pageflowhq/pageflow/pkg/flow"
)

// Layered buckets nodes into vertical columns by breadth-first depth from
// the graph's start nodes. Depth is first-visit: a node reached at depth 2
// stays at depth 2 even if a longer path reaches it later. Nodes unreachable
// from any start node land in one final orphan column.
type Layered struct{}

// Apply implements Engine.
func (Layered) Apply(g *flow.Graph, c Canvas) {
	if g.NodeCount() == 0 {
		return
	}

	depth := bfsDepths(g)

	maxDepth := 0
	for _, d := range depth {
		if d > maxDepth {
			maxDepth = d
		}
	}

	// Orphans occupy one extra column past the deepest reachable node.
	orphanDepth := maxDepth + 1
	hasOrphans := false
	for _, id := range g.NodeIDs() {
		if _, ok := depth[id]; !ok {
			depth[id] = orphanDepth
			hasOrphans = true
		}
	}
	layerCount := maxDepth + 1
	if hasOrphans {
		layerCount = orphanDepth + 1
	}

	layers := make([][]string, layerCount)
	for _, id := range g.NodeIDs() {
		d := depth[id]
		layers[d] = append(layers[d], id)
	}

	xSpacing := c.Width / float64(layerCount)
	w := xSpacing * 0.6
	for li, ids := range layers {
		x := float64(li) * xSpacing
		ySpacing := c.Height / float64(len(ids)+1)
		for ni, id := range ids {
			n, _ := g.Node(id)
			n.X = x
			n.Y = float64(ni+1) * ySpacing
			n.Width = w
			n.Height = nodeHeight
		}
	}
}

// bfsDepths returns the first-visit BFS depth of every node reachable from
// a start node. Start nodes are those typed as starts, with nodes lacking
// incoming edges as a fallback when nothing is typed yet.
func bfsDepths(g *flow.Graph) map[string]int {
	var roots []string
	for _, n := range g.StartNodes() {
		roots = append(roots, n.ID)
	}
	if len(roots) == 0 {
		for _, n := range g.Sources() {
			roots = append(roots, n.ID)
		}
	}
	slices.Sort(roots)

	depth := make(map[string]int, g.NodeCount())
	queue := make([]string, 0, len(roots))
	for _, id := range roots {
		depth[id] = 0
		queue = append(queue, id)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range g.Outgoing(id) {
			if _, seen := depth[e.To]; seen {
				continue
			}
			depth[e.To] = depth[id] + 1
			queue = append(queue, e.To)
		}
	}
	return depth
}
