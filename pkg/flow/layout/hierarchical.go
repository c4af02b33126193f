package layout

import (
	"maps"
	"slices"

	"github.com/pageflowhq/pageflow/pkg/flow"
)

// Hierarchical stacks nodes into horizontal levels from top to bottom.
// Level zero holds the start nodes; each further level holds nodes first
// reached from the level above. Unreachable nodes form one final level.
type Hierarchical struct{}

// Apply implements Engine.
func (Hierarchical) Apply(g *flow.Graph, c Canvas) {
	if g.NodeCount() == 0 {
		return
	}

	depth := bfsDepths(g)

	var levels [][]string
	assigned := make(map[string]bool, len(depth))
	for _, id := range slices.Sorted(maps.Keys(depth)) {
		d := depth[id]
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], id)
		assigned[id] = true
	}

	var orphans []string
	for _, id := range g.NodeIDs() {
		if !assigned[id] {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) > 0 {
		levels = append(levels, orphans)
	}

	ySpacing := c.Height / float64(len(levels)+1)
	for li, ids := range levels {
		y := float64(li+1) * ySpacing
		xSpacing := c.Width / float64(len(ids)+1)
		for ni, id := range ids {
			n, _ := g.Node(id)
			n.X = float64(ni+1) * xSpacing
			n.Y = y
			n.Width = nodeWidth
			n.Height = nodeHeight
		}
	}
}
