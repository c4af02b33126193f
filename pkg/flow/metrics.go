package flow

// AnnotateMetrics derives per-edge outflow percentages and per-node bounce
// rates on a built graph, in place.
//
// For each node the sessions of its outgoing edges sum to totalOutflow; each
// outgoing edge's Percentage is its share of that total. A node with zero
// outflow keeps Percentage 0 on nothing and gets the full bounce: BounceRate
// is the share of the node's sessions that recorded no onward transition,
// clamped to [0,100].
//
// Percentages of a node with nonzero outflow sum to 100 up to float
// rounding. Calling AnnotateMetrics twice is harmless; the derivation only
// reads counts fixed at build time.
func AnnotateMetrics(g *Graph) {
	for _, id := range g.NodeIDs() {
		node, _ := g.Node(id)
		outgoing := g.Outgoing(id)

		totalOutflow := 0
		for _, e := range outgoing {
			totalOutflow += e.Sessions
		}
		for _, e := range outgoing {
			if totalOutflow == 0 {
				e.Percentage = 0
				continue
			}
			e.Percentage = float64(e.Sessions) / float64(totalOutflow) * 100
		}

		if node.UniqueSessions == 0 {
			node.BounceRate = 0
			continue
		}
		rate := float64(node.UniqueSessions-totalOutflow) / float64(node.UniqueSessions) * 100
		if rate < 0 {
			rate = 0
		}
		if rate > 100 {
			rate = 100
		}
		node.BounceRate = rate
	}
}
