package layout

import (
	"math"

	"github.com/pageflowhq/pageflow/pkg/flow"
)

// Force positions nodes with a fixed-iteration spring simulation. All node
// pairs repel with an inverse-square force inside a cutoff radius, connected
// nodes attract proportionally to their distance, and positions are clamped
// to the canvas after every step. Initial positions lie on a circle in
// sorted-ID order, so the result is fully deterministic.
type Force struct{}

const (
	forceIterations   = 50
	repulsionCutoff   = 200.0
	repulsionStrength = 5000.0
	springStrength    = 0.01
	stepLimit         = 10.0
)

// Apply implements Engine.
func (Force) Apply(g *flow.Graph, c Canvas) {
	ids := g.NodeIDs()
	if len(ids) == 0 {
		return
	}

	nodes := make([]*flow.Node, len(ids))
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		n, _ := g.Node(id)
		nodes[i] = n
		index[id] = i
	}

	// Seed on a circle around the canvas center.
	cx, cy := c.Width/2, c.Height/2
	radius := math.Min(c.Width, c.Height) / 3
	for i, n := range nodes {
		angle := 2 * math.Pi * float64(i) / float64(len(nodes))
		n.X = cx + radius*math.Cos(angle)
		n.Y = cy + radius*math.Sin(angle)
		n.Width = nodeWidth
		n.Height = nodeHeight
	}
	if len(nodes) == 1 {
		return
	}

	edges := g.Edges()
	dx := make([]float64, len(nodes))
	dy := make([]float64, len(nodes))

	for iter := 0; iter < forceIterations; iter++ {
		for i := range dx {
			dx[i], dy[i] = 0, 0
		}

		// Pairwise repulsion, skipped beyond the cutoff radius.
		for i := 0; i < len(nodes); i++ {
			for j := i + 1; j < len(nodes); j++ {
				vx := nodes[i].X - nodes[j].X
				vy := nodes[i].Y - nodes[j].Y
				dist := math.Hypot(vx, vy)
				if dist >= repulsionCutoff {
					continue
				}
				if dist < 1 {
					// Coincident nodes get a deterministic nudge apart.
					vx, vy, dist = 1, 0, 1
				}
				f := repulsionStrength / (dist * dist)
				ux, uy := vx/dist, vy/dist
				dx[i] += ux * f
				dy[i] += uy * f
				dx[j] -= ux * f
				dy[j] -= uy * f
			}
		}

		// Spring attraction along edges.
		for _, e := range edges {
			i, j := index[e.From], index[e.To]
			vx := nodes[j].X - nodes[i].X
			vy := nodes[j].Y - nodes[i].Y
			dx[i] += vx * springStrength
			dy[i] += vy * springStrength
			dx[j] -= vx * springStrength
			dy[j] -= vy * springStrength
		}

		for i, n := range nodes {
			mx := clamp(dx[i], -stepLimit, stepLimit)
			my := clamp(dy[i], -stepLimit, stepLimit)
			n.X = clamp(n.X+mx, 0, c.Width)
			n.Y = clamp(n.Y+my, 0, c.Height)
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
