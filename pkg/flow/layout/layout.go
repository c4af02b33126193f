// Package layout assigns canvas coordinates to journey graphs.
//
// Three interchangeable engines share one contract: given a built,
// metric-annotated graph and a target canvas, position every node in place.
// Engines are pure functions of graph plus canvas and are deterministic:
// node traversal always happens in sorted-ID order, so identical input
// produces identical coordinates across runs.
//
// A graph with zero nodes is a no-op for every engine. Nodes unreachable
// from any start node are placed in a trailing orphan layer (layered and
// hierarchical engines) rather than left without coordinates.
package layout

import (
	"fmt"

	"github.com/pageflowhq/pageflow/pkg/flow"
)

// Mode selects a layout engine.
type Mode string

const (
	// ModeLayered buckets nodes by BFS depth into vertical columns.
	ModeLayered Mode = "layered"
	// ModeForce runs an iterative repulsion/attraction simulation.
	ModeForce Mode = "force"
	// ModeHierarchical stacks BFS levels top to bottom.
	ModeHierarchical Mode = "hierarchical"
)

// DefaultMode is used when the caller does not pick an engine.
const DefaultMode = ModeLayered

// ValidModes is the set of recognized layout modes.
var ValidModes = map[Mode]bool{
	ModeLayered:      true,
	ModeForce:        true,
	ModeHierarchical: true,
}

// Canvas is the target drawing area in user units (typically pixels).
type Canvas struct {
	Width  float64
	Height float64
}

// Default canvas dimensions.
const (
	DefaultWidth  = 800.0
	DefaultHeight = 600.0
)

// Engine positions every node of a graph within a canvas, mutating node
// coordinates in place. Edges are never moved; consumers draw them between
// node anchor points.
type Engine interface {
	// Apply assigns x, y, width, and height to every node.
	Apply(g *flow.Graph, c Canvas)
}

// New returns the engine for the given mode, or an error for an unknown one.
func New(mode Mode) (Engine, error) {
	switch mode {
	case ModeLayered, "":
		return Layered{}, nil
	case ModeForce:
		return Force{}, nil
	case ModeHierarchical:
		return Hierarchical{}, nil
	default:
		return nil, fmt.Errorf("unknown layout mode: %q", mode)
	}
}

// Fixed node box used by the force and hierarchical engines. The layered
// engine derives width from column spacing instead.
const (
	nodeWidth  = 120.0
	nodeHeight = 40.0
)
