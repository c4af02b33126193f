package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Layout - Positioned Graph Format
// =============================================================================

// Layout is the serialization format for a positioned journey graph.
//
// It carries the graph structure plus the canvas dimensions and the mode of
// the engine that produced the coordinates. Node positions live on the nodes
// themselves. A Layout with a DOT string can additionally feed a Graphviz
// renderer without recomputing anything.
type Layout struct {
	// Engine that produced the coordinates ("layered", "force", "hierarchical").
	Mode string `json:"mode" bson:"mode"`

	// Canvas dimensions.
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`

	// Graph structure with positions on the nodes.
	Nodes []Node `json:"nodes,omitempty" bson:"nodes,omitempty"`
	Edges []Edge `json:"edges,omitempty" bson:"edges,omitempty"`

	// Optional pre-rendered Graphviz source.
	DOT string `json:"dot,omitempty" bson:"dot,omitempty"`
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Validates that the layout carries positive dimensions. An empty node list
// is valid: pruning an all-below-threshold batch leaves nothing to position.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}

	if l.Width <= 0 || l.Height <= 0 {
		return Layout{}, fmt.Errorf("layout must have positive dimensions")
	}

	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
