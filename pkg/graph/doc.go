// Package graph provides serialization types for journey graphs and layouts.
//
// This package defines the canonical wire format for Pageflow's graph data,
// used for JSON files, API responses, caching, and cross-tool interoperability.
//
// # Architecture
//
// The package sits at the serialization boundary between internal
// representations and external formats:
//
//   - [Graph], [Layout]: Serialization types (this package)
//   - pkg/flow.Graph: Internal graph representation
//
// Use [FromFlow]/[ToFlow] to convert between them.
//
// # Core Types
//
//   - [Graph]: Node-link format for journey graphs
//   - [Layout]: Positioned graph plus canvas and layout mode
//   - [Node], [Edge]: Shared structural types
//
// # Graph Serialization
//
// Graphs use a simple node-link JSON format:
//
//	{
//	  "nodes": [{"id": "/", "type": "start", "visits": 2, "unique_sessions": 2}],
//	  "edges": [{"from": "/", "to": "/a", "count": 2, "sessions": 2}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("journeys.json")  // File → flow.Graph
//	graph.WriteGraphFile(g, "output.json")        // flow.Graph → File
//	data, _ := graph.MarshalGraph(g)              // flow.Graph → []byte
//	parsed, _ := graph.UnmarshalGraph(data)       // []byte → Graph
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
