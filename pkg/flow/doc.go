// Package flow builds weighted page-transition graphs from aggregated
// session sequences.
//
// A [Graph] holds one node per distinct page and one edge per observed
// page-to-page transition, with visit and session counts accumulated across
// the whole batch. [Build] synthesizes the graph and applies threshold
// pruning; [AnnotateMetrics] derives outflow percentages and bounce rates.
//
// # Pipeline position
//
// The package sits between the session aggregator (pkg/events) and the
// layout engines (pkg/flow/layout):
//
//	raw events → events.GroupSessions → flow.Build → flow.AnnotateMetrics → layout
//
// Every pass rebuilds the graph from scratch. There is no incremental
// update: the transform is pure and idempotent, so a caller can discard an
// in-flight result and start a new pass without cleanup.
//
// # Threshold pruning
//
// A single pipeline-wide threshold T excludes nodes visited by fewer than T
// distinct sessions and edges traversed by fewer than T distinct sessions.
// Pruning removes entries entirely rather than zeroing them, and edges are
// dropped together with pruned endpoints, so a built graph always satisfies
// [Graph.Validate].
package flow
