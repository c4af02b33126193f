// Package pkg provides the core libraries for Pageflow journey visualization.
//
// # Overview
//
// Pageflow turns raw page-view events into an annotated journey graph: nodes
// are pages, edges are observed transitions between them, and everything is
// weighted by how many sessions actually made each move. The pkg directory is
// organized into five main areas:
//
//  1. [events] - Raw event model and per-session aggregation
//  2. [flow] - The journey graph, metrics, layout engines, and path search
//  3. [graph] - Serialization types for graphs and layouts
//  4. [pipeline] - Orchestration (aggregate → build → layout)
//  5. [cache], [source], [store] - Infrastructure (result caching, event
//     fetching, snapshot persistence)
//
// # Architecture
//
// The typical data flow through Pageflow:
//
//	Analytics Store (file / ClickHouse)
//	         ↓
//	[source] fetch raw events
//	         ↓
//	[events] group into ordered sessions
//	         ↓
//	[flow] build graph, prune, annotate metrics
//	         ↓
//	[flow/layout] position nodes on the canvas
//	         ↓
//	[graph] serialize · [render] draw · [store] snapshot
//
// The [pipeline] package drives those stages with caching in between, and is
// shared by the CLI and the HTTP API.
package pkg
