// Package pipeline provides the core journey pipeline for Pageflow.
//
// This package implements the complete aggregate → build → layout pipeline
// that can be used by CLI, API, and worker components. By centralizing this
// logic, we ensure consistent behavior across all entry points and avoid
// code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Aggregate: Group raw events into ordered per-session sequences
//  2. Build: Construct the journey graph, prune it, and annotate metrics
//  3. Layout: Compute canvas positions with the selected engine
//
// Each stage can be run independently or as part of the complete pipeline.
// Path search is an optional fourth stage, enabled by setting PathsRoot.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Threshold: 5,
//	    Mode:      "layered",
//	}
//	result, err := runner.Execute(ctx, batch, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Stats.NodeCount)
//
// Run individual stages:
//
//	// Build only
//	g, err := runner.Build(ctx, batch, opts)
//
//	// Layout with existing graph
//	l, err := runner.ComputeLayout(ctx, g, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pageflowhq/pageflow/pkg/cache"
	perrors "github.com/pageflowhq/pageflow/pkg/errors"
	"github.com/pageflowhq/pageflow/pkg/flow"
	"github.com/pageflowhq/pageflow/pkg/flow/layout"
	"github.com/pageflowhq/pageflow/pkg/flow/paths"
	"github.com/pageflowhq/pageflow/pkg/graph"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Worker
// =============================================================================

const (
	// DefaultThreshold is the minimum session count a node or edge needs to
	// survive pruning.
	DefaultThreshold = 5

	// DefaultWidth is the default canvas width in pixels.
	DefaultWidth = layout.DefaultWidth

	// DefaultHeight is the default canvas height in pixels.
	DefaultHeight = layout.DefaultHeight

	// DefaultMaxDepth is the maximum number of pages in a discovered journey.
	DefaultMaxDepth = paths.DefaultMaxDepth

	// DefaultMaxPaths is the maximum number of paths reported by path search.
	DefaultMaxPaths = paths.DefaultMaxPaths
)

// DefaultMode is the default layout engine.
const DefaultMode = string(layout.DefaultMode)

// DefaultEntryPath is the path treated as the journey entry point.
const DefaultEntryPath = flow.DefaultEntryPath

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the journey pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Build options
	Threshold     int      `json:"threshold,omitempty"`
	EntryPath     string   `json:"entry_path,omitempty"`
	TerminalPaths []string `json:"terminal_paths,omitempty"`
	Refresh       bool     `json:"refresh,omitempty"`

	// Layout options
	Mode   string  `json:"mode,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// Path search options. PathsRoot empty disables the stage.
	PathsRoot string `json:"paths_root,omitempty"`
	MaxDepth  int    `json:"max_depth,omitempty"`
	MaxPaths  int    `json:"max_paths,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the built, metric-annotated journey graph with positions.
	Graph *flow.Graph

	// GraphHash is the content hash of the graph before layout.
	GraphHash string

	// Layout is the serialized positioned graph.
	Layout graph.Layout

	// Paths holds the top journeys when path search was requested.
	Paths [][]*flow.Node

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	EventCount    int
	SessionCount  int
	NodeCount     int
	EdgeCount     int
	AggregateTime time.Duration
	BuildTime     time.Duration
	LayoutTime    time.Duration
	PathsTime     time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BuildHit  bool // Whether the built graph came from cache
	LayoutHit bool // Whether the layout came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateMode checks that a layout mode is valid.
func ValidateMode(mode string) error {
	if mode == "" {
		return nil
	}
	if !layout.ValidModes[layout.Mode(mode)] {
		return perrors.New(perrors.ErrCodeInvalidLayoutMode,
			"invalid layout mode: %q (must be one of: layered, force, hierarchical)", mode)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as
// calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if err := perrors.ValidateThreshold(o.Threshold); err != nil {
		return err
	}
	if o.EntryPath == "" {
		o.EntryPath = DefaultEntryPath
	}
	if err := perrors.ValidatePagePath(o.EntryPath); err != nil {
		return err
	}

	o.SetLayoutDefaults()
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if err := perrors.ValidateCanvas(o.Width, o.Height); err != nil {
		return err
	}

	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxPaths == 0 {
		o.MaxPaths = DefaultMaxPaths
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
}

// BuildConfig returns the graph build configuration for these options.
func (o *Options) BuildConfig() flow.BuildConfig {
	return flow.BuildConfig{
		MinSessions:   o.Threshold,
		EntryPath:     o.EntryPath,
		TerminalPaths: o.TerminalPaths,
	}
}

// Canvas returns the layout canvas for these options.
func (o *Options) Canvas() layout.Canvas {
	return layout.Canvas{Width: o.Width, Height: o.Height}
}

// PathOptions returns the path search bounds for these options.
func (o *Options) PathOptions() paths.Options {
	return paths.Options{MaxDepth: o.MaxDepth, MaxPaths: o.MaxPaths}
}

// GraphKeyOpts returns cache key options for graph building.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		Threshold:     o.Threshold,
		EntryPath:     o.EntryPath,
		TerminalPaths: o.TerminalPaths,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Mode:   o.Mode,
		Width:  o.Width,
		Height: o.Height,
	}
}
