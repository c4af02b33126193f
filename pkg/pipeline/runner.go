package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pageflowhq/pageflow/pkg/cache"
	"github.com/pageflowhq/pageflow/pkg/events"
	"github.com/pageflowhq/pageflow/pkg/flow"
	"github.com/pageflowhq/pageflow/pkg/flow/layout"
	"github.com/pageflowhq/pageflow/pkg/flow/paths"
	"github.com/pageflowhq/pageflow/pkg/graph"
	"github.com/pageflowhq/pageflow/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete aggregate → build → layout pipeline with caching.
// Path search runs afterwards when opts.PathsRoot is set.
func (r *Runner) Execute(ctx context.Context, batch []events.RawEvent, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}
	result.Stats.EventCount = len(batch)

	// Stage 1: Aggregate
	aggStart := time.Now()
	observability.Pipeline().OnAggregateStart(ctx, len(batch))
	sessions := events.GroupSessions(batch)
	result.Stats.SessionCount = len(sessions)
	result.Stats.AggregateTime = time.Since(aggStart)
	observability.Pipeline().OnAggregateComplete(ctx, len(sessions), result.Stats.AggregateTime)

	r.Logger.Info("aggregated events",
		"events", len(batch),
		"sessions", len(sessions),
		"duration", result.Stats.AggregateTime)

	// Stage 2: Build
	buildStart := time.Now()
	g, buildHit, err := r.BuildWithCacheInfo(ctx, batch, sessions, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Graph = g
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.CacheInfo.BuildHit = buildHit

	// Compute graph hash for cache keys and API responses
	if graphData, err := graph.MarshalGraph(g); err == nil {
		result.GraphHash = cache.Hash(graphData)
	}

	r.Logger.Info("built journey graph",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"cached", buildHit,
		"duration", result.Stats.BuildTime)

	// Stage 3: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, g, result.GraphHash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"mode", opts.Mode,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 4: Paths (optional)
	if opts.PathsRoot != "" {
		pathsStart := time.Now()
		observability.Pipeline().OnPathsStart(ctx, opts.PathsRoot)
		result.Paths = paths.Find(g, opts.PathsRoot, opts.PathOptions())
		result.Stats.PathsTime = time.Since(pathsStart)
		observability.Pipeline().OnPathsComplete(ctx, opts.PathsRoot, len(result.Paths), result.Stats.PathsTime)

		r.Logger.Info("searched paths",
			"root", opts.PathsRoot,
			"paths", len(result.Paths),
			"duration", result.Stats.PathsTime)
	}

	return result, nil
}

// BuildWithCacheInfo builds the metric-annotated graph with caching and
// returns cache hit info. The batch is only used for the cache key; the
// grouped sessions drive the build.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, batch []events.RawEvent, sessions map[string]events.SessionSequence, opts Options) (*flow.Graph, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.GraphKey(hashBatch(batch), opts.GraphKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if g, err := graph.ReadGraph(bytes.NewReader(data)); err == nil {
				observability.Cache().OnCacheHit(ctx, "graph")
				return g, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "graph")
	}

	observability.Pipeline().OnBuildStart(ctx, len(sessions))
	buildStart := time.Now()
	g := flow.Build(sessions, opts.BuildConfig())
	flow.AnnotateMetrics(g)
	observability.Pipeline().OnBuildComplete(ctx, g.NodeCount(), g.EdgeCount(), time.Since(buildStart), nil)

	// Cache the result
	if data, err := graph.MarshalGraph(g); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.DefaultGraphTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "graph", len(data))
		}
	}

	return g, false, nil
}

// Build is a convenience wrapper that aggregates and builds in one call,
// discarding cache hit info.
func (r *Runner) Build(ctx context.Context, batch []events.RawEvent, opts Options) (*flow.Graph, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	g, _, err := r.BuildWithCacheInfo(ctx, batch, events.GroupSessions(batch), opts)
	return g, err
}

// ComputeLayoutWithCacheInfo positions the graph with caching and returns
// cache hit info. On a cache hit the stored coordinates are copied back onto
// the graph nodes so callers see positioned nodes either way.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, g *flow.Graph, graphHash string, opts Options) (graph.Layout, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return graph.Layout{}, false, err
	}

	cacheKey := r.Keyer.LayoutKey(graphHash, opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := graph.UnmarshalLayout(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				applyPositions(g, cached)
				return cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	engine, err := layout.New(layout.Mode(opts.Mode))
	if err != nil {
		return graph.Layout{}, false, err
	}

	observability.Pipeline().OnLayoutStart(ctx, opts.Mode, g.NodeCount())
	layoutStart := time.Now()
	engine.Apply(g, opts.Canvas())
	observability.Pipeline().OnLayoutComplete(ctx, opts.Mode, time.Since(layoutStart), nil)

	out := graph.FromFlow(g)
	l := graph.Layout{
		Mode:   opts.Mode,
		Width:  opts.Width,
		Height: opts.Height,
		Nodes:  out.Nodes,
		Edges:  out.Edges,
	}

	// Cache the result
	if data, err := graph.MarshalLayout(l); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.DefaultLayoutTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	return l, false, nil
}

// ComputeLayout is a convenience wrapper that discards cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, g *flow.Graph, opts Options) (graph.Layout, error) {
	graphHash := ""
	if data, err := graph.MarshalGraph(g); err == nil {
		graphHash = cache.Hash(data)
	}
	l, _, err := r.ComputeLayoutWithCacheInfo(ctx, g, graphHash, opts)
	return l, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// hashBatch fingerprints an event batch for cache keys.
func hashBatch(batch []events.RawEvent) string {
	data, _ := json.Marshal(batch)
	return cache.Hash(data)
}

// applyPositions copies cached layout coordinates back onto graph nodes.
func applyPositions(g *flow.Graph, l graph.Layout) {
	for _, ln := range l.Nodes {
		if n, ok := g.Node(ln.ID); ok {
			n.X, n.Y, n.Width, n.Height = ln.X, ln.Y, ln.Width, ln.Height
		}
	}
}
