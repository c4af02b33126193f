package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pageflowhq/pageflow/pkg/events"
	"github.com/pageflowhq/pageflow/pkg/graph"
	"github.com/pageflowhq/pageflow/pkg/pipeline"
	"github.com/pageflowhq/pageflow/pkg/source"
)

// buildCommand creates the build command for constructing journey graphs.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		from    string
		to      string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "build [events.json]",
		Short: "Build a journey graph from page-view events",
		Long: `Build a journey graph from page-view events.

The build command reads a batch of raw events (a JSON array, or an object
with an "events" key), groups them into per-session sequences, and constructs
the pruned journey graph with traffic metrics. The output is a graph.json
file consumed by the 'layout', 'paths', and 'render' commands.

Pages and transitions seen in fewer sessions than the threshold are dropped.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd.Context(), args[0], opts, output, noCache, from, to)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.graph.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass cache")

	// Build flags
	cmd.Flags().IntVar(&opts.Threshold, "threshold", 0, "minimum sessions for a page or transition to survive pruning")
	cmd.Flags().StringVar(&opts.EntryPath, "entry", "", "path treated as the journey entry point")
	cmd.Flags().StringSliceVar(&opts.TerminalPaths, "terminal", nil, "paths marked as journey endpoints (repeatable)")
	cmd.Flags().StringVar(&from, "from", "", "only include events at or after this time (RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "only include events before this time (RFC3339)")

	return cmd
}

// runBuild loads events, builds the annotated graph, and writes output.
func (c *CLI) runBuild(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool, from, to string) error {
	c.setCLIDefaults(&opts)

	window, err := parseWindow(from, to)
	if err != nil {
		return err
	}

	src := source.NewFileSource(input)
	batch, err := src.Fetch(ctx, window)
	if err != nil {
		return fmt.Errorf("load events %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	logger := loggerFromContext(ctx)
	sessions := events.GroupSessions(batch)
	logger.Debugf("Aggregated %d events into %d sessions", len(batch), len(sessions))

	prog := newProgress(logger)
	g, cacheHit, err := runner.BuildWithCacheInfo(ctx, batch, sessions, opts)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	prog.done(fmt.Sprintf("Built %d pages with %d transitions", g.NodeCount(), g.EdgeCount()))

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".graph.json"
	}

	if err := graph.WriteGraphFile(g, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Graph built from %d sessions", len(sessions))
	printFile(outputPath)
	printStats(g.NodeCount(), g.EdgeCount(), cacheHit)
	printNewline()
	printNextStep("Compute layout", "pageflow layout "+outputPath)

	return nil
}

// parseWindow converts RFC3339 bounds into a source window.
// Empty strings leave the corresponding side open.
func parseWindow(from, to string) (source.Window, error) {
	var w source.Window
	if from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return w, fmt.Errorf("parse --from: %w", err)
		}
		w.From = t
	}
	if to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return w, fmt.Errorf("parse --to: %w", err)
		}
		w.To = t
	}
	if !w.From.IsZero() && !w.To.IsZero() && w.To.Before(w.From) {
		return w, fmt.Errorf("--to is before --from")
	}
	return w, nil
}
