package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pageflowhq/pageflow/pkg/cache"
	"github.com/pageflowhq/pageflow/pkg/graph"
	"github.com/pageflowhq/pageflow/pkg/pipeline"
)

// layoutCommand creates the layout command for computing canvas positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute a visualization layout for a journey graph",
		Long: `Compute a visualization layout for a journey graph.

The layout command takes a graph.json file (produced by 'build') and assigns
each page a position on the canvas. The output is a layout.json file that can
be rendered with the 'render' command or served directly to a frontend.

Engines: layered (default, columns by journey depth), force (force-directed
simulation), hierarchical (rows by journey depth).

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	// Layout flags
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "", "layout engine: layered (default), force, hierarchical")
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "canvas width")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "canvas height")

	return cmd
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	c.setCLIDefaults(&opts)

	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	graphHash := ""
	if data, err := graph.MarshalGraph(g); err == nil {
		graphHash = cache.Hash(data)
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", opts.Mode))
	spinner.Start()

	l, cacheHit, err := runner.ComputeLayoutWithCacheInfo(ctx, g, graphHash, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		base = strings.TrimSuffix(base, ".graph")
		outputPath = base + ".layout.json"
	}

	if err := graph.WriteLayoutFile(l, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete (%s)", opts.Mode)
	printFile(outputPath)
	printStats(len(l.Nodes), len(l.Edges), cacheHit)
	printNewline()
	printNextStep("Render", "pageflow render "+input)

	return nil
}
