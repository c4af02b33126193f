package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pageflowhq/pageflow/pkg/flow/paths"
	"github.com/pageflowhq/pageflow/pkg/graph"
	"github.com/pageflowhq/pageflow/pkg/pipeline"
)

// pathsCommand creates the paths command for enumerating common journeys.
func (c *CLI) pathsCommand() *cobra.Command {
	var (
		root     string
		maxDepth int
		maxPaths int
	)

	cmd := &cobra.Command{
		Use:   "paths [graph.json]",
		Short: "Show the most-traveled journeys starting from a page",
		Long: `Show the most-traveled journeys starting from a page.

The paths command explores a journey graph from a chosen root page, always
following the transition most sessions took, and prints the resulting page
sequences. Journeys stop at dead ends or at the depth limit and never revisit
a page.

If --root is omitted, an interactive picker lists the pages in the graph.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPaths(cmd.Context(), args[0], root, maxDepth, maxPaths)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", "", "page path to start from (interactive picker if omitted)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, fmt.Sprintf("maximum journey length in pages (default %d)", pipeline.DefaultMaxDepth))
	cmd.Flags().IntVar(&maxPaths, "max-paths", 0, fmt.Sprintf("maximum journeys to report (default %d)", pipeline.DefaultMaxPaths))

	return cmd
}

// runPaths loads the graph, resolves the root page, and prints the journeys.
func (c *CLI) runPaths(ctx context.Context, input, root string, maxDepth, maxPaths int) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	if g.NodeCount() == 0 {
		printInfo("Graph is empty, nothing to explore")
		return nil
	}

	if root == "" {
		root, err = pickNode(g)
		if err != nil {
			return err
		}
		if root == "" {
			printInfo("No page selected")
			return nil
		}
	}
	if _, ok := g.Node(root); !ok {
		return fmt.Errorf("page %q is not in the graph (pruned or never seen)", root)
	}

	opts := paths.Options{MaxDepth: maxDepth, MaxPaths: maxPaths}
	found := paths.Find(g, root, opts)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if len(found) == 0 {
		printInfo("No journeys found from %s", root)
		return nil
	}

	printSuccess("Top journeys from %s", root)
	for i, p := range found {
		pages := make([]string, len(p))
		for j, n := range p {
			pages[j] = n.ID
		}
		printJourney(i+1, pages)
	}

	return nil
}
