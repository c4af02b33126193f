package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	perrors "github.com/pageflowhq/pageflow/pkg/errors"
	"github.com/pageflowhq/pageflow/pkg/graph"
	"github.com/pageflowhq/pageflow/pkg/render"
)

// Supported render formats.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// renderCommand creates the render command for producing Graphviz artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output   string
		formats  string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a journey graph as a DOT or SVG diagram",
		Long: `Render a journey graph as a DOT or SVG diagram.

The render command takes a graph.json file (produced by 'build') and writes
a Graphviz visualization. Entry pages are drawn green and end pages red.
With --detailed, visit counts, bounce rates, and transition percentages are
included in the labels.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], output, parseFormats(formats), detailed)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file base (default: derived from input)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output formats, comma-separated: svg (default), dot")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include traffic metrics in labels")

	return cmd
}

// runRender loads the graph and writes one artifact per requested format.
func (c *CLI) runRender(ctx context.Context, input, output string, formats []string, detailed bool) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	dot := render.ToDOT(g, render.Options{Detailed: detailed})

	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
		base = strings.TrimSuffix(base, ".graph")
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	for _, format := range formats {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var (
			data []byte
			path string
		)
		switch format {
		case formatDOT:
			data = []byte(dot)
			path = base + ".dot"
		case formatSVG:
			svg, err := render.RenderSVG(dot)
			if err != nil {
				return fmt.Errorf("render svg: %w", err)
			}
			data = svg
			path = base + ".svg"
		default:
			return perrors.New(perrors.ErrCodeUnsupported, "unknown format %q (supported: svg, dot)", format)
		}

		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		printFile(path)
	}

	printSuccess("Rendered %d pages, %d transitions", g.NodeCount(), g.EdgeCount())
	return nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
