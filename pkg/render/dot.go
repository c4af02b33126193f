// Package render turns positioned journey graphs into Graphviz artifacts.
//
// The engine itself never draws anything. This package is the consumer side:
// it serializes a graph to DOT and can rasterize that to SVG for reports and
// the HTTP API.
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/pageflowhq/pageflow/pkg/flow"
)

// Options configures journey diagram rendering.
type Options struct {
	// Detailed includes visit counts, bounce rates, and edge percentages
	// in labels. When false, only page titles are shown.
	Detailed bool
}

// ToDOT converts a journey graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Start nodes are drawn green, end nodes red, and intermediate nodes white.
// Edge thickness is left to Graphviz; traffic shares appear as edge labels
// in detailed mode.
func ToDOT(g *flow.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph journeys {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, id := range g.NodeIDs() {
		n, _ := g.Node(id)
		attrs := fmtNodeAttrs(n, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if opts.Detailed {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.From, e.To,
				fmt.Sprintf("%d (%.1f%%)", e.Sessions, e.Percentage))
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtNodeAttrs(n *flow.Node, detailed bool) []string {
	label := n.Title
	if label == "" {
		label = n.ID
	}
	if detailed {
		label = fmt.Sprintf("%s\nvisits: %d\nsessions: %d\nbounce: %.1f%%",
			label, n.Visits, n.UniqueSessions, n.BounceRate)
	}

	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Type {
	case flow.NodeStart:
		attrs = append(attrs, "fillcolor=palegreen")
	case flow.NodeEnd:
		attrs = append(attrs, "fillcolor=lightpink")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or embedding.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag so the image scales cleanly in
// browsers regardless of the point size Graphviz emitted.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
