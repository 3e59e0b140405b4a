package treeview

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/kitbash/pkg/scene"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the local offset and scale to every label, and the pixel
	// size to parts. When false, only names are shown.
	Detailed bool
}

const rootID = "canvas"

// ToDOT converts a scene tree to Graphviz DOT source.
func ToDOT(t *scene.Tree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  ordering=out;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "  %q [label=%q, shape=plaintext, style=\"\"];\n", rootID, rootID)

	var edges []string
	parent := map[int]string{-1: rootID}
	t.Walk(func(n scene.Node, depth int) bool {
		id := nodeID(n)
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
		edges = append(edges, fmt.Sprintf("  %q -> %q;\n", parent[depth-1], id))
		parent[depth] = id
		return true
	})

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(n scene.Node) string {
	return "n" + strconv.FormatUint(uint64(n.Head().ID), 10)
}

func fmtLabel(n scene.Node, detailed bool) string {
	h := n.Head()
	if !detailed {
		return h.Name
	}
	tr := h.Transform
	lines := []string{
		h.Name,
		fmt.Sprintf("offset: %g, %g", tr.Offset.X, tr.Offset.Y),
		fmt.Sprintf("scale: %g", tr.Scale),
	}
	if p, ok := n.(*scene.Part); ok {
		w, hgt := p.Size()
		lines = append(lines, fmt.Sprintf("size: %dx%d", w, hgt))
	}
	return strings.Join(lines, "\n")
}

func fmtAttrs(n scene.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	style := "rounded,filled"
	if scene.IsGroup(n) {
		attrs = append(attrs, "shape=folder", "fillcolor=lightyellow")
		style = "filled"
	}
	if !n.Head().Visible {
		style += ",dashed"
		attrs = append(attrs, "color=grey", "fontcolor=grey")
	}
	return append(attrs, fmt.Sprintf("style=%q", style))
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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

// normalizeViewBox replaces Graphviz's pt-based root element with a
// pixel-sized one so the SVG scales cleanly when embedded.
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

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
