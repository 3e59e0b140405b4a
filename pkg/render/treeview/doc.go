// Package treeview draws a scene's part hierarchy as a Graphviz diagram.
//
// # Usage
//
//	dot := treeview.ToDOT(tree, treeview.Options{Detailed: true})
//	svg, err := treeview.RenderSVG(ctx, dot)
//
// A "canvas" node stands for the root sequence. Groups are drawn as folders,
// parts as boxes, and hidden nodes with dashed grey outlines. Children are
// laid out left to right in paint order (back to front).
//
// # Dependencies
//
// Rendering uses [github.com/goccy/go-graphviz], which runs Graphviz
// in-process; no external binaries are needed.
package treeview
