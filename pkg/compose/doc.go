// Package compose flattens a scene tree and merges its parts into a raster.
//
// The pipeline has two steps:
//
//  1. [Flatten] walks the tree depth-first in pre-order, skips invisible
//     nodes together with their subtrees, accumulates transforms, and emits
//     one [RenderItem] per visible part. The order is paint order.
//  2. [Composite] fills a canvas with the background colour and draws every
//     item on top: nearest-neighbour resampling to the rounded target size,
//     integer placement at the rounded offset, straight alpha "over".
//
// Only the final absolute offset and the final target dimensions are
// rounded; intermediate levels accumulate exact floating-point values.
//
// [DeriveMetadata] produces the per-part placement records that accompany an
// export, and [RenderLayers] renders each part on its own transparent canvas.
//
// All functions here are total over a well-formed tree: an empty tree
// composites to a canvas of pure background colour, and a part scaled below
// one pixel is skipped rather than reported.
package compose
