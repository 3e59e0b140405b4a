// Package pkg holds the kitbash libraries.
//
// Kitbash assembles sprites from a tree of image parts. Parts carry a local
// offset, scale and visibility; groups nest parts and other groups. The tree
// is composited onto a fixed-size canvas in paint order.
//
// # Layout
//
//   - [scene]: the part tree, IDs, transforms and structural edits
//   - [compose]: flattening, compositing and per-part metadata
//   - [io]: image decoding, the concurrent importer and layer export
//   - [project]: TOML manifests and building trees from them
//   - [source]: resolving part references from disk, memory or HTTP
//   - [pipeline]: cached rendering of every output format
//   - [render/sink]: PNG, JSON and zip encoders
//   - [render/treeview]: Graphviz diagrams of the hierarchy
//   - [cache], [store]: artifact caching and saved projects
//   - [errors], [observability], [httputil], [buildinfo]: shared plumbing
//
// # Data Flow
//
//	project.toml
//	     ↓
//	[project] Build (decode sources in parallel)
//	     ↓
//	[scene] Tree
//	     ↓
//	[compose] Flatten → Composite / RenderLayers / DeriveMetadata
//	     ↓
//	[render/sink] png, json, zip
//
// # Quick Start
//
//	m, _ := project.Load("robot.toml")
//	tree, canvas, _ := project.Build(ctx, m, source.NewLocal("."))
//	img := compose.Composite(canvas, tree)
//	data, _ := sink.EncodePNG(img)
package pkg
