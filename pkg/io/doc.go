// Package io moves pixels in and out of a scene.
//
// # Import
//
// [Decode] turns encoded bytes (PNG, JPEG, GIF, WebP or BMP) into a
// straight-alpha [image.NRGBA]; [FromRGBA] adopts an already decoded
// buffer. Decode failures are [errors.ErrCodeDecodeFailed] errors and never
// touch a tree.
//
// The [Importer] decodes concurrently and hands results back to the goroutine
// that owns the tree through a single-consumer queue:
//
//	imp := io.NewImporter(io.WithLogger(logger))
//	for _, f := range files {
//	    imp.Submit(f.Name, f.Data)
//	}
//	parts := imp.Flush(tree, scene.NoID)
//
// Workers never see the tree. Results are applied only inside [Importer.Drain]
// and [Importer.Flush], so a flatten or composite on the owning goroutine never
// races with an insert.
//
// # Export
//
// [WriteArtifacts] writes rendered byte streams (see render/sink) to a
// directory.
//
// [errors.ErrCodeDecodeFailed]: github.com/matzehuels/kitbash/pkg/errors.ErrCodeDecodeFailed
package io
