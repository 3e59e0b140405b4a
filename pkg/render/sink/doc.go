// Package sink encodes compositor output into byte streams.
//
// # Formats
//
//   - [EncodePNG]: the composite (or a single layer) as PNG
//   - [RenderJSON]: per-part placement records as pretty-printed JSON
//   - [RenderArchive]: several entries packed into a deflated zip
//
// A typical archive holds the composite, the metadata under [MetadataEntry]
// and one PNG per layer named by [LayerEntryName]:
//
//	entries := []sink.Entry{{Name: sink.MetadataEntry, Data: meta}}
//	for i, l := range layers {
//	    png, _ := sink.EncodePNG(l.Image)
//	    entries = append(entries, sink.Entry{Name: sink.LayerEntryName(i, l.Item.Name), Data: png})
//	}
//	zip, err := sink.RenderArchive(entries)
//
// Sinks never modify their inputs.
package sink
