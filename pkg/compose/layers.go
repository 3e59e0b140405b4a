package compose

import (
	"image"
	"math"

	"github.com/matzehuels/kitbash/pkg/scene"
)

// Layer is a single part rendered alone on a transparent, full-size canvas.
type Layer struct {
	Item  RenderItem
	Image *image.NRGBA
}

// RenderLayers renders every flattened item on its own transparent canvas of
// the same size as the composite. The background colour is ignored. Items
// with a degenerate scale still produce an (empty) layer so indices line up
// with [Flatten] and [DeriveMetadata].
func RenderLayers(c Canvas, t *scene.Tree) []Layer {
	items := Flatten(t)
	layers := make([]Layer, 0, len(items))
	k := c.factor()
	for _, item := range items {
		img := image.NewNRGBA(c.Bounds())
		drawItem(img, item, k)
		layers = append(layers, Layer{Item: item, Image: img})
	}
	return layers
}

// Point is an integer pixel position.
type Point struct {
	X, Y int
}

// Record is the persisted placement of one part. Records are stored in paint
// order, which doubles as the z-index.
type Record struct {
	Name   string
	Scale  float64
	Offset Point
}

// DeriveMetadata returns one record per flattened item, in the same order as
// [Flatten]. Offsets are rounded absolute positions on the base canvas.
func DeriveMetadata(t *scene.Tree) []Record {
	items := Flatten(t)
	records := make([]Record, len(items))
	for i, item := range items {
		records[i] = Record{
			Name:  item.Name,
			Scale: item.Scale,
			Offset: Point{
				X: int(math.Round(item.Offset.X)),
				Y: int(math.Round(item.Offset.Y)),
			},
		}
	}
	return records
}
