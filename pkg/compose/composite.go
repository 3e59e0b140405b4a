package compose

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/matzehuels/kitbash/pkg/scene"
)

// Canvas describes the output raster.
type Canvas struct {
	// Width and Height are the base canvas size in pixels.
	Width, Height int

	// Background fills every pixel before parts are drawn, alpha included.
	Background color.NRGBA

	// Scale is an integer export multiplier applied to the canvas size and to
	// every item's absolute offset and scale. Zero means 1.
	Scale int
}

// factor returns the export multiplier, treating zero and negatives as 1.
func (c Canvas) factor() int {
	if c.Scale < 1 {
		return 1
	}
	return c.Scale
}

// Size returns the output dimensions after the export multiplier.
func (c Canvas) Size() (w, h int) {
	k := c.factor()
	return max(c.Width, 0) * k, max(c.Height, 0) * k
}

// Bounds returns the output rectangle anchored at the origin.
func (c Canvas) Bounds() image.Rectangle {
	w, h := c.Size()
	return image.Rect(0, 0, w, h)
}

// Composite renders every visible part of t onto a background-filled canvas
// in paint order. It never fails; the worst case is a canvas of pure
// background colour.
func Composite(c Canvas, t *scene.Tree) *image.NRGBA {
	dst := image.NewNRGBA(c.Bounds())
	Fill(dst, c.Background)
	k := c.factor()
	for _, item := range Flatten(t) {
		drawItem(dst, item, k)
	}
	return dst
}

// Fill sets every pixel of dst to col verbatim, including fully transparent
// colours with non-zero channels.
func Fill(dst *image.NRGBA, col color.NRGBA) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := dst.Pix[dst.PixOffset(b.Min.X, y):dst.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			row[i], row[i+1], row[i+2], row[i+3] = col.R, col.G, col.B, col.A
		}
	}
}

// maxExtent bounds placed coordinates so rectangle arithmetic stays in range
// on 32-bit ints.
const maxExtent = 1 << 29

// Placement returns where item lands on a canvas with the given export
// multiplier: the rounded offset as the top-left corner and the rounded scaled
// source size as the extent. It reports false when either dimension rounds to
// zero (or below), in which case the item contributes no pixels. Items whose
// position or extent does not fit in ±2^29 pixels are reported the same way.
func Placement(item RenderItem, exportScale int) (image.Rectangle, bool) {
	if item.Image == nil {
		return image.Rectangle{}, false
	}
	k := float64(max(exportScale, 1))
	s := item.Scale * k
	b := item.Image.Bounds()

	fw := math.Round(float64(b.Dx()) * s)
	fh := math.Round(float64(b.Dy()) * s)
	fx := math.Round(item.Offset.X * k)
	fy := math.Round(item.Offset.Y * k)
	if !(fw >= 1 && fh >= 1) {
		return image.Rectangle{}, false
	}
	for _, v := range []float64{fw, fh, fx, fy} {
		if !(math.Abs(v) <= maxExtent) {
			return image.Rectangle{}, false
		}
	}
	x, y := int(fx), int(fy)
	return image.Rect(x, y, x+int(fw), y+int(fh)), true
}

// Resample scales src to w×h with nearest-neighbour filtering. The result is
// always a new buffer; src is not modified. Compositing does not go through
// Resample; it scales straight into the clipped canvas.
func Resample(src *image.NRGBA, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// drawItem composites one item onto dst with "over". The scaler only visits
// destination pixels inside dst, so cost is bounded by the canvas and not by
// the item's scaled size.
func drawItem(dst *image.NRGBA, item RenderItem, exportScale int) {
	r, ok := Placement(item, exportScale)
	if !ok {
		return
	}
	xdraw.NearestNeighbor.Scale(dst, r, item.Image, item.Image.Bounds(), xdraw.Over, nil)
}
