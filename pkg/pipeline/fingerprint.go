package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"

	"github.com/matzehuels/kitbash/pkg/cache"
	"github.com/matzehuels/kitbash/pkg/scene"
)

// Fingerprint returns a content hash of t covering hierarchy, names,
// transforms, visibility and pixels. Node IDs are excluded, so two trees
// built from the same manifest hash alike.
func Fingerprint(t *scene.Tree) string {
	h := sha256.New()
	pixels := make(map[*image.NRGBA]string)
	t.Walk(func(n scene.Node, depth int) bool {
		hd := n.Head()
		fmt.Fprintf(h, "%d|%q|%g,%g|%g|%t|", depth, hd.Name,
			hd.Transform.Offset.X, hd.Transform.Offset.Y, hd.Transform.Scale, hd.Visible)
		switch n := n.(type) {
		case *scene.Group:
			fmt.Fprintf(h, "g%d\n", len(n.Children))
		case *scene.Part:
			fmt.Fprintf(h, "p%s\n", pixelHash(n.Image, pixels))
		}
		return true
	})
	return hex.EncodeToString(h.Sum(nil))
}

// pixelHash hashes an image once per buffer; parts imported from the same
// file share their pixels.
func pixelHash(img *image.NRGBA, memo map[*image.NRGBA]string) string {
	if img == nil {
		return "-"
	}
	if s, ok := memo[img]; ok {
		return s
	}
	b := img.Bounds()
	buf := make([]byte, 0, 4*b.Dx()*b.Dy()+16)
	buf = fmt.Appendf(buf, "%dx%d:", b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		buf = append(buf, img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]...)
	}
	s := cache.Hash(buf)
	memo[img] = s
	return s
}
