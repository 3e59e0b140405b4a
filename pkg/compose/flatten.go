package compose

import (
	"image"

	"github.com/matzehuels/kitbash/pkg/scene"
)

// RenderItem is a visible part with its absolute placement.
type RenderItem struct {
	ID     scene.ID
	Name   string
	Image  *image.NRGBA
	Offset scene.Vec2
	Scale  float64
}

// Flatten returns the visible parts of t in paint order with absolute
// transforms. Groups are never emitted; an invisible group hides its whole
// subtree regardless of the children's own flags.
func Flatten(t *scene.Tree) []RenderItem {
	var items []RenderItem
	flatten(t.Roots, scene.Identity(), &items)
	return items
}

func flatten(seq []scene.Node, parent scene.Transform, items *[]RenderItem) {
	for _, n := range seq {
		h := n.Head()
		if !h.Visible {
			continue
		}
		abs := parent.Compose(h.Transform)

		switch n := n.(type) {
		case *scene.Part:
			*items = append(*items, RenderItem{
				ID:     n.ID,
				Name:   n.Name,
				Image:  n.Image,
				Offset: abs.Offset,
				Scale:  abs.Scale,
			})
		case *scene.Group:
			flatten(n.Children, abs, items)
		}
	}
}
