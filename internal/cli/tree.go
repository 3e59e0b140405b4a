package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kitbash/pkg/compose"
	"github.com/matzehuels/kitbash/pkg/render/treeview"
	"github.com/matzehuels/kitbash/pkg/scene"
)

func (c *CLI) treeCommand() *cobra.Command {
	var (
		svgOut   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "tree [project.toml]",
		Short: "Print the part hierarchy of a project",
		Long: `Print the part hierarchy of a project in paint order (top is drawn first).

With --svg the hierarchy is also rendered as a Graphviz diagram.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTree(cmd.Context(), args[0], svgOut, detailed)
		},
	}

	cmd.Flags().StringVar(&svgOut, "svg", "", "also write the hierarchy as an SVG diagram")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show offsets and scales in the diagram")

	return cmd
}

func (c *CLI) runTree(ctx context.Context, input, svgOut string, detailed bool) error {
	m, t, canvas, err := c.loadProject(ctx, input, loadOptions{lenient: true})
	if err != nil {
		return err
	}

	title := m.Name
	if title == "" {
		title = input
	}
	fmt.Println(renderTree(title, t, canvas))

	if svgOut == "" {
		return nil
	}
	svg, err := treeview.RenderSVG(ctx, treeview.ToDOT(t, treeview.Options{Detailed: detailed}))
	if err != nil {
		return err
	}
	if err := writeFile(svgOut, svg); err != nil {
		return err
	}
	printFile(svgOut)
	return nil
}

// renderTree draws the hierarchy with box-drawing connectors.
func renderTree(title string, t *scene.Tree, c compose.Canvas) string {
	root := tree.Root(StyleTitle.Render(title) + StyleDim.Render(fmt.Sprintf("  %dx%d", c.Width, c.Height)))
	addNodes(root, t.Roots)
	return root.String()
}

func addNodes(parent *tree.Tree, seq []scene.Node) {
	parent.Enumerator(tree.RoundedEnumerator).EnumeratorStyle(StyleDim)
	for _, n := range seq {
		switch n := n.(type) {
		case *scene.Group:
			sub := tree.Root(nodeLabel(n))
			addNodes(sub, n.Children)
			parent.Child(sub)
		case *scene.Part:
			parent.Child(nodeLabel(n))
		}
	}
}

func nodeLabel(n scene.Node) string {
	h := n.Head()
	name := StyleValue.Render(h.Name)
	if g, ok := n.(*scene.Group); ok {
		name = StyleHighlight.Render(h.Name + "/")
		if len(g.Children) == 0 {
			name += StyleDim.Render(" (empty)")
		}
	}

	detail := transformLabel(h.Transform)
	if p, ok := n.(*scene.Part); ok {
		w, ht := p.Size()
		detail = fmt.Sprintf("%dx%d %s", w, ht, detail)
	}

	label := name
	if detail != "" {
		label += "  " + StyleDim.Render(detail)
	}
	if !h.Visible {
		label += StyleWarning.Render(" (hidden)")
	}
	return label
}

// transformLabel formats a local transform, e.g. "@ 4,2 ×1.5". The identity
// parts are omitted.
func transformLabel(tr scene.Transform) string {
	var s string
	if tr.Offset.X != 0 || tr.Offset.Y != 0 {
		s = "@ " + formatFloat(tr.Offset.X) + "," + formatFloat(tr.Offset.Y)
	}
	if tr.Scale != 1 {
		if s != "" {
			s += " "
		}
		s += "×" + formatFloat(tr.Scale)
	}
	return s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
