package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kitbash/pkg/project"
)

func (c *CLI) editCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "edit <project.toml>",
		Short: "Arrange a project's parts interactively",
		Long: `Open a terminal editor over the project's part tree.

Select parts and groups, reorder them, toggle visibility, nudge offsets and
change scales, then save with ctrl+s. The manifest is rewritten in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(cmd.Context(), args[0], noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching of remote assets")
	return cmd
}

func (c *CLI) runEdit(ctx context.Context, input string, noCache bool) error {
	assets, err := newCache(noCache)
	if err != nil {
		return err
	}
	defer assets.Close()

	m, t, canvas, err := c.loadProject(ctx, input, loadOptions{cache: assets})
	if err != nil {
		return err
	}

	save := func(pm *project.Manifest) error {
		return project.Save(input, pm)
	}
	model := NewEditorModel(m.Name, t, canvas, save)

	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if em, ok := final.(EditorModel); ok && em.Dirty {
		printWarning("Quit without saving changes to %s", input)
		return nil
	}
	printSuccess("Done editing %s", input)
	return nil
}
