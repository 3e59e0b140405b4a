package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/kitbash/pkg/errors"
	kio "github.com/matzehuels/kitbash/pkg/io"
	"github.com/matzehuels/kitbash/pkg/project"
	"github.com/matzehuels/kitbash/pkg/scene"
)

func (c *CLI) addCommand() *cobra.Command {
	var (
		group   string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "add [project.toml] [image...]",
		Short: "Import images into a project as new parts",
		Long: `Import images into a project as new parts.

Images are decoded in parallel and appended in the order decoding finishes,
either to the top level or to the group named by --group (created if it does
not exist). Images that cannot be decoded are reported and skipped. Image
paths must live inside the project directory; they are stored relative to it.

Supported formats: PNG, JPEG, GIF, BMP, WebP.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAdd(cmd.Context(), args[0], args[1:], group, workers)
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "add the parts to this group")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent decoders (default: number of CPUs)")

	return cmd
}

func (c *CLI) runAdd(ctx context.Context, input string, images []string, group string, workers int) error {
	m, t, canvas, err := c.loadProject(ctx, input, loadOptions{})
	if err != nil {
		return err
	}

	target := scene.NoID
	if group != "" {
		if target, err = ensureGroup(t, group); err != nil {
			return err
		}
	}

	var failed atomic.Int32
	skip := func(name string, err error) {
		failed.Add(1)
		printWarning("Skipped %s: %s", name, errs.UserMessage(err))
	}
	imp := kio.NewImporter(
		kio.WithWorkers(workers),
		kio.WithLogger(c.Logger),
		kio.WithFailureHandler(skip),
	)

	dir := filepath.Dir(input)
	for _, path := range images {
		name := kio.PartName(path)
		if err := errs.ValidateName(name); err != nil {
			skip(path, err)
			continue
		}
		ref, err := sourceRef(dir, path)
		if err != nil {
			skip(path, err)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			skip(path, errs.Wrap(errs.ErrCodeFileNotFound, err, "read %s", path))
			continue
		}
		imp.SubmitSource(name, ref, data)
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Decoding %d images...", len(images)))
	spinner.Start()
	added := imp.Flush(t, target)
	spinner.Stop()

	if len(added) == 0 {
		return errs.New(errs.ErrCodeDecodeFailed, "none of the %d images could be imported", len(images))
	}
	if err := project.Save(input, project.FromTree(m.Name, t, canvas)); err != nil {
		return err
	}

	printSuccess("Added %d parts to %s", len(added), input)
	for _, p := range added {
		w, h := p.Size()
		printDetail("%s  %dx%d  %s", p.Name, w, h, p.Source)
	}
	if n := failed.Load(); n > 0 {
		printWarning("%d images skipped", n)
	}
	printNextStep("Render it", "kitbash compose "+input)
	return nil
}

// ensureGroup returns the first group called name, creating it at the top
// level when there is none.
func ensureGroup(t *scene.Tree, name string) (scene.ID, error) {
	if err := errs.ValidateName(name); err != nil {
		return scene.NoID, err
	}
	found := scene.NoID
	t.Walk(func(n scene.Node, _ int) bool {
		if found != scene.NoID {
			return false
		}
		if g, ok := n.(*scene.Group); ok && g.Name == name {
			found = g.ID
		}
		return true
	})
	if found != scene.NoID {
		return found, nil
	}
	g := t.NewGroup(name)
	if err := t.Insert(g, scene.NoID); err != nil {
		return scene.NoID, err
	}
	return g.ID, nil
}

// sourceRef expresses path relative to the project directory, in the slash
// form manifests use.
func sourceRef(projectDir, path string) (string, error) {
	absDir, err := filepath.Abs(projectDir)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInvalidPath, err, "%s is not inside %s", path, projectDir)
	}
	rel = filepath.ToSlash(rel)
	if err := errs.ValidatePath(rel); err != nil {
		return "", errs.New(errs.ErrCodeInvalidPath, "%s is not inside the project directory %s", path, projectDir)
	}
	return rel, nil
}
