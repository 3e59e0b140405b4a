package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	kio "github.com/matzehuels/kitbash/pkg/io"
	"github.com/matzehuels/kitbash/pkg/pipeline"
	"github.com/matzehuels/kitbash/pkg/project"
)

// composeOpts holds the command-line flags for the compose command.
type composeOpts struct {
	output     string // output file (single format) or base path
	formats    string // comma-separated formats
	scale      int    // export multiplier override, 0 keeps the manifest's
	background string // background colour override
	layersDir  string // directory for per-layer PNGs
	detailed   bool   // label the svg tree with offsets and scales
	noCache    bool
	refresh    bool
	strict     bool // fail instead of skipping parts that cannot be loaded
}

func (c *CLI) composeCommand() *cobra.Command {
	var opts composeOpts

	cmd := &cobra.Command{
		Use:   "compose [project.toml]",
		Short: "Render a project to images and metadata",
		Long: `Render a project to images and metadata.

Formats:
  png     the composite image (default)
  json    per-part name, scale and offset in paint order
  zip     composite.png, data.json and one PNG per part
  layers  one full-canvas PNG per part, written to --layers-dir
  svg     a diagram of the part hierarchy

Outputs are named after the project file unless -o is given. Results are
cached locally; unchanged projects render instantly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompose(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): png (default), json, zip, layers, svg (comma-separated)")
	cmd.Flags().IntVar(&opts.scale, "scale", 0, "integer export scale (1-10), overrides the project")
	cmd.Flags().StringVar(&opts.background, "background", "", "background colour (#RRGGBB, #RRGGBBAA or transparent), overrides the project")
	cmd.Flags().StringVar(&opts.layersDir, "layers-dir", "", "write per-part layer PNGs to this directory")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show offsets and scales in the svg diagram")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when a part image cannot be loaded")

	return cmd
}

func (c *CLI) runCompose(ctx context.Context, input string, opts composeOpts) error {
	formats := parseFormats(opts.formats)
	if opts.layersDir != "" && !slices.Contains(formats, pipeline.FormatLayers) {
		formats = append(formats, pipeline.FormatLayers)
	}
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	_, tree, canvas, err := c.loadProject(ctx, input, loadOptions{
		cache:   runner.Cache,
		refresh: opts.refresh,
		lenient: !opts.strict,
	})
	if err != nil {
		return err
	}
	if opts.scale != 0 {
		canvas.Scale = opts.scale
	}
	if opts.background != "" {
		if canvas.Background, err = project.ParseColor(opts.background); err != nil {
			return err
		}
	}

	spinner := newSpinner(ctx, "Compositing...")
	spinner.Start()
	result, err := runner.Execute(ctx, tree, pipeline.Options{
		Canvas:   canvas,
		Formats:  formats,
		Detailed: opts.detailed,
		Refresh:  opts.refresh,
		Logger:   c.Logger,
	})
	if err != nil {
		spinner.StopWithError("Compose failed")
		return err
	}
	spinner.Update("Writing outputs...")

	var written []string
	base := basePath(opts.output, input)
	for _, format := range formats {
		if format == pipeline.FormatLayers {
			continue
		}
		path := base + "." + format
		if len(formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := writeFile(path, result.Artifacts[format]); err != nil {
			spinner.StopWithError("Compose failed")
			return err
		}
		written = append(written, path)
	}

	if slices.Contains(formats, pipeline.FormatLayers) {
		dir := opts.layersDir
		if dir == "" {
			dir = base + "_layers"
		}
		layers, err := kio.WriteArtifacts(dir, result.Layers)
		if err != nil {
			spinner.StopWithError("Compose failed")
			return err
		}
		written = append(written, fmt.Sprintf("%s (%d layers)", dir, len(layers)))
	}

	spinner.StopWithSuccess("Composed %s", input)
	printStats(result.Stats.Parts, result.Stats.Width, result.Stats.Height, result.CacheInfo.RenderHit)
	for _, path := range written {
		printFile(path)
	}
	return nil
}

// basePath derives the base output path. An empty output strips the
// extension from input; an output ending in a known format extension has it
// stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
