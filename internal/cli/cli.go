// Package cli implements the kitbash command-line interface.
//
// # Commands
//
//   - compose: render a project to png, json, zip, svg or per-layer PNGs
//   - tree: print the part hierarchy, optionally as a Graphviz diagram
//   - add: import images into a project
//   - edit: interactive terminal editor for a project
//   - cache: inspect and clear the local artifact cache
//   - serve: run the HTTP API
//
// All commands accept --verbose (-v) for debug logging, which also traces
// pipeline, cache and HTTP events.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kitbash/pkg/buildinfo"
	"github.com/matzehuels/kitbash/pkg/cache"
	"github.com/matzehuels/kitbash/pkg/compose"
	errs "github.com/matzehuels/kitbash/pkg/errors"
	"github.com/matzehuels/kitbash/pkg/httputil"
	"github.com/matzehuels/kitbash/pkg/observability"
	"github.com/matzehuels/kitbash/pkg/pipeline"
	"github.com/matzehuels/kitbash/pkg/project"
	"github.com/matzehuels/kitbash/pkg/scene"
	"github.com/matzehuels/kitbash/pkg/source"
)

// appName is the application name used for directories and display.
const appName = "kitbash"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level the observability
// hooks are routed to the logger as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		hooks := observability.NewLogHooks(c.Logger)
		observability.SetPipelineHooks(hooks)
		observability.SetDecodeHooks(hooks)
		observability.SetCacheHooks(hooks)
		observability.SetHTTPHooks(hooks)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Kitbash assembles sprites from layered parts",
		Long:         `Kitbash builds sprites from a tree of image parts and groups, composites them onto a fixed canvas, and exports the result with per-part metadata.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.composeCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/kitbash/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// newSource resolves part references relative to dir, fetching URLs through
// c with retries.
func newSource(dir string, c cache.Cache, refresh bool) source.Source {
	client := httputil.NewClient(map[string]string{"User-Agent": buildinfo.UserAgent()})
	remote := source.NewHTTP(client, c, nil)
	remote.Refresh = refresh
	return source.NewMulti(source.NewLocal(dir), remote)
}

// loadOptions controls how a project is loaded for a command.
type loadOptions struct {
	cache   cache.Cache
	refresh bool
	// lenient skips parts whose source fails instead of failing the load.
	// Commands that save the manifest back must not be lenient, or the
	// skipped parts would be dropped from the file.
	lenient bool
}

// loadProject reads the manifest at path and builds its scene tree.
func (c *CLI) loadProject(ctx context.Context, path string, opts loadOptions) (*project.Manifest, *scene.Tree, compose.Canvas, error) {
	m, err := project.Load(path)
	if err != nil {
		return nil, nil, compose.Canvas{}, err
	}
	if opts.cache == nil {
		opts.cache = cache.NewNullCache()
	}

	var buildOpts []project.BuildOption
	if opts.lenient {
		buildOpts = append(buildOpts, project.WithSkipFailed(func(ref string, err error) {
			printWarning("Skipped %s: %s", ref, errs.UserMessage(err))
		}))
	}

	prog := newProgress(c.Logger)
	t, canvas, err := project.Build(ctx, m, newSource(filepath.Dir(path), opts.cache, opts.refresh), buildOpts...)
	if err != nil {
		return nil, nil, compose.Canvas{}, err
	}
	prog.done("Loaded " + path)
	return m, t, canvas, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
