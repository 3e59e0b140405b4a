// Command kitbash assembles sprites from layered parts: it composes project
// manifests into PNG, metadata and layer exports, edits part trees in the
// terminal, and serves the same pipeline over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kitbash/internal/cli"
	errs "github.com/matzehuels/kitbash/pkg/errors"
)

// Exit codes. An interrupted compose or editor session exits like a shell
// job killed by SIGINT.
const (
	exitFailure     = 1
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRoot().ExecuteContext(ctx)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		os.Exit(exitInterrupted)
	default:
		fmt.Fprintf(os.Stderr, "kitbash: %s\n", errs.UserMessage(err))
		os.Exit(exitFailure)
	}
}

// newRoot builds the command tree. Log output goes to stderr so artifacts
// written to stdout (cache path, completion scripts) stay clean.
func newRoot() *cobra.Command {
	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true

	verbose := root.PersistentFlags().BoolP("verbose", "v", false, "log decode, cache and render events")
	root.PersistentPreRun = func(*cobra.Command, []string) {
		if *verbose {
			c.SetLogLevel(cli.LogDebug)
		}
	}
	return root
}
