package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kitbash/internal/server"
	"github.com/matzehuels/kitbash/pkg/buildinfo"
	"github.com/matzehuels/kitbash/pkg/cache"
	"github.com/matzehuels/kitbash/pkg/httputil"
	"github.com/matzehuels/kitbash/pkg/pipeline"
	"github.com/matzehuels/kitbash/pkg/source"
	"github.com/matzehuels/kitbash/pkg/store"
)

// Environment variables read by serve when the matching flag is unset.
const (
	envRedisAddr = "KITBASH_REDIS_ADDR"
	envMongoURI  = "KITBASH_MONGO_URI"
)

type serveOpts struct {
	addr      string
	redisAddr string
	redisDB   int
	mongoURI  string
	mongoDB   string
	dataDir   string
	maxUpload int64
	timeout   time.Duration
	noCache   bool
}

func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the compose and project APIs over HTTP.

Artifacts are cached in Redis when --redis (or KITBASH_REDIS_ADDR) is set,
otherwise in the local cache directory. Projects are stored in MongoDB when
--mongo (or KITBASH_MONGO_URI) is set, otherwise on disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.redisAddr == "" {
				opts.redisAddr = os.Getenv(envRedisAddr)
			}
			if opts.mongoURI == "" {
				opts.mongoURI = os.Getenv(envMongoURI)
			}
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", "", "Redis address for the artifact cache (env "+envRedisAddr+")")
	cmd.Flags().IntVar(&opts.redisDB, "redis-db", 0, "Redis database number")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo", "", "MongoDB URI for the project store (env "+envMongoURI+")")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", "kitbash", "MongoDB database name")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "directory for the file project store (default ~/.local/share/kitbash/projects)")
	cmd.Flags().Int64Var(&opts.maxUpload, "max-upload", server.DefaultMaxUploadBytes, "maximum request body size in bytes")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "per-request timeout")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable artifact caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	artifacts, err := c.serveCache(ctx, opts)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(artifacts, nil, c.Logger)
	defer runner.Close()

	projects, err := c.serveStore(ctx, opts)
	if err != nil {
		return err
	}
	defer projects.Close()

	client := httputil.NewClient(map[string]string{"User-Agent": buildinfo.UserAgent()})
	remote := source.NewHTTP(client, artifacts, nil)

	srv := server.New(server.Config{
		Addr:           opts.addr,
		Store:          projects,
		Runner:         runner,
		Remote:         remote,
		Logger:         c.Logger,
		MaxUploadBytes: opts.maxUpload,
		Timeout:        opts.timeout,
	})

	printInfo("Listening on %s", opts.addr)
	printKeyValue("cache", backendName(opts.noCache, opts.redisAddr, "redis", "file"))
	printKeyValue("store", backendName(false, opts.mongoURI, "mongo", "file"))
	return srv.ListenAndServe(ctx)
}

func (c *CLI) serveCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	switch {
	case opts.noCache:
		return cache.NewNullCache(), nil
	case opts.redisAddr != "":
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:   opts.redisAddr,
			DB:     opts.redisDB,
			Prefix: appName + ":",
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.Logger.Info("using redis cache", "addr", opts.redisAddr)
		return rc, nil
	}
	return newCache(false)
}

func (c *CLI) serveStore(ctx context.Context, opts serveOpts) (store.Store, error) {
	if opts.mongoURI != "" {
		ms, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:      opts.mongoURI,
			Database: opts.mongoDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		c.Logger.Info("using mongo project store", "database", opts.mongoDB)
		return ms, nil
	}
	fs, err := store.NewFileStore(opts.dataDir)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

func backendName(disabled bool, remote, remoteName, local string) string {
	switch {
	case disabled:
		return "disabled"
	case remote != "":
		return remoteName
	}
	return local
}
