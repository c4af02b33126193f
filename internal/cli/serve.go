package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pageflowhq/pageflow/internal/api"
	"github.com/pageflowhq/pageflow/pkg/cache"
	"github.com/pageflowhq/pageflow/pkg/pipeline"
	"github.com/pageflowhq/pageflow/pkg/source"
	"github.com/pageflowhq/pageflow/pkg/store"
)

// defaultServeAddr is the listen address when neither flag, env, nor config
// provide one.
const defaultServeAddr = ":8080"

// serveCommand creates the serve command exposing the pipeline over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		eventsFile string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the journey pipeline as an HTTP API",
		Long: `Serve the journey pipeline as an HTTP API.

The server accepts event batches (or queries a configured ClickHouse
warehouse), runs the full aggregate/build/layout pipeline, and returns graph
and layout documents as JSON. Snapshots can be saved and recalled through the
same API.

Configuration comes from flags, then environment variables (a .env file in
the working directory is loaded if present), then the config file:

  PAGEFLOW_ADDR                listen address
  PAGEFLOW_CLICKHOUSE_ADDR     event warehouse (host:port)
  PAGEFLOW_CLICKHOUSE_DATABASE, PAGEFLOW_CLICKHOUSE_USERNAME,
  PAGEFLOW_CLICKHOUSE_PASSWORD, PAGEFLOW_CLICKHOUSE_TABLE
  PAGEFLOW_REDIS_URL           shared result cache
  PAGEFLOW_MONGO_URI           snapshot store`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, eventsFile, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&eventsFile, "events", "", "serve events from a JSON file instead of ClickHouse")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")

	return cmd
}

// runServe wires up the cache, source, and store, then runs the HTTP server
// until the context is cancelled.
func (c *CLI) runServe(ctx context.Context, addr, eventsFile string, noCache bool) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		c.Logger.Warnf("Ignoring .env: %v", err)
	}
	cfg := c.loadConfig()

	if addr == "" {
		addr = firstNonEmpty(os.Getenv("PAGEFLOW_ADDR"), cfg.Serve.Addr, defaultServeAddr)
	}

	resultCache, err := c.newServeCache(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(resultCache, nil, c.Logger)
	defer runner.Close()

	src, err := c.newServeSource(ctx, cfg, eventsFile)
	if err != nil {
		return err
	}
	if src != nil {
		defer src.Close()
	}

	st, err := c.newServeStore(ctx, cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close(context.Background())
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(runner, src, st, c.Logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Infof("Listening on %s", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		c.Logger.Info("Server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

// newServeCache prefers Redis when configured so multiple instances share
// results; otherwise it falls back to the local file cache.
func (c *CLI) newServeCache(ctx context.Context, cfg *Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if url := firstNonEmpty(os.Getenv("PAGEFLOW_REDIS_URL"), cfg.Cache.RedisURL); url != "" {
		rc, err := cache.NewRedisCache(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.Logger.Debug("Using redis cache")
		return rc, nil
	}
	return newCache(false)
}

// newServeSource returns the event source, or nil when only inline events
// are accepted.
func (c *CLI) newServeSource(ctx context.Context, cfg *Config, eventsFile string) (source.Source, error) {
	if eventsFile != "" {
		return source.NewFileSource(eventsFile), nil
	}
	chAddr := firstNonEmpty(os.Getenv("PAGEFLOW_CLICKHOUSE_ADDR"), cfg.ClickHouse.Addr)
	if chAddr == "" {
		c.Logger.Warn("No event source configured; only inline event batches will be served")
		return nil, nil
	}
	src, err := source.NewClickHouseSource(ctx, source.ClickHouseConfig{
		Addr:     chAddr,
		Database: firstNonEmpty(os.Getenv("PAGEFLOW_CLICKHOUSE_DATABASE"), cfg.ClickHouse.Database),
		Username: firstNonEmpty(os.Getenv("PAGEFLOW_CLICKHOUSE_USERNAME"), cfg.ClickHouse.Username),
		Password: firstNonEmpty(os.Getenv("PAGEFLOW_CLICKHOUSE_PASSWORD"), cfg.ClickHouse.Password),
		Table:    firstNonEmpty(os.Getenv("PAGEFLOW_CLICKHOUSE_TABLE"), cfg.ClickHouse.Table),
	})
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse: %w", err)
	}
	return src, nil
}

// newServeStore returns the snapshot store, or nil when snapshots are
// disabled.
func (c *CLI) newServeStore(ctx context.Context, cfg *Config) (store.Store, error) {
	uri := firstNonEmpty(os.Getenv("PAGEFLOW_MONGO_URI"), cfg.Store.MongoURI)
	if uri == "" {
		c.Logger.Warn("No snapshot store configured; snapshot endpoints disabled")
		return nil, nil
	}
	st, err := store.NewMongoStore(ctx, uri,
		firstNonEmpty(os.Getenv("PAGEFLOW_MONGO_DATABASE"), cfg.Store.Database),
		firstNonEmpty(os.Getenv("PAGEFLOW_MONGO_COLLECTION"), cfg.Store.Collection))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return st, nil
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
