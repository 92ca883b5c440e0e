package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/deskspin/pkg/events"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
	"github.com/otherjamesbrown/deskspin/pkg/observability"
	"github.com/otherjamesbrown/deskspin/pkg/server"
)

type serveOptions struct {
	addr        string
	catalogFile string
}

// NewServeCommand creates the serve command.
func NewServeCommand(deps *CommandDeps) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the spin HTTP API",
		Long: `Serve the spin selector and catalog over HTTP.

Endpoints:
  GET /api/spin?locked=keyboard:12,mouse:42
  GET /api/categories
  GET /api/categories/{name}/products
  GET /api/products/{id}
  GET /healthz, /version, /metrics

Category pools are cached for server.cache_ttl. When redis.addr is set the
server subscribes to catalog.imported events and drops the cache on import.`,
		Example: `  deskspin serve
  deskspin serve --addr :9090 --catalog catalog.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), deps, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&opts.catalogFile, "catalog", "", "Serve a catalog JSON file instead of the database")

	return cmd
}

func runServe(ctx context.Context, deps *CommandDeps, opts *serveOptions) error {
	cfg, logger, err := deps.setup()
	if err != nil {
		return err
	}

	store, pinger, closeStore, err := deps.openStore(ctx, cfg, logger, opts.catalogFile)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := deps.Registry
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srvCfg := cfg.ServerConfig()
	if opts.addr != "" {
		srvCfg.Addr = opts.addr
	}

	srv := server.New(srvCfg, store,
		server.WithPinger(pinger),
		server.WithMetrics(deps.Metrics(), reg),
		server.WithTracer(observability.NewTracer()),
		server.WithLogger(logger),
	)

	if cfg.Redis.Enabled() {
		client, err := events.NewClient(ctx, cfg.EventsConfig())
		if err != nil {
			logger.Warn("Event bus unavailable, cache flushes only by TTL", logging.Err(err))
		} else {
			defer client.Close()
			sub := events.NewSubscriber(client, cfg.Redis.EventsChannel, srv.OnCatalogImported, logger)
			go func() {
				if err := sub.Run(ctx); err != nil {
					logger.Error("Event subscriber stopped", logging.Err(err))
				}
			}()
		}
	}

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
