// Package cmd provides CLI commands for the deskspin tool.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/deskspin/config"
	"github.com/otherjamesbrown/deskspin/pkg/catalog"
	"github.com/otherjamesbrown/deskspin/pkg/db"
	"github.com/otherjamesbrown/deskspin/pkg/events"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
	"github.com/otherjamesbrown/deskspin/pkg/observability"
)

// EventPublisher announces catalog changes.
type EventPublisher interface {
	PublishCatalogImported(ctx context.Context, params events.CatalogImportedParams) error
	Close() error
}

// CommandDeps holds the collaborators shared by all commands. Tests replace
// the functions so no command needs Postgres or Redis.
type CommandDeps struct {
	// Out receives command output. Defaults to os.Stdout.
	Out io.Writer
	// Err receives progress and warnings. Defaults to os.Stderr.
	Err io.Writer

	LoadConfig   func() (*config.Config, error)
	NewLogger    func(*config.Config) logging.Logger
	ConnectToDB  func(context.Context, *config.Config) (*pgxpool.Pool, error)
	OpenStore    func(context.Context, *config.Config, logging.Logger, prometheus.Registerer) (catalog.Store, db.Pinger, func(), error)
	NewPublisher func(context.Context, *config.Config, logging.Logger) (EventPublisher, error)

	// Registry collects the metrics of this process and serves /metrics.
	Registry *prometheus.Registry

	metrics *observability.Metrics
}

// DefaultDeps returns the dependencies for production use.
func DefaultDeps() *CommandDeps {
	return &CommandDeps{
		Out:          os.Stdout,
		Err:          os.Stderr,
		LoadConfig:   config.LoadConfig,
		NewLogger:    newLogger,
		ConnectToDB:  connectToDatabase,
		OpenStore:    openPostgresStore,
		NewPublisher: newRedisPublisher,
		Registry:     prometheus.NewRegistry(),
	}
}

// Metrics returns the process metrics, registering them on first use.
func (d *CommandDeps) Metrics() *observability.Metrics {
	if d.metrics == nil {
		d.metrics = observability.NewMetrics(d.Registry)
	}
	return d.metrics
}

// setup loads the configuration and builds a logger for one command run.
func (d *CommandDeps) setup() (*config.Config, logging.Logger, error) {
	cfg, err := d.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	logger := d.NewLogger(cfg)
	logging.SetGlobal(logger)
	return cfg, logger, nil
}

func (d *CommandDeps) out() io.Writer {
	if d.Out == nil {
		return os.Stdout
	}
	return d.Out
}

func (d *CommandDeps) errOut() io.Writer {
	if d.Err == nil {
		return os.Stderr
	}
	return d.Err
}

func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(cfg.LoggingConfig())
}

// connectToDatabase establishes a database connection.
func connectToDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.Connect(ctx, cfg.DBConfig())
}

// openPostgresStore returns the Postgres catalog and a closer for its pool.
// Pool statistics are exported on reg when it is not nil.
func openPostgresStore(ctx context.Context, cfg *config.Config, logger logging.Logger, reg prometheus.Registerer) (catalog.Store, db.Pinger, func(), error) {
	pool, err := connectToDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if reg != nil {
		if _, err := db.RegisterPoolStatsCollector(reg, pool, "deskspin", "catalog"); err != nil {
			logger.Warn("Pool metrics not registered", logging.Err(err))
		}
	}
	repo := catalog.NewRepository(pool, logger)
	return repo, repo, pool.Close, nil
}

// openFileStore loads a catalog JSON file into memory.
func openFileStore(ctx context.Context, path string, categories []catalog.Category) (*catalog.MemoryStore, error) {
	products, err := catalog.ReadProductsFile(path)
	if err != nil {
		return nil, err
	}
	store := catalog.NewMemoryStore()
	if err := store.ReplaceAll(ctx, products, categories); err != nil {
		return nil, err
	}
	return store, nil
}

// openStore picks the in-memory store when catalogFile is set, Postgres otherwise.
func (d *CommandDeps) openStore(ctx context.Context, cfg *config.Config, logger logging.Logger, catalogFile string) (catalog.Store, db.Pinger, func(), error) {
	if catalogFile != "" {
		store, err := openFileStore(ctx, catalogFile, cfg.Categories())
		if err != nil {
			return nil, nil, nil, err
		}
		return store, nil, func() {}, nil
	}
	return d.OpenStore(ctx, cfg, logger, d.Registry)
}

// newRedisPublisher connects to Redis when it is configured. It returns a nil
// publisher when events are disabled.
func newRedisPublisher(ctx context.Context, cfg *config.Config, logger logging.Logger) (EventPublisher, error) {
	if !cfg.Redis.Enabled() {
		return nil, nil
	}
	client, err := events.NewClient(ctx, cfg.EventsConfig())
	if err != nil {
		return nil, err
	}
	return events.NewPublisher(client, cfg.Redis.EventsChannel, logger), nil
}

// resolveFormat returns flag when set, else the configured format.
func resolveFormat(cfg *config.Config, flag string) (config.OutputFormat, error) {
	format := cfg.OutputFormat
	if flag != "" {
		format = config.OutputFormat(flag)
	}
	if !format.IsValid() {
		return "", fmt.Errorf("invalid output format %q (must be text, json, or yaml)", format)
	}
	return format, nil
}

// writeOutput renders v as JSON or YAML, or calls text for the text format.
func writeOutput(w io.Writer, format config.OutputFormat, v interface{}, text func(io.Writer) error) error {
	switch format {
	case config.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return text(w)
	}
}

// truncate shortens s to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
