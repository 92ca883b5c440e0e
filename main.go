// Package main provides the deskspin CLI entry point.
// deskspin builds a catalog of desk products from workspace write-ups and
// draws random desk setups from it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/deskspin/cmd"
	"github.com/otherjamesbrown/deskspin/config"
)

// rootFlags holds the persistent flags shared by every command.
type rootFlags struct {
	configFile   string
	outputFormat string
	logLevel     string
}

// newRootCommand wires every command onto a root that shares deps.
func newRootCommand(deps *cmd.CommandDeps) *cobra.Command {
	flags := &rootFlags{}
	load := deps.LoadConfig
	deps.LoadConfig = func() (*config.Config, error) {
		return loadWithFlags(load, flags)
	}

	root := &cobra.Command{
		Use:   "deskspin",
		Short: "Desk setup catalog and spinner",
		Long: `deskspin turns workspace write-ups into a catalog of desk products and
draws random desk setups from it.

PIPELINE:
  deskspin fetch --dir workspaces/     Collect mentions from workspace documents
  deskspin dedupe --in mentions.json   Canonicalize, merge and classify products
  deskspin import --in catalog.json    Replace the database catalog

USING THE CATALOG:
  deskspin spin --locked keyboard:12   Draw one setup
  deskspin serve                       Serve the spin API over HTTP

Commands support --output json|yaml for machine-readable results.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is ~/.deskspin/config.yaml)")
	root.PersistentFlags().StringVar(&flags.outputFormat, "output", "", "default output format: text, json, yaml")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddGroup(
		&cobra.Group{ID: "pipeline", Title: "Pipeline Commands:"},
		&cobra.Group{ID: "catalog", Title: "Catalog Commands:"},
		&cobra.Group{ID: "setup", Title: "Setup Commands:"},
	)

	add := func(group string, cmds ...*cobra.Command) {
		for _, c := range cmds {
			c.GroupID = group
			root.AddCommand(c)
		}
	}
	add("pipeline",
		cmd.NewFetchCommand(deps),
		cmd.NewDedupeCommand(deps),
		cmd.NewImportCommand(deps),
		cmd.NewClassifyCommand(deps),
	)
	add("catalog",
		cmd.NewSpinCommand(deps),
		cmd.NewServeCommand(deps),
	)
	add("setup",
		cmd.NewDbCommand(deps),
		cmd.NewConfigCommand(deps),
		cmd.NewVersionCommand(deps),
	)

	return root
}

// loadWithFlags loads the configuration and applies the persistent flags.
func loadWithFlags(load func() (*config.Config, error), flags *rootFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configFile != "" {
		cfg, err = config.LoadConfigFrom(flags.configFile, true)
	} else {
		cfg, err = load()
	}
	if err != nil {
		return nil, err
	}

	if flags.outputFormat != "" {
		format := config.OutputFormat(flags.outputFormat)
		if !format.IsValid() {
			return nil, fmt.Errorf("invalid output format %q (must be text, json, or yaml)", flags.outputFormat)
		}
		cfg.OutputFormat = format
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(cmd.DefaultDeps()).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
