package cmd

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/deskspin/pkg/catalog"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
	"github.com/otherjamesbrown/deskspin/pkg/observability"
	"github.com/otherjamesbrown/deskspin/pkg/spin"
)

type spinOptions struct {
	locked      string
	catalogFile string
	seed        uint64
	output      string
}

// SpinSlot is one row of a spin result.
type SpinSlot struct {
	Category string           `json:"category" yaml:"category"`
	Display  string           `json:"display_name" yaml:"display_name"`
	Locked   bool             `json:"locked" yaml:"locked"`
	Product  *catalog.Product `json:"product,omitempty" yaml:"product,omitempty"`
}

// SpinReport is the machine-readable result of deskspin spin.
type SpinReport struct {
	Slots   []SpinSlot `json:"slots" yaml:"slots"`
	Locked  string     `json:"locked,omitempty" yaml:"locked,omitempty"`
	Ignored []string   `json:"ignored_locks,omitempty" yaml:"ignored_locks,omitempty"`
}

// NewSpinCommand creates the spin command.
func NewSpinCommand(deps *CommandDeps) *cobra.Command {
	opts := &spinOptions{}

	cmd := &cobra.Command{
		Use:   "spin",
		Short: "Draw a random desk setup",
		Long: `Pick one product per spin category, weighted by how many workspaces use it.

Locked slots keep their product as long as the id exists and belongs to that
category. Malformed lock pairs are reported and ignored. Categories without
products are left empty.

By default products are read from the database; --catalog reads a catalog
file written by deskspin dedupe instead.`,
		Example: `  deskspin spin
  deskspin spin --locked keyboard:12,mouse:42
  deskspin spin --catalog catalog.json --seed 7 --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpin(cmd.Context(), deps, opts)
		},
	}

	cmd.Flags().StringVar(&opts.locked, "locked", "", "Pinned products as category:id pairs, comma separated")
	cmd.Flags().StringVar(&opts.catalogFile, "catalog", "", "Spin over a catalog JSON file instead of the database")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Seed for a reproducible spin (0 = random)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

func runSpin(ctx context.Context, deps *CommandDeps, opts *spinOptions) error {
	cfg, logger, err := deps.setup()
	if err != nil {
		return err
	}
	format, err := resolveFormat(cfg, opts.output)
	if err != nil {
		return err
	}

	locks, ignored := spin.ParseLocksReport(opts.locked)
	for _, ie := range ignored {
		logger.Warn("Ignoring lock", logging.F("pair", ie.Item), logging.Err(ie.Cause))
	}

	store, _, closeStore, err := deps.openStore(ctx, cfg, logger, opts.catalogFile)
	if err != nil {
		return err
	}
	defer closeStore()

	selOpts := []spin.Option{
		spin.WithMetrics(deps.Metrics()),
		spin.WithTracer(observability.NewTracer()),
		spin.WithLogger(logger),
	}
	if opts.seed != 0 {
		selOpts = append(selOpts, spin.WithRand(rand.New(rand.NewPCG(opts.seed, opts.seed)).Float64))
	}

	categories, result, err := spin.NewSelector(store, selOpts...).SpinAll(ctx, locks)
	if err != nil {
		return fmt.Errorf("spinning: %w", err)
	}

	report := SpinReport{Locked: spin.FormatLocks(locks, categories)}
	for _, c := range categories {
		p := result[c.Name]
		id, pinned := locks[c.Name]
		report.Slots = append(report.Slots, SpinSlot{
			Category: c.Name,
			Display:  c.DisplayName,
			Locked:   pinned && p != nil && p.ID == id,
			Product:  p,
		})
	}
	for _, ie := range ignored {
		report.Ignored = append(report.Ignored, ie.Item)
	}

	return writeOutput(deps.out(), format, report, func(w io.Writer) error {
		return printSpinReport(w, report)
	})
}

func printSpinReport(w io.Writer, r SpinReport) error {
	for _, s := range r.Slots {
		marker := " "
		if s.Locked {
			marker = "*"
		}
		if s.Product == nil {
			fmt.Fprintf(w, "%s %-10s  (no products)\n", marker, s.Display)
			continue
		}
		fmt.Fprintf(w, "%s %-10s  #%-5d %s (%s, used by %d)\n",
			marker, s.Display, s.Product.ID, s.Product.Name, s.Product.Brand, s.Product.Count)
	}
	if r.Locked != "" {
		fmt.Fprintf(w, "\nLocked: %s\n", r.Locked)
	}
	if len(r.Ignored) > 0 {
		fmt.Fprintf(w, "Ignored locks: %s\n", strings.Join(r.Ignored, ", "))
	}
	return nil
}
