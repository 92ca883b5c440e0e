package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/deskspin/pkg/catalog"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
	"github.com/otherjamesbrown/deskspin/pkg/observability"
	"github.com/otherjamesbrown/deskspin/pkg/pipeline"
)

type dedupeOptions struct {
	in                  string
	out                 string
	importOut           string
	rebuildCooccurrence bool
	keepCategory        bool
	top                 int
	output              string
}

// DedupeReport is the machine-readable result of deskspin dedupe.
type DedupeReport struct {
	RunID      string           `json:"run_id"`
	Input      int              `json:"input"`
	Skipped    int              `json:"skipped"`
	Merged     int              `json:"merged"`
	Unique     int              `json:"unique"`
	Imported   int              `json:"imported"`
	CatalogOut string           `json:"catalog_file"`
	ImportOut  string           `json:"import_file"`
	Summary    pipeline.Summary `json:"summary"`
}

// NewDedupeCommand creates the dedupe command.
func NewDedupeCommand(deps *CommandDeps) *cobra.Command {
	opts := &dedupeOptions{}

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Merge raw mentions into a clean catalog",
		Long: `Canonicalize product names and brands, merge spellings of the same product,
classify every product, and write two files:

  catalog   every merged product, most mentioned first
  import    the products that belong to a spin category

Non-products (plants, mugs, ...) are dropped. A summary of the top products,
brand distribution and remaining unknown brands is printed.`,
		Example: `  deskspin dedupe --in data/mentions.json
  deskspin dedupe --in data/mentions.json --rebuild-cooccurrence --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDedupe(cmd.Context(), deps, opts)
		},
	}

	cmd.Flags().StringVar(&opts.in, "in", "mentions.json", "Mentions file written by deskspin fetch")
	cmd.Flags().StringVar(&opts.out, "out", "catalog.json", "Where to write the full catalog")
	cmd.Flags().StringVar(&opts.importOut, "import-out", "import.json", "Where to write the import subset")
	cmd.Flags().BoolVar(&opts.rebuildCooccurrence, "rebuild-cooccurrence", false, "Recompute often-used-with from merged workspaces")
	cmd.Flags().BoolVar(&opts.keepCategory, "keep-category", false, "Only classify products without a category")
	cmd.Flags().IntVar(&opts.top, "top", 0, "Number of products and brands in the summary (default from config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

func runDedupe(ctx context.Context, deps *CommandDeps, opts *dedupeOptions) error {
	cfg, logger, err := deps.setup()
	if err != nil {
		return err
	}
	format, err := resolveFormat(cfg, opts.output)
	if err != nil {
		return err
	}

	mentions, err := catalog.ReadMentionsFile(opts.in)
	if err != nil {
		return err
	}

	pcfg := cfg.PipelineConfig()
	if opts.rebuildCooccurrence {
		pcfg.RebuildCooccurrence = true
	}
	if opts.keepCategory {
		pcfg.KeepUpstreamCategory = true
	}
	if opts.top > 0 {
		pcfg.TopN = opts.top
	}

	p := pipeline.New(pcfg,
		pipeline.WithMetrics(deps.Metrics()),
		pipeline.WithTracer(observability.NewTracer()),
		pipeline.WithLogger(logger),
	)
	res, err := p.Run(ctx, mentions)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}

	if err := catalog.WriteJSONFile(opts.out, res.Catalog); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	if err := catalog.WriteJSONFile(opts.importOut, res.Import); err != nil {
		return fmt.Errorf("writing import subset: %w", err)
	}
	logger.Info("Catalog written",
		logging.F("run_id", res.RunID),
		logging.F("catalog", opts.out),
		logging.F("import", opts.importOut))

	report := DedupeReport{
		RunID:      res.RunID,
		Input:      res.Stats.Input,
		Skipped:    res.Stats.Skipped,
		Merged:     res.Stats.Merged,
		Unique:     res.Stats.Unique,
		Imported:   len(res.Import),
		CatalogOut: opts.out,
		ImportOut:  opts.importOut,
		Summary:    res.Summary,
	}
	return writeOutput(deps.out(), format, report, func(w io.Writer) error {
		return printDedupeReport(w, report)
	})
}

func printDedupeReport(w io.Writer, r DedupeReport) error {
	fmt.Fprintf(w, "Mentions: %d in, %d skipped, %d merged, %d unique products\n",
		r.Input, r.Skipped, r.Merged, r.Unique)
	fmt.Fprintf(w, "Wrote %s (%d) and %s (%d)\n\n", r.CatalogOut, r.Unique, r.ImportOut, r.Imported)

	s := r.Summary
	if len(s.Top) > 0 {
		fmt.Fprintf(w, "Top %d products:\n", len(s.Top))
		for i, p := range s.Top {
			fmt.Fprintf(w, "  %2d. %-40s %-14s %-10s %d\n", i+1, truncate(p.Name, 40), truncate(p.Brand, 14), p.Category, p.Count)
		}
		fmt.Fprintln(w)
	}

	if len(s.Brands) > 0 {
		fmt.Fprintln(w, "Brands:")
		for _, b := range s.Brands {
			fmt.Fprintf(w, "  %-20s %d\n", b.Brand, b.Products)
		}
		fmt.Fprintln(w)
	}

	if s.UnknownTotal > 0 {
		fmt.Fprintf(w, "Unknown brand (%d): %s", s.UnknownTotal, strings.Join(s.Unknown, ", "))
		if s.UnknownTotal > len(s.Unknown) {
			fmt.Fprintf(w, ", ... and %d more", s.UnknownTotal-len(s.Unknown))
		}
		fmt.Fprint(w, "\n\n")
	}

	fmt.Fprintln(w, "Import by category:")
	if len(s.Imported) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, c := range s.Imported {
		fmt.Fprintf(w, "  %-12s %d\n", c.Category, c.Products)
	}
	return nil
}
