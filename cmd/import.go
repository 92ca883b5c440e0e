package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/deskspin/config"
	"github.com/otherjamesbrown/deskspin/pkg/catalog"
	dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
	"github.com/otherjamesbrown/deskspin/pkg/events"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
	"github.com/otherjamesbrown/deskspin/pkg/observability"
)

type importOptions struct {
	in        string
	noPublish bool
	output    string
}

// ImportReport is the machine-readable result of deskspin import.
type ImportReport struct {
	RunID      string         `json:"run_id"`
	Products   int            `json:"products"`
	Dropped    int            `json:"dropped"`
	Categories map[string]int `json:"categories"`
	Published  bool           `json:"published"`
}

// NewImportCommand creates the import command.
func NewImportCommand(deps *CommandDeps) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the catalog store with a deduplicated catalog",
		Long: `Load a catalog file written by deskspin dedupe into the database.

Products outside the spin categories are dropped. The products table is
replaced in a single transaction and the spin categories are upserted. When
redis.addr is configured, a catalog.imported event is published so running
servers drop their cached pools.`,
		Example: `  deskspin import --in import.json
  deskspin import --in catalog.json --no-publish`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), deps, opts)
		},
	}

	cmd.Flags().StringVar(&opts.in, "in", "import.json", "Catalog file to import")
	cmd.Flags().BoolVar(&opts.noPublish, "no-publish", false, "Do not publish a catalog.imported event")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

func runImport(ctx context.Context, deps *CommandDeps, opts *importOptions) error {
	cfg, logger, err := deps.setup()
	if err != nil {
		return err
	}
	format, err := resolveFormat(cfg, opts.output)
	if err != nil {
		return err
	}

	products, err := catalog.ReadProductsFile(opts.in)
	if err != nil {
		return err
	}
	categories := cfg.Categories()
	filtered := catalog.FilterToCategories(products, categories)

	runID := uuid.New().String()
	ctx = context.WithValue(ctx, logging.RunIDKey, runID)
	logger = logger.WithContext(ctx)

	store, _, closeStore, err := deps.OpenStore(ctx, cfg, logger, deps.Registry)
	if err != nil {
		return err
	}
	defer closeStore()

	metrics := deps.Metrics()
	ctx, span := observability.NewTracer().StartImportSpan(ctx, len(filtered))
	defer span.End()
	h := observability.NewSpanHelper(span)

	start := time.Now()
	if err := store.ReplaceAll(ctx, filtered, categories); err != nil {
		ie := dserrors.ClassifyError(err, "import")
		h.SetError(err, string(ie.Code), dserrors.IsRetryable(ie.Code))
		metrics.RecordImport(observability.StatusFailed, nil)
		return fmt.Errorf("replacing catalog: %w", err)
	}
	perCategory := catalog.CountByCategory(filtered)
	metrics.RecordImport(observability.StatusOK, perCategory)
	h.SetCounts(len(products), len(filtered))
	h.SetSuccess()

	report := ImportReport{
		RunID:      runID,
		Products:   len(filtered),
		Dropped:    len(products) - len(filtered),
		Categories: perCategory,
	}

	if !opts.noPublish {
		report.Published = publishImported(ctx, deps, cfg, logger, events.CatalogImportedParams{
			RunID:      runID,
			Products:   len(filtered),
			Categories: perCategory,
			Duration:   time.Since(start),
		})
	}

	return writeOutput(deps.out(), format, report, func(w io.Writer) error {
		return printImportReport(w, report, categories)
	})
}

// publishImported sends the event when Redis is configured. Failures are
// logged; the import itself already succeeded.
func publishImported(ctx context.Context, deps *CommandDeps, cfg *config.Config, logger logging.Logger, params events.CatalogImportedParams) bool {
	pub, err := deps.NewPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Warn("Event bus unavailable, catalog.imported not published", logging.Err(err))
		return false
	}
	if pub == nil {
		return false
	}
	defer pub.Close()

	if err := pub.PublishCatalogImported(ctx, params); err != nil {
		logger.Warn("Publishing catalog.imported failed", logging.Err(err))
		return false
	}
	return true
}

func printImportReport(w io.Writer, r ImportReport, categories []catalog.Category) error {
	fmt.Fprintf(w, "Imported %d products", r.Products)
	if r.Dropped > 0 {
		fmt.Fprintf(w, " (%d outside the spin categories dropped)", r.Dropped)
	}
	fmt.Fprintln(w)

	sorted := append([]catalog.Category(nil), categories...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SlotPosition < sorted[j].SlotPosition })
	for _, c := range sorted {
		fmt.Fprintf(w, "  %-12s %d\n", c.DisplayName, r.Categories[c.Name])
	}
	if r.Published {
		fmt.Fprintln(w, "Published catalog.imported")
	}
	return nil
}
