package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/deskspin/config"
	"github.com/otherjamesbrown/deskspin/pkg/catalog"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
	"github.com/otherjamesbrown/deskspin/pkg/observability"
	"github.com/otherjamesbrown/deskspin/pkg/source"
)

type fetchOptions struct {
	refsFile string
	dir      string
	out      string
	limit    int
	delay    time.Duration
	output   string
}

// FetchReport is the machine-readable result of deskspin fetch.
type FetchReport struct {
	Requested  int      `json:"requested"`
	Fetched    int      `json:"fetched"`
	Failed     int      `json:"failed"`
	Mentions   int      `json:"mentions"`
	OutputFile string   `json:"output_file"`
	Failures   []string `json:"failures,omitempty"`
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(deps *CommandDeps) *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch [ref...]",
		Short: "Collect product mentions from workspace pages",
		Long: `Fetch workspace documents one at a time and aggregate their products into
mentions (count, workspaces, often-used-with partners).

References are URLs or bare workspace ids, given as arguments or in a file
with one reference per line. Bare ids are resolved against scraper.base_url.
With --dir, workspaces are read from <dir>/<id>.json instead of HTTP.

Requests are paced by scraper.delay (default 1s). A failed workspace is
reported and skipped; the run stops early only when the source is down.`,
		Example: `  deskspin fetch --file refs.txt --out data/mentions.json
  deskspin fetch ab12 cd34 --limit 2
  deskspin fetch --dir ./testdata/workspaces --file refs.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), deps, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.refsFile, "file", "f", "", "File with one workspace reference per line")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Read workspace JSON documents from this directory")
	cmd.Flags().StringVar(&opts.out, "out", "mentions.json", "Where to write the aggregated mentions")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Fetch at most this many workspaces (0 = all)")
	cmd.Flags().DurationVar(&opts.delay, "delay", 0, "Minimum delay between fetches (default from config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

func runFetch(ctx context.Context, deps *CommandDeps, opts *fetchOptions, args []string) error {
	cfg, logger, err := deps.setup()
	if err != nil {
		return err
	}
	format, err := resolveFormat(cfg, opts.output)
	if err != nil {
		return err
	}

	refs := append([]string(nil), args...)
	if opts.refsFile != "" {
		fileRefs, err := readRefsFile(opts.refsFile)
		if err != nil {
			return err
		}
		refs = append(refs, fileRefs...)
	}
	if len(refs) == 0 {
		return fmt.Errorf("no workspace references given (pass refs as arguments or --file)")
	}

	colCfg := cfg.CollectorConfig()
	if opts.limit > 0 {
		colCfg.Limit = opts.limit
	}
	if opts.delay > 0 {
		colCfg.Delay = opts.delay
	}

	collector := source.NewCollector(newSource(cfg, opts.dir, logger), colCfg,
		source.WithMetrics(deps.Metrics()),
		source.WithTracer(observability.NewTracer()),
		source.WithLogger(logger),
	)

	col, collectErr := collector.Collect(ctx, refs)
	if col == nil {
		return fmt.Errorf("collecting: %w", collectErr)
	}

	if len(col.Mentions) > 0 || collectErr == nil {
		if err := catalog.WriteJSONFile(opts.out, mentionsOrEmpty(col.Mentions)); err != nil {
			return fmt.Errorf("writing mentions: %w", err)
		}
	}

	report := FetchReport{
		Requested:  col.Progress.Total,
		Fetched:    col.Progress.Fetched,
		Failed:     col.Progress.Failed,
		Mentions:   len(col.Mentions),
		OutputFile: opts.out,
	}
	for _, f := range col.Failures {
		report.Failures = append(report.Failures, f.Error())
	}

	if err := writeOutput(deps.out(), format, report, func(w io.Writer) error {
		return printFetchReport(w, report)
	}); err != nil {
		return err
	}

	if collectErr != nil {
		return fmt.Errorf("collecting: %w", collectErr)
	}
	return nil
}

func newSource(cfg *config.Config, dir string, logger logging.Logger) source.Source {
	if dir != "" {
		return source.NewFileSource(dir)
	}
	return source.NewHTTPSource(cfg.HTTPSourceConfig(), nil, logger)
}

func readRefsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening refs file: %w", err)
	}
	defer f.Close()
	refs, err := source.ReadRefs(f)
	if err != nil {
		return nil, fmt.Errorf("reading refs file: %w", err)
	}
	return refs, nil
}

func mentionsOrEmpty(m []catalog.Mention) []catalog.Mention {
	if m == nil {
		return []catalog.Mention{}
	}
	return m
}

func printFetchReport(w io.Writer, r FetchReport) error {
	fmt.Fprintf(w, "Fetched %d/%d workspaces (%d failed)\n", r.Fetched, r.Requested, r.Failed)
	fmt.Fprintf(w, "Aggregated %d products into %s\n", r.Mentions, r.OutputFile)
	if len(r.Failures) > 0 {
		fmt.Fprintln(w, "\nFailures:")
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}
	return nil
}
