package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/deskspin/migrations"
	"github.com/otherjamesbrown/deskspin/pkg/db"
)

type dbMigrateOptions struct {
	dryRun bool
	yes    bool
}

type dbStatusOptions struct {
	output string
}

// migrationsFS is replaced in tests.
var migrationsFS fs.FS = migrations.FS

// NewDbCommand creates the root db command with all subcommands.
func NewDbCommand(deps *CommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Manage the catalog schema.

Migrations are compiled into the binary and applied in filename order. Applied
versions are tracked in the schema_migrations table. The connection is taken
from DATABASE_URL, DESKSPIN_DB_* or the database section of the config file.`,
		Aliases: []string{"database", "migrations"},
	}

	cmd.AddCommand(newDbMigrateCommand(deps))
	cmd.AddCommand(newDbStatusCommand(deps))

	return cmd
}

func newDbMigrateCommand(deps *CommandDeps) *cobra.Command {
	opts := &dbMigrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply pending database migrations.

Pending migrations are listed first and applied after confirmation. Each
migration runs in its own transaction; the run stops at the first failure.`,
		Example: `  deskspin db migrate
  deskspin db migrate --dry-run
  deskspin db migrate --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDbMigrate(cmd.Context(), deps, opts, cmd.InOrStdin())
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Show what would be applied without executing")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Apply without asking for confirmation")

	return cmd
}

func newDbStatusCommand(deps *CommandDeps) *cobra.Command {
	opts := &dbStatusOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database migration status",
		Long: `Show applied and pending migrations.

Drift lists versions recorded in schema_migrations whose files are no longer
part of the binary.`,
		Example: `  deskspin db status
  deskspin db status --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDbStatus(cmd.Context(), deps, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

func runDbMigrate(ctx context.Context, deps *CommandDeps, opts *dbMigrateOptions, in io.Reader) error {
	cfg, _, err := deps.setup()
	if err != nil {
		return err
	}
	w := deps.out()

	pool, err := deps.ConnectToDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	status, err := db.GetMigrationStatus(ctx, pool, migrationsFS)
	if err != nil {
		return fmt.Errorf("getting migration status: %w", err)
	}

	if len(status.Pending) == 0 {
		fmt.Fprintln(w, "No pending migrations.")
		return nil
	}

	fmt.Fprintf(w, "Pending migrations (%d):\n", len(status.Pending))
	for _, m := range status.Pending {
		fmt.Fprintf(w, "  %s - %s\n", m.Version, m.Name)
	}
	fmt.Fprintln(w)

	if opts.dryRun {
		fmt.Fprintln(w, "Dry run mode: no migrations applied.")
		return nil
	}

	if !opts.yes && !confirm(w, in, "Apply these migrations? (y/N): ") {
		fmt.Fprintln(w, "Migration cancelled.")
		return nil
	}

	result, err := db.RunMigrations(ctx, pool, migrationsFS)
	if err != nil {
		fmt.Fprintf(w, "\n\033[31mMigration failed:\033[0m %v\n", err)
		if result != nil && len(result.Applied) > 0 {
			fmt.Fprintln(w, "\nApplied before failure:")
			for _, v := range result.Applied {
				fmt.Fprintf(w, "  \033[32m✓\033[0m %s\n", v)
			}
		}
		return err
	}

	fmt.Fprintf(w, "\033[32mApplied %d migration(s):\033[0m\n", len(result.Applied))
	for _, v := range result.Applied {
		fmt.Fprintf(w, "  \033[32m✓\033[0m %s\n", v)
	}
	return nil
}

// confirm prints prompt and reports whether the next line of in is "y" or "yes".
func confirm(w io.Writer, in io.Reader, prompt string) bool {
	fmt.Fprint(w, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func runDbStatus(ctx context.Context, deps *CommandDeps, opts *dbStatusOptions) error {
	cfg, _, err := deps.setup()
	if err != nil {
		return err
	}
	format, err := resolveFormat(cfg, opts.output)
	if err != nil {
		return err
	}

	pool, err := deps.ConnectToDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	status, err := db.GetMigrationStatus(ctx, pool, migrationsFS)
	if err != nil {
		return fmt.Errorf("getting migration status: %w", err)
	}

	return writeOutput(deps.out(), format, status, func(w io.Writer) error {
		return printMigrationStatus(w, status)
	})
}

func printMigrationStatus(w io.Writer, status *db.MigrationStatus) error {
	section := func(title string, entries []db.MigrationStatusEntry, withTime bool) {
		if len(entries) == 0 {
			return
		}
		fmt.Fprintf(w, "%s (%d):\n", title, len(entries))
		for _, m := range entries {
			if !withTime {
				fmt.Fprintf(w, "  %-8s %s\n", m.Version, m.Name)
				continue
			}
			appliedAt := "-"
			if m.AppliedAt != nil {
				appliedAt = m.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "  %-8s %-33s %s\n", m.Version, truncate(m.Name, 33), appliedAt)
		}
		fmt.Fprintln(w)
	}

	section("\033[32mApplied\033[0m", status.Applied, true)
	section("\033[33mPending\033[0m", status.Pending, false)
	section("\033[31mDrift\033[0m (applied but file missing)", status.Drift, true)

	if len(status.Applied) == 0 && len(status.Pending) == 0 && len(status.Drift) == 0 {
		fmt.Fprintln(w, "No migrations found.")
		return nil
	}

	fmt.Fprintf(w, "Summary: %d applied, %d pending", len(status.Applied), len(status.Pending))
	if len(status.Drift) > 0 {
		fmt.Fprintf(w, ", %d drift", len(status.Drift))
	}
	fmt.Fprintln(w)
	return nil
}
