package cmd

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/deskspin/config"
)

const maskedSecret = "********"

// NewConfigCommand creates the config command with show, init and path.
func NewConfigCommand(deps *CommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `View and create the deskspin configuration file.

Settings are read from ~/.deskspin/config.yaml (or $DESKSPIN_CONFIG_DIR) and
then overridden by DESKSPIN_* environment variables and DATABASE_URL.`,
	}

	cmd.AddCommand(newConfigShowCommand(deps))
	cmd.AddCommand(newConfigInitCommand(deps))
	cmd.AddCommand(newConfigPathCommand(deps))

	return cmd
}

func newConfigShowCommand(deps *CommandDeps) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  `Print the configuration after file and environment overrides. Passwords are masked.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			masked := maskSecrets(cfg)

			if output == "" {
				// The configuration reads best as the YAML it is written in.
				output = string(config.OutputFormatYAML)
			}
			format, err := resolveFormat(cfg, output)
			if err != nil {
				return err
			}
			return writeOutput(deps.out(), format, masked, func(w io.Writer) error {
				enc := yaml.NewEncoder(w)
				defer enc.Close()
				return enc.Encode(masked)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format: text, json, yaml")
	return cmd
}

func newConfigInitCommand(deps *CommandDeps) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := deps.out()
			path, err := config.ConfigPath()
			if err != nil {
				return fmt.Errorf("getting config path: %w", err)
			}

			if _, err := os.Stat(path); err == nil && !force {
				fmt.Fprintf(w, "Configuration file already exists: %s\n", path)
				fmt.Fprintln(w, "Use --force to overwrite it.")
				return nil
			}

			if err := config.SaveConfig(config.DefaultConfig()); err != nil {
				return fmt.Errorf("saving configuration: %w", err)
			}
			fmt.Fprintf(w, "Created configuration file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
	return cmd
}

func newConfigPathCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(deps.out(), path)
			return nil
		},
	}
}

// maskSecrets returns a copy of cfg with passwords hidden, including one
// embedded in the database URL.
func maskSecrets(cfg *config.Config) *config.Config {
	masked := *cfg
	if masked.Database.Password != "" {
		masked.Database.Password = maskedSecret
	}
	if masked.Redis.Password != "" {
		masked.Redis.Password = maskedSecret
	}
	if masked.Database.URL != "" {
		if u, err := url.Parse(masked.Database.URL); err == nil && u.User != nil {
			if _, ok := u.User.Password(); ok {
				u.User = url.UserPassword(u.User.Username(), maskedSecret)
				masked.Database.URL = u.Redacted()
			}
		}
	}
	return &masked
}
