package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/deskspin/config"
	"github.com/otherjamesbrown/deskspin/pkg/buildinfo"
)

// ServiceName identifies this binary in build info and events.
const ServiceName = "deskspin"

// NewVersionCommand creates the version command. It does not read the
// configuration, so it works without a config file or database.
func NewVersionCommand(deps *CommandDeps) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash and build time of the deskspin binary.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := config.OutputFormat(output)
			if output == "" {
				format = config.OutputFormatText
			}
			if !format.IsValid() {
				return fmt.Errorf("invalid output format %q (must be text, json, or yaml)", output)
			}

			info := buildinfo.Get(ServiceName)
			return writeOutput(deps.out(), format, info, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s %s\n", ServiceName, buildinfo.String())
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format: text, json, yaml")
	return cmd
}
