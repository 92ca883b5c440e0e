package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/deskspin/pkg/classify"
)

// ClassifyRule is the printable form of one classification rule.
type ClassifyRule struct {
	Order    int      `json:"order" yaml:"order"`
	Name     string   `json:"name" yaml:"name"`
	Category string   `json:"category" yaml:"category"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// ClassifyResult is the outcome of classifying one product name.
type ClassifyResult struct {
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
	Rule     string `json:"rule" yaml:"rule"`
}

// NewClassifyCommand creates the classify command with its subcommands.
func NewClassifyCommand(deps *CommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Inspect the product category rules",
		Long: `Inspect the keyword rules that assign a category to every product.

Rules are evaluated in order against the lowercased name and description; the
first match wins and products matching nothing become "accessory".`,
	}

	cmd.AddCommand(newClassifyRulesCommand(deps))
	cmd.AddCommand(newClassifyTestCommand(deps))

	return cmd
}

func newClassifyRulesCommand(deps *CommandDeps) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List classification rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := deps.setup()
			if err != nil {
				return err
			}
			format, err := resolveFormat(cfg, output)
			if err != nil {
				return err
			}

			rules := describeRules(classify.New(nil).Rules())
			return writeOutput(deps.out(), format, rules, func(w io.Writer) error {
				return printClassifyRules(w, rules)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format: text, json, yaml")
	return cmd
}

func newClassifyTestCommand(deps *CommandDeps) *cobra.Command {
	var (
		description string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "test <name>...",
		Short: "Classify product names",
		Example: `  deskspin classify test "Keychron Q1 Pro"
  deskspin classify test "Walnut riser" --description "monitor stand"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := deps.setup()
			if err != nil {
				return err
			}
			format, err := resolveFormat(cfg, output)
			if err != nil {
				return err
			}

			c := classify.New(nil)
			results := make([]ClassifyResult, 0, len(args))
			for _, name := range args {
				category, rule := c.Explain(name, description)
				results = append(results, ClassifyResult{Name: name, Category: category, Rule: rule})
			}
			return writeOutput(deps.out(), format, results, func(w io.Writer) error {
				for _, r := range results {
					fmt.Fprintf(w, "%-40s %-12s (rule: %s)\n", truncate(r.Name, 40), r.Category, r.Rule)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Description text matched along with each name")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format: text, json, yaml")
	return cmd
}

func describeRules(rules []classify.Rule) []ClassifyRule {
	out := make([]ClassifyRule, len(rules))
	for i, r := range rules {
		out[i] = ClassifyRule{Order: i + 1, Name: r.Name, Category: r.Category, Keywords: r.Keywords}
	}
	return out
}

func printClassifyRules(w io.Writer, rules []ClassifyRule) error {
	fmt.Fprintf(w, "%-3s %-16s %-12s %s\n", "#", "RULE", "CATEGORY", "KEYWORDS")
	for _, r := range rules {
		keywords := strings.Join(r.Keywords, ", ")
		if keywords == "" {
			keywords = "(custom match)"
		}
		fmt.Fprintf(w, "%-3d %-16s %-12s %s\n", r.Order, r.Name, r.Category, truncate(keywords, 60))
	}
	fmt.Fprintf(w, "\nUnmatched products become %q.\n", classify.DefaultCategory)
	return nil
}
