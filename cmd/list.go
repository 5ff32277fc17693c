package cmd

import (
	"fmt"
	"strings"

	"capstan/internal/capability"

	"github.com/spf13/cobra"
)

type listOptions struct {
	inspectOptions
	source   string
	category string
}

// newListCmd creates the list command.
func newListCmd() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list [tools|prompts|resources]",
		Short: "List the capabilities in the catalog",
		Long: `Lists the tools, prompts and resources the catalog holds, in registration
order. Without an argument every kind is listed.

Examples:
  capstan list
  capstan list tools --source core
  capstan list prompts --output json`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"tools", "prompts", "resources"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args, opts)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.source, "source", "", "Only show capabilities from this source (case-insensitive)")
	cmd.Flags().StringVar(&opts.category, "category", "", "Only show capabilities in this category")

	return cmd
}

func runList(cmd *cobra.Command, args []string, opts *listOptions) error {
	kinds := capability.Kinds()
	if len(args) == 1 {
		kind, err := capability.ParseKind(args[0])
		if err != nil {
			return err
		}
		kinds = []capability.Kind{kind}
	}

	formatter, err := opts.formatter(cmd)
	if err != nil {
		return err
	}

	application, err := opts.open(cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	catalog := application.Catalog()
	for _, kind := range kinds {
		defs := filterDefinitions(catalog.Registry(kind).Definitions(), opts.source, opts.category)
		if err := formatter.FormatDefinitions(kind, defs); err != nil {
			return err
		}
	}
	return nil
}

// filterDefinitions keeps definitions matching source (case-insensitive)
// and category. Empty filters match everything.
func filterDefinitions(defs []*capability.Definition, source, category string) []*capability.Definition {
	if source == "" && category == "" {
		return defs
	}
	out := make([]*capability.Definition, 0, len(defs))
	for _, def := range defs {
		if source != "" && !strings.EqualFold(def.Source(), source) {
			continue
		}
		if category != "" && def.Category() != category {
			continue
		}
		out = append(out, def)
	}
	return out
}
