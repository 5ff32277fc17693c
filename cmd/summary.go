package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newSummaryCmd creates the summary command.
func newSummaryCmd() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize the catalog per capability kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := opts.formatter(cmd)
			if err != nil {
				return err
			}

			application, err := opts.open(cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer application.Close()

			return formatter.FormatSummary(application.Catalog().Summary())
		},
	}

	opts.addFlags(cmd)
	return cmd
}
