package cmd

import (
	"fmt"

	"capstan/internal/formatting"

	"github.com/spf13/cobra"
)

type errorsOptions struct {
	inspectOptions
	failOnErrors bool
}

// newErrorsCmd creates the errors command.
func newErrorsCmd() *cobra.Command {
	opts := &errorsOptions{}

	cmd := &cobra.Command{
		Use:   "errors",
		Short: "Show registration errors of the catalog",
		Long: `Runs every registration pass and prints the errors collected on the way:
rejected contributors, reserved sources, invalid discovery paths, unreadable
extension manifests and declarative tool files the server would reject.`,
		Args: cobra.NoArgs,
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

			report := formatting.ErrorReport{
				Kinds:     application.Catalog().Errors(),
				Discovery: application.DiscoveryErrors(),
			}
			if err := formatter.FormatErrors(report); err != nil {
				return err
			}

			if opts.failOnErrors {
				if total := report.Total(); total > 0 {
					return fmt.Errorf("catalog has %d registration errors", total)
				}
			}
			return nil
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.failOnErrors, "fail", false, "Exit with an error when any registration error exists")
	return cmd
}
