package cmd

import (
	"io"

	"capstan/internal/app"
	"capstan/internal/formatting"

	"github.com/spf13/cobra"
)

// inspectOptions are shared by the commands that inspect the catalog
// without starting the server.
type inspectOptions struct {
	debug      bool
	configPath string
	output     string
	quiet      bool
}

func (o *inspectOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.debug, "debug", false, "Log bootstrap and registration details to stderr")
	cmd.Flags().StringVar(&o.configPath, "config-path", "", "Configuration directory (default ~/.config/capstan)")
	cmd.Flags().StringVarP(&o.output, "output", "o", string(formatting.FormatTable), "Output format (table|json|yaml|console)")
	cmd.Flags().BoolVarP(&o.quiet, "quiet", "q", false, "Suppress totals and headings")

	_ = cmd.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "yaml", "console"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// open bootstraps an application that is never run. Logs are dropped
// unless --debug is set.
func (o *inspectOptions) open(cmd *cobra.Command) (*app.Application, error) {
	cfg := app.NewConfig(o.debug, false, o.configPath)
	cfg.Version = GetVersion()
	cfg.LogOutput = io.Discard
	if o.debug {
		cfg.LogOutput = cmd.ErrOrStderr()
	}
	return app.NewApplication(cfg)
}

func (o *inspectOptions) formatter(cmd *cobra.Command) (formatting.Formatter, error) {
	format, err := formatting.ParseFormat(o.output)
	if err != nil {
		return nil, err
	}
	return formatting.NewFactory().CreateFormatter(formatting.Options{
		Format: format,
		Quiet:  o.quiet,
		Color:  false,
		Output: cmd.OutOrStdout(),
	}), nil
}
