package cmd

import (
	"context"
	"fmt"
	"strings"

	"capstan/internal/app"
	"capstan/internal/config"

	"github.com/spf13/cobra"
)

type serveOptions struct {
	debug      bool
	yolo       bool
	configPath string
	transport  string
}

// newServeCmd creates the serve command, the main command of capstan.
func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the capstan MCP server",
		Long: `Starts the capstan MCP server and serves every tool, prompt and resource
in the catalog.

Configuration:
  capstan loads config.yaml from the config directory (default ~/.config/capstan).
  Extension manifests are read from <config dir>/extensions unless
  extensions.dir says otherwise, and are watched for changes when
  extensions.watch is set.

Dangerous tools are refused unless --yolo is given or server.yolo is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable general debug logging")
	cmd.Flags().BoolVar(&opts.yolo, "yolo", false, "Allow dangerous tools to run (use with caution)")
	cmd.Flags().StringVar(&opts.configPath, "config-path", "", "Configuration directory (default ~/.config/capstan)")
	cmd.Flags().StringVar(&opts.transport, "transport", "", fmt.Sprintf("Override server.transport (%s)", strings.Join(config.Transports(), "|")))

	_ = cmd.RegisterFlagCompletionFunc("transport", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return config.Transports(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, opts *serveOptions) error {
	cfg := app.NewConfig(opts.debug, opts.yolo, opts.configPath)
	cfg.Transport = opts.transport
	cfg.Version = GetVersion()

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

