package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"capstan/internal/config"
	"capstan/internal/registry"
	"capstan/pkg/logging"
)

// Application bootstraps capstan: it loads the configuration, wires the
// capability catalog and its contributors, and runs the server.
//
// Initialization happens in NewApplication; Run only starts the long-lived
// parts. The catalog is usable without Run, which is what the inspection
// commands rely on.
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance with the provided configuration.
//
//  1. Configures logging based on the debug flag
//  2. Loads the capstan configuration unless cfg.CapstanConfig is set
//  3. Applies command line overrides
//  4. Initializes all services and registers the API handlers
func NewApplication(cfg *Config) (*Application, error) {
	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}
	logging.InitForCLI(appLogLevel, logOutput(cfg, cfg.Transport))

	if cfg.CapstanConfig == nil {
		configPath := cfg.ConfigPath
		if configPath == "" {
			var err error
			configPath, err = config.GetDefaultConfigPath()
			if err != nil {
				return nil, err
			}
		}

		capstanCfg, err := config.LoadConfig(configPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load capstan configuration from path: %s", configPath)
			return nil, fmt.Errorf("failed to load capstan configuration from path %s: %w", configPath, err)
		}
		cfg.CapstanConfig = &capstanCfg
	}

	applyOverrides(cfg)
	if err := cfg.CapstanConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	configureLogging(cfg)

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Run starts the server and the manifest watcher and blocks until ctx is
// cancelled or the process is signalled.
func (a *Application) Run(ctx context.Context) error {
	return runServeMode(ctx, a.services)
}

// Catalog returns the capability catalog.
func (a *Application) Catalog() *registry.Catalog {
	return a.services.Catalog
}

// DiscoveryErrors returns the declarative tool files the server rejects.
func (a *Application) DiscoveryErrors() []string {
	return a.services.Server.ScanErrors()
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Close releases the resources NewApplication acquired without running.
func (a *Application) Close() {
	if a.services.Watcher != nil {
		if err := a.services.Watcher.Stop(); err != nil {
			logging.Warn("Bootstrap", "Failed to stop manifest watcher: %v", err)
		}
	}
}

func applyOverrides(cfg *Config) {
	if cfg.Yolo {
		cfg.CapstanConfig.Server.Yolo = true
	}
	if cfg.Transport != "" {
		cfg.CapstanConfig.Server.Transport = cfg.Transport
	}
}

// configureLogging replaces the bootstrap logger with the configured level
// and format. --debug always wins over the configured level.
func configureLogging(cfg *Config) {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	} else if cfg.CapstanConfig.Logging.Level != "" {
		parsed, err := logging.ParseLevel(cfg.CapstanConfig.Logging.Level)
		if err != nil {
			logging.Warn("Bootstrap", "Ignoring logging.level: %v", err)
		} else {
			level = parsed
		}
	}

	logging.Init(logging.Options{
		Level:  level,
		Format: cfg.CapstanConfig.Logging.Format,
		Output: logOutput(cfg, cfg.CapstanConfig.Server.Transport),
	})
}

// logOutput keeps stdout free for protocol traffic under the stdio
// transport.
func logOutput(cfg *Config, transport string) io.Writer {
	if cfg.LogOutput != nil {
		return cfg.LogOutput
	}
	if transport == config.MCPTransportStdio {
		return os.Stderr
	}
	return os.Stdout
}
