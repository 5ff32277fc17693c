package app

import (
	"io"

	"capstan/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug bool

	// Safety settings
	Yolo bool

	// Transport overrides server.transport when set.
	Transport string

	// Directory holding config.yaml and, by default, the extensions
	// directory.
	ConfigPath string

	// Version is announced to protocol clients.
	Version string

	// LogOutput receives log lines. Defaults to stdout, or stderr when the
	// stdio transport owns stdout.
	LogOutput io.Writer

	// Loaded configuration. When set, ConfigPath is not read.
	CapstanConfig *config.CapstanConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug, yolo bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		Yolo:       yolo,
		ConfigPath: configPath,
	}
}
