package config

const (
	// DefaultServerName is announced to protocol clients.
	DefaultServerName = "capstan"

	// DefaultPort is used by the HTTP transports.
	DefaultPort = 8090

	// DefaultBackupDir is relative to the workspace root.
	DefaultBackupDir = ".capstan/backups"

	// extensionsDirName is resolved against the config directory.
	extensionsDirName = "extensions"
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() CapstanConfig {
	return CapstanConfig{
		Server: ServerConfig{
			Name:      DefaultServerName,
			Transport: MCPTransportStreamableHTTP,
			Host:      "localhost",
			Port:      DefaultPort,
		},
		Workspace: WorkspaceConfig{
			Root:           ".",
			BackupDir:      DefaultBackupDir,
			BackupsEnabled: true,
		},
		Extensions: ExtensionsConfig{
			Watch: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
