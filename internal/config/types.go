package config

// CapstanConfig is the top-level configuration structure for capstan.
type CapstanConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Workspace  WorkspaceConfig  `yaml:"workspace"`
	Extensions ExtensionsConfig `yaml:"extensions"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

const (
	// MCPTransportStreamableHTTP is the streamable HTTP transport.
	MCPTransportStreamableHTTP = "streamable-http"
	// MCPTransportSSE is the Server-Sent Events transport.
	MCPTransportSSE = "sse"
	// MCPTransportStdio is the standard I/O transport.
	MCPTransportStdio = "stdio"
)

// Transports lists the supported server transports.
func Transports() []string {
	return []string{MCPTransportStreamableHTTP, MCPTransportSSE, MCPTransportStdio}
}

// ServerConfig defines how the capability server is exposed.
type ServerConfig struct {
	Name      string `yaml:"name,omitempty"`      // Server name announced to clients (default: capstan)
	Transport string `yaml:"transport,omitempty"` // Transport to use (default: streamable-http)
	Host      string `yaml:"host,omitempty"`      // Host to bind to (default: localhost)
	Port      int    `yaml:"port,omitempty"`      // Port for HTTP transports (default: 8090)
	Yolo      bool   `yaml:"yolo,omitempty"`      // Allow dangerous capabilities to run
}

// WorkspaceConfig locates the host workspace core contributors operate on.
type WorkspaceConfig struct {
	Root           string `yaml:"root,omitempty"`      // Workspace root (default: current directory)
	BackupDir      string `yaml:"backupDir,omitempty"` // Relative to root unless absolute
	BackupsEnabled bool   `yaml:"backupsEnabled"`
}

// ExtensionsConfig locates extension manifests.
type ExtensionsConfig struct {
	Dir   string `yaml:"dir,omitempty"` // Manifest directory (default: <config dir>/extensions)
	Watch bool   `yaml:"watch"`         // Reload the catalog when manifests change
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Address string `yaml:"address,omitempty"` // Listen address, empty disables the endpoint
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}
