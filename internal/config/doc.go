// Package config provides configuration management for capstan.
//
// Configuration is loaded from a single directory. The default directory is
// ~/.config/capstan; commands accept --config-path to point elsewhere.
//
// # Configuration Directory
//
//   - config.yaml (main configuration file, optional)
//   - extensions/ (extension manifests, unless extensions.dir says otherwise)
//
// # File Format
//
//	server:
//	  name: capstan
//	  transport: streamable-http   # stdio, sse or streamable-http
//	  host: localhost
//	  port: 8090
//	  yolo: false                  # allow dangerous capabilities
//	workspace:
//	  root: /srv/site
//	  backupDir: .capstan/backups
//	  backupsEnabled: true
//	extensions:
//	  dir: extensions
//	  watch: true
//	metrics:
//	  address: localhost:9090
//	logging:
//	  level: info
//	  format: text                 # or json
//
// Values absent from the file keep their defaults (see GetDefaultConfig).
// LoadConfig validates the result and reports every problem at once as
// ValidationErrors.
//
// # Definition File Errors
//
// Extension manifests and declarative tool files are loaded outside
// config.yaml. Problems with them are reported as ConfigurationError values
// carrying the file, category and a human-readable message.
package config
