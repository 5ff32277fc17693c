// Package logging provides subsystem-tagged structured logging for capstan.
//
// The package is a thin layer over Go's slog. Every entry carries a
// "subsystem" attribute so output from the registration engine, the MCP
// transport and the extension watcher can be told apart and filtered.
//
// # Usage
//
//	logging.Init(logging.Options{Level: logging.LevelInfo, Format: logging.FormatJSON})
//
//	logging.Info("Registry", "Registration pass for %s finished", kind)
//	logging.Warn("Extensions", "Skipping manifest %s", path)
//	logging.Error("Server", err, "Failed to bind tool %s", name)
//
// # Output
//
// Output defaults to stderr. When the MCP server runs on the stdio transport
// stdout carries protocol frames, so nothing in capstan logs to stdout in
// that mode.
//
// Calls made before Init are dropped.
package logging
