// Package app provides application bootstrap and lifecycle management for
// capstan.
//
// # Bootstrap
//
// NewApplication runs the whole initialization sequence:
//
//  1. Logging is initialized from the --debug flag, then reconfigured from
//     the logging section once the configuration is loaded. Under the stdio
//     transport logs go to stderr.
//  2. config.yaml is loaded from the config directory (default
//     ~/.config/capstan), defaults first.
//  3. Command line overrides (--yolo, --transport) are applied and the
//     result is validated.
//  4. InitializeServices wires the services.
//
// # Services
//
// InitializeServices creates, in order:
//
//   - the host workspace, registered with the api layer;
//   - the contributor class table and completion providers of the bundled
//     contributors;
//   - a Prometheus registry with the registry pass metrics;
//   - the capability catalog with the bundled core refs, the git companion
//     and the manifest extension;
//   - the catalog API adapter, registered with the api layer;
//   - the manifest watcher, when extensions.watch is set;
//   - the protocol server.
//
// Bundled contributors resolve the workspace and the catalog through the
// api layer, so both are registered before anything can construct one.
//
// # Running
//
// Run starts the watcher and the server and blocks until the context is
// cancelled or SIGINT/SIGTERM arrives. A manifest change resets the catalog
// through the API adapter, which publishes a catalog update; the server
// rebinds on that event.
//
// The inspection commands (list, summary, errors) use the catalog of an
// Application that is never run.
package app
