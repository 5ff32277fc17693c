// Package server binds the capability catalog to an MCP server.
//
// Every tool, prompt, resource and resource template in the catalog is
// registered with mark3labs/mcp-go, together with the declarative tools
// found below the discovery paths contributors recorded. Handlers look the
// definition up again on every call, so a catalog reset takes effect even
// before the next Sync.
//
// A tool call is gated in this order:
//
//  1. the tool must still exist;
//  2. its condition, if any, must be met;
//  3. a dangerous tool needs yolo mode.
//
// Gate failures are reported to the client as error results rather than
// protocol errors.
//
// The server subscribes to catalog update events published through
// internal/api and rebinds whenever the catalog is reset. Three transports
// are available (stdio, sse and streamable-http), and an optional HTTP
// listener serves Prometheus metrics.
package server
