// Package formatting renders the capability catalog for the command line.
//
// Definitions, catalog summaries and registration errors can be written as
// plain console lines, go-pretty tables, JSON or YAML.
package formatting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"capstan/internal/capability"
	"capstan/internal/registry"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatConsole OutputFormat = "console" // Simple console output
	FormatJSON    OutputFormat = "json"    // JSON output
	FormatYAML    OutputFormat = "yaml"    // YAML output
	FormatTable   OutputFormat = "table"   // Rich table output
)

// ParseFormat accepts one of the output format names, case-insensitively.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatConsole, FormatJSON, FormatYAML, FormatTable:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected table, json, yaml or console)", s)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
	Color  bool // Enable colored output

	// Output defaults to os.Stdout.
	Output io.Writer
}

func (o Options) writer() io.Writer {
	if o.Output == nil {
		return os.Stdout
	}
	return o.Output
}

// ErrorReport holds the registration errors keyed by kind and the
// declarative tool files the discovery scan rejected.
type ErrorReport struct {
	Kinds     map[capability.Kind][]string
	Discovery []string
}

// Total counts every error in the report.
func (r ErrorReport) Total() int {
	total := len(r.Discovery)
	for _, list := range r.Kinds {
		total += len(list)
	}
	return total
}

// Formatter renders catalog data in one output format.
type Formatter interface {
	// FormatDefinitions writes the definitions of one kind.
	FormatDefinitions(kind capability.Kind, defs []*capability.Definition) error

	// FormatSummary writes the aggregated catalog summary.
	FormatSummary(summary registry.CatalogSummary) error

	// FormatErrors writes registration and discovery errors.
	FormatErrors(report ErrorReport) error

	// Generic data formatting
	FormatData(data interface{}) error

	// Configuration
	SetOptions(options Options)
	GetOptions() Options
}

// Factory creates formatters for different output formats
type Factory interface {
	CreateFormatter(options Options) Formatter
}

// NewFactory creates a new formatter factory
func NewFactory() Factory {
	return &factory{}
}

// factory implements the Factory interface
type factory struct{}

// CreateFormatter creates the appropriate formatter based on options
func (f *factory) CreateFormatter(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		return NewTableFormatter(options)
	case FormatConsole:
		fallthrough
	default:
		return NewConsoleFormatter(options)
	}
}
