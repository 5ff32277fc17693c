package formatting

import (
	"fmt"
	"io"

	"capstan/internal/capability"
	"capstan/internal/registry"
	textutil "capstan/pkg/strings"
)

// ConsoleFormatter provides simple console output formatting
type ConsoleFormatter struct {
	options Options
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(options Options) Formatter {
	return &ConsoleFormatter{
		options: options,
	}
}

// FormatDefinitions writes one numbered line per definition.
func (f *ConsoleFormatter) FormatDefinitions(kind capability.Kind, defs []*capability.Definition) error {
	w := f.options.writer()
	if len(defs) == 0 {
		_, err := fmt.Fprintf(w, "No %s available.\n", kind.Plural())
		return err
	}

	if !f.options.Quiet {
		fmt.Fprintf(w, "Available %s (%d):\n", kind.Plural(), len(defs))
	}
	for i, def := range defs {
		id := def.Name()
		if kind == capability.KindResource {
			id = def.URI()
		}
		fmt.Fprintf(w, "  %d. %-30s [%s] - %s\n", i+1, id, def.Source(), textutil.SingleLine(def.Description()))
	}
	return nil
}

// FormatSummary writes one line per kind followed by the error total.
func (f *ConsoleFormatter) FormatSummary(summary registry.CatalogSummary) error {
	w := f.options.writer()
	for _, s := range []registry.Summary{summary.Tools, summary.Prompts, summary.Resources} {
		fmt.Fprintf(w, "%-10s %3d  sources: %s\n", s.Kind.Plural()+":", s.Total, countsOf(s.BySource))
	}
	_, err := fmt.Fprintf(w, "errors:    %3d\n", summary.TotalErrors)
	return err
}

// FormatErrors writes the errors grouped by kind, then the discovery errors.
func (f *ConsoleFormatter) FormatErrors(report ErrorReport) error {
	w := f.options.writer()
	for _, kind := range capability.Kinds() {
		if len(report.Kinds[kind]) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", kind.Plural())
		for _, msg := range report.Kinds[kind] {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}
	if len(report.Discovery) > 0 {
		fmt.Fprintf(w, "%s:\n", DiscoveryErrorsKey)
		for _, msg := range report.Discovery {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}
	if report.Total() == 0 {
		_, err := fmt.Fprintln(w, "No registration errors.")
		return err
	}
	return nil
}

// FormatData formats generic data (fallback to simple text representation)
func (f *ConsoleFormatter) FormatData(data interface{}) error {
	return printData(f.options.writer(), data)
}

// SetOptions updates the formatter options
func (f *ConsoleFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *ConsoleFormatter) GetOptions() Options {
	return f.options
}

func printData(w io.Writer, data interface{}) error {
	var err error
	switch d := data.(type) {
	case map[string]interface{}, []interface{}:
		_, err = fmt.Fprintln(w, PrettyJSON(d))
	case string:
		_, err = fmt.Fprintln(w, d)
	default:
		_, err = fmt.Fprintf(w, "%v\n", d)
	}
	return err
}
