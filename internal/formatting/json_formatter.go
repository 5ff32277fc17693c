package formatting

import (
	"encoding/json"

	"capstan/internal/capability"
	"capstan/internal/registry"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// FormatDefinitions writes a ListView.
func (f *JSONFormatter) FormatDefinitions(kind capability.Kind, defs []*capability.Definition) error {
	return f.encode(listView(kind, defs))
}

func (f *JSONFormatter) FormatSummary(summary registry.CatalogSummary) error {
	return f.encode(summary)
}

// FormatErrors writes an object with one array per plural kind name and
// one for the discovery errors.
func (f *JSONFormatter) FormatErrors(report ErrorReport) error {
	return f.encode(errorsView(report))
}

// FormatData formats generic data as JSON
func (f *JSONFormatter) FormatData(data interface{}) error {
	return f.encode(data)
}

// SetOptions updates the formatter options
func (f *JSONFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *JSONFormatter) GetOptions() Options {
	return f.options
}

func (f *JSONFormatter) encode(v interface{}) error {
	enc := json.NewEncoder(f.options.writer())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
