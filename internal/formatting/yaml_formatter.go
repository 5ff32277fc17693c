package formatting

import (
	"capstan/internal/capability"
	"capstan/internal/registry"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

func (f *YAMLFormatter) FormatDefinitions(kind capability.Kind, defs []*capability.Definition) error {
	return f.encode(listView(kind, defs))
}

func (f *YAMLFormatter) FormatSummary(summary registry.CatalogSummary) error {
	return f.encode(summary)
}

func (f *YAMLFormatter) FormatErrors(report ErrorReport) error {
	return f.encode(errorsView(report))
}

// FormatData formats generic data as YAML
func (f *YAMLFormatter) FormatData(data interface{}) error {
	return f.encode(data)
}

// SetOptions updates the formatter options
func (f *YAMLFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *YAMLFormatter) GetOptions() Options {
	return f.options
}

func (f *YAMLFormatter) encode(v interface{}) error {
	enc := yaml.NewEncoder(f.options.writer())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
