package formatting

import (
	"fmt"
	"sort"

	"capstan/internal/capability"
	"capstan/internal/registry"
	textutil "capstan/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter provides rich table output using go-pretty
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatDefinitions renders one row per definition. Resources are keyed by
// URI, the other kinds by name.
func (f *TableFormatter) FormatDefinitions(kind capability.Kind, defs []*capability.Definition) error {
	if len(defs) == 0 {
		f.formatEmptyMessage("📋", fmt.Sprintf("No %s found", kind.Plural()))
		return nil
	}

	t := f.createTable()
	if kind == capability.KindResource {
		t.AppendHeader(f.header("URI", "NAME", "SOURCE", "MIME", "FLAGS", "DESCRIPTION"))
		for _, def := range defs {
			t.AppendRow(table.Row{
				f.paint(text.FgHiCyan, def.URI()),
				def.Name(),
				def.Source(),
				orDash(def.MIMEType()),
				flags(def),
				textutil.Summarize(def.Description(), textutil.DescriptionWidth),
			})
		}
	} else {
		t.AppendHeader(f.header("NAME", "SOURCE", "CATEGORY", "FLAGS", "DESCRIPTION"))
		for _, def := range defs {
			name := def.Name()
			if def.Dangerous() {
				name = f.paint(text.FgHiRed, name)
			} else {
				name = f.paint(text.FgHiCyan, name)
			}
			t.AppendRow(table.Row{
				name,
				def.Source(),
				def.Category(),
				flags(def),
				textutil.Summarize(def.Description(), textutil.DescriptionWidth),
			})
		}
	}
	t.Render()

	f.formatTotal(len(defs), kind.Plural())
	return nil
}

// FormatSummary renders one row per kind.
func (f *TableFormatter) FormatSummary(summary registry.CatalogSummary) error {
	t := f.createTable()
	t.AppendHeader(f.header("KIND", "TOTAL", "SOURCES", "CATEGORIES", "DANGEROUS", "TEMPLATES", "COMPLETIONS", "ERRORS"))
	for _, s := range []registry.Summary{summary.Tools, summary.Prompts, summary.Resources} {
		errCount := fmt.Sprint(s.Errors)
		if s.Errors > 0 {
			errCount = f.paint(text.FgHiRed, errCount)
		}
		t.AppendRow(table.Row{
			s.Kind.Plural(),
			s.Total,
			countsOf(s.BySource),
			countsOf(s.ByCategory),
			s.Dangerous,
			s.Templates,
			s.WithCompletions,
			errCount,
		})
	}
	t.Render()
	return nil
}

// FormatErrors renders one row per error.
func (f *TableFormatter) FormatErrors(report ErrorReport) error {
	total := report.Total()
	if total == 0 {
		fmt.Fprintf(f.options.writer(), "%s %s\n", f.paint(text.FgGreen, "✓"), f.paint(text.FgGreen, "No registration errors"))
		return nil
	}

	t := f.createTable()
	t.AppendHeader(f.header("KIND", "ERROR"))
	for _, kind := range capability.Kinds() {
		for _, msg := range report.Kinds[kind] {
			t.AppendRow(table.Row{kind.Plural(), msg})
		}
	}
	for _, msg := range report.Discovery {
		t.AppendRow(table.Row{DiscoveryErrorsKey, msg})
	}
	t.Render()

	f.formatTotal(total, "errors")
	return nil
}

// FormatData formats generic data using table logic
func (f *TableFormatter) FormatData(data interface{}) error {
	switch d := data.(type) {
	case map[string]interface{}:
		return f.formatObjectData(d)
	case []interface{}:
		return f.formatArrayData(d)
	default:
		return printData(f.options.writer(), d)
	}
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

// Helper methods

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.options.writer())
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(names ...string) table.Row {
	row := make(table.Row, len(names))
	for i, name := range names {
		row[i] = f.paint(text.FgHiCyan, name)
	}
	return row
}

// paint colors s when colored output is enabled.
func (f *TableFormatter) paint(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(icon, message string) {
	fmt.Fprintf(f.options.writer(), "%s %s\n", f.paint(text.FgYellow, icon), f.paint(text.FgYellow, message))
}

func (f *TableFormatter) formatTotal(n int, noun string) {
	if f.options.Quiet {
		return
	}
	fmt.Fprintf(f.options.writer(), "\n%s %s %s\n",
		f.paint(text.FgHiBlue, "Total:"),
		f.paint(text.FgHiWhite, fmt.Sprint(n)),
		f.paint(text.FgHiBlue, noun))
}

// formatObjectData formats object data as key-value pairs
func (f *TableFormatter) formatObjectData(data map[string]interface{}) error {
	t := f.createTable()
	t.AppendHeader(f.header("KEY", "VALUE"))

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		t.AppendRow(table.Row{key, textutil.Truncate(fmt.Sprintf("%v", data[key]), 100)})
	}

	t.Render()
	return nil
}

// formatArrayData formats array data as a simple numbered list
func (f *TableFormatter) formatArrayData(data []interface{}) error {
	if len(data) == 0 {
		f.formatEmptyMessage("📋", "No items found")
		return nil
	}

	w := f.options.writer()
	for i, item := range data {
		fmt.Fprintf(w, "  %d. %v\n", i+1, item)
	}
	f.formatTotal(len(data), "items")
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
