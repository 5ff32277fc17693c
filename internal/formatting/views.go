package formatting

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"capstan/internal/api"
	"capstan/internal/capability"
)

// DefinitionView is the serializable form of a capability definition.
type DefinitionView struct {
	Kind        capability.Kind `json:"kind" yaml:"kind"`
	Name        string          `json:"name" yaml:"name"`
	URI         string          `json:"uri,omitempty" yaml:"uri,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Source      string          `json:"source" yaml:"source"`
	Category    string          `json:"category" yaml:"category"`
	Owner       string          `json:"owner" yaml:"owner"`
	Dangerous   bool            `json:"dangerous,omitempty" yaml:"dangerous,omitempty"`
	Template    bool            `json:"template,omitempty" yaml:"template,omitempty"`
	MIMEType    string          `json:"mimeType,omitempty" yaml:"mimeType,omitempty"`
	Condition   string          `json:"condition,omitempty" yaml:"condition,omitempty"`
	Params      []ParamView     `json:"params,omitempty" yaml:"params,omitempty"`
}

// ParamView is the serializable form of a parameter declaration.
type ParamView struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Completion  string `json:"completion,omitempty" yaml:"completion,omitempty"`
}

// ListView wraps the definitions of one kind with their count.
type ListView struct {
	Kind  capability.Kind  `json:"kind" yaml:"kind"`
	Count int              `json:"count" yaml:"count"`
	Items []DefinitionView `json:"items" yaml:"items"`
}

// ViewOf converts a definition to its serializable form.
func ViewOf(def *capability.Definition) DefinitionView {
	view := DefinitionView{
		Kind:        def.Kind(),
		Name:        def.Name(),
		URI:         def.URI(),
		Description: def.Description(),
		Source:      def.Source(),
		Category:    def.Category(),
		Owner:       def.OwnerClass() + "." + def.OwnerMethod(),
		Dangerous:   def.Dangerous(),
		Template:    def.Template(),
		MIMEType:    def.MIMEType(),
		Condition:   def.Condition().Method(),
	}
	for _, p := range def.Params() {
		view.Params = append(view.Params, ParamView{
			Name:        p.Name,
			Type:        p.Type,
			Description: p.Description,
			Required:    p.Required,
			Completion:  p.Completion,
		})
	}
	return view
}

func listView(kind capability.Kind, defs []*capability.Definition) ListView {
	items := make([]DefinitionView, 0, len(defs))
	for _, def := range defs {
		items = append(items, ViewOf(def))
	}
	return ListView{Kind: kind, Count: len(items), Items: items}
}

// DiscoveryErrorsKey names the declarative tool scan errors next to the
// per-kind registration errors.
const DiscoveryErrorsKey = api.DiscoveryErrorsKey

// errorsView keys registration errors by the plural kind name. Every kind is
// present so consumers can rely on the keys.
func errorsView(report ErrorReport) map[string][]string {
	out := make(map[string][]string, len(capability.Kinds())+1)
	for _, kind := range capability.Kinds() {
		list := report.Kinds[kind]
		if list == nil {
			list = []string{}
		}
		out[kind.Plural()] = list
	}
	out[DiscoveryErrorsKey] = append([]string{}, report.Discovery...)
	return out
}

// flags summarizes the boolean traits of a definition in a short column.
func flags(def *capability.Definition) string {
	var out []string
	if def.Dangerous() {
		out = append(out, "dangerous")
	}
	if def.HasCondition() {
		out = append(out, "if:"+def.Condition().Method())
	}
	if def.Template() {
		out = append(out, "template")
	}
	if def.HasCompletions() {
		out = append(out, "completions")
	}
	return joinOrDash(out)
}

// countsOf renders a count map as "a=1, b=2" in key order.
func countsOf(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	return joinOrDash(parts)
}

func joinOrDash(parts []string) string {
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

// PrettyJSON formats any value as indented JSON for human-readable display.
// It falls back to fmt's %v representation when marshaling fails.
func PrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
