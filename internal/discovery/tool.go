package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"capstan/internal/capability"
	"capstan/internal/config"
	"capstan/internal/template"

	"github.com/mark3labs/mcp-go/mcp"
)

// FilePattern selects declarative tool files below a discovery directory.
const FilePattern = "**/*.tool.yaml"

// ToolFile is a tool declared in YAML rather than contributed by a class.
//
//	name: release_notes
//	description: Render release notes for a version
//	category: content
//	params:
//	  - name: version
//	    required: true
//	  - name: tone
//	    default: friendly
//	response: |
//	  Release {{ .version }} ({{ .tone | title }})
type ToolFile struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Category    string      `yaml:"category,omitempty"`
	Dangerous   bool        `yaml:"dangerous,omitempty"`
	Params      []ToolParam `yaml:"params,omitempty"`

	// Response is a template string, or a map or list of them rendered into
	// a JSON result.
	Response any `yaml:"response"`
}

// ToolParam declares one argument of a declarative tool.
type ToolParam struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type,omitempty"`
	Description string `yaml:"description,omitempty"`
	Required    bool   `yaml:"required,omitempty"`
	Default     any    `yaml:"default,omitempty"`
	Completion  string `yaml:"completion,omitempty"`
}

var paramTypes = []string{"string", "number", "boolean", "object", "array"}

// Validate checks a tool file against engine.
func (f ToolFile) Validate(engine *template.Engine) error {
	var errs config.ValidationErrors

	var verr config.ValidationError
	if err := config.ValidateEntityName(f.Name, "tool"); errors.As(err, &verr) {
		errs.Add("name", verr.Message, f.Name)
	}
	if f.Response == nil {
		errs.Add("response", "is required")
	} else if err := engine.Validate(f.Response); err != nil {
		errs.Add("response", fmt.Sprintf("invalid template: %v", err))
	}

	seen := make(map[string]bool, len(f.Params))
	declared := make(map[string]any, len(f.Params))
	for i, p := range f.Params {
		field := fmt.Sprintf("params[%d]", i)
		if strings.TrimSpace(p.Name) == "" {
			errs.Add(field+".name", "is required")
			continue
		}
		if seen[p.Name] {
			errs.Add(field+".name", "is declared more than once", p.Name)
		}
		seen[p.Name] = true
		declared[p.Name] = nil
		if p.Type != "" {
			if err := config.ValidateOneOf(field+".type", p.Type, paramTypes); errors.As(err, &verr) {
				errs.Add(verr.Field, verr.Message, p.Type)
			}
		}
	}

	if f.Response != nil {
		if err := engine.ValidateContext(f.Response, declared); err != nil {
			errs.Add("response", err.Error())
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Tool is a loaded declarative tool.
type Tool struct {
	ToolFile

	// File is the path the tool was loaded from.
	File string
	// Source is the contributor that declared the discovery path.
	Source string

	engine *template.Engine
}

// Respond renders the response template with args. Declared parameters
// missing from args take their default, or nil.
func (t *Tool) Respond(_ context.Context, args map[string]any) (any, error) {
	defaults := make(map[string]any, len(t.Params))
	for _, p := range t.Params {
		if p.Required {
			if v, ok := args[p.Name]; !ok || v == nil || v == "" {
				return mcp.NewToolResultError(fmt.Sprintf("argument %q is required", p.Name)), nil
			}
		}
		defaults[p.Name] = p.Default
	}
	vars := template.MergeContexts(defaults, args)

	rendered, err := t.engine.Replace(t.Response, vars)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to render %s: %v", t.Name, err)), nil
	}

	if text, ok := rendered.(string); ok {
		return mcp.NewToolResultText(text), nil
	}
	data, err := json.MarshalIndent(rendered, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result of %s: %w", t.Name, err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Definition exposes the tool in the shape registry contributors produce,
// so the transport binds both the same way.
func (t *Tool) Definition() *capability.Definition {
	params := make([]capability.Param, len(t.Params))
	completions := make(map[string]string)
	for i, p := range t.Params {
		params[i] = capability.Param{
			Name:        p.Name,
			Type:        p.Type,
			Description: p.Description,
			Required:    p.Required,
			Completion:  p.Completion,
		}
		if p.Completion != "" {
			completions[p.Name] = p.Completion
		}
	}

	return capability.NewDefinition(capability.KindTool, capability.DefinitionFields{
		Name:                t.Name,
		Description:         t.Description,
		OwnerClass:          t.File,
		OwnerMethod:         "Respond",
		Source:              t.Source,
		Category:            t.Category,
		Dangerous:           t.Dangerous,
		CompletionProviders: completions,
		Params:              params,
		Handler:             capability.Method((*Tool).Respond),
		NewOwner:            func() (any, error) { return t, nil },
	})
}
